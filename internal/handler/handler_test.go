package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/salon-booking/internal/middleware"
	"github.com/iliyamo/salon-booking/internal/model"
	"github.com/iliyamo/salon-booking/internal/repository"
	"github.com/iliyamo/salon-booking/internal/service"
	"github.com/iliyamo/salon-booking/internal/utils"
)

type stubChecker struct{ kind, value string }

func (s *stubChecker) Check(_ context.Context, kind, value string) service.CheckResult {
	s.kind, s.value = kind, value
	return service.CheckResult{Available: value != "taken", Message: "checked"}
}

type stubOwners struct {
	in  service.RegisterOwnerInput
	err error
}

func (s *stubOwners) Register(_ context.Context, in service.RegisterOwnerInput) (*service.RegisterOwnerResult, error) {
	s.in = in
	if s.err != nil {
		return nil, s.err
	}
	return &service.RegisterOwnerResult{IdentityID: "id-1", OrganizationID: "org-1"}, nil
}

type stubStaff struct {
	bearer string
	in     service.InviteStaffInput
	err    error
}

func (s *stubStaff) Invite(_ context.Context, bearer string, in service.InviteStaffInput) (*model.Identity, error) {
	s.bearer, s.in = bearer, in
	if s.err != nil {
		return nil, s.err
	}
	return &model.Identity{ID: "staff-1", Email: in.Email, Role: in.Role, OrganizationID: "org-1"}, nil
}

func post(e *echo.Echo, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func provisioning(checker *stubChecker, owners *stubOwners, staff *stubStaff) *echo.Echo {
	h := NewProvisioningHandler(checker, owners, staff)
	e := echo.New()
	e.POST("/check", h.CheckDuplicate)
	e.POST("/register", h.RegisterOwner)
	e.POST("/invite", h.InviteStaff)
	return e
}

func TestCheckDuplicate(t *testing.T) {
	checker := &stubChecker{}
	e := provisioning(checker, &stubOwners{}, &stubStaff{})

	rec := post(e, "/check", `{"type":"organizationName","value":"taken"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"available":false,"message":"checked"}`, rec.Body.String())
	assert.Equal(t, "organizationName", checker.kind)

	rec = post(e, "/check", `{not json`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["available"])
}

func TestRegisterOwner(t *testing.T) {
	owners := &stubOwners{}
	e := provisioning(&stubChecker{}, owners, &stubStaff{})

	rec := post(e, "/register", `{"email":"owner1@example.com","password":"secret1","name":"Kim",
		"organizationName":"HairStudio_1","phone":"+821012345678","industryNames":["HAIR"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "org-1", body["organizationId"])
	assert.Equal(t, map[string]any{"id": "id-1"}, body["user"])
	assert.NotEmpty(t, body["message"])
	assert.Equal(t, []string{"HAIR"}, owners.in.IndustryNames)
	assert.Equal(t, "HairStudio_1", owners.in.OrganizationName)

	owners.err = service.ErrOrganizationNameTaken
	rec = post(e, "/register", `{"organizationName":"HairStudio_1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.ErrOrganizationNameTaken.Error(), decode(t, rec)["error"])
}

func TestInviteStaff(t *testing.T) {
	staff := &stubStaff{}
	e := provisioning(&stubChecker{}, &stubOwners{}, staff)

	rec := post(e, "/invite", `{"email":"s@example.com","role":"STAFF","name":"Lee",
		"permissions":{"bookings":{"view":true}},"redirectTo":"https://app/accept"}`,
		echo.HeaderAuthorization, "Bearer tok-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok-1", staff.bearer)
	assert.Equal(t, "https://app/accept", staff.in.RedirectTo)
	assert.Contains(t, staff.in.Permissions, "bookings")
	user := decode(t, rec)["user"].(map[string]any)
	assert.Equal(t, "staff-1", user["id"])

	staff.err = &service.AuthError{Message: "already registered", Code: service.CodeEmailExists}
	rec = post(e, "/invite", `{"email":"s@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"already registered","code":"email_exists"}`, rec.Body.String())

	staff.err = service.ErrInviterOrganizationNotFound
	rec = post(e, "/invite", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"could not find organization for inviter"}`, rec.Body.String())
}

type stubAuth struct {
	err       error
	signedOut string
}

func (s *stubAuth) session() *service.Session {
	return &service.Session{
		Identity: &model.Identity{ID: "u1", Email: "a@b.kr", Role: model.RoleOwner},
		Access:   utils.AccessToken{Token: "acc", Exp: time.Now().Add(time.Hour)},
		Refresh:  utils.RefreshToken{Raw: "ref", Exp: time.Now().Add(24 * time.Hour)},
	}
}

func (s *stubAuth) SignIn(context.Context, string, string) (*service.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.session(), nil
}

func (s *stubAuth) Refresh(context.Context, string) (*service.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.session(), nil
}

func (s *stubAuth) SignOut(_ context.Context, id, raw string) error {
	s.signedOut = id + "|" + raw
	return s.err
}

func (s *stubAuth) AcceptInvitation(context.Context, string, string) (*service.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.session(), nil
}

func TestAuthEndpoints(t *testing.T) {
	auth := &stubAuth{}
	h := NewAuthHandler(auth)
	e := echo.New()
	e.POST("/login", h.Login)
	e.POST("/refresh", h.Refresh)
	e.POST("/accept", h.AcceptInvitation)
	e.POST("/logout", h.Logout, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.CtxIdentityID, "u1")
			return next(c)
		}
	})

	rec := post(e, "/login", `{"email":"a@b.kr","password":"pw1234"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "acc", body["access"].(map[string]any)["token"])
	assert.Equal(t, "ref", body["refresh"].(map[string]any)["token"])

	assert.Equal(t, http.StatusBadRequest, post(e, "/login", `{"email":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(e, "/refresh", `{}`).Code)
	assert.Equal(t, http.StatusOK, post(e, "/refresh", `{"refresh_token":"ref"}`).Code)
	assert.Equal(t, http.StatusOK, post(e, "/accept", `{"token":"t","password":"pw1234"}`).Code)

	rec = post(e, "/logout", `{}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u1|", auth.signedOut)

	auth.err = service.ErrInvalidCredentials
	assert.Equal(t, http.StatusUnauthorized, post(e, "/login", `{"email":"a@b.kr","password":"bad"}`).Code)

	auth.err = service.ErrInvitationInvalid
	assert.Equal(t, http.StatusBadRequest, post(e, "/accept", `{"token":"t","password":"pw1234"}`).Code)

	auth.err = &service.AuthError{Message: "password too short", Code: service.CodeWeakPassword}
	rec = post(e, "/accept", `{"token":"t","password":"x"}`)
	assert.JSONEq(t, `{"error":"password too short","code":"weak_password"}`, rec.Body.String())

	auth.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, post(e, "/refresh", `{"refresh_token":"ref"}`).Code)
}

type stubIdentities struct {
	byID    map[string]*model.Identity
	members []*model.Identity
}

func (s stubIdentities) GetByID(_ context.Context, id string) (*model.Identity, error) {
	if i, ok := s.byID[id]; ok {
		return i, nil
	}
	return nil, repository.ErrNotFound
}

func (s stubIdentities) ListByOrganization(_ context.Context, org string) ([]*model.Identity, error) {
	return s.members, nil
}

type stubPerms map[string]*model.PermissionProfile

func (s stubPerms) Get(_ context.Context, id string) (*model.PermissionProfile, error) {
	if p, ok := s[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func TestAccountEndpoints(t *testing.T) {
	owner := &model.Identity{ID: "u1", Email: "o@b.kr", Role: model.RoleOwner, OrganizationID: "org-1", IsActive: true}
	staff := &model.Identity{ID: "u2", Email: "s@b.kr", Role: model.RoleStaff, OrganizationID: "org-1"}
	h := NewAccountHandler(
		stubIdentities{byID: map[string]*model.Identity{"u1": owner}, members: []*model.Identity{owner, staff}},
		stubPerms{"u1": {IdentityID: "u1", OrganizationID: "org-1", Permissions: model.FullAccess()}},
	)
	as := func(id, org string) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				c.Set(middleware.CtxIdentityID, id)
				c.Set(middleware.CtxOrganizationID, org)
				return next(c)
			}
		}
	}
	e := echo.New()
	e.GET("/me", h.Me, as("u1", "org-1"))
	e.GET("/ghost", h.Me, as("nope", ""))
	e.GET("/perms", h.MyPermissions, as("u1", "org-1"))
	e.GET("/noperms", h.MyPermissions, as("u2", "org-1"))
	e.GET("/members", h.Members, as("u1", "org-1"))
	e.GET("/orphan", h.Members, as("u3", ""))

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/me")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "org-1", decode(t, rec)["organization_id"])
	assert.Equal(t, http.StatusNotFound, get("/ghost").Code)

	rec = get("/perms")
	require.Equal(t, http.StatusOK, rec.Code)
	perms := decode(t, rec)["permissions"].(map[string]any)
	assert.Equal(t, map[string]any{"view": true, "create": false, "edit": false, "delete": false}, perms["financials"])
	assert.Equal(t, http.StatusNotFound, get("/noperms").Code)

	rec = get("/members")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["members"], 2)
	assert.Equal(t, http.StatusForbidden, get("/orphan").Code)
}

type stubIndustries []model.Industry

func (s stubIndustries) List(context.Context) ([]model.Industry, error) { return s, nil }

type pinger struct{ err error }

func (p pinger) Health(context.Context) error { return p.err }

func TestCatalogAndHealth(t *testing.T) {
	e := echo.New()
	e.GET("/industries", Industries(stubIndustries{{ID: 1, Name: "HAIR"}, {ID: 2, Name: "NAIL"}}))
	e.GET("/healthz", Health)
	e.GET("/readyz", Ready(pinger{}))
	e.GET("/readyz-down", Ready(pinger{err: errors.New("down")}))

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}
	rec := get("/industries")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"industries":[{"id":1,"name":"HAIR"},{"id":2,"name":"NAIL"}]}`, rec.Body.String())
	assert.Equal(t, "ok", get("/healthz").Body.String())
	assert.Equal(t, http.StatusOK, get("/readyz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get("/readyz-down").Code)
}
