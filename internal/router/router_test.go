package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/salon-booking/internal/handler"
	"github.com/iliyamo/salon-booking/internal/middleware"
	"github.com/iliyamo/salon-booking/internal/model"
	"github.com/iliyamo/salon-booking/internal/repository"
	"github.com/iliyamo/salon-booking/internal/service"
	"github.com/iliyamo/salon-booking/internal/utils"
)

type checker struct{}

func (checker) Check(context.Context, string, string) service.CheckResult {
	return service.CheckResult{Available: true, Message: "available"}
}

type nobody struct{}

func (nobody) GetByID(context.Context, string) (*model.Identity, error) {
	return nil, repository.ErrNotFound
}

func (nobody) ListByOrganization(context.Context, string) ([]*model.Identity, error) {
	return []*model.Identity{}, nil
}

func (nobody) Get(_ context.Context, id string) (*model.PermissionProfile, error) {
	if id == "viewer" {
		return &model.PermissionProfile{IdentityID: id, OrganizationID: "org-1", Permissions: model.FullAccess()}, nil
	}
	return &model.PermissionProfile{IdentityID: id, OrganizationID: "org-1", Permissions: model.NoAccess()}, nil
}

func (nobody) List(context.Context) ([]model.Industry, error) {
	return []model.Industry{{ID: 1, Name: "HAIR"}}, nil
}

func (nobody) Health(context.Context) error { return nil }

func newTestServer() *echo.Echo {
	var n nobody
	return New(Deps{
		JWTSecret:    "s",
		Provisioning: handler.NewProvisioningHandler(checker{}, nil, nil),
		Auth:         handler.NewAuthHandler(nil),
		Account:      handler.NewAccountHandler(n, n),
		Industries:   n,
		Perms:        n,
		DB:           n,
	}, middleware.CORS(nil))
}

func do(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(`{"type":"email","value":"a@b.kr"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, id string) string {
	tok, err := utils.NewAccessToken("s", id, model.RoleStaff, "org-1", 5)
	assert.NoError(t, err)
	return tok.Token
}

func TestPreflightOnProvisioningRoutes(t *testing.T) {
	e := newTestServer()
	for _, p := range []string{"check-duplicate", "register-owner", "invite-staff"} {
		rec := do(e, http.MethodOptions, "/v1/provisioning/"+p, "")
		assert.Equal(t, http.StatusOK, rec.Code, p)
		assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	}
}

func TestRoutes(t *testing.T) {
	e := newTestServer()

	rec := do(e, http.MethodPost, "/v1/provisioning/check-duplicate", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"available":true,"message":"available"}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/readyz", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/v1/industries", "").Code)

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/v1/me", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/v1/me", token(t, "u1")).Code)

	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/v1/organization/members", token(t, "u1")).Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/v1/organization/members", token(t, "viewer")).Code)
}
