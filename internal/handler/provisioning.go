package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/salon-booking/internal/middleware"
	"github.com/iliyamo/salon-booking/internal/model"
	"github.com/iliyamo/salon-booking/internal/service"
)

type DuplicateChecker interface {
	Check(ctx context.Context, kind, value string) service.CheckResult
}

type OwnerRegistrar interface {
	Register(ctx context.Context, in service.RegisterOwnerInput) (*service.RegisterOwnerResult, error)
}

type StaffInviter interface {
	Invite(ctx context.Context, bearer string, in service.InviteStaffInput) (*model.Identity, error)
}

// ProvisioningHandler serves the three tenant provisioning endpoints.
type ProvisioningHandler struct {
	Checker DuplicateChecker
	Owners  OwnerRegistrar
	Staff   StaffInviter
}

func NewProvisioningHandler(checker DuplicateChecker, owners OwnerRegistrar, staff StaffInviter) *ProvisioningHandler {
	return &ProvisioningHandler{Checker: checker, Owners: owners, Staff: staff}
}

type checkDuplicateReq struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// CheckDuplicate always answers 200; failures come back as available=false.
func (h *ProvisioningHandler) CheckDuplicate(c echo.Context) error {
	var req checkDuplicateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusOK, service.CheckResult{Available: false, Message: "invalid request body"})
	}
	return c.JSON(http.StatusOK, h.Checker.Check(c.Request().Context(), req.Type, req.Value))
}

type registerOwnerReq struct {
	Email            string   `json:"email"`
	Password         string   `json:"password"`
	Name             string   `json:"name"`
	OrganizationName string   `json:"organizationName"`
	Phone            string   `json:"phone"`
	IndustryNames    []string `json:"industryNames"`
	IdentityID       string   `json:"identityId"`
}

func (h *ProvisioningHandler) RegisterOwner(c echo.Context) error {
	var req registerOwnerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	res, err := h.Owners.Register(ctx, service.RegisterOwnerInput{
		Email:            req.Email,
		Password:         req.Password,
		Name:             req.Name,
		OrganizationName: req.OrganizationName,
		Phone:            req.Phone,
		IndustryNames:    req.IndustryNames,
		IdentityID:       req.IdentityID,
	})
	if err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Str("organization_name", req.OrganizationName).Msg("owner registration rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":        "owner registered",
		"user":           echo.Map{"id": res.IdentityID},
		"organizationId": res.OrganizationID,
	})
}

type inviteStaffReq struct {
	Email       string         `json:"email"`
	Role        string         `json:"role"`
	Name        string         `json:"name"`
	Permissions map[string]any `json:"permissions"`
	RedirectTo  string         `json:"redirectTo"`
}

func (h *ProvisioningHandler) InviteStaff(c echo.Context) error {
	var req inviteStaffReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	invitee, err := h.Staff.Invite(ctx, middleware.BearerToken(c), service.InviteStaffInput{
		Email:       req.Email,
		Role:        req.Role,
		Name:        req.Name,
		Permissions: req.Permissions,
		RedirectTo:  req.RedirectTo,
	})
	if err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Msg("staff invitation rejected")
		body := echo.Map{"error": err.Error()}
		var ae *service.AuthError
		if errors.As(err, &ae) && ae.Code != "" {
			body["code"] = ae.Code
		}
		return c.JSON(http.StatusBadRequest, body)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "invitation sent",
		"user":    toUser(invitee),
	})
}
