package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/salon-booking/internal/middleware"
	"github.com/iliyamo/salon-booking/internal/model"
	"github.com/iliyamo/salon-booking/internal/repository"
)

type IdentityReader interface {
	GetByID(ctx context.Context, id string) (*model.Identity, error)
	ListByOrganization(ctx context.Context, orgID string) ([]*model.Identity, error)
}

type PermissionReader interface {
	Get(ctx context.Context, identityID string) (*model.PermissionProfile, error)
}

// AccountHandler exposes the caller's own identity, profile and
// organization roster. All routes require JWTAuth.
type AccountHandler struct {
	Identities IdentityReader
	Perms      PermissionReader
}

func NewAccountHandler(identities IdentityReader, perms PermissionReader) *AccountHandler {
	return &AccountHandler{Identities: identities, Perms: perms}
}

func (h *AccountHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	i, err := h.Identities.GetByID(ctx, middleware.IdentityID(c))
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("load identity failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, toUser(i))
}

func (h *AccountHandler) MyPermissions(c echo.Context) error {
	ctx := c.Request().Context()
	p, err := h.Perms.Get(ctx, middleware.IdentityID(c))
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no permission profile"})
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("load permissions failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"organization_id": p.OrganizationID,
		"permissions":     p.Permissions,
		"updated_at":      p.UpdatedAt,
	})
}

// Members lists the identities of the caller's organization.
func (h *AccountHandler) Members(c echo.Context) error {
	org := middleware.OrganizationID(c)
	if org == "" {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no organization"})
	}
	ctx := c.Request().Context()
	list, err := h.Identities.ListByOrganization(ctx, org)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("organization_id", org).Msg("list members failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	out := make([]userPart, 0, len(list))
	for _, i := range list {
		out = append(out, toUser(i))
	}
	return c.JSON(http.StatusOK, echo.Map{"members": out})
}
