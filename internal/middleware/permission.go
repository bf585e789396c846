package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/salon-booking/internal/model"
	"github.com/iliyamo/salon-booking/internal/repository"
)

// PermissionLookup loads the permission profile of an identity.
type PermissionLookup interface {
	Get(ctx context.Context, identityID string) (*model.PermissionProfile, error)
}

// RequirePermission lets the request through only when the caller's
// profile grants action on module within the caller's organization.
// Owners are not special-cased; their profile carries the full grant.
func RequirePermission(perms PermissionLookup, module, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := IdentityID(c)
			if id == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			ctx := c.Request().Context()
			p, err := perms.Get(ctx, id)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			case err != nil:
				zerolog.Ctx(ctx).Error().Err(err).Str("identity_id", id).Msg("permission lookup failed")
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			if org := OrganizationID(c); org != "" && p.OrganizationID != org {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			if !p.Permissions.Allows(module, action) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
