package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/salon-booking/internal/utils"
)

// BearerToken returns the raw token of an "Authorization: Bearer ..."
// header, or "" when the header is missing or uses another scheme.
func BearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

// JWTAuth validates a Bearer access token and stores its subject, role and
// organization claims in the context. The raw token is kept under CtxBearer
// for handlers that resolve the caller through the auth provider.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := BearerToken(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(CtxIdentityID, claims.Subject)
			c.Set(CtxRole, claims.Role)
			c.Set(CtxOrganizationID, claims.OrganizationID)
			c.Set(CtxBearer, raw)
			return next(c)
		}
	}
}
