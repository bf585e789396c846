package middleware

import "github.com/labstack/echo/v4"

// Context keys set by JWTAuth.
const (
	CtxIdentityID     = "identity_id"
	CtxRole           = "role"
	CtxOrganizationID = "organization_id"
	CtxBearer         = "bearer"
)

// IdentityID returns the authenticated identity, or "" for anonymous requests.
func IdentityID(c echo.Context) string {
	s, _ := c.Get(CtxIdentityID).(string)
	return s
}

func Role(c echo.Context) string {
	s, _ := c.Get(CtxRole).(string)
	return s
}

func OrganizationID(c echo.Context) string {
	s, _ := c.Get(CtxOrganizationID).(string)
	return s
}

// rateSubject is the identity used in rate limit keys.
func rateSubject(c echo.Context) string {
	if id := IdentityID(c); id != "" {
		return id
	}
	return "anon"
}
