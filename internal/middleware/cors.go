package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CORS answers browser preflights and tags responses with the allowed
// origin. An empty origins list allows any origin.
func CORS(origins []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			origin := c.Request().Header.Get(echo.HeaderOrigin)
			switch {
			case len(origins) == 0:
				h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			case originAllowed(origins, origin):
				h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			default:
				h.Set(echo.HeaderAccessControlAllowOrigin, origins[0])
			}
			h.Add(echo.HeaderVary, echo.HeaderOrigin)
			h.Set(echo.HeaderAccessControlAllowMethods, "GET, POST, OPTIONS")
			h.Set(echo.HeaderAccessControlAllowHeaders, "authorization, x-client-info, apikey, content-type")

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
