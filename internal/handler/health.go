package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Health reports that the process is serving.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Pinger is any dependency whose liveness gates readiness.
type Pinger interface {
	Health(ctx context.Context) error
}

// Ready answers 503 until the database is reachable.
func Ready(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := db.Health(ctx); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("readiness check failed")
			return c.String(http.StatusServiceUnavailable, "database unavailable")
		}
		return c.String(http.StatusOK, "ready")
	}
}
