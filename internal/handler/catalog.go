package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/salon-booking/internal/model"
)

type IndustryLister interface {
	List(ctx context.Context) ([]model.Industry, error)
}

// Industries returns the industry catalog offered at sign-up.
func Industries(industries IndustryLister) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		list, err := industries.List(ctx)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("list industries failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
		type item struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		}
		out := make([]item, 0, len(list))
		for _, in := range list {
			out = append(out, item{ID: in.ID, Name: in.Name})
		}
		return c.JSON(http.StatusOK, echo.Map{"industries": out})
	}
}
