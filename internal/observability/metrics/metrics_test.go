package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/v1/things/:id", func(c echo.Context) error { return c.NoContent(http.StatusTeapot) })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/v1/things/:id", "418"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/things/42", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/v1/things/:id", "418")))
}

func TestObserveRollbackFailure(t *testing.T) {
	before := testutil.ToFloat64(rollbackFailures.WithLabelValues("OrganizationCreated"))
	ObserveRollbackFailure("OrganizationCreated")
	assert.Equal(t, before+1, testutil.ToFloat64(rollbackFailures.WithLabelValues("OrganizationCreated")))
}

func TestHandlerServesRegistry(t *testing.T) {
	ObserveDuplicateCheck("email", "available")
	e := echo.New()
	e.GET("/metrics", Handler())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "salon_duplicate_checks_total")
}
