package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/salon-booking/internal/config"
	"github.com/iliyamo/salon-booking/internal/handler"
	"github.com/iliyamo/salon-booking/internal/middleware"
	"github.com/iliyamo/salon-booking/internal/model"
	"github.com/iliyamo/salon-booking/internal/observability/metrics"
)

// Deps carries everything route registration needs.
type Deps struct {
	JWTSecret    string
	Provisioning *handler.ProvisioningHandler
	Auth         *handler.AuthHandler
	Account      *handler.AccountHandler
	Industries   handler.IndustryLister
	Perms        middleware.PermissionLookup
	DB           handler.Pinger
	Redis        *redis.Client // nil disables rate limiting and caching
	RateLimit    config.RateLimitConfig
	Cache        config.CacheConfig
}

// RegisterOps exposes liveness, readiness and the Prometheus scrape endpoint.
func RegisterOps(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(d.DB))
	e.GET("/metrics", metrics.Handler())
}

// RegisterProvisioning mounts the tenant provisioning endpoints behind the
// token bucket. invite-staff resolves the bearer itself so that a bad token
// surfaces as a 400 with the provisioning error shape.
func RegisterProvisioning(e *echo.Echo, d Deps) {
	g := e.Group("/v1/provisioning", middleware.NewTokenBucket(d.RateLimit, d.Redis))
	g.POST("/check-duplicate", d.Provisioning.CheckDuplicate)
	g.POST("/register-owner", d.Provisioning.RegisterOwner)
	g.POST("/invite-staff", d.Provisioning.InviteStaff)
}

// RegisterAuth mounts session routes under /v1/auth and the caller's
// account routes under /v1.
func RegisterAuth(e *echo.Echo, d Deps) {
	jwt := middleware.JWTAuth(d.JWTSecret)

	g := e.Group("/v1/auth")
	g.POST("/login", d.Auth.Login, middleware.NewTokenBucket(d.RateLimit, d.Redis))
	g.POST("/refresh", d.Auth.Refresh)
	g.POST("/logout", d.Auth.Logout, jwt)
	g.POST("/invitations/accept", d.Auth.AcceptInvitation)

	v1 := e.Group("/v1", jwt)
	v1.GET("/me", d.Account.Me)
	v1.GET("/me/permissions", d.Account.MyPermissions)
	v1.GET("/organization/members", d.Account.Members,
		middleware.RequireRole(model.RoleOwner, model.RoleAdmin, model.RoleManager, model.RoleStaff),
		middleware.RequirePermission(d.Perms, model.ModuleStaff, model.ActionView))
}

// RegisterCatalog mounts the cached, public industry catalog.
func RegisterCatalog(e *echo.Echo, d Deps) {
	e.GET("/v1/industries", handler.Industries(d.Industries), middleware.NewRedisCache(d.Cache, d.Redis))
}

// New builds the echo instance and every route group. pre runs before
// routing, so CORS placed there also answers preflights for POST-only routes.
func New(d Deps, pre ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Pre(pre...)
	e.Use(metrics.Middleware())

	RegisterOps(e, d)
	RegisterProvisioning(e, d)
	RegisterAuth(e, d)
	RegisterCatalog(e, d)
	return e
}
