// Package router wires handlers and middleware onto an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/game-store/internal/config"
	"github.com/iliyamo/game-store/internal/handler"
	"github.com/iliyamo/game-store/internal/metrics"
	"github.com/iliyamo/game-store/internal/middleware"
	"github.com/iliyamo/game-store/internal/service"
)

// Deps collects what the routes need.  Redis may be nil, which disables the
// response cache and the rate limiter.
type Deps struct {
	Catalog   *service.CatalogService
	Carts     *service.CartService
	Library   *service.LibraryService
	Purchases *service.PurchaseService

	DB        handler.Pinger
	Redis     *redis.Client
	JWTSecret string
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Metrics   bool
	Log       zerolog.Logger
}

// New builds the Echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Log))

	RegisterRoutes(e, d)
	RegisterPublic(e, d)
	RegisterPlayer(e, d)
	RegisterAdmin(e, d)
	return e
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.DB))
	if d.Metrics {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}
}

// RegisterPublic registers catalog browsing.  Responses are cached in Redis
// when caching is enabled.
func RegisterPublic(e *echo.Echo, d Deps) {
	h := &handler.CatalogHandler{Catalog: d.Catalog, Library: d.Library}
	cache := middleware.NewRedisCache(d.Cache, d.Redis, d.Log)
	e.GET("/v1/catalog", h.List, cache)
	e.GET("/v1/catalog/promotions", h.Promotions, cache)
	e.GET("/v1/catalog/:id", h.Get, cache)
}
