package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-store/internal/handler"
	"github.com/iliyamo/game-store/internal/middleware"
	"github.com/iliyamo/game-store/internal/model"
)

// RegisterAdmin registers catalog management under /v1/admin for the ADMIN
// role.  Successful writes purge the public catalog cache.
func RegisterAdmin(e *echo.Echo, d Deps) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RoleAdmin),
		middleware.PurgeCacheOnWrite(d.Cache, d.Redis, d.Log),
	)

	h := &handler.AdminCatalogHandler{Catalog: d.Catalog}
	g.POST("/catalog", h.Register)
	g.PUT("/catalog/:id", h.UpdateInfo)
	g.PUT("/catalog/:id/price", h.UpdatePrice)
	g.PUT("/catalog/:id/promotion", h.ApplyPromotion)
	g.DELETE("/catalog/:id/promotion", h.RemovePromotion)
	g.DELETE("/catalog/:id", h.Remove)
}
