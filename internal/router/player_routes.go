package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-store/internal/handler"
	"github.com/iliyamo/game-store/internal/middleware"
	"github.com/iliyamo/game-store/internal/model"
)

// RegisterPlayer registers cart, purchase and library endpoints under /v1.
// All routes require a valid JWT with the PLAYER role and are rate limited
// per player.
func RegisterPlayer(e *echo.Echo, d Deps) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RolePlayer),
		middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log),
	)

	catalog := &handler.CatalogHandler{Catalog: d.Catalog, Library: d.Library}
	g.GET("/catalog/:id/ownership", catalog.Ownership)

	cart := &handler.CartHandler{Carts: d.Carts}
	g.GET("/cart", cart.Get)
	g.DELETE("/cart", cart.Clear)
	g.POST("/cart/items", cart.AddItem)
	g.DELETE("/cart/items/:id", cart.RemoveItem)

	purchases := &handler.PurchaseHandler{Purchases: d.Purchases}
	g.POST("/purchases/single", purchases.Single)
	g.POST("/purchases/cart", purchases.Cart)

	library := &handler.LibraryHandler{Library: d.Library}
	g.GET("/library", library.List)
	g.GET("/library/recent", library.Recent)
	g.GET("/library/:id", library.Get)
}
