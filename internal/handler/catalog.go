package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-store/internal/service"
)

// CatalogHandler serves the public catalog and per-player ownership checks.
type CatalogHandler struct {
	Catalog *service.CatalogService
	Library *service.LibraryService
}

// List returns every entry on sale priced now.
func (h *CatalogHandler) List(c echo.Context) error {
	items, err := h.Catalog.ListAvailable(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Promotions returns the entries on sale with an active promotion.
func (h *CatalogHandler) Promotions(c echo.Context) error {
	items, err := h.Catalog.ListPromotional(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get returns one entry, including removed ones.
func (h *CatalogHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	v, err := h.Catalog.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Ownership tells the caller whether they own the entry and whether they
// could buy it now.
func (h *CatalogHandler) Ownership(c echo.Context) error {
	pid, ok := playerID(c)
	if !ok {
		return nil
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx := c.Request().Context()
	owned, err := h.Library.Owns(ctx, pid, id)
	if err != nil {
		return respondError(c, err)
	}
	canBuy, err := h.Library.CanPurchase(ctx, pid, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"catalog_entry_id": id,
		"owned":            owned,
		"can_purchase":     canBuy,
	})
}
