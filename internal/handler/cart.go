package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-store/internal/service"
)

// CartHandler exposes the caller's cart.
type CartHandler struct {
	Carts *service.CartService
}

type addItemRequest struct {
	CatalogEntryID uint64 `json:"catalog_entry_id"`
}

// Get returns the cart priced now.
func (h *CartHandler) Get(c echo.Context) error {
	pid, ok := playerID(c)
	if !ok {
		return nil
	}
	v, err := h.Carts.View(c.Request().Context(), pid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// AddItem adds a catalog entry to the cart.
func (h *CartHandler) AddItem(c echo.Context) error {
	pid, ok := playerID(c)
	if !ok {
		return nil
	}
	var req addItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	if req.CatalogEntryID == 0 {
		return badRequest(c, "catalog_entry_id is required")
	}
	v, err := h.Carts.AddItem(c.Request().Context(), pid, req.CatalogEntryID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// RemoveItem drops an entry from the cart.  Removing an absent entry
// succeeds.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	pid, ok := playerID(c)
	if !ok {
		return nil
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	v, err := h.Carts.RemoveItem(c.Request().Context(), pid, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Clear empties the cart.
func (h *CartHandler) Clear(c echo.Context) error {
	pid, ok := playerID(c)
	if !ok {
		return nil
	}
	if err := h.Carts.Clear(c.Request().Context(), pid); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
