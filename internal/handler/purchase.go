package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-store/internal/service"
)

// PurchaseHandler runs checkouts for the caller.
type PurchaseHandler struct {
	Purchases *service.PurchaseService
}

type singlePurchaseRequest struct {
	CatalogEntryID uint64 `json:"catalog_entry_id"`
}

// Single buys one catalog entry directly.
func (h *PurchaseHandler) Single(c echo.Context) error {
	pid, ok := playerID(c)
	if !ok {
		return nil
	}
	var req singlePurchaseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	if req.CatalogEntryID == 0 {
		return badRequest(c, "catalog_entry_id is required")
	}
	le, err := h.Purchases.PurchaseSingle(c.Request().Context(), pid, req.CatalogEntryID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, service.NewLibraryView(*le))
}

// Cart checks out the whole cart.
func (h *PurchaseHandler) Cart(c echo.Context) error {
	pid, ok := playerID(c)
	if !ok {
		return nil
	}
	created, err := h.Purchases.PurchaseFromCart(c.Request().Context(), pid)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]service.LibraryView, 0, len(created))
	for _, le := range created {
		out = append(out, service.NewLibraryView(le))
	}
	return c.JSON(http.StatusCreated, echo.Map{"items": out})
}
