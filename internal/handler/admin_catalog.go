package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/game-store/internal/model"
	"github.com/iliyamo/game-store/internal/service"
)

// AdminCatalogHandler manages catalog entries for ADMIN callers.
type AdminCatalogHandler struct {
	Catalog *service.CatalogService
}

type registerRequest struct {
	EAN         string           `json:"ean"`
	Title       string           `json:"title"`
	Genre       string           `json:"genre"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
}

type infoRequest struct {
	Title       string  `json:"title"`
	Genre       string  `json:"genre"`
	Description *string `json:"description"`
}

type priceRequest struct {
	Price *decimal.Decimal `json:"price"`
}

type promotionRequest struct {
	Kind    string           `json:"kind"`
	Value   *decimal.Decimal `json:"value"`
	StartAt *time.Time       `json:"start_at"`
	EndAt   *time.Time       `json:"end_at"`
}

// Register creates a catalog entry.  Prices accept JSON numbers or strings.
func (h *AdminCatalogHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	if req.Price == nil {
		return badRequest(c, "price is required")
	}
	game := model.GameInfo{EAN: req.EAN, Title: req.Title, Genre: req.Genre, Description: req.Description}
	v, err := h.Catalog.Register(c.Request().Context(), game, *req.Price)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// UpdateInfo replaces title, genre and description.  An ean field in the
// body is ignored.
func (h *AdminCatalogHandler) UpdateInfo(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req infoRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	v, err := h.Catalog.UpdateInfo(c.Request().Context(), id, req.Title, req.Genre, req.Description)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// UpdatePrice replaces the base price.
func (h *AdminCatalogHandler) UpdatePrice(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req priceRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	if req.Price == nil {
		return badRequest(c, "price is required")
	}
	v, err := h.Catalog.UpdatePrice(c.Request().Context(), id, *req.Price)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// ApplyPromotion attaches a promotion.  A missing start_at means now and a
// missing end_at means one month after the start.
func (h *AdminCatalogHandler) ApplyPromotion(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req promotionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	kind, ok := model.ParsePromotionKind(req.Kind)
	if !ok {
		return badRequest(c, "unknown promotion kind")
	}
	if req.Value == nil {
		return badRequest(c, "value is required")
	}
	v, err := h.Catalog.ApplyPromotion(c.Request().Context(), id, kind, *req.Value, req.StartAt, req.EndAt)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// RemovePromotion clears the promotion.
func (h *AdminCatalogHandler) RemovePromotion(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	v, err := h.Catalog.RemovePromotion(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Remove takes the entry off sale.  Owned copies stay in libraries.
func (h *AdminCatalogHandler) Remove(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	if err := h.Catalog.Remove(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
