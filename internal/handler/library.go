package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-store/internal/service"
)

// LibraryHandler lists the games the caller owns.
type LibraryHandler struct {
	Library *service.LibraryService
}

// List returns the whole library newest first.
func (h *LibraryHandler) List(c echo.Context) error {
	pid, ok := playerID(c)
	if !ok {
		return nil
	}
	items, err := h.Library.List(c.Request().Context(), pid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Recent returns the last n purchases (?n=, default 5).
func (h *LibraryHandler) Recent(c echo.Context) error {
	pid, ok := playerID(c)
	if !ok {
		return nil
	}
	n := 0
	if raw := c.QueryParam("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return badRequest(c, "n must be a positive integer")
		}
		n = v
	}
	items, err := h.Library.Recent(c.Request().Context(), pid, n)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get returns one owned entry.
func (h *LibraryHandler) Get(c echo.Context) error {
	pid, ok := playerID(c)
	if !ok {
		return nil
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	v, err := h.Library.Get(c.Request().Context(), pid, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}
