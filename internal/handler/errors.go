// Package handler exposes the catalog, cart, library and purchase services
// over HTTP.  Handlers parse input, call one service method and translate
// apperr codes into status codes; they hold no business rules.
package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/game-store/internal/apperr"
	"github.com/iliyamo/game-store/internal/middleware"
)

var statusByCode = map[apperr.Code]int{
	apperr.CodeValidation:     http.StatusBadRequest,
	apperr.CodeNotFound:       http.StatusNotFound,
	apperr.CodeConflict:       http.StatusConflict,
	apperr.CodeInfrastructure: http.StatusInternalServerError,
}

// respondError writes {"error": CODE, "messages": [...]}.  Infrastructure
// causes are logged and never sent to the client.
func respondError(c echo.Context, err error) error {
	e := apperr.Wrap(err)
	if e.Code == apperr.CodeInfrastructure {
		zerolog.Ctx(c.Request().Context()).Error().Err(e.Cause).
			Str("route", c.Path()).Msg("request failed")
	}
	status, ok := statusByCode[e.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	msgs := e.Messages
	if msgs == nil {
		msgs = []string{}
	}
	return c.JSON(status, echo.Map{"error": e.Code, "messages": msgs})
}

func badRequest(c echo.Context, msg string) error {
	return respondError(c, apperr.Validation(msg))
}

// parseID reads a positive uint64 path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// playerID returns the authenticated player or writes a 401.
func playerID(c echo.Context) (uint64, bool) {
	id, ok := middleware.PlayerID(c)
	if !ok {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return id, ok
}
