package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// subjectID accepts the "sub" claim as a decimal string or a JSON number.
func subjectID(v any) (uint64, bool) {
	switch t := v.(type) {
	case string:
		id, err := strconv.ParseUint(t, 10, 64)
		return id, err == nil && id > 0
	case float64:
		if t < 1 || t != float64(uint64(t)) {
			return 0, false
		}
		return uint64(t), true
	}
	return 0, false
}

// PlayerID returns the authenticated player id stored by JWTAuth.
func PlayerID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ContextPlayerID).(uint64)
	return id, ok && id > 0
}

// identity is the rate-limit key component for the caller: the player id
// when authenticated, "anon" otherwise.
func identity(c echo.Context) string {
	if id, ok := PlayerID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
