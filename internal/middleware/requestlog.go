package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/game-store/internal/metrics"
)

// RequestLogger logs one line per request and counts it in metrics.  The
// request context carries the logger so handlers can use zerolog.Ctx.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			reqLog := log.With().Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).Logger()
			c.SetRequest(req.WithContext(reqLog.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			route := c.Path()
			metrics.RecordHTTPRequest(req.Method, route, status)

			ev := reqLog.Info()
			if status >= 500 {
				ev = reqLog.Error()
			}
			if id, ok := PlayerID(c); ok {
				ev = ev.Uint64("player_id", id)
			}
			ev.Str("method", req.Method).Str("route", route).Str("uri", req.RequestURI).
				Int("status", status).Dur("latency", time.Since(start)).Msg("request")
			return nil
		}
	}
}
