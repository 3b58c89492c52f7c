package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// quietPrefixes are polled often enough that they are logged at debug.
var quietPrefixes = []string{"/static/", "/api/health-check", "/api/backend-status", "/custom-sw.js"}

// Logger writes one line per request. Server errors log at error, client
// errors at warn. The request-scoped logger is stored on the request
// context so handlers can reach it through zerolog.Ctx.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			reqLogger := logger.With().Str("request_id", rid).Logger()
			c.SetRequest(req.WithContext(reqLogger.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				// Let the error handler write the response now so the
				// logged status is the one the client saw.
				c.Error(err)
			}

			status := c.Response().Status
			var evt *zerolog.Event
			switch {
			case status >= 500:
				evt = reqLogger.Error().Err(err)
			case status >= 400:
				evt = reqLogger.Warn()
			case isQuiet(req.URL.Path):
				evt = reqLogger.Debug()
			default:
				evt = reqLogger.Info()
			}
			if menu := c.QueryParam("menu"); menu != "" {
				evt = evt.Str("menu", menu)
			}
			evt.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return nil
		}
	}
}

func isQuiet(path string) bool {
	for _, p := range quietPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
