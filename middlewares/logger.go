package middlewares

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pypehq/pype/internal"
)

// Logger writes one record per request after the chain returns. Failed
// requests are logged at warn (4xx) or error (5xx).
func Logger() internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			start := time.Now()
			err := next(c)

			r := c.Request()
			status := c.ResponseWriter().Status()
			if he := internal.AsHTTPError(err); he != nil {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}

			attrs := []any{
				slog.String("method", c.Method()),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int64("size", c.ResponseWriter().Size()),
				slog.Duration("duration", time.Since(start)),
				slog.String("ip", internal.ClientIP(r)),
			}
			if route := c.Route(); route != nil {
				attrs = append(attrs, slog.String("route", route.Path()))
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}

			switch {
			case status >= http.StatusInternalServerError:
				c.LogError("request", attrs...)
			case status >= http.StatusBadRequest:
				c.LogWarn("request", attrs...)
			default:
				c.LogInfo("request", attrs...)
			}
			return err
		}
	}
}
