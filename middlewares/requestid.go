package middlewares

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pypehq/pype/internal"
	"github.com/pypehq/pype/pkg/logger"
)

type requestIDKey struct{}

// RequestIDHeader is read from the request and echoed on the response.
const RequestIDHeader = "X-Request-ID"

type requestIDConfig struct {
	generate func() string
	headers  []string
}

// RequestIDOption configures RequestID.
type RequestIDOption func(*requestIDConfig)

// WithTrustedHeaders sets the incoming headers checked, in order, for an
// upstream id. Pass none to always generate.
func WithTrustedHeaders(headers ...string) RequestIDOption {
	return func(cfg *requestIDConfig) { cfg.headers = headers }
}

// WithGenerator replaces uuid.NewString.
func WithGenerator(fn func() string) RequestIDOption {
	return func(cfg *requestIDConfig) {
		if fn != nil {
			cfg.generate = fn
		}
	}
}

// RequestID keeps an upstream request id or assigns a new one, stores it on
// the context and sets the X-Request-ID response header. The default error
// handler copies that header into error bodies.
func RequestID(opts ...RequestIDOption) internal.Middleware {
	cfg := &requestIDConfig{
		generate: uuid.NewString,
		headers:  []string{RequestIDHeader, "X-Correlation-ID"},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			var id string
			for _, h := range cfg.headers {
				if v := c.Header(h); v != "" {
					id = v
					break
				}
			}
			if id == "" {
				id = cfg.generate()
			}

			c.Set(requestIDKey{}, id)
			c.SetHeader(RequestIDHeader, id)
			return next(c)
		}
	}
}

// GetRequestID returns the id assigned by RequestID, or "".
func GetRequestID(c internal.Context) string {
	id, _ := c.Get(requestIDKey{}).(string)
	return id
}

// RequestIDExtractor adds request_id to every log record written with the
// request context.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v, ok := ctx.Value(requestIDKey{}).(string); ok && v != "" {
			return slog.String("request_id", v), true
		}
		return slog.Attr{}, false
	}
}
