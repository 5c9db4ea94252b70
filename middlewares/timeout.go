package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pypehq/pype/internal"
)

const DefaultTimeout = 30 * time.Second

type timeoutKey struct{}

// Timeout answers 503 when the handler has not returned within d. The
// handler runs in its own goroutine against a buffered copy of the context;
// its response reaches the client only if it finishes in time, and writes
// made after the deadline are dropped. Handlers should watch TimeoutContext
// and stop early. Streaming responses do not work behind Timeout.
func Timeout(d time.Duration) internal.Middleware {
	if d <= 0 {
		d = DefaultTimeout
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			ctx, cancel := context.WithTimeout(c.Context(), d)
			defer cancel()
			c.Set(timeoutKey{}, ctx)

			bc, commit, discard := internal.BufferResponse(c)
			done := make(chan error, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						done <- internal.ErrInternal("", internal.WithError(&PanicError{Value: r}))
					}
				}()
				done <- next(bc)
			}()

			select {
			case err := <-done:
				commit()
				return err
			case <-ctx.Done():
				discard()
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					c.LogWarn("request timeout", slog.Duration("timeout", d))
					return internal.ErrServiceUnavailable("Request Timeout",
						internal.WithError(&TimeoutError{Duration: d}))
				}
				return ctx.Err()
			}
		}
	}
}

// TimeoutContext returns the deadline-bound context set by Timeout, or the
// request context.
func TimeoutContext(c internal.Context) context.Context {
	if ctx, ok := c.Get(timeoutKey{}).(context.Context); ok {
		return ctx
	}
	return c.Context()
}
