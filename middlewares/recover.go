package middlewares

import (
	"log/slog"
	"runtime"

	"github.com/pypehq/pype/internal"
)

const defaultStackSize = 4 << 10

type recoverConfig struct {
	stackSize int
	noStack   bool
}

// RecoverOption configures Recover.
type RecoverOption func(*recoverConfig)

// WithStackSize caps the captured stack trace, in bytes.
func WithStackSize(size int) RecoverOption {
	return func(cfg *recoverConfig) {
		if size > 0 {
			cfg.stackSize = size
		}
	}
}

// WithoutStack skips stack capture.
func WithoutStack() RecoverOption {
	return func(cfg *recoverConfig) { cfg.noStack = true }
}

// Recover turns a panic in the chain into a 500 wrapping a *PanicError.
// Register it first so it wraps everything else.
func Recover(opts ...RecoverOption) internal.Middleware {
	cfg := &recoverConfig{stackSize: defaultStackSize}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				pe := &PanicError{Value: r}
				attrs := []any{slog.Any("panic", r), slog.String("path", c.Request().URL.Path)}
				if !cfg.noStack {
					buf := make([]byte, cfg.stackSize)
					pe.Stack = buf[:runtime.Stack(buf, false)]
					attrs = append(attrs, slog.String("stack", string(pe.Stack)))
				}
				c.LogError("panic recovered", attrs...)

				err = internal.ErrInternal("", internal.WithError(pe))
			}()

			return next(c)
		}
	}
}
