package middlewares

import (
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/pypehq/pype/internal"
	"github.com/pypehq/pype/pkg/cache"
)

type rateLimitConfig struct {
	key    func(c internal.Context) string
	prefix string
}

// RateLimitOption configures RateLimit.
type RateLimitOption func(*rateLimitConfig)

// WithRateLimitKey buckets requests by something other than client IP,
// for example the user id.
func WithRateLimitKey(fn func(c internal.Context) string) RateLimitOption {
	return func(cfg *rateLimitConfig) {
		if fn != nil {
			cfg.key = fn
		}
	}
}

// WithRateLimitPrefix namespaces counter keys so several limiters can share
// one counter.
func WithRateLimitPrefix(prefix string) RateLimitOption {
	return func(cfg *rateLimitConfig) { cfg.prefix = prefix }
}

// RateLimit allows limit requests per window and key (client IP by default)
// using a fixed window counter. Over the limit it answers 429 with
// Retry-After. Counter errors are logged and the request goes through.
func RateLimit(counter cache.Counter, limit int, window time.Duration, opts ...RateLimitOption) internal.Middleware {
	cfg := &rateLimitConfig{
		prefix: "ratelimit:",
		key:    func(c internal.Context) string { return internal.ClientIP(c.Request()) },
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			count, resetAt, err := counter.Incr(c.Context(), cfg.prefix+cfg.key(c), window)
			if err != nil {
				c.LogError("rate limit counter failed", slog.Any("error", err))
				return next(c)
			}

			remaining := max(int64(limit)-count, 0)
			c.SetHeader("X-RateLimit-Limit", strconv.Itoa(limit))
			c.SetHeader("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			c.SetHeader("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if count > int64(limit) {
				retry := int(math.Ceil(time.Until(resetAt).Seconds()))
				c.SetHeader("Retry-After", strconv.Itoa(max(retry, 1)))
				c.LogWarn("rate limit exceeded", slog.String("ip", internal.ClientIP(c.Request())))
				return internal.ErrTooManyRequests("Too Many Requests")
			}
			return next(c)
		}
	}
}

