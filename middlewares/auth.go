package middlewares

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pypehq/pype/internal"
)

// DefaultRememberCookie names the remember-me cookie.
const DefaultRememberCookie = "remember_me"

// RememberResolver turns a remember-me cookie value into a user id. It
// returns "" for unknown or expired tokens.
type RememberResolver func(ctx context.Context, token string) (string, error)

type authConfig struct {
	resolve RememberResolver
	cookie  string
	signed  bool
}

// AuthOption configures Auth and Guest.
type AuthOption func(*authConfig)

// WithRememberMe signs a visitor in from a remember-me cookie when the
// session has no user. pkg/auth Guard.ResolveRememberToken fits resolve.
func WithRememberMe(resolve RememberResolver) AuthOption {
	return func(cfg *authConfig) { cfg.resolve = resolve }
}

// WithRememberCookie changes the cookie name; signed reads it with
// CookieSigned.
func WithRememberCookie(name string, signed bool) AuthOption {
	return func(cfg *authConfig) {
		if name != "" {
			cfg.cookie = name
		}
		cfg.signed = signed
	}
}

// Auth lets authenticated visitors through. Others get 401 when they asked
// for JSON and a redirect to loginURL otherwise.
func Auth(loginURL string, opts ...AuthOption) internal.Middleware {
	cfg := newAuthConfig(opts)

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if authenticated(c, cfg) {
				return next(c)
			}
			if c.WantsJSON() {
				return internal.ErrUnauthorized("Unauthenticated")
			}
			return c.Redirect(http.StatusFound, loginURL)
		}
	}
}

// Guest is the inverse of Auth: signed-in visitors are sent to homeURL.
func Guest(homeURL string, opts ...AuthOption) internal.Middleware {
	cfg := newAuthConfig(opts)

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if authenticated(c, cfg) {
				return c.Redirect(http.StatusFound, homeURL)
			}
			return next(c)
		}
	}
}

func newAuthConfig(opts []AuthOption) *authConfig {
	cfg := &authConfig{cookie: DefaultRememberCookie}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func authenticated(c internal.Context, cfg *authConfig) bool {
	if c.IsAuthenticated() {
		return true
	}
	if cfg.resolve == nil {
		return false
	}

	read := c.Cookie
	if cfg.signed {
		read = c.CookieSigned
	}
	token, err := read(cfg.cookie)
	if err != nil || token == "" {
		return false
	}

	userID, err := cfg.resolve(c.Context(), token)
	if err != nil {
		c.LogWarn("remember token lookup failed", slog.Any("error", err))
		return false
	}
	if userID == "" {
		c.DeleteCookie(cfg.cookie)
		return false
	}
	if err := c.AuthenticateSession(userID); err != nil {
		c.LogError("failed to restore session from remember token", slog.Any("error", err))
		return false
	}
	return true
}
