package middlewares

import (
	"net/http"

	"github.com/pypehq/pype/internal"
)

// VerifyCSRF checks the CSRF token on every unsafe method (POST, PUT, PATCH,
// DELETE), after method override. The built-in gate only covers POST
// routes; add this when PUT, PATCH or DELETE routes are reachable without a
// form override. Routes marked CSRFExempt are skipped, so attach it to
// routes or groups: global middleware runs before a route is matched.
func VerifyCSRF() internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			switch c.Method() {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
				return next(c)
			}
			if r := c.Route(); r != nil && r.IsCSRFExempt() {
				return next(c)
			}
			if err := internal.VerifyCSRF(c); err != nil {
				return err
			}
			return next(c)
		}
	}
}
