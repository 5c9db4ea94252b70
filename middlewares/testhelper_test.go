package middlewares_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/pypehq/pype/internal"
)

// newApp mounts h at GET and POST /test behind mws. CSRF is off so POSTs
// reach the middleware under test.
func newApp(h internal.HandlerFunc, mws ...internal.Middleware) *internal.App {
	return internal.New(
		internal.WithoutCSRF(),
		internal.WithRoutes(func(r internal.Router) {
			r.Use(mws...)
			r.GET("/test", h)
			r.POST("/test", h)
		}),
	)
}

func ok(c internal.Context) error {
	return c.String(http.StatusOK, "ok")
}

func do(app http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.ServeHTTP(w, r)
	return w
}

func get(app http.Handler, path string, headers ...string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	return do(app, r)
}
