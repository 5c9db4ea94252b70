package internal

import (
	"net/http"
	"slices"
)

// Router is the interface handlers use to declare routes.
type Router interface {
	GET(path string, h HandlerFunc) *Route
	POST(path string, h HandlerFunc) *Route
	PUT(path string, h HandlerFunc) *Route
	PATCH(path string, h HandlerFunc) *Route
	DELETE(path string, h HandlerFunc) *Route

	// Action routes to a registered controller, e.g. "PostController@index".
	// The controller is looked up per request.
	Action(method, path, action string) *Route

	// Route opens a group whose routes share the path prefix.
	Route(prefix string, fn func(r Router))

	// Group opens a group without a prefix, for scoping middleware.
	Group(fn func(r Router))

	// Use applies middleware to routes registered after it in this scope.
	Use(mw ...Middleware)

	// Middleware applies aliases to routes registered after it in this scope.
	Middleware(aliases ...string)
}

// table is the ordered route list shared by every scope of one App.
type table struct {
	routes []*Route
}

// scope is a Router bound to a prefix and inherited middleware.
type scope struct {
	table      *table
	prefix     string
	middleware []middlewareRef
}

func (s *scope) add(method, path string, h HandlerFunc, action string) *Route {
	r := newRoute(method, s.prefix+"/"+path, h, action, s.middleware)
	s.table.routes = append(s.table.routes, r)
	return r
}

func (s *scope) GET(path string, h HandlerFunc) *Route {
	return s.add(http.MethodGet, path, h, "")
}

func (s *scope) POST(path string, h HandlerFunc) *Route {
	return s.add(http.MethodPost, path, h, "")
}

func (s *scope) PUT(path string, h HandlerFunc) *Route {
	return s.add(http.MethodPut, path, h, "")
}

func (s *scope) PATCH(path string, h HandlerFunc) *Route {
	return s.add(http.MethodPatch, path, h, "")
}

func (s *scope) DELETE(path string, h HandlerFunc) *Route {
	return s.add(http.MethodDelete, path, h, "")
}

func (s *scope) Action(method, path, action string) *Route {
	return s.add(method, path, nil, action)
}

func (s *scope) Route(prefix string, fn func(Router)) {
	fn(&scope{
		table:      s.table,
		prefix:     normalizePath(s.prefix + "/" + prefix),
		middleware: slices.Clone(s.middleware),
	})
}

func (s *scope) Group(fn func(Router)) {
	fn(&scope{
		table:      s.table,
		prefix:     s.prefix,
		middleware: slices.Clone(s.middleware),
	})
}

func (s *scope) Use(mws ...Middleware) {
	for _, mw := range mws {
		s.middleware = append(s.middleware, middlewareRef{fn: mw})
	}
}

func (s *scope) Middleware(aliases ...string) {
	for _, a := range aliases {
		s.middleware = append(s.middleware, middlewareRef{alias: a})
	}
}

// match returns the first route, in registration order, whose method and
// pattern fit. HEAD is served by GET routes.
func (t *table) match(method, path string) (*Route, map[string]string) {
	for _, r := range t.routes {
		if r.method != method && !(method == http.MethodHead && r.method == http.MethodGet) {
			continue
		}
		if params, ok := r.match(path); ok {
			return r, params
		}
	}
	return nil, nil
}

func (t *table) named(name string) *Route {
	for _, r := range t.routes {
		if r.name == name {
			return r
		}
	}
	return nil
}
