package internal

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

var paramPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// Route is one entry of the route table. The chained setters modify the
// entry in place and return it, so they work straight after GET/POST/...
type Route struct {
	pattern    *regexp.Regexp
	handler    HandlerFunc
	method     string
	path       string
	action     string
	name       string
	middleware []middlewareRef
	params     []string
	csrfExempt bool
}

// middlewareRef is either an alias resolved per request or a direct func.
type middlewareRef struct {
	fn    Middleware
	alias string
}

func (m middlewareRef) String() string {
	if m.fn != nil {
		return "func"
	}
	return m.alias
}

func newRoute(method, path string, h HandlerFunc, action string, mws []middlewareRef) *Route {
	path = normalizePath(path)
	pattern, names := compilePattern(path)
	return &Route{
		method:     strings.ToUpper(method),
		path:       path,
		pattern:    pattern,
		handler:    h,
		action:     action,
		middleware: slices.Clone(mws),
		params:     names,
	}
}

// compilePattern anchors path and turns each {name} into a named group
// matching one segment.
func compilePattern(path string) (*regexp.Regexp, []string) {
	var (
		b     strings.Builder
		names []string
		last  int
	)
	b.WriteString("^")
	for _, loc := range paramPattern.FindAllStringSubmatchIndex(path, -1) {
		b.WriteString(regexp.QuoteMeta(path[last:loc[0]]))
		name := path[loc[2]:loc[3]]
		b.WriteString(`(?P<` + name + `>[^/]+)`)
		names = append(names, name)
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(path[last:]))
	b.WriteString("$")
	return regexp.MustCompile(b.String()), names
}

// Name sets the name used by URL generation.
func (r *Route) Name(name string) *Route {
	r.name = name
	return r
}

// Middleware appends aliases registered with WithMiddlewareAlias.
func (r *Route) Middleware(aliases ...string) *Route {
	for _, a := range aliases {
		r.middleware = append(r.middleware, middlewareRef{alias: a})
	}
	return r
}

// Use appends middleware funcs.
func (r *Route) Use(mws ...Middleware) *Route {
	for _, mw := range mws {
		r.middleware = append(r.middleware, middlewareRef{fn: mw})
	}
	return r
}

// CSRFExempt skips the automatic CSRF check on POST.
func (r *Route) CSRFExempt() *Route {
	r.csrfExempt = true
	return r
}

func (r *Route) Method() string { return r.method }
func (r *Route) Path() string   { return r.path }

// IsCSRFExempt reports whether CSRFExempt was called on the route.
func (r *Route) IsCSRFExempt() bool { return r.csrfExempt }

// match reports whether path fits the pattern and returns the captured
// params.
func (r *Route) match(path string) (map[string]string, bool) {
	m := r.pattern.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	params := make(map[string]string, len(r.params))
	for i, name := range r.pattern.SubexpNames() {
		if name != "" {
			params[name], _ = url.PathUnescape(m[i])
		}
	}
	return params, true
}

// build substitutes {k} placeholders; leftovers become a sorted query string.
// Every placeholder must be supplied.
func (r *Route) build(params map[string]any) (string, error) {
	for _, name := range r.params {
		if _, ok := params[name]; !ok {
			return "", fmt.Errorf("%w: {%s} in %s", ErrRouteParamMissing, name, r.path)
		}
	}

	path := r.path
	rest := url.Values{}
	for k, v := range params {
		s := fmt.Sprint(v)
		placeholder := "{" + k + "}"
		if strings.Contains(path, placeholder) {
			path = strings.ReplaceAll(path, placeholder, url.PathEscape(s))
			continue
		}
		rest.Set(k, s)
	}
	if len(rest) > 0 {
		path += "?" + rest.Encode()
	}
	return path, nil
}

// RouteInfo describes a registered route for listings such as the
// `routes` console command.
type RouteInfo struct {
	Method     string
	Path       string
	Name       string
	Action     string
	Middleware []string
	CSRFExempt bool
}

func (r *Route) info() RouteInfo {
	mws := make([]string, 0, len(r.middleware))
	for _, m := range r.middleware {
		mws = append(mws, m.String())
	}
	action := r.action
	if action == "" {
		action = "closure"
	}
	return RouteInfo{
		Method:     r.method,
		Path:       r.path,
		Name:       r.name,
		Action:     action,
		Middleware: mws,
		CSRFExempt: r.csrfExempt,
	}
}

// normalizePath collapses duplicate slashes and trims the trailing one,
// except for the root.
func normalizePath(p string) string {
	parts := strings.Split(p, "/")
	kept := parts[:0]
	for _, s := range parts {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return "/" + strings.Join(kept, "/")
}
