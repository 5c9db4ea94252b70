package internal

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pypehq/pype/pkg/cache"
	"github.com/pypehq/pype/pkg/cookie"
	"github.com/pypehq/pype/pkg/health"
	"github.com/pypehq/pype/pkg/logger"
	"github.com/pypehq/pype/pkg/query"
	"github.com/pypehq/pype/pkg/session"
	"github.com/pypehq/pype/pkg/validator"
	"github.com/pypehq/pype/pkg/view"
)

// Default server timeouts.
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20
	defaultShutdownTimeout   = 30 * time.Second
	defaultMaxMemory         = 32 << 20
)

// App owns the route table and the request pipeline.
// It is immutable after New.
type App struct {
	mux             chi.Router
	routes          *table
	errorHandler    ErrorHandler
	notFoundHandler HandlerFunc
	healthConfig    *healthConfig
	logger          *slog.Logger
	cookies         *cookie.Jar
	sessions        *SessionManager
	db              *query.DB
	views           *view.Engine
	validator       *validator.Validator
	controllers     map[string]Controller
	aliases         map[string]Middleware
	middlewares     []Middleware
	handlers        []Handler
	mounts          []mount
	csrf            bool
}

// mount is an http.Handler served by chi ahead of the pipeline.
type mount struct {
	handler http.Handler
	pattern string
}

// New builds an application from options.
//
// Example:
//
//	app := pype.New(
//	    pype.WithDatabase(conn.Query()),
//	    pype.WithMiddleware(middlewares.Recover(), middlewares.RequestID()),
//	    pype.WithMiddlewareAlias("auth", middlewares.Auth("/login")),
//	    pype.WithHandlers(handlers.NewPosts()),
//	)
func New(opts ...Option) *App {
	a := &App{
		routes:      &table{},
		logger:      logger.NewNope(),
		cookies:     cookie.MustNew(),
		controllers: make(map[string]Controller),
		aliases:     make(map[string]Middleware),
		csrf:        true,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.sessions == nil {
		a.sessions = NewSessionManager(session.NewCacheStore(cache.NewMemory[[]byte]()))
	}
	a.sessions.setLogger(a.logger)
	if a.validator == nil {
		a.validator = validator.New(validator.WithDB(a.db))
	}

	root := &scope{table: a.routes}
	for _, h := range a.handlers {
		h.Routes(root)
	}

	a.setupMux()
	return a
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// Router exposes the outer chi mux.
func (a *App) Router() chi.Router {
	return a.mux
}

// Routes lists the route table in match order.
func (a *App) Routes() []RouteInfo {
	out := make([]RouteInfo, 0, len(a.routes.routes))
	for _, r := range a.routes.routes {
		out = append(out, r.info())
	}
	return out
}

// URL builds the path for a named route. Params without a placeholder are
// appended as a query string sorted by key. A missing placeholder value is an
// ErrRouteParamMissing.
func (a *App) URL(name string, params map[string]any) (string, error) {
	r := a.routes.named(name)
	if r == nil {
		return "", fmt.Errorf("%w: %q", ErrRouteNameNotFound, name)
	}
	return r.build(params)
}

func (a *App) Logger() *slog.Logger {
	return a.logger
}

func (a *App) setupMux() {
	a.mux = chi.NewRouter()

	for _, m := range a.mounts {
		a.mux.Mount(m.pattern, m.handler)
	}

	if a.healthConfig != nil {
		a.mux.Get(a.healthConfig.livenessPath, health.LivenessHandler())
		a.mux.Get(a.healthConfig.readinessPath,
			health.ReadinessHandler(a.healthConfig.checks, health.WithLogger(a.logger)))
	}

	a.mux.Handle("/*", http.HandlerFunc(a.serve))
}

// serve runs global middleware around dispatch for every request that chi
// did not claim, 404s included.
func (a *App) serve(w http.ResponseWriter, r *http.Request) {
	c := newContext(w, r, a)

	h := chain(func(next Context) error {
		if rc, ok := next.(*requestContext); ok {
			return a.dispatch(rc)
		}
		return a.dispatch(c)
	}, a.middlewares...)
	if err := h(c); err != nil {
		a.handleError(c, err)
	}
	c.responseWriter.flush()
}

// dispatch is the per-request state machine: match, CSRF gate, resolve,
// then run the route middleware around the target.
func (a *App) dispatch(c *requestContext) error {
	c.method = effectiveMethod(c.request)

	route, params := a.routes.match(c.method, normalizePath(c.request.URL.EscapedPath()))
	if route == nil {
		if a.notFoundHandler != nil {
			return a.notFoundHandler(c)
		}
		return ErrNotFound("Page Not Found", WithError(ErrRouteNotFound))
	}
	c.route, c.params = route, params

	if a.csrf && route.method == http.MethodPost && !route.csrfExempt {
		if err := VerifyCSRF(c); err != nil {
			return err
		}
	}

	h, err := a.resolveTarget(route)
	if err != nil {
		return ErrInternal(err.Error(), WithError(err))
	}
	mws, err := a.resolveMiddleware(route)
	if err != nil {
		return ErrInternal(err.Error(), WithError(err))
	}

	return chain(h, mws...)(c)
}

func (a *App) resolveTarget(r *Route) (HandlerFunc, error) {
	if r.handler != nil {
		return r.handler, nil
	}

	name, method, ok := strings.Cut(r.action, "@")
	if !ok || name == "" || method == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, r.action)
	}
	ctrl, ok := a.controllers[name]
	if !ok {
		return nil, fmt.Errorf("%w: controller %s is not registered", ErrControllerNotFound, name)
	}
	h, ok := ctrl.Action(method)
	if !ok {
		return nil, fmt.Errorf("%w: method %s not found in %s", ErrActionNotFound, method, name)
	}
	return h, nil
}

func (a *App) resolveMiddleware(r *Route) ([]Middleware, error) {
	mws := make([]Middleware, 0, len(r.middleware))
	for _, ref := range r.middleware {
		if ref.fn != nil {
			mws = append(mws, ref.fn)
			continue
		}
		mw, ok := a.aliases[ref.alias]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMiddlewareNotFound, ref.alias)
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

// effectiveMethod applies the _method form field or the
// X-HTTP-Method-Override header to POST requests.
func effectiveMethod(r *http.Request) string {
	method := strings.ToUpper(r.Method)
	if method != http.MethodPost {
		return method
	}

	override := r.Header.Get("X-HTTP-Method-Override")
	if override == "" {
		override = r.PostFormValue("_method")
	}
	switch o := strings.ToUpper(override); o {
	case http.MethodPut, http.MethodPatch, http.MethodDelete:
		return o
	}
	return method
}

func (a *App) handleError(c Context, err error) {
	if c.Written() {
		a.logger.ErrorContext(c.Context(), "error after response started", slog.Any("error", err))
		return
	}
	h := a.errorHandler
	if h == nil {
		h = DefaultErrorHandler
	}
	if herr := h(c, err); herr != nil {
		a.logger.ErrorContext(c.Context(), "error handler failed", slog.Any("error", herr))
	}
}

// DefaultErrorHandler answers JSON to clients that ask for it and a small
// HTML page otherwise. query.ErrNotFound becomes a 404; anything that is
// not an HTTPError becomes an opaque 500.
func DefaultErrorHandler(c Context, err error) error {
	he := AsHTTPError(err)
	if he == nil {
		if errors.Is(err, query.ErrNotFound) {
			he = ErrNotFound(err.Error(), WithError(err))
		} else {
			he = ErrInternal("", WithError(err))
		}
	}
	if he.RequestID == "" {
		he.RequestID = c.Response().Header().Get("X-Request-ID")
	}

	if he.Code >= http.StatusInternalServerError {
		c.LogError("request failed",
			slog.Int("status", he.Code),
			slog.String("path", c.Request().URL.Path),
			slog.Any("error", err),
		)
	}

	if c.WantsJSON() {
		body := map[string]any{"error": he.Message, "code": he.Code}
		if he.ErrorCode != "" {
			body["error_code"] = he.ErrorCode
		}
		if he.Detail != "" {
			body["detail"] = he.Detail
		}
		if he.RequestID != "" {
			body["request_id"] = he.RequestID
		}
		return c.JSON(he.Code, body)
	}

	return c.HTML(he.Code, fmt.Sprintf(
		`<!doctype html><html><head><title>%d %s</title></head>`+
			`<body style="font-family: sans-serif; display: flex; height: 100vh; align-items: center; justify-content: center;">`+
			`<div><h2>%d</h2><p>%s</p></div></body></html>`,
		he.Code, html.EscapeString(he.StatusText()), he.Code, html.EscapeString(he.Message),
	))
}

// healthConfig holds health endpoint configuration.
type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// HealthOption configures health endpoints.
type HealthOption func(*healthConfig)

func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check.
//
//	pype.WithReadinessCheck("db", db.Healthcheck(conn))
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		c.checks[name] = fn
	}
}
