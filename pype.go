package pype

import (
	"context"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pypehq/pype/internal"
	"github.com/pypehq/pype/pkg/cookie"
	"github.com/pypehq/pype/pkg/health"
	"github.com/pypehq/pype/pkg/logger"
	"github.com/pypehq/pype/pkg/query"
	"github.com/pypehq/pype/pkg/session"
	"github.com/pypehq/pype/pkg/validator"
	"github.com/pypehq/pype/pkg/view"
)

// Type aliases - public API
type (
	// App is the HTTP application: route table, pipeline and server runtime.
	App = internal.App

	// Router declares routes, groups and middleware scopes.
	Router = internal.Router

	// Route is a registered route; chain Name and CSRFExempt on it.
	Route = internal.Route

	// RouteInfo describes a route for listings.
	RouteInfo = internal.RouteInfo

	// Context is the per-request handle passed to handlers and middleware.
	Context = internal.Context

	Handler      = internal.Handler
	HandlerFunc  = internal.HandlerFunc
	Middleware   = internal.Middleware
	ErrorHandler = internal.ErrorHandler

	// Controller resolves "Name@action" route targets.
	Controller = internal.Controller

	// Actions is a map-backed Controller.
	Actions = internal.Actions

	Option       = internal.Option
	RunOption    = internal.RunOption
	HealthOption = internal.HealthOption

	HTTPError       = internal.HTTPError
	HTTPErrorOption = internal.HTTPErrorOption

	ResponseWriter = internal.ResponseWriter

	// ContextExtractor adds request-scoped attributes to log records.
	ContextExtractor = logger.ContextExtractor

	CookieOption  = cookie.Option
	SessionOption = internal.SessionOption
	Session       = session.Session
	SessionStore  = session.Store

	// Scalar lists the types the typed request accessors convert to.
	Scalar = internal.Scalar
)

// StatusPageExpired is the status answered on CSRF token mismatch.
const StatusPageExpired = internal.StatusPageExpired

// Sentinel errors wrapped by the HTTPErrors the pipeline produces.
var (
	ErrRouteNotFound      = internal.ErrRouteNotFound
	ErrRouteNameNotFound  = internal.ErrRouteNameNotFound
	ErrRouteParamMissing  = internal.ErrRouteParamMissing
	ErrControllerNotFound = internal.ErrControllerNotFound
	ErrActionNotFound     = internal.ErrActionNotFound
	ErrInvalidAction      = internal.ErrInvalidAction
	ErrMiddlewareNotFound = internal.ErrMiddlewareNotFound
	ErrCSRFTokenMismatch  = internal.ErrCSRFTokenMismatch
	ErrViewsNotConfigured = internal.ErrViewsNotConfigured
	ErrDBNotConfigured    = internal.ErrDBNotConfigured
)

// New creates an application. The route table is fixed once New returns.
//
// Example:
//
//	app := pype.New(
//	    pype.WithDatabase(conn.Query()),
//	    pype.WithMiddleware(middlewares.Recover(), middlewares.RequestID()),
//	    pype.WithMiddlewareAlias("auth", middlewares.Auth("/login")),
//	    pype.WithController("PostController", controllers.NewPostController()),
//	    pype.WithRoutes(routes.Web),
//	)
//
//	err := app.Run(":8080", pype.ShutdownHook(db.Shutdown(conn)))
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// App options

// WithMiddleware adds global middleware. It wraps route dispatch, so it
// also runs for requests that match no route.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithMiddlewareAlias names a middleware for Router.Middleware("name").
func WithMiddlewareAlias(name string, mw Middleware) Option {
	return internal.WithMiddlewareAlias(name, mw)
}

// WithHandlers registers handlers that declare routes.
func WithHandlers(h ...Handler) Option {
	return internal.WithHandlers(h...)
}

// WithRoutes declares routes with a function, like a routes file.
func WithRoutes(fn func(r Router)) Option {
	return internal.WithRoutes(fn)
}

// WithController registers a controller for "Name@action" routes.
func WithController(name string, ctrl Controller) Option {
	return internal.WithController(name, ctrl)
}

// WithStaticFiles serves fsys (rooted at subDir) under pattern.
//
// Example:
//
//	//go:embed public
//	var assets embed.FS
//
//	pype.New(pype.WithStaticFiles("/static/", assets, "public"))
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return internal.WithStaticFiles(pattern, fsys, subDir)
}

// WithMount attaches an http.Handler under pattern, outside the pipeline.
func WithMount(pattern string, h http.Handler) Option {
	return internal.WithMount(pattern, h)
}

func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

func WithNotFoundHandler(h HandlerFunc) Option {
	return internal.WithNotFoundHandler(h)
}

// WithHealthChecks enables /health/live and /health/ready.
//
// Example:
//
//	pype.WithHealthChecks(
//	    pype.WithReadinessCheck("db", db.Healthcheck(conn)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// WithLogger builds the application logger with a component attribute and
// context extractors.
func WithLogger(component string, cfg logger.Config, extractors ...ContextExtractor) Option {
	return internal.WithLogger(component, cfg, extractors...)
}

func WithCustomLogger(l *slog.Logger) Option {
	return internal.WithCustomLogger(l)
}

// WithDatabase makes the query handle available as Context.DB.
func WithDatabase(db *query.DB) Option {
	return internal.WithDatabase(db)
}

// WithViews enables Context.View.
func WithViews(e *view.Engine) Option {
	return internal.WithViews(e)
}

// WithValidator replaces the validator behind Context.Validate, e.g. one
// with a database for unique and exists rules.
func WithValidator(v *validator.Validator) Option {
	return internal.WithValidator(v)
}

// WithoutCSRF disables the CSRF check on POST routes.
func WithoutCSRF() Option {
	return internal.WithoutCSRF()
}

// Cookies

// WithCookieOptions configures the cookie jar used by Context cookie helpers.
func WithCookieOptions(opts ...CookieOption) Option {
	return internal.WithCookieOptions(opts...)
}

// WithCookieSecret sets the secret for signed and encrypted cookies. It must
// be at least 32 bytes.
func WithCookieSecret(secret string) CookieOption {
	return cookie.WithSecret(secret)
}

func WithCookieDomain(domain string) CookieOption {
	return cookie.WithDomain(domain)
}

func WithCookiePath(path string) CookieOption {
	return cookie.WithPath(path)
}

func WithCookieSecure(secure bool) CookieOption {
	return cookie.WithSecure(secure)
}

func WithCookieHTTPOnly(httpOnly bool) CookieOption {
	return cookie.WithHTTPOnly(httpOnly)
}

func WithCookieSameSite(ss http.SameSite) CookieOption {
	return cookie.WithSameSite(ss)
}

// Sessions

// WithSession replaces the default in-memory session store.
//
// Example:
//
//	store := session.NewCacheStore(cache.NewRedis[[]byte](rdb, "session:"))
//	pype.New(pype.WithSession(store, pype.WithSessionSecure(true)))
func WithSession(store SessionStore, opts ...SessionOption) Option {
	return internal.WithSession(store, opts...)
}

func WithSessionCookieName(name string) SessionOption {
	return internal.WithSessionCookieName(name)
}

func WithSessionMaxAge(seconds int) SessionOption {
	return internal.WithSessionMaxAge(seconds)
}

func WithSessionDomain(domain string) SessionOption {
	return internal.WithSessionDomain(domain)
}

func WithSessionPath(path string) SessionOption {
	return internal.WithSessionPath(path)
}

func WithSessionSecure(secure bool) SessionOption {
	return internal.WithSessionSecure(secure)
}

func WithSessionHTTPOnly(httpOnly bool) SessionOption {
	return internal.WithSessionHTTPOnly(httpOnly)
}

func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return internal.WithSessionSameSite(sameSite)
}

// WithSessionTouchInterval limits how often last-activity is written back.
func WithSessionTouchInterval(d time.Duration) SessionOption {
	return internal.WithSessionTouchInterval(d)
}

// SessionValue reads a typed session value.
func SessionValue[T any](sess *Session, key string) (T, error) {
	return session.Value[T](sess, key)
}

// SessionValueOr reads a typed session value or returns def.
func SessionValueOr[T any](sess *Session, key string, def T) T {
	return session.ValueOr(sess, key, def)
}

// Run options

// Logger sets the server lifecycle logger.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout bounds graceful shutdown. Default 30s.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// StartupHook runs before the server accepts connections; an error aborts
// startup.
func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook runs after the server stopped accepting requests.
//
// Example:
//
//	app.Run(":8080", pype.ShutdownHook(db.Shutdown(conn)))
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets the base context; cancelling it stops the server.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// WithListener serves on ln instead of listening on the address.
func WithListener(ln net.Listener) RunOption {
	return internal.WithListener(ln)
}

// Request helpers

// Param returns a typed path parameter; conversion failures give the zero
// value.
func Param[T Scalar](c Context, name string) T {
	return internal.Param[T](c, name)
}

func Query[T Scalar](c Context, name string) T {
	return internal.Query[T](c, name)
}

func QueryDefault[T Scalar](c Context, name string, def T) T {
	return internal.QueryDefault(c, name, def)
}

func Form[T Scalar](c Context, name string) T {
	return internal.Form[T](c, name)
}

// ContextValue reads a typed value stored with Context.Set.
func ContextValue[T any](c Context, key any) T {
	return internal.ContextValue[T](c, key)
}

// ClientIP returns the client address, honouring X-Forwarded-For and
// X-Real-IP.
func ClientIP(r *http.Request) string {
	return internal.ClientIP(r)
}

// Errors

func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.NewHTTPError(code, message, opts...)
}

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrBadRequest(message, opts...)
}

func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrUnauthorized(message, opts...)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrForbidden(message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrNotFound(message, opts...)
}

func ErrConflict(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrConflict(message, opts...)
}

func ErrPageExpired(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrPageExpired(message, opts...)
}

func ErrUnprocessable(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrUnprocessable(message, opts...)
}

func ErrTooManyRequests(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrTooManyRequests(message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrInternal(message, opts...)
}

func ErrServiceUnavailable(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrServiceUnavailable(message, opts...)
}

func WithTitle(title string) HTTPErrorOption {
	return internal.WithTitle(title)
}

func WithDetail(detail string) HTTPErrorOption {
	return internal.WithDetail(detail)
}

func WithErrorCode(code string) HTTPErrorOption {
	return internal.WithErrorCode(code)
}

// WithError attaches the underlying cause. It is logged, never rendered.
func WithError(err error) HTTPErrorOption {
	return internal.WithError(err)
}

func AsHTTPError(err error) *HTTPError {
	return internal.AsHTTPError(err)
}

func IsHTTPError(err error) bool {
	return internal.IsHTTPError(err)
}

// DefaultErrorHandler renders JSON for clients that ask for it and a small
// HTML page otherwise.
func DefaultErrorHandler(c Context, err error) error {
	return internal.DefaultErrorHandler(c, err)
}
