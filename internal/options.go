package internal

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pypehq/pype/pkg/cookie"
	"github.com/pypehq/pype/pkg/health"
	"github.com/pypehq/pype/pkg/logger"
	"github.com/pypehq/pype/pkg/query"
	"github.com/pypehq/pype/pkg/session"
	"github.com/pypehq/pype/pkg/validator"
	"github.com/pypehq/pype/pkg/view"
)

// Option configures the application.
type Option func(*App)

// WithMiddleware adds global middleware. It wraps route matching, so it
// also runs for 404s. The first one given runs outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithMiddlewareAlias registers mw under a name usable in
// Route.Middleware and Router.Middleware.
func WithMiddlewareAlias(name string, mw Middleware) Option {
	return func(a *App) {
		a.aliases[name] = mw
	}
}

// WithHandlers registers handlers that declare routes. Routes match in
// registration order.
func WithHandlers(h ...Handler) Option {
	return func(a *App) {
		a.handlers = append(a.handlers, h...)
	}
}

// WithRoutes registers routes from a plain function.
//
//	pype.WithRoutes(func(r pype.Router) {
//	    r.Action("GET", "/posts", "PostController@index")
//	})
func WithRoutes(fn func(r Router)) Option {
	return WithHandlers(routesFunc(fn))
}

type routesFunc func(r Router)

func (f routesFunc) Routes(r Router) { f(r) }

// WithController makes ctrl resolvable as name in "name@action" targets.
func WithController(name string, ctrl Controller) Option {
	return func(a *App) {
		a.controllers[name] = ctrl
	}
}

// WithStaticFiles serves subDir of fsys under pattern, without
// directory listings.
//
//	//go:embed public
//	var assets embed.FS
//
//	pype.WithStaticFiles("/static/", assets, "public")
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return func(a *App) {
		sub, err := fs.Sub(fsys, subDir)
		if err != nil {
			panic(fmt.Sprintf("static files: %v", err))
		}
		files := http.StripPrefix(strings.TrimSuffix(pattern, "/"), http.FileServerFS(sub))

		a.mounts = append(a.mounts, mount{pattern: pattern, handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Cache-Control", "public, max-age=3600")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			files.ServeHTTP(w, r)
		})})
	}
}

// WithMount attaches a plain http.Handler ahead of the pipeline.
func WithMount(pattern string, h http.Handler) Option {
	return func(a *App) {
		a.mounts = append(a.mounts, mount{pattern: pattern, handler: h})
	}
}

// WithErrorHandler replaces DefaultErrorHandler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.errorHandler = h
	}
}

// WithNotFoundHandler answers requests no route matched.
func WithNotFoundHandler(h HandlerFunc) Option {
	return func(a *App) {
		a.notFoundHandler = h
	}
}

// WithHealthChecks serves /health/live and /health/ready.
//
//	pype.WithHealthChecks(
//	    pype.WithReadinessCheck("db", db.Healthcheck(conn)),
//	    pype.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		cfg := &healthConfig{
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
			checks:        make(health.Checks),
		}
		for _, opt := range opts {
			opt(cfg)
		}
		a.healthConfig = cfg
	}
}

// WithLogger builds a logger from cfg and tags entries with component.
func WithLogger(component string, cfg logger.Config, extractors ...logger.ContextExtractor) Option {
	return func(a *App) {
		a.logger = logger.New(cfg, extractors...).With(slog.String("component", component))
	}
}

func WithCustomLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithCookieOptions configures the cookie jar. A bad secret panics at
// startup.
//
//	pype.WithCookieOptions(cookie.WithSecret(cfg.Key), cookie.WithSecure(true))
func WithCookieOptions(opts ...cookie.Option) Option {
	return func(a *App) {
		jar, err := cookie.New(opts...)
		if err != nil {
			panic(fmt.Sprintf("cookie: %v", err))
		}
		a.cookies = jar
	}
}

// WithSession replaces the in-memory session store.
//
//	pype.WithSession(session.NewDatabaseStore(conn.Query(), session.DefaultTable),
//	    pype.WithSessionSecure(true),
//	)
func WithSession(store session.Store, opts ...SessionOption) Option {
	return func(a *App) {
		a.sessions = NewSessionManager(store, opts...)
	}
}

// WithoutCSRF turns off the automatic token check on POST routes.
func WithoutCSRF() Option {
	return func(a *App) {
		a.csrf = false
	}
}

// WithDatabase exposes db to handlers through c.DB() and enables the
// unique and exists validation rules.
func WithDatabase(db *query.DB) Option {
	return func(a *App) {
		a.db = db
	}
}

// WithViews enables c.View.
func WithViews(e *view.Engine) Option {
	return func(a *App) {
		a.views = e
	}
}

// WithValidator replaces the default validator.
func WithValidator(v *validator.Validator) Option {
	return func(a *App) {
		if v != nil {
			a.validator = v
		}
	}
}
