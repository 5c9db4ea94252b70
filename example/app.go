package main

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pypehq/pype"
	"github.com/pypehq/pype/example/controllers"
	"github.com/pypehq/pype/example/database"
	"github.com/pypehq/pype/middlewares"
	"github.com/pypehq/pype/pkg/auth"
	"github.com/pypehq/pype/pkg/cache"
	"github.com/pypehq/pype/pkg/db"
	"github.com/pypehq/pype/pkg/mailer"
	"github.com/pypehq/pype/pkg/oauth"
	"github.com/pypehq/pype/pkg/redis"
	"github.com/pypehq/pype/pkg/session"
	"github.com/pypehq/pype/pkg/storage"
	"github.com/pypehq/pype/pkg/validator"
	"github.com/pypehq/pype/pkg/view"
)

//go:embed views
var viewFiles embed.FS

// services are the connections newApp wires into the blog.
type services struct {
	conn  *db.Connection
	rdb   redis.Client // optional
	mail  mailer.Sender
	files storage.Storage
}

// newApp wires the blog. With a nil rdb sessions live in the database and
// rate limits in process memory.
func newApp(cfg config, log *slog.Logger, svc services) (*pype.App, error) {
	conn, rdb := svc.conn, svc.rdb
	q := conn.Query()

	views, err := fs.Sub(viewFiles, "views")
	if err != nil {
		return nil, err
	}
	providers, err := oauth.ProvidersFromEnv()
	if err != nil {
		return nil, err
	}
	m, err := newMailer(cfg, svc.mail)
	if err != nil {
		return nil, err
	}

	var (
		store   pype.SessionStore
		counter cache.Counter
		checks  = []pype.HealthOption{pype.WithReadinessCheck("database", db.Healthcheck(conn))}
	)
	if rdb != nil {
		store = session.NewCacheStore(cache.NewRedis[[]byte](rdb, cache.WithPrefix("blog:session")))
		counter = cache.NewRedisCounter(rdb, "blog")
		checks = append(checks, pype.WithReadinessCheck("redis", redis.Healthcheck(rdb)))
	} else {
		store = session.NewDatabaseStore(q, database.SessionsTable)
		counter = cache.NewMemoryCounter()
	}

	guard := auth.New(q)
	authCtl := controllers.NewAuthController(guard, m, "/posts")
	social := oauth.NewSocial(authCtl.SocialLogin,
		oauth.WithProviders(providers...),
		oauth.WithCallbackBase(cfg.URL),
		oauth.WithFailureRedirect("/login"),
	)
	remember := middlewares.WithRememberMe(guard.ResolveRememberToken)

	opts := []pype.Option{
		pype.WithCustomLogger(log),
		pype.WithDatabase(q),
		pype.WithValidator(validator.New(validator.WithDB(q))),
		pype.WithViews(view.New(views, view.WithLayout("layouts.app"), view.WithReload(cfg.Debug))),
		pype.WithCookieOptions(pype.WithCookieSecret(cfg.Secret), pype.WithCookieSecure(cfg.SecureCookies)),
		pype.WithSession(store, pype.WithSessionSecure(cfg.SecureCookies)),
		pype.WithMiddleware(
			middlewares.RequestID(),
			middlewares.Recover(),
			middlewares.Logger(),
			middlewares.CORS(middlewares.WithAllowOrigins(cfg.CORSOrigins...)),
			middlewares.RateLimit(counter, cfg.RateLimit, time.Minute),
			middlewares.Timeout(cfg.RequestTimeout),
		),
		pype.WithMiddlewareAlias("auth", middlewares.Auth("/login", remember)),
		pype.WithMiddlewareAlias("guest", middlewares.Guest("/posts", remember)),
		pype.WithController("PostController", controllers.NewPostController(q, svc.files)),
		pype.WithController("AuthController", authCtl),
		pype.WithHandlers(social),
		pype.WithRoutes(routes),
		pype.WithHealthChecks(checks...),
	}
	if local, ok := svc.files.(*storage.LocalStorage); ok {
		opts = append(opts, pype.WithStaticFiles(strings.TrimSuffix(cfg.Storage.URL, "/")+"/", local.FS(), "."))
	}
	return pype.New(opts...), nil
}

func routes(r pype.Router) {
	r.GET("/", func(c pype.Context) error {
		return c.Redirect(http.StatusFound, "/posts")
	}).Name("home")

	r.Group(func(r pype.Router) {
		r.Middleware("guest")
		r.Action(http.MethodGet, "/login", "AuthController@showLogin").Name("login")
		r.Action(http.MethodPost, "/login", "AuthController@login")
		r.Action(http.MethodGet, "/register", "AuthController@showRegister").Name("register")
		r.Action(http.MethodPost, "/register", "AuthController@register")
	})
	r.Action(http.MethodPost, "/logout", "AuthController@logout").Name("logout")

	r.Route("/posts", func(r pype.Router) {
		r.Action(http.MethodGet, "/", "PostController@index").Name("posts.index")
		r.Group(func(r pype.Router) {
			r.Middleware("auth")
			r.Action(http.MethodGet, "/create", "PostController@create").Name("posts.create")
			r.Action(http.MethodPost, "/", "PostController@store").Name("posts.store")
			r.Action(http.MethodGet, "/{id}/edit", "PostController@edit").Name("posts.edit")
			r.Action(http.MethodPut, "/{id}", "PostController@update").Name("posts.update")
			r.Action(http.MethodDelete, "/{id}", "PostController@destroy").Name("posts.destroy")
		})
		r.Action(http.MethodGet, "/{id}", "PostController@show").Name("posts.show")
	})
}
