// Package pype is a small web framework: an ordered route table with
// controller actions, middleware aliases, CSRF-protected forms and sessions,
// on top of a fluent query builder that speaks MySQL, PostgreSQL and SQLite.
//
// # Application
//
//	conn, err := db.Open(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	app := pype.New(
//	    pype.WithDatabase(conn.Query()),
//	    pype.WithViews(views),
//	    pype.WithMiddleware(middlewares.Recover(), middlewares.RequestID(), middlewares.Logger()),
//	    pype.WithMiddlewareAlias("auth", middlewares.Auth("/login")),
//	    pype.WithController("PostController", posts),
//	    pype.WithRoutes(func(r pype.Router) {
//	        r.GET("/", home).Name("home")
//	        r.Action(http.MethodGet, "/posts/{id}", "PostController@show").Name("posts.show")
//	        r.Group(func(r pype.Router) {
//	            r.Middleware("auth")
//	            r.Action(http.MethodPost, "/posts", "PostController@store")
//	        })
//	    }),
//	)
//
//	err = app.Run(":8080", pype.ShutdownHook(db.Shutdown(conn)))
//
// # Handlers
//
// Handlers receive a [Context] and return an error. Errors become responses
// through the error handler: [*HTTPError] values keep their status, a
// query.ErrNotFound becomes 404 and anything else 500.
//
//	func show(c pype.Context) error {
//	    post, err := c.DB().Table("posts").FindOrFail(c, pype.Param[int64](c, "id"))
//	    if err != nil {
//	        return err
//	    }
//	    return c.View(http.StatusOK, "posts.show", map[string]any{"post": post})
//	}
//
// # Packages
//
//   - pkg/query, pkg/schema, pkg/db: query builder, DDL and migrations
//   - pkg/model, pkg/seed: table models and seeders
//   - pkg/auth, pkg/oauth: credential and social login
//   - pkg/validator, pkg/sanitizer: input validation and XSS cleaning
//   - pkg/view: dot-notated html/template views
//   - pkg/session, pkg/cookie, pkg/cache, pkg/redis: state
//   - pkg/console: the CLI (serve, migrate, db:seed, make:*)
//   - middlewares: Recover, RequestID, Logger, CORS, Timeout, Auth, Guest,
//     RateLimit, VerifyCSRF
package pype
