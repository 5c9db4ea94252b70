// Package internal holds the request pipeline behind package pype.
//
// Import "github.com/pypehq/pype" instead; it re-exports everything an
// application needs.
//
// # Request lifecycle
//
// chi owns the outer mux: static directories, mounted handlers and the health
// endpoints are served there directly. Every other request falls through to
// [App] dispatch:
//
//  1. global middleware (registered with [WithMiddleware]) wraps the whole
//     dispatch, 404s included
//  2. the effective method is computed; a POST may carry _method or
//     X-HTTP-Method-Override with PUT, PATCH or DELETE
//  3. routes are tried in registration order, first match wins; HEAD is
//     answered by GET routes
//  4. POST routes require a CSRF token unless marked with [Route.CSRFExempt]
//  5. the target is resolved: a closure or a "Controller@method" action
//  6. route middleware (functions or aliases) runs around the target
//
// Errors returned anywhere in the chain reach the error handler, which
// renders JSON for clients that ask for it and a small HTML page otherwise.
//
// # Routes
//
//	app := internal.New(
//	    internal.WithController("PostController", posts),
//	    internal.WithMiddlewareAlias("auth", middlewares.Auth("/login")),
//	    internal.WithRoutes(func(r internal.Router) {
//	        r.GET("/", home).Name("home")
//	        r.Route("/posts", func(r internal.Router) {
//	            r.Action(http.MethodGet, "/", "PostController@index").Name("posts.index")
//	            r.Action(http.MethodGet, "/{id}", "PostController@show").Name("posts.show")
//	            r.Group(func(r internal.Router) {
//	                r.Middleware("auth")
//	                r.Action(http.MethodPost, "/", "PostController@store")
//	            })
//	        })
//	    }),
//	)
//
// Named routes build URLs; parameters without a placeholder become the query
// string:
//
//	u, _ := app.URL("posts.show", map[string]any{"id": 5, "tab": "comments"})
//	// /posts/5?tab=comments
//
// # Sessions and CSRF
//
// Sessions are loaded lazily on first use and their cookie is written just
// before the response headers go out. Without [WithSession] an in-memory
// store is used. [Context.CSRFToken] stores the token in the session under
// "_token"; forms submit it as csrf_token and scripts as X-CSRF-Token.
package internal
