// Package middlewares provides the stock middleware for pype applications.
//
// Cross-cutting middleware is registered globally and wraps every request,
// 404s included:
//
//	app := pype.New(
//	    pype.WithLogger("web", logger.Config{}, middlewares.RequestIDExtractor()),
//	    pype.WithMiddleware(
//	        middlewares.Recover(),
//	        middlewares.RequestID(),
//	        middlewares.Logger(),
//	        middlewares.CORS(middlewares.WithAllowOrigins("https://app.example.com")),
//	    ),
//	)
//
// Access control is usually registered under an alias and attached to
// routes or groups:
//
//	pype.WithMiddlewareAlias("auth", middlewares.Auth("/login",
//	    middlewares.WithRememberMe(guard.ResolveRememberToken))),
//	pype.WithMiddlewareAlias("guest", middlewares.Guest("/dashboard")),
//	pype.WithMiddlewareAlias("throttle", middlewares.RateLimit(cache.NewMemoryCounter(), 60, time.Minute)),
//
//	r.GET("/dashboard", dashboard).Middleware("auth")
//
// Recover and Timeout return HTTP errors wrapping [*PanicError] and
// [*TimeoutError]; use [AsPanicError] and [AsTimeoutError] in a custom
// error handler to inspect them.
package middlewares
