// Package oauth adds "Sign in with Google/GitHub/Facebook" to an application.
//
// Providers wrap golang.org/x/oauth2 and normalise the profile into a
// [UserInfo]; all of them refuse accounts without a verified email. [Social] is a
// route handler serving the redirect and callback endpoints:
//
//	providers, err := oauth.ProvidersFromEnv()
//	social := oauth.NewSocial(func(c pype.Context, u *oauth.UserInfo) error {
//	    user, err := oauth.SyncUser(c.Context(), c.DB(), "users", u)
//	    if err != nil {
//	        return err
//	    }
//	    if err := c.AuthenticateSession(user.String("id")); err != nil {
//	        return err
//	    }
//	    return c.Redirect(http.StatusFound, "/")
//	}, oauth.WithProviders(providers...), oauth.WithFailureRedirect("/login"))
//
//	app := pype.New(pype.WithHandlers(social))
//
// The state parameter is kept in the session and checked once on callback.
// Failures redirect to the failure URL with error=access_denied or
// error=callback_failed.
package oauth
