package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/pypehq/pype"
	"github.com/pypehq/pype/middlewares"
	"github.com/pypehq/pype/pkg/auth"
	"github.com/pypehq/pype/pkg/mailer"
	"github.com/pypehq/pype/pkg/oauth"
	"github.com/pypehq/pype/pkg/query"
)

// AuthController signs visitors in and out with email and password and
// welcomes new accounts by mail.
type AuthController struct {
	guard *auth.Guard
	mail  *mailer.Mailer
	home  string
}

func NewAuthController(guard *auth.Guard, mail *mailer.Mailer, home string) *AuthController {
	return &AuthController{guard: guard, mail: mail, home: home}
}

func (ac *AuthController) Action(name string) (pype.HandlerFunc, bool) {
	return pype.Actions{
		"showLogin":    ac.showLogin,
		"login":        ac.login,
		"showRegister": ac.showRegister,
		"register":     ac.register,
		"logout":       ac.logout,
	}.Action(name)
}

func (ac *AuthController) showLogin(c pype.Context) error {
	return ac.page(c, "auth.login", "Sign in")
}

func (ac *AuthController) showRegister(c pype.Context) error {
	return ac.page(c, "auth.register", "Create an account")
}

func (ac *AuthController) login(c pype.Context) error {
	user, err := ac.guard.Attempt(c, c.Form("email"), c.Form("password"))
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrMissingCredentials):
		if c.WantsJSON() {
			return pype.ErrUnprocessable("These credentials do not match our records.")
		}
		if err := c.SetFlash("error", "These credentials do not match our records."); err != nil {
			return err
		}
		return c.Back("/login")
	case err != nil:
		return err
	}

	if c.Form("remember") != "" {
		token, expires, err := ac.guard.IssueRememberToken(c, user["id"])
		if err != nil {
			return err
		}
		c.SetCookie(middlewares.DefaultRememberCookie, token, int(time.Until(expires).Seconds()))
	}
	return ac.signIn(c, user.String("id"))
}

func (ac *AuthController) register(c pype.Context) error {
	res, err := c.Validate(map[string]string{
		"name":     "required|max:100",
		"email":    "required|email|unique:users,email",
		"password": "required|min:8|confirmed",
	})
	if err != nil {
		return err
	}
	if res.Fails() {
		if c.WantsJSON() {
			return c.JSON(http.StatusUnprocessableEntity, map[string]any{"errors": res.Errors()})
		}
		if err := c.SetFlash("errors", res.Errors()); err != nil {
			return err
		}
		return c.Back("/register")
	}

	user, err := ac.guard.Register(c, map[string]any{
		"name":     c.Input("name"),
		"email":    c.Form("email"),
		"password": c.Form("password"),
	})
	if errors.Is(err, auth.ErrEmailTaken) {
		return pype.ErrConflict("That email is already registered")
	}
	if err != nil {
		return err
	}
	ac.welcome(c, user)
	return ac.signIn(c, user.String("id"))
}

// welcome mails a new user. Delivery failures are logged; the account
// already exists.
func (ac *AuthController) welcome(c pype.Context, user query.Row) {
	if ac.mail == nil {
		return
	}
	err := ac.mail.Send(c, mailer.SendParams{
		To:       mailer.Recipient(user.String("name"), user.String("email")),
		Template: "welcome.md",
		Data:     map[string]any{"Name": user.String("name"), "Home": ac.home},
		Tags:     mailer.SimpleTags("welcome"),
	})
	if err != nil {
		c.LogWarn("welcome mail", "error", err)
	}
}

func (ac *AuthController) logout(c pype.Context) error {
	if token, err := c.Cookie(middlewares.DefaultRememberCookie); err == nil && token != "" {
		if err := ac.guard.ForgetRememberToken(c, token); err != nil {
			c.LogWarn("forget remember token", "error", err)
		}
		c.DeleteCookie(middlewares.DefaultRememberCookie)
	}
	if err := c.Logout(); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, ac.home)
}

// SocialLogin completes an OAuth sign-in by finding or creating the user.
func (ac *AuthController) SocialLogin(c pype.Context, info *oauth.UserInfo) error {
	user, err := oauth.SyncUser(c, c.DB(), auth.DefaultTable, info)
	if err != nil {
		return err
	}
	return ac.signIn(c, user.String("id"))
}

func (ac *AuthController) signIn(c pype.Context, userID string) error {
	if err := c.AuthenticateSession(userID); err != nil {
		return err
	}
	if c.WantsJSON() {
		return c.JSON(http.StatusOK, map[string]any{"user_id": userID})
	}
	return c.Redirect(http.StatusSeeOther, ac.home)
}

func (ac *AuthController) page(c pype.Context, view, title string) error {
	msg, _ := c.Flash("error")
	errs, _ := c.Flash("errors")
	return c.View(http.StatusOK, view, map[string]any{
		"title":  title,
		"error":  msg,
		"errors": errs,
	})
}
