package oauth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/pypehq/pype/internal"
	"github.com/pypehq/pype/pkg/query"
)

const stateSessionKey = "_oauth_state"

// LoginFunc finishes a social login: it usually stores the user with
// SyncUser, calls Context.AuthenticateSession and redirects.
type LoginFunc func(c internal.Context, user *UserInfo) error

// Social serves the redirect and callback endpoints for a set of providers:
//
//	GET {prefix}/{provider}            -> provider consent page
//	GET {prefix}/{provider}/callback   -> LoginFunc
type Social struct {
	providers map[string]Provider
	login     LoginFunc
	prefix    string
	failure   string
	baseURL   string
}

// SocialOption configures Social.
type SocialOption func(*Social)

func WithProviders(providers ...Provider) SocialOption {
	return func(s *Social) {
		for _, p := range providers {
			s.providers[p.Name()] = p
		}
	}
}

// WithPrefix changes the route prefix. Default "/auth".
func WithPrefix(prefix string) SocialOption {
	return func(s *Social) { s.prefix = strings.TrimRight(prefix, "/") }
}

// WithFailureRedirect sets where failed logins land, with ?error=<reason>.
// Default "/".
func WithFailureRedirect(u string) SocialOption {
	return func(s *Social) { s.failure = u }
}

// WithCallbackBase derives each provider's redirect URI from baseURL, e.g.
// https://example.com/auth/github/callback, instead of the configured one.
func WithCallbackBase(baseURL string) SocialOption {
	return func(s *Social) { s.baseURL = strings.TrimRight(baseURL, "/") }
}

func NewSocial(login LoginFunc, opts ...SocialOption) *Social {
	s := &Social{
		providers: make(map[string]Provider),
		login:     login,
		prefix:    "/auth",
		failure:   "/",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes registers the endpoints. Social is an internal.Handler.
func (s *Social) Routes(r internal.Router) {
	r.GET(s.prefix+"/{provider}", s.redirect).Name("oauth.redirect")
	r.GET(s.prefix+"/{provider}/callback", s.callback).Name("oauth.callback")
}

func (s *Social) provider(c internal.Context) (Provider, error) {
	p, ok := s.providers[c.Param("provider")]
	if !ok {
		return nil, internal.ErrNotFound("Unknown login provider", internal.WithError(ErrUnknownProvider))
	}
	return p, nil
}

func (s *Social) redirectURI(name string) string {
	if s.baseURL == "" {
		return ""
	}
	return s.baseURL + s.prefix + "/" + name + "/callback"
}

func (s *Social) redirect(c internal.Context) error {
	p, err := s.provider(c)
	if err != nil {
		return err
	}

	state, err := newState()
	if err != nil {
		return err
	}
	if err := c.SetSessionValue(stateSessionKey, state); err != nil {
		return err
	}

	var opts []oauth2.AuthCodeOption
	if uri := s.redirectURI(p.Name()); uri != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", uri))
	}
	return c.Redirect(http.StatusFound, p.AuthCodeURL(state, opts...))
}

func (s *Social) callback(c internal.Context) error {
	p, err := s.provider(c)
	if err != nil {
		return err
	}

	if reason := c.Query("error"); reason != "" {
		c.LogWarn("social login denied", slog.String("provider", p.Name()), slog.String("reason", reason))
		return s.fail(c, "access_denied")
	}

	user, err := s.complete(c, p)
	if err != nil {
		c.LogError("social login failed", slog.String("provider", p.Name()), slog.Any("error", err))
		return s.fail(c, "callback_failed")
	}

	c.LogInfo("social login", slog.String("provider", p.Name()), slog.String("email", user.Email))
	return s.login(c, user)
}

func (s *Social) complete(c internal.Context, p Provider) (*UserInfo, error) {
	stored, err := c.SessionValue(stateSessionKey)
	if err != nil {
		return nil, errors.Join(ErrStateMismatch, err)
	}
	_ = c.DeleteSessionValue(stateSessionKey)

	want, _ := stored.(string)
	got := c.Query("state")
	if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		return nil, ErrStateMismatch
	}

	code := c.Query("code")
	if code == "" {
		return nil, ErrMissingCode
	}

	ctx, cancel := context.WithTimeout(c.Context(), 15*time.Second)
	defer cancel()

	token, err := p.Exchange(ctx, code, s.redirectURI(p.Name()))
	if err != nil {
		return nil, err
	}
	return p.FetchUserInfo(ctx, token)
}

func (s *Social) fail(c internal.Context, reason string) error {
	sep := "?"
	if strings.Contains(s.failure, "?") {
		sep = "&"
	}
	return c.Redirect(http.StatusFound, s.failure+sep+"error="+url.QueryEscape(reason))
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// SyncUser returns the row in table whose email matches user, inserting it
// from user.Attributes first when none exists.
func SyncUser(ctx context.Context, db *query.DB, table string, user *UserInfo) (query.Row, error) {
	row, err := db.Table(table).Where("email", user.Email).First(ctx)
	if err != nil || row != nil {
		return row, err
	}

	attrs := user.Attributes()
	attrs["email_verified_at"] = time.Now().UTC()
	id, err := db.Table(table).Insert(ctx, attrs)
	if err != nil {
		return nil, err
	}
	return db.Table(table).FindOrFail(ctx, id)
}
