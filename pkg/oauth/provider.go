package oauth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// UserInfo is the provider-independent profile returned after login.
type UserInfo struct {
	Provider string
	ID       string
	Email    string
	Name     string
	Picture  string
}

// Attributes maps the profile onto the users table columns created by
// social sign-up.
func (u *UserInfo) Attributes() map[string]any {
	return map[string]any{
		"name":        u.Name,
		"email":       u.Email,
		"avatar":      u.Picture,
		"provider":    u.Provider,
		"provider_id": u.ID,
	}
}

// Provider is one OAuth2 identity provider.
type Provider interface {
	Name() string
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string

	// Exchange trades a code for a token. A non-empty redirectURI replaces the
	// configured one and must match the URI used in AuthCodeURL.
	Exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error)

	// FetchUserInfo must return ErrEmailNotVerified for unverified emails.
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error)
}

// base carries the oauth2 plumbing shared by the bundled providers.
type base struct {
	name       string
	config     *oauth2.Config
	httpClient *http.Client
}

func newBase(name string, cfg providerConfig, defaults []string, endpoint oauth2.Endpoint, opts []Option) (base, error) {
	if cfg.ClientID == "" {
		return base{}, ErrMissingClientID
	}
	if cfg.ClientSecret == "" {
		return base{}, ErrMissingClientSecret
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = defaults
	}

	return base{
		name: name,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		httpClient: o.httpClient,
	}, nil
}

func (b base) Name() string { return b.name }

func (b base) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	return b.config.AuthCodeURL(state, opts...)
}

func (b base) Exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error) {
	cfg := b.config
	if redirectURI != "" {
		c := *b.config
		c.RedirectURL = redirectURI
		cfg = &c
	}
	return cfg.Exchange(b.withClient(ctx), code)
}

// client returns an HTTP client that authorizes requests with token.
func (b base) client(ctx context.Context, token *oauth2.Token) *http.Client {
	return b.config.Client(b.withClient(ctx), token)
}

func (b base) withClient(ctx context.Context) context.Context {
	if b.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, b.httpClient)
	}
	return ctx
}
