package oauth

import (
	"github.com/caarlos0/env/v11"
)

type providerConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// GoogleConfig holds Google OAuth configuration.
type GoogleConfig struct {
	ClientID     string   `env:"GOOGLE_OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"GOOGLE_OAUTH_REDIRECT_URL"`
	Scopes       []string `env:"GOOGLE_OAUTH_SCOPES" envSeparator:","`
}

// GitHubConfig holds GitHub OAuth configuration.
type GitHubConfig struct {
	ClientID     string   `env:"GITHUB_OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"GITHUB_OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"GITHUB_OAUTH_REDIRECT_URL"`
	Scopes       []string `env:"GITHUB_OAUTH_SCOPES" envSeparator:","`
}

// FacebookConfig holds Facebook OAuth configuration.
type FacebookConfig struct {
	ClientID     string   `env:"FACEBOOK_OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"FACEBOOK_OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"FACEBOOK_OAUTH_REDIRECT_URL"`
	Scopes       []string `env:"FACEBOOK_OAUTH_SCOPES" envSeparator:","`
}

// ProvidersFromEnv builds every bundled provider whose client id is set in
// the environment. Having none configured is not an error.
func ProvidersFromEnv(opts ...Option) ([]Provider, error) {
	var out []Provider

	google, err := env.ParseAs[GoogleConfig]()
	if err != nil {
		return nil, err
	}
	if google.ClientID != "" {
		p, err := NewGoogleProvider(google, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	github, err := env.ParseAs[GitHubConfig]()
	if err != nil {
		return nil, err
	}
	if github.ClientID != "" {
		p, err := NewGitHubProvider(github, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	facebook, err := env.ParseAs[FacebookConfig]()
	if err != nil {
		return nil, err
	}
	if facebook.ClientID != "" {
		p, err := NewFacebookProvider(facebook, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, nil
}
