package oauth

import (
	"context"

	"golang.org/x/oauth2"
	googleOAuth "golang.org/x/oauth2/google"
)

const (
	GoogleProviderName = "google"
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
)

func GoogleDefaultScopes() []string {
	return []string{
		"https://www.googleapis.com/auth/userinfo.email",
		"https://www.googleapis.com/auth/userinfo.profile",
	}
}

type GoogleProvider struct {
	base
}

func NewGoogleProvider(cfg GoogleConfig, opts ...Option) (*GoogleProvider, error) {
	b, err := newBase(GoogleProviderName, providerConfig(cfg), GoogleDefaultScopes(), googleOAuth.Endpoint, opts)
	if err != nil {
		return nil, err
	}
	return &GoogleProvider{base: b}, nil
}

func (p *GoogleProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	var u struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	if err := getJSON(p.client(ctx, token), googleUserInfoURL, &u); err != nil {
		return nil, err
	}
	if !u.VerifiedEmail {
		return nil, ErrEmailNotVerified
	}

	return &UserInfo{
		Provider: GoogleProviderName,
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Picture:  u.Picture,
	}, nil
}
