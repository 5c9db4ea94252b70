package oauth

import (
	"context"

	"golang.org/x/oauth2"
	facebookOAuth "golang.org/x/oauth2/facebook"
)

const (
	FacebookProviderName = "facebook"
	facebookUserInfoURL  = "https://graph.facebook.com/me?fields=id,name,email,picture"
)

func FacebookDefaultScopes() []string {
	return []string{"email", "public_profile"}
}

type FacebookProvider struct {
	base
}

func NewFacebookProvider(cfg FacebookConfig, opts ...Option) (*FacebookProvider, error) {
	b, err := newBase(FacebookProviderName, providerConfig(cfg), FacebookDefaultScopes(), facebookOAuth.Endpoint, opts)
	if err != nil {
		return nil, err
	}
	return &FacebookProvider{base: b}, nil
}

// FetchUserInfo reads the Graph API profile. Facebook only returns confirmed
// addresses, so a missing email means the user withheld or never confirmed it.
func (p *FacebookProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	var u struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if err := getJSON(p.client(ctx, token), facebookUserInfoURL, &u); err != nil {
		return nil, err
	}
	if u.Email == "" {
		return nil, ErrEmailNotVerified
	}

	return &UserInfo{
		Provider: FacebookProviderName,
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Picture:  u.Picture.Data.URL,
	}, nil
}
