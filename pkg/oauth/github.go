package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	githubOAuth "golang.org/x/oauth2/github"
)

const (
	GitHubProviderName = "github"
	githubUserURL      = "https://api.github.com/user"
	githubEmailsURL    = "https://api.github.com/user/emails"
)

func GitHubDefaultScopes() []string {
	return []string{"read:user", "user:email"}
}

type GitHubProvider struct {
	base
}

// NewGitHubProvider fails with ErrMissingClientID or ErrMissingClientSecret
// on incomplete configuration.
func NewGitHubProvider(cfg GitHubConfig, opts ...Option) (*GitHubProvider, error) {
	b, err := newBase(GitHubProviderName, providerConfig(cfg), GitHubDefaultScopes(), githubOAuth.Endpoint, opts)
	if err != nil {
		return nil, err
	}
	return &GitHubProvider{base: b}, nil
}

// FetchUserInfo prefers the primary verified email and falls back to any
// verified one.
func (p *GitHubProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	client := p.client(ctx, token)

	var user struct {
		Name      string `json:"name"`
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
		ID        int64  `json:"id"`
	}
	if err := getJSON(client, githubUserURL, &user); err != nil {
		return nil, err
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(client, githubEmailsURL, &emails); err != nil {
		return nil, err
	}

	email := ""
	for _, e := range emails {
		if e.Verified && (e.Primary || email == "") {
			email = e.Email
		}
	}
	if email == "" {
		return nil, ErrEmailNotVerified
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return &UserInfo{
		Provider: GitHubProviderName,
		ID:       strconv.FormatInt(user.ID, 10),
		Email:    email,
		Name:     name,
		Picture:  user.AvatarURL,
	}, nil
}

func getJSON(client *http.Client, url string, v any) error {
	resp, err := client.Get(url)
	if err != nil {
		return errors.Join(ErrFetchFailed, fmt.Errorf("GET %s: %w", url, err))
	}
	if resp == nil {
		return errors.Join(ErrNilResponse, fmt.Errorf("GET %s", url))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Join(ErrRequestFailed, fmt.Errorf("GET %s: status=%d", url, resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Join(ErrDecodeFailed, fmt.Errorf("GET %s: %w", url, err))
	}
	return nil
}
