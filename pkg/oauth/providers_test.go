package oauth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/pypehq/pype/pkg/oauth"
)

var (
	_ oauth.Provider = (*oauth.GitHubProvider)(nil)
	_ oauth.Provider = (*oauth.GoogleProvider)(nil)
	_ oauth.Provider = (*oauth.FacebookProvider)(nil)
)

// stubTransport answers every request with handler instead of the network.
type stubTransport struct {
	handler http.Handler
}

func (t stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	t.handler.ServeHTTP(rec, req)
	return rec.Result(), nil
}

func stubClient(h http.Handler) oauth.Option {
	return oauth.WithHTTPClient(&http.Client{Transport: stubTransport{handler: h}})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestProviderConfigValidation(t *testing.T) {
	t.Parallel()

	_, err := oauth.NewGitHubProvider(oauth.GitHubConfig{ClientSecret: "s"})
	require.ErrorIs(t, err, oauth.ErrMissingClientID)

	_, err = oauth.NewGoogleProvider(oauth.GoogleConfig{ClientID: "id"})
	require.ErrorIs(t, err, oauth.ErrMissingClientSecret)
}

func TestAuthCodeURL(t *testing.T) {
	t.Parallel()

	gh, err := oauth.NewGitHubProvider(oauth.GitHubConfig{
		ClientID: "id", ClientSecret: "s", RedirectURL: "https://example.com/cb",
	})
	require.NoError(t, err)
	assert.Equal(t, "github", gh.Name())

	u := gh.AuthCodeURL("xyz")
	assert.Contains(t, u, "state=xyz")
	assert.Contains(t, u, "read%3Auser")
	assert.Contains(t, u, "redirect_uri=https%3A%2F%2Fexample.com%2Fcb")

	g, err := oauth.NewGoogleProvider(oauth.GoogleConfig{ClientID: "id", ClientSecret: "s", Scopes: []string{"openid"}})
	require.NoError(t, err)
	assert.Equal(t, "google", g.Name())
	u = g.AuthCodeURL("xyz")
	assert.Contains(t, u, "scope=openid")
	assert.NotContains(t, u, "userinfo.email")
}

func TestExchange(t *testing.T) {
	t.Parallel()

	var gotRedirect string
	p, err := oauth.NewGitHubProvider(oauth.GitHubConfig{ClientID: "id", ClientSecret: "s"},
		stubClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = r.ParseForm()
			gotRedirect = r.PostForm.Get("redirect_uri")
			if r.PostForm.Get("code") != "good" {
				w.WriteHeader(http.StatusBadRequest)
				writeJSON(w, map[string]string{"error": "bad_verification_code"})
				return
			}
			writeJSON(w, map[string]any{"access_token": "tok", "token_type": "Bearer"})
		})),
	)
	require.NoError(t, err)

	token, err := p.Exchange(context.Background(), "good", "https://app.test/auth/github/callback")
	require.NoError(t, err)
	assert.Equal(t, "tok", token.AccessToken)
	assert.Equal(t, "https://app.test/auth/github/callback", gotRedirect)

	_, err = p.Exchange(context.Background(), "bad", "")
	require.Error(t, err)
}

func TestGitHubFetchUserInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		emails  []map[string]any
		want    string
		wantErr error
	}{
		{
			name: "primary verified wins",
			emails: []map[string]any{
				{"email": "other@example.com", "primary": false, "verified": true},
				{"email": "main@example.com", "primary": true, "verified": true},
			},
			want: "main@example.com",
		},
		{
			name: "falls back to any verified",
			emails: []map[string]any{
				{"email": "main@example.com", "primary": true, "verified": false},
				{"email": "other@example.com", "primary": false, "verified": true},
			},
			want: "other@example.com",
		},
		{
			name:    "nothing verified",
			emails:  []map[string]any{{"email": "main@example.com", "primary": true, "verified": false}},
			wantErr: oauth.ErrEmailNotVerified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mux := http.NewServeMux()
			mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, map[string]any{"id": 42, "login": "octocat", "avatar_url": "https://example.com/a.png"})
			})
			mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.emails)
			})

			p, err := oauth.NewGitHubProvider(oauth.GitHubConfig{ClientID: "id", ClientSecret: "s"}, stubClient(mux))
			require.NoError(t, err)

			u, err := p.FetchUserInfo(context.Background(), &oauth2.Token{AccessToken: "tok"})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, &oauth.UserInfo{
				Provider: "github",
				ID:       "42",
				Email:    tt.want,
				Name:     "octocat",
				Picture:  "https://example.com/a.png",
			}, u)
		})
	}
}

func TestGoogleFetchUserInfo(t *testing.T) {
	t.Parallel()

	respond := func(status int, body any) oauth.Option {
		return stubClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if status != http.StatusOK {
				w.WriteHeader(status)
				return
			}
			writeJSON(w, body)
		}))
	}
	token := &oauth2.Token{AccessToken: "tok"}

	p, err := oauth.NewGoogleProvider(oauth.GoogleConfig{ClientID: "id", ClientSecret: "s"},
		respond(http.StatusOK, map[string]any{"id": "g1", "email": "ann@example.com", "name": "Ann", "verified_email": true}))
	require.NoError(t, err)
	u, err := p.FetchUserInfo(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "google", u.Provider)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, "g1", u.Attributes()["provider_id"])

	p, err = oauth.NewGoogleProvider(oauth.GoogleConfig{ClientID: "id", ClientSecret: "s"},
		respond(http.StatusOK, map[string]any{"id": "g1", "email": "ann@example.com", "verified_email": false}))
	require.NoError(t, err)
	_, err = p.FetchUserInfo(context.Background(), token)
	require.ErrorIs(t, err, oauth.ErrEmailNotVerified)

	p, err = oauth.NewGoogleProvider(oauth.GoogleConfig{ClientID: "id", ClientSecret: "s"},
		respond(http.StatusUnauthorized, nil))
	require.NoError(t, err)
	_, err = p.FetchUserInfo(context.Background(), token)
	require.ErrorIs(t, err, oauth.ErrRequestFailed)
}

func TestFacebookFetchUserInfo(t *testing.T) {
	t.Parallel()

	var gotQuery string
	respond := func(body any) oauth.Option {
		return stubClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			writeJSON(w, body)
		}))
	}
	token := &oauth2.Token{AccessToken: "tok"}

	p, err := oauth.NewFacebookProvider(oauth.FacebookConfig{ClientID: "id", ClientSecret: "s"},
		respond(map[string]any{
			"id": "fb1", "name": "Ann", "email": "ann@example.com",
			"picture": map[string]any{"data": map[string]any{"url": "https://example.com/ann.jpg"}},
		}))
	require.NoError(t, err)
	assert.Equal(t, "facebook", p.Name())
	assert.Contains(t, p.AuthCodeURL("xyz"), "scope=email+public_profile")

	u, err := p.FetchUserInfo(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "fields=id,name,email,picture", gotQuery)
	assert.Equal(t, &oauth.UserInfo{
		Provider: "facebook",
		ID:       "fb1",
		Email:    "ann@example.com",
		Name:     "Ann",
		Picture:  "https://example.com/ann.jpg",
	}, u)

	p, err = oauth.NewFacebookProvider(oauth.FacebookConfig{ClientID: "id", ClientSecret: "s"},
		respond(map[string]any{"id": "fb1", "name": "Ann"}))
	require.NoError(t, err)
	_, err = p.FetchUserInfo(context.Background(), token)
	require.ErrorIs(t, err, oauth.ErrEmailNotVerified)
}

func TestProvidersFromEnv(t *testing.T) {
	t.Setenv("GITHUB_OAUTH_CLIENT_ID", "gh-id")
	t.Setenv("GITHUB_OAUTH_CLIENT_SECRET", "gh-secret")
	t.Setenv("GOOGLE_OAUTH_CLIENT_ID", "")
	t.Setenv("FACEBOOK_OAUTH_CLIENT_ID", "")

	ps, err := oauth.ProvidersFromEnv()
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "github", ps[0].Name())

	t.Setenv("FACEBOOK_OAUTH_CLIENT_ID", "fb-id")
	t.Setenv("FACEBOOK_OAUTH_CLIENT_SECRET", "fb-secret")
	ps, err = oauth.ProvidersFromEnv()
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "facebook", ps[1].Name())

	t.Setenv("GOOGLE_OAUTH_CLIENT_ID", "g-id")
	_, err = oauth.ProvidersFromEnv()
	require.ErrorIs(t, err, oauth.ErrMissingClientSecret)
}
