package validator_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pypehq/pype/pkg/query"
	"github.com/pypehq/pype/pkg/validator"
)

func TestBuiltInRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rules   string
		data    map[string]any
		wantMsg string
	}{
		{name: "required missing", rules: "required", data: map[string]any{}, wantMsg: "field is required"},
		{name: "required blank", rules: "required", data: map[string]any{"field": "   "}, wantMsg: "field is required"},
		{name: "required zero is present", rules: "required", data: map[string]any{"field": "0"}},
		{name: "email ok", rules: "email", data: map[string]any{"field": "ann@example.com"}},
		{name: "email bad", rules: "email", data: map[string]any{"field": "Ann <ann@example.com>"}, wantMsg: "field must be a valid email"},
		{name: "numeric ok", rules: "numeric", data: map[string]any{"field": "-1.5"}},
		{name: "numeric bad", rules: "numeric", data: map[string]any{"field": "1,5"}, wantMsg: "field must be a number"},
		{name: "integer bad", rules: "integer", data: map[string]any{"field": "1.5"}, wantMsg: "field must be an integer"},
		{name: "integer from int", rules: "integer", data: map[string]any{"field": 42}},
		{name: "alpha with spaces", rules: "alpha", data: map[string]any{"field": "Ann Lee"}},
		{name: "alpha bad", rules: "alpha", data: map[string]any{"field": "Ann1"}, wantMsg: "field must contain only letters"},
		{name: "alpha_num ok", rules: "alpha_num", data: map[string]any{"field": "abc123"}},
		{name: "alpha_num bad", rules: "alpha_num", data: map[string]any{"field": "abc-123"}, wantMsg: "field must contain only letters and numbers"},
		{name: "alpha_dash ok", rules: "alpha_dash", data: map[string]any{"field": "my-post_1"}},
		{name: "alpha_dash bad", rules: "alpha_dash", data: map[string]any{"field": "my post"}, wantMsg: "field may only contain letters, numbers, dashes and underscores"},
		{name: "url ok", rules: "url", data: map[string]any{"field": "https://example.com/a?b=c"}},
		{name: "url bad", rules: "url", data: map[string]any{"field": "example.com"}, wantMsg: "field must be a valid URL"},
		{name: "ip v6", rules: "ip", data: map[string]any{"field": "::1"}},
		{name: "ip bad", rules: "ip", data: map[string]any{"field": "300.1.1.1"}, wantMsg: "field must be a valid IP address"},
		{name: "confirmed ok", rules: "confirmed", data: map[string]any{"field": "secret", "field_confirmation": "secret"}},
		{name: "confirmed bad", rules: "confirmed", data: map[string]any{"field": "secret"}, wantMsg: "field confirmation does not match"},
		{name: "min length", rules: "min:3", data: map[string]any{"field": "ab"}, wantMsg: "field must be at least 3 characters"},
		{name: "min counts runes", rules: "min:3", data: map[string]any{"field": "äöü"}},
		{name: "max length", rules: "max:2", data: map[string]any{"field": "abc"}, wantMsg: "field must not exceed 2 characters"},
		{name: "numeric min", rules: "integer|min:18", data: map[string]any{"field": "9"}, wantMsg: "field must be at least 18"},
		{name: "between ok", rules: "between:2:4", data: map[string]any{"field": "abc"}},
		{name: "between numeric", rules: "numeric|between:1:10", data: map[string]any{"field": "11"}, wantMsg: "field must be between 1 and 10"},
		{name: "in ok", rules: "in:draft,published", data: map[string]any{"field": "draft"}},
		{name: "in bad", rules: "in:draft,published", data: map[string]any{"field": "x"}, wantMsg: "field must be one of: draft, published"},
		{name: "not_in bad", rules: "not_in:admin,root", data: map[string]any{"field": "root"}, wantMsg: "field must not be one of: admin, root"},
		{name: "regex with delimiters", rules: "regex:/^[a-z]+$/", data: map[string]any{"field": "abc"}},
		{name: "regex with pipe", rules: "required|regex:^(cat|dog)$", data: map[string]any{"field": "bird"}, wantMsg: "field format is invalid"},
		{name: "optional empty skips rules", rules: "email|min:5", data: map[string]any{"field": ""}},
		{name: "form slice uses first value", rules: "integer", data: map[string]any{"field": []string{"7", "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := validator.Validate(context.Background(), tt.data, map[string]string{"field": tt.rules})
			require.NoError(t, err)
			if tt.wantMsg == "" {
				assert.False(t, res.Fails(), res.Errors())
				return
			}
			assert.True(t, res.Fails())
			assert.Equal(t, tt.wantMsg, res.First("field"))
		})
	}
}

func TestResult(t *testing.T) {
	t.Parallel()

	res, err := validator.Validate(context.Background(),
		map[string]any{"title": "ab", "email": "nope"},
		map[string]string{
			"title": "required|min:3|alpha_num",
			"email": "required|email",
			"body":  "required",
		})
	require.NoError(t, err)

	assert.True(t, res.Fails())
	assert.False(t, res.Passes())
	assert.Equal(t, map[string][]string{
		"title": {"title must be at least 3 characters"},
		"email": {"email must be a valid email"},
		"body":  {"body is required"},
	}, res.Errors())
	assert.Empty(t, res.First("missing"))
	assert.Equal(t, "body is required; email must be a valid email; title must be at least 3 characters", res.Error())

	errs := res.Errors()
	errs["title"][0] = "changed"
	assert.Equal(t, "title must be at least 3 characters", res.First("title"))
}

func TestMisconfiguredRules(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	data := map[string]any{"f": "value"}

	_, err := validator.Validate(ctx, data, map[string]string{"f": "shiny"})
	require.ErrorIs(t, err, validator.ErrUnknownRule)

	_, err = validator.Validate(ctx, data, map[string]string{"f": "min:abc"})
	require.ErrorIs(t, err, validator.ErrInvalidRule)

	_, err = validator.Validate(ctx, data, map[string]string{"f": "regex:("})
	require.ErrorIs(t, err, validator.ErrInvalidRule)

	_, err = validator.Validate(ctx, data, map[string]string{"f": "unique:users"})
	require.ErrorIs(t, err, validator.ErrNoDatabase)
}

func TestCustomRule(t *testing.T) {
	t.Parallel()

	v := validator.New(validator.WithRule("lowercase", func(_ context.Context, c validator.Check) (string, error) {
		if strings.ToLower(c.Value) != c.Value {
			return c.Field + " must be lowercase", nil
		}
		return "", nil
	}))

	res, err := v.Validate(context.Background(), map[string]any{"slug": "Hello"}, map[string]string{"slug": "lowercase"})
	require.NoError(t, err)
	assert.Equal(t, "slug must be lowercase", res.First("slug"))
}

func openUsers(t *testing.T) *query.DB {
	t.Helper()

	pool, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	pool.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = pool.Close() })

	db := query.New(pool, query.SQLite{})
	ctx := context.Background()
	_, err = db.Exec(ctx, `CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, email TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Table("users").Insert(ctx, map[string]any{"email": "taken@example.com"})
	require.NoError(t, err)
	return db
}

func TestDatabaseRules(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	v := validator.New(validator.WithDB(openUsers(t)))

	tests := []struct {
		name    string
		rules   string
		email   string
		wantMsg string
	}{
		{name: "unique taken", rules: "unique:users", email: "taken@example.com", wantMsg: "email has already been taken"},
		{name: "unique free", rules: "unique:users,email", email: "free@example.com"},
		{name: "unique ignores own row", rules: "unique:users,email,1", email: "taken@example.com"},
		{name: "unique ignores other row", rules: "unique:users,email,2,id", email: "taken@example.com", wantMsg: "email has already been taken"},
		{name: "exists found", rules: "exists:users,email", email: "taken@example.com"},
		{name: "exists missing", rules: "exists:users", email: "free@example.com", wantMsg: "selected email is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Validate(ctx, map[string]any{"email": tt.email}, map[string]string{"email": tt.rules})
			require.NoError(t, err)
			assert.Equal(t, tt.wantMsg, res.First("email"))
		})
	}
}
