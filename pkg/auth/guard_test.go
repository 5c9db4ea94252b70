package auth_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pypehq/pype/pkg/auth"
	"github.com/pypehq/pype/pkg/query"
	"github.com/pypehq/pype/pkg/schema"
)

func setup(t *testing.T, opts ...auth.Option) (*auth.Guard, *query.DB) {
	t.Helper()

	pool, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	pool.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = pool.Close() })

	db := query.New(pool, query.SQLite{})
	g := auth.New(db, append([]auth.Option{auth.WithBcryptCost(bcrypt.MinCost)}, opts...)...)

	ctx := context.Background()
	s := schema.New(db)
	require.NoError(t, s.Create(ctx, "users", func(t *schema.Blueprint) {
		t.ID()
		t.String("name", 100).Nullable()
		t.String("email", 0).Unique()
		t.String("password", 0)
	}))
	require.NoError(t, g.Migration(1).Up(ctx, s))
	return g, db
}

func TestRegisterAndAttempt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g, db := setup(t)

	user, err := g.Register(ctx, map[string]any{"name": "Ann", "email": "ann@example.com", "password": "secret123"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.Int64("id"))
	assert.False(t, user.Has("password"))

	stored, err := db.Table("users").Find(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.String("password"))
	assert.True(t, auth.CheckPassword(stored.String("password"), "secret123"))

	got, err := g.Attempt(ctx, "ann@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.String("name"))
	assert.False(t, got.Has("password"))

	_, err = g.Attempt(ctx, "ann@example.com", "wrong")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = g.Attempt(ctx, "nobody@example.com", "secret123")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = g.Attempt(ctx, "", "")
	require.ErrorIs(t, err, auth.ErrMissingCredentials)

	_, err = g.Register(ctx, map[string]any{"email": "ann@example.com", "password": "x"})
	require.ErrorIs(t, err, auth.ErrEmailTaken)

	_, err = g.Register(ctx, map[string]any{"email": "bob@example.com"})
	require.ErrorIs(t, err, auth.ErrMissingCredentials)
}

func TestUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g, _ := setup(t)

	reg, err := g.Register(ctx, map[string]any{"email": "ann@example.com", "password": "pw"})
	require.NoError(t, err)

	u, err := g.User(ctx, reg.Int64("id"))
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "ann@example.com", u.String("email"))
	assert.False(t, u.Has("password"))

	u, err = g.User(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestRememberTokens(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g, db := setup(t)

	reg, err := g.Register(ctx, map[string]any{"email": "ann@example.com", "password": "pw"})
	require.NoError(t, err)

	token, expires, err := g.IssueRememberToken(ctx, reg.Int64("id"))
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.WithinDuration(t, time.Now().Add(auth.DefaultRememberTTL), expires, time.Minute)

	stored, err := db.Table(auth.DefaultTokensTable).First(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, token, stored.String("token"))

	id, err := g.ResolveRememberToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "1", id)

	id, err = g.ResolveRememberToken(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, g.ForgetRememberToken(ctx, token))
	id, err = g.ResolveRememberToken(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestExpiredRememberTokens(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g, db := setup(t, auth.WithRememberTTL(-time.Minute))

	reg, err := g.Register(ctx, map[string]any{"email": "ann@example.com", "password": "pw"})
	require.NoError(t, err)

	token, _, err := g.IssueRememberToken(ctx, reg.Int64("id"))
	require.NoError(t, err)
	_, _, err = g.IssueRememberToken(ctx, reg.Int64("id"))
	require.NoError(t, err)

	id, err := g.ResolveRememberToken(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, id)

	n, err := g.PruneExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := db.Table(auth.DefaultTokensTable).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestCustomTable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g, db := setup(t, auth.WithTable("admins"), auth.WithColumns("login", "pass"))
	require.NoError(t, schema.New(db).Create(ctx, "admins", func(t *schema.Blueprint) {
		t.ID()
		t.String("login", 0).Unique()
		t.String("pass", 0)
	}))

	_, err := g.Register(ctx, map[string]any{"login": "root", "pass": "toor"})
	require.NoError(t, err)

	u, err := g.Attempt(ctx, "root", "toor")
	require.NoError(t, err)
	assert.False(t, u.Has("pass"))
}
