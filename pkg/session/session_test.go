package session_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pypehq/pype/pkg/cache"
	"github.com/pypehq/pype/pkg/query"
	"github.com/pypehq/pype/pkg/schema"
	"github.com/pypehq/pype/pkg/session"
)

func TestSession_Values(t *testing.T) {
	t.Parallel()

	s := session.New("id", "token", time.Now().Add(time.Hour))
	assert.True(t, s.IsNew())
	assert.True(t, s.IsDirty())
	assert.False(t, s.IsAuthenticated())

	s.ClearDirty()
	s.Delete("missing")
	assert.False(t, s.IsDirty())

	s.Set("name", "Ada")
	assert.True(t, s.IsDirty())

	name, err := session.Value[string](s, "name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)

	_, err = session.Value[int](s, "name")
	require.ErrorIs(t, err, session.ErrTypeMismatch)
	assert.Equal(t, 7, session.ValueOr(s, "age", 7))

	v, ok := s.Pull("name")
	assert.True(t, ok)
	assert.Equal(t, "Ada", v)
	_, ok = s.Get("name")
	assert.False(t, ok)

	s.SetUser("42")
	assert.True(t, s.IsAuthenticated())
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	s := session.New("id", "token", time.Now().Add(time.Hour))
	s.Set("count", 3)
	s.SetUser("7")

	data, err := session.Encode(s)
	require.NoError(t, err)

	got, err := session.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "7", got.UserID)
	assert.Equal(t, float64(3), got.Values["count"])

	_, err = session.Decode([]byte("{"))
	require.ErrorIs(t, err, session.ErrCorrupt)
}

// exerciseStore runs the same lifecycle against any Store.
func exerciseStore(t *testing.T, store session.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "nope")
	require.ErrorIs(t, err, session.ErrNotFound)

	s := session.New("s1", "tok1", time.Now().Add(time.Hour))
	s.Set("flash", "hello")
	require.NoError(t, store.Create(ctx, s))

	got, err := store.Get(ctx, "tok1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, "hello", got.Values["flash"])

	// Rotating the token invalidates the old one.
	got.Token = "tok2"
	got.SetUser("u1")
	require.NoError(t, store.Update(ctx, got))

	_, err = store.Get(ctx, "tok1")
	require.ErrorIs(t, err, session.ErrNotFound)
	got, err = store.Get(ctx, "tok2")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	require.NoError(t, store.Touch(ctx, "s1", time.Now()))

	other := session.New("s2", "tok3", time.Now().Add(time.Hour))
	other.SetUser("u1")
	require.NoError(t, store.Create(ctx, other))

	require.NoError(t, store.DeleteByUserID(ctx, "u1"))
	_, err = store.Get(ctx, "tok2")
	require.ErrorIs(t, err, session.ErrNotFound)
	_, err = store.Get(ctx, "tok3")
	require.ErrorIs(t, err, session.ErrNotFound)

	anon := session.New("s4", "tok4", time.Now().Add(time.Hour))
	require.NoError(t, store.Create(ctx, anon))
	require.NoError(t, store.Delete(ctx, "s4"))
	_, err = store.Get(ctx, "tok4")
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestCacheStore(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory[[]byte]()
	t.Cleanup(func() { _ = c.Close() })
	exerciseStore(t, session.NewCacheStore(c))
}

func TestDatabaseStore(t *testing.T) {
	t.Parallel()

	pool, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	pool.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = pool.Close() })

	db := query.New(pool, query.SQLite{})
	require.NoError(t, session.Migration(1, "").Up(context.Background(), schema.New(db)))

	store := session.NewDatabaseStore(db, "")
	exerciseStore(t, store)

	ctx := context.Background()
	expired := session.New("old", "old-token", time.Now().Add(time.Hour))
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Create(ctx, expired))

	n, err := store.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
