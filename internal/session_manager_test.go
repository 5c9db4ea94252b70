package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pypehq/pype/pkg/cache"
	"github.com/pypehq/pype/pkg/session"
)

func newTestManager(t *testing.T, opts ...SessionOption) *SessionManager {
	t.Helper()
	mem := cache.NewMemory[[]byte]()
	t.Cleanup(func() { _ = mem.Close() })
	return NewSessionManager(session.NewCacheStore(mem), opts...)
}

func TestSessionManagerRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sm := newTestManager(t, WithSessionCookieName("sid"), WithSessionSecure(true))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	sess, err := sm.Create(ctx, req)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "203.0.113.7", sess.IP)
	assert.Equal(t, "test-agent", sess.UserAgent)

	w := httptest.NewRecorder()
	sm.Save(w, sess)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.True(t, cookies[0].Secure)
	assert.True(t, cookies[0].HttpOnly)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	loaded, err := sm.Load(ctx, next)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, sess.ID, loaded.ID)
}

func TestSessionManagerLoadMissing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sm := newTestManager(t)

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Nil(t, sess)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: defaultSessionCookieName, Value: "unknown"})
	sess, err = sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestSessionManagerRotate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sm := newTestManager(t)

	sess, err := sm.Create(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("cart", "3 items")
	old := sess.Token

	require.NoError(t, sm.Rotate(ctx, sess))
	assert.NotEqual(t, old, sess.Token)

	_, err = sm.Store().Get(ctx, old)
	require.ErrorIs(t, err, session.ErrNotFound)

	got, err := sm.Store().Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "3 items", got.Values["cart"])
}

func TestSessionManagerTouch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sm := newTestManager(t, WithSessionTouchInterval(time.Nanosecond))

	sess, err := sm.Create(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	before := sess.LastActiveAt
	time.Sleep(2 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: defaultSessionCookieName, Value: sess.Token})
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.True(t, loaded.LastActiveAt.After(before))
}

func TestSessionManagerClear(t *testing.T) {
	t.Parallel()

	sm := newTestManager(t)
	w := httptest.NewRecorder()
	sm.Clear(w)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, defaultSessionCookieName, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestClientIPHeaders(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", ClientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.9 ,10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(req))
}

func TestSessionManagerSaveReplacesCookie(t *testing.T) {
	t.Parallel()

	sm := newTestManager(t)
	w := httptest.NewRecorder()
	http.SetCookie(w, &http.Cookie{Name: "other", Value: "x"})

	sess, err := sm.Create(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sm.Save(w, sess)
	require.NoError(t, sm.Rotate(context.Background(), sess))
	sm.Save(w, sess)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, "other", cookies[0].Name)
	assert.Equal(t, sess.Token, cookies[1].Value)
}
