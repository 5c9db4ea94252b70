package internal

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pypehq/pype/pkg/logger"
	"github.com/pypehq/pype/pkg/session"
)

const (
	defaultSessionCookieName = "pype_session"
	defaultSessionMaxAge     = 86400 * 14
	defaultTouchInterval     = 5 * time.Minute
	maxUserAgentLength       = 255
)

// SessionManager moves sessions between the store and the session cookie.
type SessionManager struct {
	store         session.Store
	logger        *slog.Logger
	cookieName    string
	domain        string
	path          string
	maxAge        int
	touchInterval time.Duration
	sameSite      http.SameSite
	secure        bool
	httpOnly      bool
}

// SessionOption configures the SessionManager.
type SessionOption func(*SessionManager)

func NewSessionManager(store session.Store, opts ...SessionOption) *SessionManager {
	sm := &SessionManager{
		store:         store,
		logger:        logger.NewNope(),
		cookieName:    defaultSessionCookieName,
		maxAge:        defaultSessionMaxAge,
		touchInterval: defaultTouchInterval,
		path:          "/",
		httpOnly:      true,
		sameSite:      http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

func WithSessionCookieName(name string) SessionOption {
	return func(sm *SessionManager) {
		if name != "" {
			sm.cookieName = name
		}
	}
}

// WithSessionMaxAge sets both the cookie max age and the server-side
// expiry, in seconds.
func WithSessionMaxAge(seconds int) SessionOption {
	return func(sm *SessionManager) {
		if seconds > 0 {
			sm.maxAge = seconds
		}
	}
}

func WithSessionDomain(domain string) SessionOption {
	return func(sm *SessionManager) { sm.domain = domain }
}

func WithSessionPath(path string) SessionOption {
	return func(sm *SessionManager) {
		if path != "" {
			sm.path = path
		}
	}
}

func WithSessionSecure(secure bool) SessionOption {
	return func(sm *SessionManager) { sm.secure = secure }
}

func WithSessionHTTPOnly(httpOnly bool) SessionOption {
	return func(sm *SessionManager) { sm.httpOnly = httpOnly }
}

func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return func(sm *SessionManager) { sm.sameSite = sameSite }
}

// WithSessionTouchInterval sets how stale LastActiveAt may get before a
// request refreshes it. Zero disables touching.
func WithSessionTouchInterval(d time.Duration) SessionOption {
	return func(sm *SessionManager) { sm.touchInterval = d }
}

func (sm *SessionManager) setLogger(l *slog.Logger) {
	if l != nil {
		sm.logger = l
	}
}

// Load returns the session named by the request cookie. A missing cookie,
// an unknown token or an expired session all yield nil, nil.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*session.Session, error) {
	c, err := r.Cookie(sm.cookieName)
	if err != nil || c.Value == "" {
		return nil, nil
	}

	sess, err := sm.store.Get(ctx, c.Value)
	if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if sm.touchInterval > 0 && time.Since(sess.LastActiveAt) > sm.touchInterval {
		now := time.Now().UTC()
		if err := sm.store.Touch(ctx, sess.ID, now); err != nil {
			sm.logger.WarnContext(ctx, "failed to touch session", slog.Any("error", err))
		} else {
			sess.LastActiveAt = now
		}
	}
	return sess, nil
}

// Create stores a fresh anonymous session for r.
func (sm *SessionManager) Create(ctx context.Context, r *http.Request) (*session.Session, error) {
	token, err := randomToken()
	if err != nil {
		return nil, err
	}

	sess := session.New(uuid.NewString(), token, time.Now().Add(time.Duration(sm.maxAge)*time.Second))
	sess.IP = ClientIP(r)
	sess.UserAgent = truncate(r.UserAgent(), maxUserAgentLength)

	if err := sm.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	sess.ClearNew()
	sess.ClearDirty()
	return sess, nil
}

// Rotate issues a new token for sess, keeping its id and values.
func (sm *SessionManager) Rotate(ctx context.Context, sess *session.Session) error {
	old := sess.Token
	token, err := randomToken()
	if err != nil {
		return err
	}
	sess.Token = token
	sess.MarkDirty()

	if err := sm.store.Update(ctx, sess); err != nil {
		sess.Token = old
		return err
	}
	sess.ClearDirty()
	return nil
}

// Save writes the session cookie, replacing one set earlier in the same
// response.
func (sm *SessionManager) Save(w http.ResponseWriter, sess *session.Session) {
	sm.setCookie(w, sm.cookie(sess.Token, sm.maxAge))
}

// Clear expires the session cookie.
func (sm *SessionManager) Clear(w http.ResponseWriter) {
	sm.setCookie(w, sm.cookie("", -1))
}

func (sm *SessionManager) setCookie(w http.ResponseWriter, c *http.Cookie) {
	h := w.Header()
	prefix := sm.cookieName + "="
	var kept []string
	for _, v := range h.Values("Set-Cookie") {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	h.Del("Set-Cookie")
	for _, v := range kept {
		h.Add("Set-Cookie", v)
	}
	http.SetCookie(w, c)
}

func (sm *SessionManager) Store() session.Store {
	return sm.store
}

func (sm *SessionManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sm.cookieName,
		Value:    value,
		Path:     sm.path,
		Domain:   sm.domain,
		MaxAge:   maxAge,
		Secure:   sm.secure,
		HttpOnly: sm.httpOnly,
		SameSite: sm.sameSite,
	}
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
