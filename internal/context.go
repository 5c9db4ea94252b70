package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"maps"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/pypehq/pype/pkg/cookie"
	"github.com/pypehq/pype/pkg/query"
	"github.com/pypehq/pype/pkg/sanitizer"
	"github.com/pypehq/pype/pkg/session"
	"github.com/pypehq/pype/pkg/validator"
)

// Context is the explicit per-request state passed to handlers and
// middleware. It also implements context.Context by delegating to the
// request context.
type Context interface {
	context.Context

	Request() *http.Request
	Response() http.ResponseWriter
	ResponseWriter() *ResponseWriter

	// Context returns the request context.
	Context() context.Context

	// Method is the request method after _method override.
	Method() string

	// Route is the matched route, nil before matching and for 404s.
	Route() *Route
	Param(name string) string
	Params() map[string]string

	Query(name string) string
	QueryDefault(name, defaultValue string) string

	// Form reads a form value (body first, then query).
	Form(name string) string

	// Input is Form with all HTML stripped.
	Input(name string) string

	// FormValues flattens the parsed form into a map for validation.
	FormValues() map[string]any
	FormFile(name string) (multipart.File, *multipart.FileHeader, error)

	Header(name string) string
	SetHeader(name, value string)

	// WantsJSON reports whether the client prefers a JSON answer.
	WantsJSON() bool

	JSON(code int, v any) error
	String(code int, s string) error
	HTML(code int, html string) error
	NoContent(code int) error
	Redirect(code int, url string) error

	// Back redirects to the Referer, or to fallback when there is none.
	Back(fallback string) error

	// Render writes a templ component.
	Render(code int, component templ.Component) error

	// View renders a dot-notated template ("posts.index") with csrf_token
	// and csrf_field added to data.
	View(code int, name string, data map[string]any) error

	Error(code int, message string, opts ...HTTPErrorOption) *HTTPError

	// URL builds the path of a named route.
	URL(name string, params map[string]any) (string, error)

	// Validate checks the request form against rule strings.
	Validate(rules map[string]string) (*validator.Result, error)

	// DB returns the application query handle, or nil without WithDatabase.
	DB() *query.DB

	Written() bool

	Logger() *slog.Logger
	LogDebug(msg string, attrs ...any)
	LogInfo(msg string, attrs ...any)
	LogWarn(msg string, attrs ...any)
	LogError(msg string, attrs ...any)

	// Set stores a request-scoped value readable by Get and by ctx.Value.
	Set(key any, value any)
	Get(key any) any

	Cookie(name string) (string, error)
	SetCookie(name, value string, maxAge int)
	DeleteCookie(name string)
	CookieSigned(name string) (string, error)
	SetCookieSigned(name, value string, maxAge int) error
	CookieEncrypted(name string) (string, error)
	SetCookieEncrypted(name, value string, maxAge int) error

	// Flash returns and forgets a value stored by SetFlash on an earlier
	// request.
	Flash(key string) (any, bool)
	SetFlash(key string, value any) error

	// Session loads the current session; nil without a valid cookie.
	Session() (*session.Session, error)

	// InitSession starts a new anonymous session and sets its cookie.
	InitSession() error

	// AuthenticateSession binds userID to the session and rotates its token.
	AuthenticateSession(userID string) error

	// Logout unbinds the user and rotates the token.
	Logout() error
	UserID() string
	IsAuthenticated() bool

	SessionValue(key string) (any, error)
	SetSessionValue(key string, val any) error
	DeleteSessionValue(key string) error
	DestroySession() error

	// CSRFToken returns the session CSRF token, starting a session if needed.
	CSRFToken() (string, error)
}

type requestContext struct {
	request        *http.Request
	responseWriter *ResponseWriter
	app            *App
	route          *Route
	params         map[string]string
	session        *session.Session
	method         string

	sessionLoaded         bool
	sessionHookRegistered bool
}

func newContext(w http.ResponseWriter, r *http.Request, app *App) *requestContext {
	return &requestContext{
		request:        r,
		responseWriter: NewResponseWriter(w),
		app:            app,
		method:         r.Method,
	}
}

func (c *requestContext) Request() *http.Request { return c.request }
func (c *requestContext) Response() http.ResponseWriter { return c.responseWriter }
func (c *requestContext) ResponseWriter() *ResponseWriter { return c.responseWriter }
func (c *requestContext) Context() context.Context { return c.request.Context() }
func (c *requestContext) Deadline() (time.Time, bool) { return c.request.Context().Deadline() }
func (c *requestContext) Done() <-chan struct{} { return c.request.Context().Done() }
func (c *requestContext) Err() error { return c.request.Context().Err() }
func (c *requestContext) Value(key any) any { return c.request.Context().Value(key) }
func (c *requestContext) Method() string { return c.method }
func (c *requestContext) Route() *Route { return c.route }
func (c *requestContext) Param(name string) string { return c.params[name] }
func (c *requestContext) Params() map[string]string { return maps.Clone(c.params) }
func (c *requestContext) Query(name string) string { return c.request.URL.Query().Get(name) }
func (c *requestContext) Form(name string) string { return c.request.FormValue(name) }
func (c *requestContext) Input(name string) string { return sanitizer.StripTags(c.Form(name)) }
func (c *requestContext) Header(name string) string { return c.request.Header.Get(name) }
func (c *requestContext) SetHeader(name, value string) { c.responseWriter.Header().Set(name, value) }
func (c *requestContext) Written() bool { return c.responseWriter.Written() }
func (c *requestContext) DB() *query.DB { return c.app.db }
func (c *requestContext) Logger() *slog.Logger { return c.app.logger }
func (c *requestContext) jar() *cookie.Jar { return c.app.cookies }

func (c *requestContext) QueryDefault(name, defaultValue string) string {
	if v := c.Query(name); v != "" {
		return v
	}
	return defaultValue
}

func (c *requestContext) FormValues() map[string]any {
	_ = c.request.ParseMultipartForm(defaultMaxMemory)
	out := make(map[string]any, len(c.request.Form))
	for k, vs := range c.request.Form {
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		out[k] = vs
	}
	return out
}

func (c *requestContext) FormFile(name string) (multipart.File, *multipart.FileHeader, error) {
	return c.request.FormFile(name)
}

func (c *requestContext) WantsJSON() bool {
	return wantsJSON(c.request)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}

func (c *requestContext) JSON(code int, v any) error {
	c.SetHeader("Content-Type", "application/json; charset=utf-8")
	c.responseWriter.WriteHeader(code)
	return json.NewEncoder(c.responseWriter).Encode(v)
}

func (c *requestContext) String(code int, s string) error {
	c.SetHeader("Content-Type", "text/plain; charset=utf-8")
	c.responseWriter.WriteHeader(code)
	_, err := c.responseWriter.Write([]byte(s))
	return err
}

func (c *requestContext) HTML(code int, html string) error {
	c.SetHeader("Content-Type", "text/html; charset=utf-8")
	c.responseWriter.WriteHeader(code)
	_, err := c.responseWriter.Write([]byte(html))
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.responseWriter.WriteHeader(code)
	return nil
}

func (c *requestContext) Redirect(code int, url string) error {
	http.Redirect(c.responseWriter, c.request, url, code)
	return nil
}

func (c *requestContext) Back(fallback string) error {
	to := c.request.Referer()
	if to == "" {
		to = fallback
	}
	return c.Redirect(http.StatusFound, to)
}

func (c *requestContext) Render(code int, component templ.Component) error {
	c.SetHeader("Content-Type", "text/html; charset=utf-8")
	c.responseWriter.WriteHeader(code)
	return component.Render(c.Context(), c.responseWriter)
}

func (c *requestContext) View(code int, name string, data map[string]any) error {
	if c.app.views == nil {
		return ErrInternal("", WithError(ErrViewsNotConfigured))
	}
	token, err := c.CSRFToken()
	if err != nil {
		return err
	}

	merged := make(map[string]any, len(data)+2)
	maps.Copy(merged, data)
	merged["csrf_token"] = token
	merged["csrf_field"] = template.HTML(`<input type="hidden" name="csrf_token" value="` + template.HTMLEscapeString(token) + `">`)

	var buf bytes.Buffer
	if err := c.app.views.Execute(&buf, name, merged); err != nil {
		return err
	}
	return c.HTML(code, buf.String())
}

func (c *requestContext) Error(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(code, message, opts...)
}

func (c *requestContext) URL(name string, params map[string]any) (string, error) {
	return c.app.URL(name, params)
}

func (c *requestContext) Validate(rules map[string]string) (*validator.Result, error) {
	return c.app.validator.Validate(c.Context(), c.FormValues(), rules)
}

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.app.logger.DebugContext(c.Context(), msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.app.logger.InfoContext(c.Context(), msg, attrs...)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.app.logger.WarnContext(c.Context(), msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.app.logger.ErrorContext(c.Context(), msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	c.request = c.request.WithContext(context.WithValue(c.request.Context(), key, value))
}

func (c *requestContext) Get(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Cookie(name string) (string, error) {
	return c.jar().Get(c.request, name)
}

func (c *requestContext) SetCookie(name, value string, maxAge int) {
	c.jar().Set(c.responseWriter, name, value, maxAge)
}

func (c *requestContext) DeleteCookie(name string) {
	c.jar().Delete(c.responseWriter, name)
}

func (c *requestContext) CookieSigned(name string) (string, error) {
	return c.jar().GetSigned(c.request, name)
}

func (c *requestContext) SetCookieSigned(name, value string, maxAge int) error {
	return c.jar().SetSigned(c.responseWriter, name, value, maxAge)
}

func (c *requestContext) CookieEncrypted(name string) (string, error) {
	return c.jar().GetEncrypted(c.request, name)
}

func (c *requestContext) SetCookieEncrypted(name, value string, maxAge int) error {
	return c.jar().SetEncrypted(c.responseWriter, name, value, maxAge)
}

const flashPrefix = "_flash."

func (c *requestContext) Flash(key string) (any, bool) {
	sess, err := c.Session()
	if err != nil || sess == nil {
		return nil, false
	}
	return sess.Pull(flashPrefix + key)
}

func (c *requestContext) SetFlash(key string, value any) error {
	sess, err := c.ensureSession()
	if err != nil {
		return err
	}
	sess.Set(flashPrefix+key, value)
	return nil
}

// registerSessionHook saves a dirty session right before the response
// starts. Save errors are logged, not returned.
func (c *requestContext) registerSessionHook() {
	if c.sessionHookRegistered {
		return
	}
	c.sessionHookRegistered = true
	c.responseWriter.OnBeforeWrite(func() {
		if c.session == nil || !c.session.IsDirty() {
			return
		}
		if err := c.app.sessions.Store().Update(c.Context(), c.session); err != nil {
			c.LogError("failed to save session", slog.Any("error", err))
			return
		}
		c.session.ClearDirty()
	})
}

func (c *requestContext) Session() (*session.Session, error) {
	c.registerSessionHook()
	if c.sessionLoaded {
		return c.session, nil
	}

	sess, err := c.app.sessions.Load(c.Context(), c.request)
	if err != nil {
		return nil, err
	}
	c.session = sess
	c.sessionLoaded = true
	return sess, nil
}

func (c *requestContext) InitSession() error {
	c.registerSessionHook()

	sess, err := c.app.sessions.Create(c.Context(), c.request)
	if err != nil {
		return err
	}
	c.session = sess
	c.sessionLoaded = true
	c.app.sessions.Save(c.responseWriter, sess)
	return nil
}

func (c *requestContext) ensureSession() (*session.Session, error) {
	sess, err := c.Session()
	if err != nil {
		c.LogWarn("failed to load session", slog.Any("error", err))
	}
	if sess != nil {
		return sess, nil
	}
	if err := c.InitSession(); err != nil {
		return nil, err
	}
	return c.session, nil
}

func (c *requestContext) AuthenticateSession(userID string) error {
	sess, err := c.ensureSession()
	if err != nil {
		return err
	}
	sess.SetUser(userID)
	return c.rotate(sess)
}

func (c *requestContext) Logout() error {
	sess, err := c.Session()
	if err != nil || sess == nil {
		return err
	}
	sess.SetUser("")
	sess.Delete(csrfSessionKey)
	return c.rotate(sess)
}

func (c *requestContext) rotate(sess *session.Session) error {
	if err := c.app.sessions.Rotate(c.Context(), sess); err != nil {
		return err
	}
	c.app.sessions.Save(c.responseWriter, sess)
	return nil
}

func (c *requestContext) UserID() string {
	sess, err := c.Session()
	if err != nil || sess == nil {
		return ""
	}
	return sess.UserID
}

func (c *requestContext) IsAuthenticated() bool {
	return c.UserID() != ""
}

func (c *requestContext) SessionValue(key string) (any, error) {
	sess, err := c.Session()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, session.ErrNotFound
	}
	v, _ := sess.Get(key)
	return v, nil
}

func (c *requestContext) SetSessionValue(key string, val any) error {
	sess, err := c.ensureSession()
	if err != nil {
		return err
	}
	sess.Set(key, val)
	return nil
}

func (c *requestContext) DeleteSessionValue(key string) error {
	sess, err := c.Session()
	if err != nil {
		return err
	}
	if sess == nil {
		return session.ErrNotFound
	}
	sess.Delete(key)
	return nil
}

func (c *requestContext) DestroySession() error {
	sess, err := c.Session()
	if err != nil {
		return err
	}
	if sess != nil {
		if err := c.app.sessions.Store().Delete(c.Context(), sess.ID); err != nil {
			return fmt.Errorf("destroy session: %w", err)
		}
	}
	c.app.sessions.Clear(c.responseWriter)
	c.session = nil
	c.sessionLoaded = true
	return nil
}
