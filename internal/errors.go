package internal

import (
	"errors"
	"net/http"
)

// StatusPageExpired is the non-standard status answered on CSRF failure.
const StatusPageExpired = 419

// Pipeline errors. They reach the ErrorHandler wrapped in an *HTTPError.
var (
	ErrRouteNotFound      = errors.New("route not found")
	ErrRouteNameNotFound  = errors.New("route name not found")
	ErrRouteParamMissing  = errors.New("route parameter missing")
	ErrControllerNotFound = errors.New("controller not found")
	ErrActionNotFound     = errors.New("controller action not found")
	ErrInvalidAction      = errors.New(`route action must look like "Controller@method"`)
	ErrMiddlewareNotFound = errors.New("middleware alias not registered")
	ErrCSRFTokenMismatch  = errors.New("CSRF token mismatch")
	ErrViewsNotConfigured = errors.New("views are not configured")
	ErrDBNotConfigured    = errors.New("database is not configured")
)

// HTTPError carries everything the error handler needs to answer.
type HTTPError struct {
	// Err is logged, never shown to the client.
	Err error

	Message string
	Title   string
	Detail  string

	// ErrorCode is an application-specific code for API clients.
	ErrorCode string
	RequestID string

	Code int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

func (e *HTTPError) StatusText() string {
	if e.Code == StatusPageExpired {
		return "Page Expired"
	}
	return http.StatusText(e.Code)
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError returns an error answered with code. An empty message falls
// back to the status text.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	e := &HTTPError{Code: code, Message: message}
	if e.Message == "" {
		e.Message = e.StatusText()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithTitle(title string) HTTPErrorOption {
	return func(e *HTTPError) { e.Title = title }
}

func WithDetail(detail string) HTTPErrorOption {
	return func(e *HTTPError) { e.Detail = detail }
}

func WithErrorCode(code string) HTTPErrorOption {
	return func(e *HTTPError) { e.ErrorCode = code }
}

func WithRequestID(id string) HTTPErrorOption {
	return func(e *HTTPError) { e.RequestID = id }
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) { e.Err = err }
}

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, message, opts...)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

func ErrConflict(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusConflict, message, opts...)
}

func ErrPageExpired(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(StatusPageExpired, message, opts...)
}

func ErrUnprocessable(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnprocessableEntity, message, opts...)
}

func ErrTooManyRequests(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusTooManyRequests, message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, opts...)
}

func ErrServiceUnavailable(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusServiceUnavailable, message, opts...)
}

// AsHTTPError finds an *HTTPError anywhere in err's chain.
func AsHTTPError(err error) *HTTPError {
	var he *HTTPError
	if errors.As(err, &he) {
		return he
	}
	return nil
}

func IsHTTPError(err error) bool {
	return AsHTTPError(err) != nil
}
