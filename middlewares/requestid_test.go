package middlewares_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pypehq/pype/internal"
	"github.com/pypehq/pype/middlewares"
	"github.com/pypehq/pype/pkg/logger"
)

func echoID(c internal.Context) error {
	return c.String(http.StatusOK, middlewares.GetRequestID(c))
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates a uuid", func(t *testing.T) {
		t.Parallel()
		w := get(newApp(echoID, middlewares.RequestID()), "/test")
		_, err := uuid.Parse(w.Body.String())
		require.NoError(t, err)
		assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))
	})

	t.Run("keeps upstream id", func(t *testing.T) {
		t.Parallel()
		w := get(newApp(echoID, middlewares.RequestID()), "/test", "X-Correlation-ID", "abc-123")
		assert.Equal(t, "abc-123", w.Body.String())
		assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	})

	t.Run("untrusted headers are ignored", func(t *testing.T) {
		t.Parallel()
		app := newApp(echoID, middlewares.RequestID(
			middlewares.WithTrustedHeaders(),
			middlewares.WithGenerator(func() string { return "fixed" }),
		))
		w := get(app, "/test", "X-Request-ID", "spoofed")
		assert.Equal(t, "fixed", w.Body.String())
	})

	t.Run("error body carries the id", func(t *testing.T) {
		t.Parallel()
		app := internal.New(internal.WithMiddleware(middlewares.RequestID(
			middlewares.WithGenerator(func() string { return "req-1" }),
		)))
		w := get(app, "/missing", "Accept", "application/json")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"Page Not Found","code":404,"request_id":"req-1"}`, w.Body.String())
	})
}

func TestRequestIDExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	app := internal.New(
		internal.WithLogger("test", logger.Config{Output: &buf, Level: "info", Format: "json"}, middlewares.RequestIDExtractor()),
		internal.WithRoutes(func(r internal.Router) {
			r.Use(middlewares.RequestID(middlewares.WithGenerator(func() string { return "req-42" })))
			r.GET("/test", func(c internal.Context) error {
				c.LogInfo("handled", slog.String("k", "v"))
				return c.NoContent(http.StatusNoContent)
			})
		}),
	)
	get(app, "/test")
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)

	_, found := middlewares.RequestIDExtractor()(context.Background())
	assert.False(t, found)
}
