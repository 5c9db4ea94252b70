package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pypehq/pype/pkg/health"
)

func ok(context.Context) error { return nil }

func TestRun(t *testing.T) {
	t.Parallel()

	rep := health.Run(context.Background(), health.Checks{
		"db":    ok,
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})

	assert.False(t, rep.Healthy())
	assert.Equal(t, health.StatusHealthy, rep.Checks["db"].Status)
	assert.Equal(t, "connection refused", rep.Checks["redis"].Error)

	err := rep.Err()
	require.ErrorIs(t, err, health.ErrCheckFailed)
	assert.Contains(t, err.Error(), "redis: connection refused")

	assert.NoError(t, health.Run(context.Background(), nil).Err())
}

func TestRunTimeout(t *testing.T) {
	t.Parallel()

	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	rep := health.Run(context.Background(), health.Checks{"slow": slow}, health.WithTimeout(10*time.Millisecond))
	assert.False(t, rep.Healthy())
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()

	h := health.ReadinessHandler(health.Checks{"db": func(context.Context) error { return errors.New("down") }})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Service Unavailable", w.Body.String())

	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/health/ready?format=json", nil))
	var rep health.Report
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rep))
	assert.Equal(t, health.StatusUnhealthy, rep.Status)
	assert.Equal(t, "down", rep.Checks["db"].Error)
}

func TestLivenessHandler(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	health.LivenessHandler()(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}
