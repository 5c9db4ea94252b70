package middlewares_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pypehq/pype/internal"
	"github.com/pypehq/pype/middlewares"
)

func TestTimeout(t *testing.T) {
	t.Parallel()

	t.Run("fast handler", func(t *testing.T) {
		t.Parallel()
		w := get(newApp(ok, middlewares.Timeout(time.Second)), "/test")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("slow handler", func(t *testing.T) {
		t.Parallel()

		var captured error
		slow := func(c internal.Context) error {
			<-middlewares.TimeoutContext(c).Done()
			return nil
		}
		app := internal.New(
			internal.WithErrorHandler(func(c internal.Context, err error) error {
				captured = err
				return internal.DefaultErrorHandler(c, err)
			}),
			internal.WithRoutes(func(r internal.Router) {
				r.Use(middlewares.Timeout(20 * time.Millisecond))
				r.GET("/test", slow)
			}),
		)

		w := get(app, "/test")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		te, ok := middlewares.AsTimeoutError(captured)
		require.True(t, ok)
		assert.Equal(t, 20*time.Millisecond, te.Duration)
	})

	t.Run("late writes are dropped", func(t *testing.T) {
		t.Parallel()

		wrote := make(chan error, 1)
		slow := func(c internal.Context) error {
			<-middlewares.TimeoutContext(c).Done()
			time.Sleep(10 * time.Millisecond)
			err := c.String(http.StatusOK, "late")
			wrote <- err
			return err
		}

		w := get(newApp(slow, middlewares.Timeout(20*time.Millisecond)), "/test")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		select {
		case err := <-wrote:
			require.ErrorIs(t, err, http.ErrHandlerTimeout)
		case <-time.After(time.Second):
			t.Fatal("handler never wrote")
		}
		assert.NotContains(t, w.Body.String(), "late")
	})

	t.Run("headers and params reach the client", func(t *testing.T) {
		t.Parallel()

		app := internal.New(
			internal.WithRoutes(func(r internal.Router) {
				r.Use(middlewares.Timeout(time.Second))
				r.GET("/posts/{id}", func(c internal.Context) error {
					c.SetHeader("X-Post", c.Param("id"))
					return c.String(http.StatusAccepted, "post "+c.Param("id"))
				})
			}),
		)

		w := get(app, "/posts/5")
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, "post 5", w.Body.String())
		assert.Equal(t, "5", w.Header().Get("X-Post"))
	})

	t.Run("panic in handler", func(t *testing.T) {
		t.Parallel()

		var captured error
		app := internal.New(
			internal.WithErrorHandler(func(c internal.Context, err error) error {
				captured = err
				return internal.DefaultErrorHandler(c, err)
			}),
			internal.WithRoutes(func(r internal.Router) {
				r.Use(middlewares.Timeout(time.Second))
				r.GET("/test", func(internal.Context) error { panic("boom") })
			}),
		)

		w := get(app, "/test")
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		pe, ok := middlewares.AsPanicError(captured)
		require.True(t, ok)
		assert.Equal(t, "boom", pe.Value)
	})

	t.Run("context without timeout middleware", func(t *testing.T) {
		t.Parallel()
		w := get(newApp(func(c internal.Context) error {
			_, has := middlewares.TimeoutContext(c).Deadline()
			if has {
				return c.String(http.StatusOK, "deadline")
			}
			return c.String(http.StatusOK, "none")
		}), "/test")
		assert.Equal(t, "none", w.Body.String())
	})
}
