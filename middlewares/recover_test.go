package middlewares_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pypehq/pype/internal"
	"github.com/pypehq/pype/middlewares"
)

func TestRecover(t *testing.T) {
	t.Parallel()

	boom := func(internal.Context) error { panic("boom") }

	t.Run("panic becomes 500", func(t *testing.T) {
		t.Parallel()
		w := get(newApp(boom, middlewares.Recover()), "/test", "Accept", "application/json")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Internal Server Error","code":500}`, w.Body.String())
	})

	t.Run("error carries the panic", func(t *testing.T) {
		t.Parallel()

		var captured error
		app := internal.New(
			internal.WithErrorHandler(func(c internal.Context, err error) error {
				captured = err
				return c.NoContent(http.StatusInternalServerError)
			}),
			internal.WithRoutes(func(r internal.Router) {
				r.Use(middlewares.Recover(middlewares.WithStackSize(1024)))
				r.GET("/test", func(internal.Context) error { panic(errors.New("db gone")) })
			}),
		)
		get(app, "/test")

		pe, ok := middlewares.AsPanicError(captured)
		require.True(t, ok)
		assert.Equal(t, "panic: db gone", pe.Error())
		assert.NotEmpty(t, pe.Stack)
		assert.LessOrEqual(t, len(pe.Stack), 1024)
	})

	t.Run("without stack", func(t *testing.T) {
		t.Parallel()

		var captured error
		app := internal.New(
			internal.WithErrorHandler(func(c internal.Context, err error) error {
				captured = err
				return nil
			}),
			internal.WithRoutes(func(r internal.Router) {
				r.Use(middlewares.Recover(middlewares.WithoutStack()))
				r.GET("/test", boom)
			}),
		)
		get(app, "/test")

		pe, ok := middlewares.AsPanicError(captured)
		require.True(t, ok)
		assert.Nil(t, pe.Stack)
	})

	t.Run("no panic passes through", func(t *testing.T) {
		t.Parallel()
		w := get(newApp(ok, middlewares.Recover()), "/test")
		assert.Equal(t, "ok", w.Body.String())
	})
}
