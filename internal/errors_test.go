package internal_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pypehq/pype/internal"
)

func TestHTTPError(t *testing.T) {
	t.Parallel()

	t.Run("empty message falls back to status text", func(t *testing.T) {
		t.Parallel()
		err := internal.ErrNotFound("")
		assert.Equal(t, "Not Found", err.Error())
		assert.Equal(t, http.StatusNotFound, err.StatusCode())
	})

	t.Run("page expired has its own text", func(t *testing.T) {
		t.Parallel()
		err := internal.ErrPageExpired("")
		assert.Equal(t, internal.StatusPageExpired, err.Code)
		assert.Equal(t, "Page Expired", err.StatusText())
	})

	t.Run("options", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("boom")
		err := internal.ErrUnprocessable("invalid",
			internal.WithError(cause),
			internal.WithErrorCode("post.invalid"),
			internal.WithDetail("title is required"),
		)
		require.ErrorIs(t, err, cause)
		assert.Equal(t, "post.invalid", err.ErrorCode)
		assert.Equal(t, "title is required", err.Detail)
	})
}

func TestAsHTTPError(t *testing.T) {
	t.Parallel()

	he := internal.ErrConflict("taken")
	wrapped := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", he))

	assert.Same(t, he, internal.AsHTTPError(wrapped))
	assert.True(t, internal.IsHTTPError(wrapped))
	assert.Nil(t, internal.AsHTTPError(errors.New("plain")))
	assert.Nil(t, internal.AsHTTPError(nil))
}
