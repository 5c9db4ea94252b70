package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want error
	}{
		{name: "empty", url: "", want: ErrEmptyConnectionURL},
		{name: "http scheme", url: "http://localhost:6379", want: ErrInvalidURL},
		{name: "no scheme", url: "localhost:6379", want: ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client, err := Open(context.Background(), Config{URL: tt.url})
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, client)
		})
	}
}

func TestOptions(t *testing.T) {
	t.Parallel()

	opts, err := options(Config{
		URL:          "redis://:secret@localhost:6380/2",
		PoolSize:     20,
		MinIdleConns: 3,
		DialTimeout:  time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 20, opts.PoolSize)
	assert.Equal(t, 3, opts.MinIdleConns)
	assert.Equal(t, time.Second, opts.DialTimeout)
}

func TestOpen_UnreachableHonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := Open(ctx, Config{
		URL:           "redis://127.0.0.1:1/0",
		RetryAttempts: 5,
		RetryInterval: time.Second,
		DialTimeout:   50 * time.Millisecond,
	})
	require.ErrorIs(t, err, ErrConnectionFailed)
}

type closer struct{ closed bool }

func (c *closer) Close() error {
	c.closed = true
	return nil
}

func TestHealthcheckAndShutdown(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.Is(Healthcheck(nil)(context.Background()), ErrHealthcheckFailed))

	c := &closer{}
	require.NoError(t, Shutdown(c)(context.Background()))
	assert.True(t, c.closed)
}
