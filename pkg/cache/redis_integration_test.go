//go:build integration

package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pypehq/pype/pkg/cache"
	"github.com/pypehq/pype/pkg/redis"
)

func startRedis(t *testing.T) goredis.UniversalClient {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := redis.Open(ctx, redis.Config{
		URL:           fmt.Sprintf("redis://%s:%d/0", host, port.Int()),
		RetryAttempts: 3,
		RetryInterval: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedis_Integration(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()

	type user struct {
		Name string `json:"name"`
	}
	c := cache.NewRedis[user](client, cache.WithPrefix("users"))

	_, err := c.Get(ctx, "1")
	require.ErrorIs(t, err, cache.ErrNotFound)

	require.NoError(t, c.Set(ctx, "1", user{Name: "Ada"}, time.Minute))
	u, err := c.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)

	raw, err := client.Get(ctx, "users:1").Result()
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada"}`, raw)

	require.NoError(t, c.Delete(ctx, "1"))
	ok, err := c.Has(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)

	b := cache.NewRedis[[]byte](client)
	require.NoError(t, b.Set(ctx, "raw", []byte("bytes"), 0))
	got, err := b.Get(ctx, "raw")
	require.NoError(t, err)
	assert.Equal(t, []byte("bytes"), got)

	counter := cache.NewRedisCounter(client, "rl")
	n, reset, err := counter.Incr(ctx, "ip", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.WithinDuration(t, time.Now().Add(time.Minute), reset, 2*time.Second)
	n, _, err = counter.Incr(ctx, "ip", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
