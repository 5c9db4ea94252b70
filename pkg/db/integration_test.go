//go:build integration

package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pypehq/pype/pkg/db"
	"github.com/pypehq/pype/pkg/query"
)

func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) (string, int) {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Terminate(ctx)) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, port)
	require.NoError(t, err)
	return host, mapped.Int()
}

func TestIntegration_Postgres(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:15",
		ExposedPorts: []string{"5432/tcp"},
		Env:          map[string]string{"POSTGRES_PASSWORD": "password"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}, "5432")

	for _, driver := range []string{"pgx", "pq"} {
		t.Run(driver, func(t *testing.T) {
			exerciseDialect(t, db.Config{
				Type: "pgsql", Host: host, Port: port, User: "postgres", Password: "password",
				Name: "postgres", PGDriver: driver, SSLMode: "disable",
				RetryAttempts: 5, RetryInterval: time.Second, MigrationsTable: "migrations",
				MaxOpenConns: 4, MaxIdleConns: 2,
			})
		})
	}
}

func TestIntegration_MySQL(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env:          map[string]string{"MYSQL_ROOT_PASSWORD": "password", "MYSQL_DATABASE": "app"},
		WaitingFor:   wait.ForLog("port: 3306  MySQL Community Server - GPL"),
	}, "3306")

	exerciseDialect(t, db.Config{
		Type: "mysql", Host: host, Port: port, User: "root", Password: "password", Name: "app",
		RetryAttempts: 5, RetryInterval: time.Second, MigrationsTable: "migrations",
		MaxOpenConns: 4, MaxIdleConns: 2,
	})
}

func exerciseDialect(t *testing.T, cfg db.Config) {
	t.Helper()
	ctx := context.Background()

	conn, err := db.Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	m, err := db.NewMigrator(conn, testMigrations())
	require.NoError(t, err)
	_, err = m.Fresh(ctx)
	require.NoError(t, err)

	users := func() *query.Builder { return conn.Table("users") }

	id, err := users().Insert(ctx, map[string]any{"email": "a@example.com", "name": "A"})
	require.NoError(t, err)
	assert.Positive(t, id)

	row, err := users().FindOrFail(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", row.String("email"))

	_, err = users().Insert(ctx, map[string]any{"email": "a@example.com"})
	require.Error(t, err)
	assert.True(t, conn.Driver().IsUniqueViolation(err))

	_, err = users().Upsert(ctx, []map[string]any{
		{"email": "a@example.com", "name": "Renamed"},
		{"email": "b@example.com", "name": "B"},
	}, "email")
	require.NoError(t, err)

	n, err := users().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	row, err = users().FindByOrFail(ctx, "email", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", row.String("name"))

	rows, err := users().WhereIn("email", "a@example.com", "b@example.com").OrderBy("email", "desc").Get(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b@example.com", rows[0].String("email"))

	require.NoError(t, conn.Query().Truncate(ctx, "users"))
	n, err = users().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
