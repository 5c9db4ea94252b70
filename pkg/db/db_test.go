package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pypehq/pype/pkg/db"
	"github.com/pypehq/pype/pkg/schema"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     db.Config
		wantErr string
	}{
		{
			name:    "missing type",
			cfg:     db.Config{},
			wantErr: "DB_TYPE is not set",
		},
		{
			name:    "unsupported type",
			cfg:     db.Config{Type: "oracle"},
			wantErr: `unsupported DB_TYPE "oracle"`,
		},
		{
			name:    "mysql without host and name",
			cfg:     db.Config{Type: "mysql", User: "root"},
			wantErr: "missing DB_HOST, DB_NAME",
		},
		{
			name:    "sqlite without path",
			cfg:     db.Config{Type: "sqlite"},
			wantErr: "sqlite needs DB_PATH",
		},
		{
			name: "postgresql alias",
			cfg:  db.Config{Type: "postgresql", Host: "localhost", User: "app", Name: "app"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, db.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.wantErr)

			var cerr *db.ConfigError
			assert.True(t, errors.As(err, &cerr))
		})
	}
}

func TestConfigDSN(t *testing.T) {
	t.Parallel()

	name, dsn := db.Config{Type: "mysql", Host: "db", User: "root", Password: "secret", Name: "app"}.DSN()
	assert.Equal(t, "mysql", name)
	assert.Contains(t, dsn, "root:secret@tcp(db:3306)/app")
	assert.Contains(t, dsn, "parseTime=true")

	name, dsn = db.Config{Type: "pgsql", Host: "db", User: "app", Password: "p", Name: "app", SSLMode: "disable", PGDriver: "pgx"}.DSN()
	assert.Equal(t, "pgx", name)
	assert.Equal(t, "postgres://app:p@db:5432/app?sslmode=disable", dsn)

	name, _ = db.Config{Type: "postgres", Host: "db", User: "app", Name: "app", PGDriver: "pq"}.DSN()
	assert.Equal(t, "postgres", name)

	name, dsn = db.Config{Type: "sqlite", Path: ":memory:"}.DSN()
	assert.Equal(t, "sqlite", name)
	assert.Equal(t, ":memory:", dsn)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("DB_RETRY_ATTEMPTS", "1")

	cfg, err := db.LoadConfig("testdata/does-not-exist.env")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Dialect())
	assert.Equal(t, 10, cfg.MaxOpenConns)
	assert.Equal(t, "migrations", cfg.MigrationsTable)
}

func openMemory(t *testing.T) *db.Connection {
	t.Helper()
	conn, err := db.Open(context.Background(), db.Config{
		Type:            "sqlite",
		Path:            ":memory:",
		RetryAttempts:   1,
		MigrationsTable: "migrations",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestOpenAndHealthcheck(t *testing.T) {
	t.Parallel()

	conn := openMemory(t)
	assert.Equal(t, "sqlite", conn.Driver().Name())
	require.NoError(t, db.Healthcheck(conn)(context.Background()))

	_, err := db.Open(context.Background(), db.Config{Type: "mysql"})
	assert.ErrorIs(t, err, db.ErrConfiguration)
}

func TestShutdownClosesPool(t *testing.T) {
	t.Parallel()

	conn := openMemory(t)
	require.NoError(t, db.Shutdown(conn)(context.Background()))
	assert.ErrorIs(t, db.Healthcheck(conn)(context.Background()), db.ErrHealthcheckFailed)
}

func testMigrations() []schema.Migration {
	return []schema.Migration{
		schema.CreateTable(20240101000000, "users", func(t *schema.Blueprint) {
			t.ID()
			t.String("email", 0).Unique()
			t.Timestamps()
		}),
		{
			Version: 20240102000000,
			Name:    "add_name_to_users",
			Up: func(ctx context.Context, s *schema.Schema) error {
				return s.Alter(ctx, "users", func(t *schema.Blueprint) {
					t.String("name", 100).Nullable()
				})
			},
			Down: func(ctx context.Context, s *schema.Schema) error {
				return nil
			},
		},
	}
}

func TestMigrator(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	conn := openMemory(t)

	m, err := db.NewMigrator(conn, testMigrations())
	require.NoError(t, err)

	applied, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	_, err = conn.Table("users").Insert(ctx, map[string]any{"email": "a@b.c", "name": "A"})
	require.NoError(t, err)

	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.True(t, status[0].Applied)
	assert.Equal(t, "create_users_table", status[0].Name)

	v, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20240102000000), v)

	ok, err := m.Rollback(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	v, err = m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20240101000000), v)

	applied, err = m.Fresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	n, err := conn.Table("users").Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMigratorRejectsDuplicates(t *testing.T) {
	t.Parallel()

	conn := openMemory(t)
	ms := testMigrations()
	_, err := db.NewMigrator(conn, append(ms, ms[0]))
	assert.ErrorIs(t, err, db.ErrMigration)
}
