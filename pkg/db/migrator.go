package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"

	"github.com/pypehq/pype/pkg/logger"
	"github.com/pypehq/pype/pkg/query"
	"github.com/pypehq/pype/pkg/schema"
)

// MigrationStatus is one row of `migrate:status`.
type MigrationStatus struct {
	AppliedAt time.Time
	Name      string
	Version   int64
	Applied   bool
}

// Migrator applies schema.Migration values with goose, recording versions in
// cfg.MigrationsTable.
type Migrator struct {
	conn     *Connection
	log      *slog.Logger
	provider *goose.Provider
	names    map[int64]string
}

// MigratorOption configures a Migrator.
type MigratorOption func(*Migrator)

// WithMigrationLogger logs each applied or reverted migration.
func WithMigrationLogger(l *slog.Logger) MigratorOption {
	return func(m *Migrator) {
		m.log = l
	}
}

// NewMigrator validates and registers migrations. Nothing touches the
// database until one of the run methods is called.
func NewMigrator(conn *Connection, migrations []schema.Migration, opts ...MigratorOption) (*Migrator, error) {
	sorted, err := schema.Sorted(migrations)
	if err != nil {
		return nil, errors.Join(ErrMigration, err)
	}

	m := &Migrator{
		conn:  conn,
		log:   logger.NewNope(),
		names: make(map[int64]string, len(sorted)),
	}
	for _, opt := range opts {
		opt(m)
	}

	store, err := database.NewStore(gooseDialect(conn.Driver().Name()), conn.Config().MigrationsTable)
	if err != nil {
		return nil, errors.Join(ErrMigration, err)
	}

	gms := make([]*goose.Migration, 0, len(sorted))
	for _, mig := range sorted {
		m.names[mig.Version] = mig.Name
		gms = append(gms, goose.NewGoMigration(mig.Version, m.wrap(mig.Up), m.wrap(mig.Down)))
	}

	provider, err := goose.NewProvider("", conn.SQL(), nil,
		goose.WithStore(store),
		goose.WithDisableGlobalRegistry(true),
		goose.WithGoMigrations(gms...),
	)
	if err != nil {
		return nil, errors.Join(ErrMigration, err)
	}
	m.provider = provider

	return m, nil
}

// Up applies every pending migration in version order.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	results, err := m.provider.Up(ctx)
	m.report(results...)
	if err != nil {
		return len(results), errors.Join(ErrMigration, err)
	}
	return len(results), nil
}

// Rollback reverts the most recently applied migration. It reports false when
// nothing is applied.
func (m *Migrator) Rollback(ctx context.Context) (bool, error) {
	res, err := m.provider.Down(ctx)
	if err != nil {
		if errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoCurrentVersion) {
			return false, nil
		}
		m.report(res)
		return false, errors.Join(ErrMigration, err)
	}
	m.report(res)
	return true, nil
}

// Fresh reverts everything and applies all migrations again.
func (m *Migrator) Fresh(ctx context.Context) (int, error) {
	results, err := m.provider.DownTo(ctx, 0)
	m.report(results...)
	if err != nil {
		return 0, errors.Join(ErrMigration, err)
	}
	return m.Up(ctx)
}

// Status lists every known migration with its applied state.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	list, err := m.provider.Status(ctx)
	if err != nil {
		return nil, errors.Join(ErrMigration, err)
	}

	out := make([]MigrationStatus, 0, len(list))
	for _, s := range list {
		v := s.Source.Version
		out = append(out, MigrationStatus{
			Version:   v,
			Name:      m.names[v],
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return out, nil
}

// Version returns the highest applied version, 0 when none.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	v, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, errors.Join(ErrMigration, err)
	}
	return v, nil
}

func (m *Migrator) wrap(fn schema.MigrationFunc) *goose.GoFunc {
	if fn == nil {
		return nil
	}
	driver := m.conn.Driver()
	opts := []query.Option{query.WithLogger(m.conn.Query().Logger())}
	return &goose.GoFunc{
		RunTx: func(ctx context.Context, tx *sql.Tx) error {
			return fn(ctx, schema.New(query.FromConn(tx, driver, opts...)))
		},
	}
}

func (m *Migrator) report(results ...*goose.MigrationResult) {
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		attrs := []any{
			slog.Int64("version", r.Source.Version),
			slog.String("name", m.names[r.Source.Version]),
			slog.String("direction", r.Direction),
			slog.Duration("duration", r.Duration),
		}
		if r.Error != nil {
			m.log.Error("migration failed", append(attrs, slog.Any("error", r.Error))...)
			continue
		}
		m.log.Info("migration applied", attrs...)
	}
}

func gooseDialect(driver string) database.Dialect {
	switch driver {
	case "mysql":
		return database.DialectMySQL
	case "pgsql":
		return database.DialectPostgres
	}
	return database.DialectSQLite3
}
