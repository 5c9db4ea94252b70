package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/pypehq/pype/pkg/query"
)

// Connection is the process-wide pool plus the dialect driver picked from DB_TYPE.
type Connection struct {
	pool   *sql.DB
	db     *query.DB
	driver query.Driver
	cfg    Config
}

// Query returns the query builder entry point bound to the pool.
func (c *Connection) Query() *query.DB { return c.db }

// SQL returns the underlying database/sql pool.
func (c *Connection) SQL() *sql.DB { return c.pool }

func (c *Connection) Driver() query.Driver { return c.driver }

func (c *Connection) Config() Config { return c.cfg }

// Table is shorthand for c.Query().Table(name).
func (c *Connection) Table(name string) *query.Builder {
	return c.db.Table(name)
}

func (c *Connection) Close() error {
	return c.pool.Close()
}

// Open validates cfg, opens the pool and pings it, retrying with a linear
// backoff (attempt n waits n*RetryInterval).
func Open(ctx context.Context, cfg Config, opts ...query.Option) (*Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	driver, err := query.DriverFor(cfg.Dialect())
	if err != nil {
		return nil, errors.Join(ErrConfiguration, err)
	}

	name, dsn := cfg.DSN()
	if cfg.Debug {
		opts = append(opts, query.WithDebug(true))
	}

	var lastErr error
	attempts := max(cfg.RetryAttempts, 1)
	for i := range attempts {
		pool, err := sql.Open(name, dsn)
		if err == nil {
			configurePool(pool, cfg)
			if err = pool.PingContext(ctx); err == nil {
				return &Connection{
					pool:   pool,
					db:     query.New(pool, driver, opts...),
					driver: driver,
					cfg:    cfg,
				}, nil
			}
			_ = pool.Close()
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrConnection, ctx.Err())
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}

	return nil, errors.Join(ErrConnection, lastErr)
}

// MustOpen is like Open but panics on error.
func MustOpen(ctx context.Context, cfg Config, opts ...query.Option) *Connection {
	conn, err := Open(ctx, cfg, opts...)
	if err != nil {
		panic(err)
	}
	return conn
}

func configurePool(pool *sql.DB, cfg Config) {
	if cfg.Dialect() == "sqlite" && cfg.Path == ":memory:" {
		// Every new connection would see its own empty database.
		pool.SetMaxOpenConns(1)
		pool.SetMaxIdleConns(1)
		pool.SetConnMaxLifetime(0)
		pool.SetConnMaxIdleTime(0)
		return
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}

// Healthcheck returns a readiness check that pings the pool.
func Healthcheck(conn *Connection) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := conn.pool.PingContext(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
