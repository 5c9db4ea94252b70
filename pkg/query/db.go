package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/pypehq/pype/pkg/logger"
)

// DB is the entry point to the query builder. It is safe for concurrent use;
// each call to Table returns an independent Builder.
type DB struct {
	conn   Conn
	pool   *sql.DB
	driver Driver
	logger *slog.Logger
	debug  bool
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger used to trace executed statements.
func WithLogger(l *slog.Logger) Option {
	return func(db *DB) {
		if l != nil {
			db.logger = l
		}
	}
}

// WithDebug logs every statement at info level instead of debug.
func WithDebug(enabled bool) Option {
	return func(db *DB) {
		db.debug = enabled
	}
}

// New wraps an open connection pool.
//
// Example:
//
//	drv, _ := query.DriverFor("sqlite")
//	db := query.New(sqlDB, drv, query.WithLogger(log))
//	posts, err := db.Table("posts").Where("published", true).OrderBy("id", "DESC").Get(ctx)
func New(pool *sql.DB, driver Driver, opts ...Option) *DB {
	db := &DB{
		conn:   pool,
		pool:   pool,
		driver: driver,
		logger: logger.NewNope(),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// FromConn wraps an existing connection or transaction. Transaction on the
// returned DB runs its callback directly on conn.
func FromConn(conn Conn, driver Driver, opts ...Option) *DB {
	db := &DB{
		conn:   conn,
		driver: driver,
		logger: logger.NewNope(),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Driver returns the dialect strategy in use.
func (db *DB) Driver() Driver {
	return db.driver
}

// Pool returns the underlying pool. It is nil inside a transaction.
func (db *DB) Pool() *sql.DB {
	return db.pool
}

// Logger returns the statement logger.
func (db *DB) Logger() *slog.Logger {
	return db.logger
}

// Table starts a new query against table.
func (db *DB) Table(table string) *Builder {
	b := &Builder{db: db, table: table, pk: "id"}
	if looksLikeStatement(table) {
		b.err = fmt.Errorf("%w: Table(%q)", ErrRawStatement, truncate(table))
	}
	return b
}

// Raw runs an arbitrary read statement with "?" placeholders.
func (db *DB) Raw(ctx context.Context, query string, args ...any) ([]Row, error) {
	return db.fetch(ctx, query, args)
}

// Exec runs an arbitrary write statement with "?" placeholders.
func (db *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.exec(ctx, query, args)
}

// Truncate empties a table using the dialect's fastest statement.
func (db *DB) Truncate(ctx context.Context, table string) error {
	_, err := db.exec(ctx, db.driver.CompileTruncate(table), nil)
	return err
}

// Transaction runs fn inside a database transaction. The transaction is
// rolled back when fn returns an error or panics; the panic is re-raised.
// Calling Transaction on a DB that is already inside one reuses it.
func (db *DB) Transaction(ctx context.Context, fn func(tx *DB) error) error {
	if db.pool == nil {
		return fn(db)
	}

	tx, err := db.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("query: begin transaction: %w", err)
	}

	txDB := &DB{conn: tx, driver: db.driver, logger: db.logger, debug: db.debug}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txDB); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

func (db *DB) fetch(ctx context.Context, query string, args []any) ([]Row, error) {
	start := time.Now()
	stmt, err := db.driver.Prepare(ctx, db.conn, query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	rows, err := db.driver.FetchAll(ctx, stmt, args)
	db.trace(ctx, query, args, start, err)
	if err != nil {
		return nil, queryError(query, err)
	}
	return rows, nil
}

func (db *DB) exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	start := time.Now()
	stmt, err := db.driver.Prepare(ctx, db.conn, query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	res, err := db.driver.BindAndExecute(ctx, stmt, args)
	db.trace(ctx, query, args, start, err)
	if err != nil {
		return nil, queryError(query, err)
	}
	return res, nil
}

func (db *DB) insertGetID(ctx context.Context, query string, args []any, pk string) (int64, error) {
	start := time.Now()
	id, err := db.driver.InsertGetID(ctx, db.conn, query, args, pk)
	db.trace(ctx, query, args, start, err)
	return id, err
}

func (db *DB) trace(ctx context.Context, query string, args []any, start time.Time, err error) {
	level := slog.LevelDebug
	if db.debug {
		level = slog.LevelInfo
	}
	attrs := []any{
		slog.String("driver", db.driver.Name()),
		slog.String("sql", query),
		slog.Any("bindings", args),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		level = slog.LevelWarn
	}
	db.logger.Log(ctx, level, "query executed", attrs...)
}

var statementRe = regexp.MustCompile(`(?i)^\s*(select|insert|update|delete|with|replace|create|drop|alter)\s`)

func looksLikeStatement(s string) bool {
	return statementRe.MatchString(s)
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
