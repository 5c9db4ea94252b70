package query

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

// Conn is the subset of *sql.DB and *sql.Tx the builder needs.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Driver hides every dialect difference from the builder.
// The builder always emits "?" placeholders; Prepare rebinds them when the
// backend expects another style.
type Driver interface {
	// Name returns "mysql", "pgsql" or "sqlite".
	Name() string

	// Prepare compiles a statement on conn.
	Prepare(ctx context.Context, conn Conn, query string) (*sql.Stmt, error)

	// BindAndExecute runs a prepared write statement.
	BindAndExecute(ctx context.Context, stmt *sql.Stmt, args []any) (sql.Result, error)

	// FetchAll runs a prepared read statement and collects every row.
	FetchAll(ctx context.Context, stmt *sql.Stmt, args []any) ([]Row, error)

	// InsertGetID runs an INSERT and returns the generated primary key.
	InsertGetID(ctx context.Context, conn Conn, query string, args []any, pk string) (int64, error)

	// Quote wraps an identifier in the dialect's quote characters.
	Quote(ident string) string

	// CompileLimit renders the LIMIT/OFFSET tail. Zero means unset.
	CompileLimit(limit, offset int) string

	// CompileUpsert renders a multi-row insert that updates on conflict.
	CompileUpsert(table string, columns []string, rows int, unique []string) (string, error)

	// CompileTruncate renders a statement that empties a table.
	CompileTruncate(table string) string

	// IsUniqueViolation reports whether err is a unique/primary key violation.
	IsUniqueViolation(err error) bool
}

// DriverFor selects a driver from a DB_TYPE value.
func DriverFor(name string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql", "mariadb":
		return MySQL{}, nil
	case "pgsql", "postgres", "postgresql":
		return Postgres{}, nil
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, name)
}

// base implements the parts that are identical across dialects.
type base struct{}

func (base) prepare(ctx context.Context, conn Conn, query string) (*sql.Stmt, error) {
	stmt, err := conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, queryError(query, err)
	}
	return stmt, nil
}

func (base) BindAndExecute(ctx context.Context, stmt *sql.Stmt, args []any) (sql.Result, error) {
	return stmt.ExecContext(ctx, args...)
}

func (base) FetchAll(ctx context.Context, stmt *sql.Stmt, args []any) ([]Row, error) {
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func (base) CompileTruncate(table string) string {
	return "TRUNCATE TABLE " + table
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// quoteWith quotes plain and dotted identifiers and leaves expressions alone.
func quoteWith(q byte, ident string) string {
	if !identRe.MatchString(ident) {
		return ident
	}
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		parts[i] = string(q) + p + string(q)
	}
	return strings.Join(parts, ".")
}

// valuesClause renders "(a, b) VALUES (?, ?), (?, ?)".
func valuesClause(d Driver, columns []string, rows int) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.Quote(c)
	}
	group := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	groups := make([]string, rows)
	for i := range groups {
		groups[i] = group
	}
	return "(" + strings.Join(quoted, ", ") + ") VALUES " + strings.Join(groups, ", ")
}

// updatable returns the columns that are not part of the conflict target.
func updatable(columns, unique []string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		skip := false
		for _, u := range unique {
			if c == u {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, c)
		}
	}
	return out
}

func checkUpsertArgs(columns []string, rows int, unique []string) error {
	if len(columns) == 0 || rows == 0 {
		return ErrEmptyData
	}
	if len(unique) == 0 {
		return fmt.Errorf("%w: upsert needs at least one unique column", ErrEmptyData)
	}
	return nil
}
