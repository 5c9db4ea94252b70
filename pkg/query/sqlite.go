package query

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLite targets modernc.org/sqlite (pure Go, no cgo).
type SQLite struct{ base }

func (SQLite) Name() string { return "sqlite" }

func (d SQLite) Prepare(ctx context.Context, conn Conn, query string) (*sql.Stmt, error) {
	return d.prepare(ctx, conn, query)
}

func (d SQLite) InsertGetID(ctx context.Context, conn Conn, query string, args []any, _ string) (int64, error) {
	return execLastInsertID(ctx, d, conn, query, args)
}

func (SQLite) Quote(ident string) string { return quoteWith('`', ident) }

func (SQLite) CompileLimit(limit, offset int) string {
	var b strings.Builder
	switch {
	case limit > 0:
		b.WriteString(" LIMIT " + strconv.Itoa(limit))
	case offset > 0:
		b.WriteString(" LIMIT -1")
	}
	if offset > 0 {
		b.WriteString(" OFFSET " + strconv.Itoa(offset))
	}
	return b.String()
}

// CompileUpsert uses ON CONFLICT ... DO UPDATE rather than INSERT OR REPLACE,
// which would delete the old row and lose columns not present in the insert.
func (d SQLite) CompileUpsert(table string, columns []string, rows int, unique []string) (string, error) {
	if err := checkUpsertArgs(columns, rows, unique); err != nil {
		return "", err
	}
	return "INSERT INTO " + table + " " + valuesClause(d, columns, rows) +
		onConflict(d, columns, unique, "excluded"), nil
}

func (SQLite) CompileTruncate(table string) string {
	return "DELETE FROM " + table
}

func (SQLite) IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// Extended codes are not always enabled on the connection.
		return strings.Contains(se.Error(), "UNIQUE constraint failed")
	}
	return false
}
