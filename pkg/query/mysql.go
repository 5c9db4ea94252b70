package query

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQL targets MySQL and MariaDB through github.com/go-sql-driver/mysql.
type MySQL struct{ base }

func (MySQL) Name() string { return "mysql" }

func (d MySQL) Prepare(ctx context.Context, conn Conn, query string) (*sql.Stmt, error) {
	return d.prepare(ctx, conn, query)
}

func (d MySQL) InsertGetID(ctx context.Context, conn Conn, query string, args []any, _ string) (int64, error) {
	return execLastInsertID(ctx, d, conn, query, args)
}

func (MySQL) Quote(ident string) string { return quoteWith('`', ident) }

func (MySQL) CompileLimit(limit, offset int) string {
	switch {
	case limit > 0 && offset > 0:
		return " LIMIT " + strconv.Itoa(limit) + " OFFSET " + strconv.Itoa(offset)
	case limit > 0:
		return " LIMIT " + strconv.Itoa(limit)
	case offset > 0:
		// MySQL has no bare OFFSET.
		return " LIMIT 18446744073709551615 OFFSET " + strconv.Itoa(offset)
	}
	return ""
}

func (d MySQL) CompileUpsert(table string, columns []string, rows int, unique []string) (string, error) {
	if err := checkUpsertArgs(columns, rows, unique); err != nil {
		return "", err
	}
	set := updatable(columns, unique)
	if len(set) == 0 {
		// Nothing to update, turn the conflict into a no-op.
		set = unique[:1]
	}
	parts := make([]string, len(set))
	for i, c := range set {
		q := d.Quote(c)
		parts[i] = q + " = VALUES(" + q + ")"
	}
	return "INSERT INTO " + table + " " + valuesClause(d, columns, rows) +
		" ON DUPLICATE KEY UPDATE " + strings.Join(parts, ", "), nil
}

func (MySQL) IsUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

func execLastInsertID(ctx context.Context, d Driver, conn Conn, query string, args []any) (int64, error) {
	stmt, err := d.Prepare(ctx, conn, query)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	res, err := d.BindAndExecute(ctx, stmt, args)
	if err != nil {
		return 0, queryError(query, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, queryError(query, err)
	}
	return id, nil
}
