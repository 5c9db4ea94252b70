package query

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Postgres targets PostgreSQL through either pgx (stdlib mode) or lib/pq.
type Postgres struct{ base }

func (Postgres) Name() string { return "pgsql" }

func (d Postgres) Prepare(ctx context.Context, conn Conn, query string) (*sql.Stmt, error) {
	return d.prepare(ctx, conn, Rebind(query))
}

// InsertGetID appends RETURNING so the generated key comes back in one round trip.
func (d Postgres) InsertGetID(ctx context.Context, conn Conn, query string, args []any, pk string) (int64, error) {
	if pk == "" {
		stmt, err := d.Prepare(ctx, conn, query)
		if err != nil {
			return 0, err
		}
		defer stmt.Close()
		if _, err := d.BindAndExecute(ctx, stmt, args); err != nil {
			return 0, queryError(query, err)
		}
		return 0, nil
	}

	query += " RETURNING " + d.Quote(pk)
	stmt, err := d.Prepare(ctx, conn, query)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var id any
	if err := stmt.QueryRowContext(ctx, args...).Scan(&id); err != nil {
		return 0, queryError(query, err)
	}
	n, _ := toInt64(id)
	return n, nil
}

func (Postgres) Quote(ident string) string { return quoteWith('"', ident) }

func (Postgres) CompileLimit(limit, offset int) string {
	var b strings.Builder
	if limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(limit))
	}
	if offset > 0 {
		b.WriteString(" OFFSET " + strconv.Itoa(offset))
	}
	return b.String()
}

func (d Postgres) CompileUpsert(table string, columns []string, rows int, unique []string) (string, error) {
	if err := checkUpsertArgs(columns, rows, unique); err != nil {
		return "", err
	}
	return "INSERT INTO " + table + " " + valuesClause(d, columns, rows) +
		onConflict(d, columns, unique, "EXCLUDED"), nil
}

func (Postgres) CompileTruncate(table string) string {
	return "TRUNCATE TABLE " + table + " RESTART IDENTITY"
}

func (Postgres) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// onConflict renders the ON CONFLICT tail shared by PostgreSQL and SQLite.
func onConflict(d Driver, columns, unique []string, excluded string) string {
	target := make([]string, len(unique))
	for i, u := range unique {
		target[i] = d.Quote(u)
	}
	clause := " ON CONFLICT (" + strings.Join(target, ", ") + ")"

	set := updatable(columns, unique)
	if len(set) == 0 {
		return clause + " DO NOTHING"
	}
	parts := make([]string, len(set))
	for i, c := range set {
		q := d.Quote(c)
		parts[i] = q + " = " + excluded + "." + q
	}
	return clause + " DO UPDATE SET " + strings.Join(parts, ", ")
}

// Rebind converts "?" placeholders to "$1..$n", leaving quoted text untouched.
func Rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}
	var (
		b     strings.Builder
		n     int
		quote rune
	)
	b.Grow(len(query) + 8)
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			b.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			b.WriteRune(r)
		case r == '?':
			n++
			b.WriteString("$" + strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
