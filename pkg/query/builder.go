package query

import (
	"fmt"
	"slices"
	"strings"
)

// Builder accumulates clauses for one table. It is not safe for concurrent
// use; every terminal operation resets the clauses so the same Builder can
// be reused for the next query on the table.
type Builder struct {
	db    *DB
	err   error
	table string
	pk    string
	debug bool
	c     clauses
}

type clauses struct {
	columns  []string
	joins    []string
	wheres   []where
	groupBy  []string
	havings  []where
	orderBy  []string
	limit    int
	offset   int
	distinct bool
}

// where is one predicate with its leading conjunction and bindings.
type where struct {
	conj string
	sql  string
	args []any
}

func (c clauses) clone() clauses {
	out := c
	out.columns = slices.Clone(c.columns)
	out.joins = slices.Clone(c.joins)
	out.wheres = slices.Clone(c.wheres)
	out.groupBy = slices.Clone(c.groupBy)
	out.havings = slices.Clone(c.havings)
	out.orderBy = slices.Clone(c.orderBy)
	return out
}

var operators = map[string]string{
	"=":        "=",
	"!=":       "!=",
	"<>":       "<>",
	"<":        "<",
	">":        ">",
	"<=":       "<=",
	">=":       ">=",
	"like":     "LIKE",
	"not like": "NOT LIKE",
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// PrimaryKey sets the column used by Find and friends. Defaults to "id".
func (b *Builder) PrimaryKey(col string) *Builder {
	if col != "" {
		b.pk = col
	}
	return b
}

// Debug logs the next statement at info level.
func (b *Builder) Debug() *Builder {
	b.debug = true
	return b
}

// Select sets the column list. Passing a full statement is rejected.
func (b *Builder) Select(cols ...string) *Builder {
	if len(cols) > 0 && looksLikeStatement(cols[0]) {
		return b.fail(fmt.Errorf("%w: Select(%q)", ErrRawStatement, truncate(cols[0])))
	}
	b.c.columns = append(b.c.columns[:0], cols...)
	return b
}

// Only is an alias of Select.
func (b *Builder) Only(cols ...string) *Builder {
	return b.Select(cols...)
}

func (b *Builder) Distinct() *Builder {
	b.c.distinct = true
	return b
}

// Where adds "col = val" joined with AND.
func (b *Builder) Where(col string, val any) *Builder {
	return b.addCompare("AND", col, "=", val)
}

// WhereOp adds "col op val" joined with AND.
func (b *Builder) WhereOp(col, op string, val any) *Builder {
	return b.addCompare("AND", col, op, val)
}

// OrWhere adds "col = val" joined with OR. Predicates are never grouped:
// a.Where(x).OrWhere(y).Where(z) compiles to "x OR y AND z".
func (b *Builder) OrWhere(col string, val any) *Builder {
	return b.addCompare("OR", col, "=", val)
}

func (b *Builder) OrWhereOp(col, op string, val any) *Builder {
	return b.addCompare("OR", col, op, val)
}

// WhereMap adds one equality predicate per key, in key order.
func (b *Builder) WhereMap(conds map[string]any) *Builder {
	for _, k := range sortedKeys(conds) {
		b.Where(k, conds[k])
	}
	return b
}

func (b *Builder) WhereNull(col string) *Builder {
	return b.addRaw("AND", col+" IS NULL")
}

func (b *Builder) WhereNotNull(col string) *Builder {
	return b.addRaw("AND", col+" IS NOT NULL")
}

func (b *Builder) OrWhereNull(col string) *Builder {
	return b.addRaw("OR", col+" IS NULL")
}

// WhereIn adds "col IN (?, ?, ...)". An empty list matches nothing.
func (b *Builder) WhereIn(col string, vals ...any) *Builder {
	if len(vals) == 0 {
		return b.addRaw("AND", "1 = 0")
	}
	return b.addRaw("AND", col+" IN ("+placeholders(len(vals))+")", vals...)
}

// WhereNotIn adds "col NOT IN (...)". An empty list matches everything.
func (b *Builder) WhereNotIn(col string, vals ...any) *Builder {
	if len(vals) == 0 {
		return b.addRaw("AND", "1 = 1")
	}
	return b.addRaw("AND", col+" NOT IN ("+placeholders(len(vals))+")", vals...)
}

func (b *Builder) WhereBetween(col string, low, high any) *Builder {
	return b.addRaw("AND", col+" BETWEEN ? AND ?", low, high)
}

func (b *Builder) WhereNotBetween(col string, low, high any) *Builder {
	return b.addRaw("AND", col+" NOT BETWEEN ? AND ?", low, high)
}

// WhereLike matches val anywhere in col.
func (b *Builder) WhereLike(col string, val string) *Builder {
	return b.addCompare("AND", col, "LIKE", "%"+val+"%")
}

func (b *Builder) WhereNotLike(col string, val string) *Builder {
	return b.addCompare("AND", col, "NOT LIKE", "%"+val+"%")
}

func (b *Builder) WhereStartsWith(col string, val string) *Builder {
	return b.addCompare("AND", col, "LIKE", val+"%")
}

func (b *Builder) WhereEndsWith(col string, val string) *Builder {
	return b.addCompare("AND", col, "LIKE", "%"+val)
}

// WhereRaw adds a predicate verbatim. Use "?" for bindings.
func (b *Builder) WhereRaw(sql string, args ...any) *Builder {
	return b.addRaw("AND", sql, args...)
}

func (b *Builder) OrWhereRaw(sql string, args ...any) *Builder {
	return b.addRaw("OR", sql, args...)
}

func (b *Builder) Join(table, first, op, second string) *Builder {
	return b.join("JOIN", table, first, op, second)
}

func (b *Builder) InnerJoin(table, first, op, second string) *Builder {
	return b.join("INNER JOIN", table, first, op, second)
}

func (b *Builder) LeftJoin(table, first, op, second string) *Builder {
	return b.join("LEFT JOIN", table, first, op, second)
}

func (b *Builder) RightJoin(table, first, op, second string) *Builder {
	return b.join("RIGHT JOIN", table, first, op, second)
}

func (b *Builder) CrossJoin(table string) *Builder {
	b.c.joins = append(b.c.joins, "CROSS JOIN "+table)
	return b
}

func (b *Builder) GroupBy(cols ...string) *Builder {
	b.c.groupBy = append(b.c.groupBy, cols...)
	return b
}

// Having adds "col op val" to the HAVING clause, joined with AND.
func (b *Builder) Having(col, op string, val any) *Builder {
	sqlOp, ok := operators[strings.ToLower(strings.TrimSpace(op))]
	if !ok {
		return b.fail(fmt.Errorf("%w: %q", ErrInvalidOperator, op))
	}
	b.c.havings = append(b.c.havings, where{conj: "AND", sql: col + " " + sqlOp + " ?", args: []any{val}})
	return b
}

// OrderBy appends a sort key. dir is ASC or DESC, case-insensitive.
func (b *Builder) OrderBy(col, dir string) *Builder {
	d := strings.ToUpper(strings.TrimSpace(dir))
	if d == "" {
		d = "ASC"
	}
	if d != "ASC" && d != "DESC" {
		return b.fail(fmt.Errorf("%w: %q", ErrInvalidDirection, dir))
	}
	b.c.orderBy = append(b.c.orderBy, col+" "+d)
	return b
}

// Latest orders by col descending.
func (b *Builder) Latest(col string) *Builder {
	return b.OrderBy(col, "DESC")
}

func (b *Builder) Limit(n int) *Builder {
	b.c.limit = max(n, 0)
	return b
}

func (b *Builder) Offset(n int) *Builder {
	b.c.offset = max(n, 0)
	return b
}

// Take is an alias of Limit.
func (b *Builder) Take(n int) *Builder { return b.Limit(n) }

// Skip is an alias of Offset.
func (b *Builder) Skip(n int) *Builder { return b.Offset(n) }

// ToSQL compiles the current SELECT without running or resetting it.
func (b *Builder) ToSQL() (string, []any) {
	return b.compileSelect()
}

// Err returns the first misuse error recorded on the builder.
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) addCompare(conj, col, op string, val any) *Builder {
	sqlOp, ok := operators[strings.ToLower(strings.TrimSpace(op))]
	if !ok {
		return b.fail(fmt.Errorf("%w: %q", ErrInvalidOperator, op))
	}
	if val == nil {
		switch sqlOp {
		case "=":
			return b.addRaw(conj, col+" IS NULL")
		case "!=", "<>":
			return b.addRaw(conj, col+" IS NOT NULL")
		}
	}
	return b.addRaw(conj, col+" "+sqlOp+" ?", val)
}

func (b *Builder) addRaw(conj, sql string, args ...any) *Builder {
	b.c.wheres = append(b.c.wheres, where{conj: conj, sql: sql, args: args})
	return b
}

func (b *Builder) join(kind, table, first, op, second string) *Builder {
	sqlOp, ok := operators[strings.ToLower(strings.TrimSpace(op))]
	if !ok {
		return b.fail(fmt.Errorf("%w: %q", ErrInvalidOperator, op))
	}
	b.c.joins = append(b.c.joins, kind+" "+table+" ON "+first+" "+sqlOp+" "+second)
	return b
}

// reset restores default clauses; the table and primary key survive.
func (b *Builder) reset() {
	b.c = clauses{}
	b.err = nil
	b.debug = false
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
