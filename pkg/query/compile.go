package query

import (
	"sort"
	"strings"
)

func (b *Builder) compileSelect() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if b.c.distinct {
		sb.WriteString("DISTINCT ")
	}
	if len(b.c.columns) == 0 {
		sb.WriteString("*")
	} else {
		sb.WriteString(strings.Join(b.c.columns, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)

	for _, j := range b.c.joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}

	whereSQL, args := compileWheres(b.c.wheres)
	sb.WriteString(whereSQL)

	if len(b.c.groupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(b.c.groupBy, ", "))
	}
	if len(b.c.havings) > 0 {
		havingSQL, havingArgs := compilePredicates(b.c.havings)
		sb.WriteString(" HAVING ")
		sb.WriteString(havingSQL)
		args = append(args, havingArgs...)
	}
	if len(b.c.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.c.orderBy, ", "))
	}
	sb.WriteString(b.db.driver.CompileLimit(b.c.limit, b.c.offset))

	return sb.String(), args
}

// compileWheres renders " WHERE ..." or "" when there are no predicates.
func compileWheres(ws []where) (string, []any) {
	if len(ws) == 0 {
		return "", nil
	}
	sql, args := compilePredicates(ws)
	return " WHERE " + sql, args
}

// compilePredicates joins predicates in insertion order; the first entry's
// conjunction is dropped.
func compilePredicates(ws []where) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	for i, w := range ws {
		if i > 0 {
			sb.WriteString(" ")
			sb.WriteString(w.conj)
			sb.WriteString(" ")
		}
		sb.WriteString(w.sql)
		args = append(args, w.args...)
	}
	return sb.String(), args
}

// conditionWheres builds AND-joined equality predicates from a map.
func conditionWheres(conds map[string]any) []where {
	ws := make([]where, 0, len(conds))
	for _, k := range sortedKeys(conds) {
		if conds[k] == nil {
			ws = append(ws, where{conj: "AND", sql: k + " IS NULL"})
			continue
		}
		ws = append(ws, where{conj: "AND", sql: k + " = ?", args: []any{conds[k]}})
	}
	return ws
}

func (b *Builder) compileInsert(data map[string]any) (string, []any) {
	cols := sortedKeys(data)
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = data[c]
	}
	return "INSERT INTO " + b.table + " " + valuesClause(b.db.driver, cols, 1), args
}

func (b *Builder) compileUpdate(data map[string]any, ws []where) (string, []any) {
	cols := sortedKeys(data)
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols))
	for i, c := range cols {
		sets[i] = b.db.driver.Quote(c) + " = ?"
		args = append(args, data[c])
	}
	whereSQL, whereArgs := compileWheres(ws)
	return "UPDATE " + b.table + " SET " + strings.Join(sets, ", ") + whereSQL, append(args, whereArgs...)
}

func (b *Builder) compileDelete(ws []where) (string, []any) {
	whereSQL, args := compileWheres(ws)
	return "DELETE FROM " + b.table + whereSQL, args
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
