package query

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// Insert adds one row and returns the generated primary key.
// Columns are bound in sorted key order.
func (b *Builder) Insert(ctx context.Context, data map[string]any) (int64, error) {
	defer b.reset()
	if b.err != nil {
		return 0, b.err
	}
	if len(data) == 0 {
		return 0, ErrEmptyData
	}
	sql, args := b.compileInsert(data)
	b.logDebug(ctx, sql, args)
	return b.db.insertGetID(ctx, sql, args, b.pk)
}

// Create is an alias of Insert.
func (b *Builder) Create(ctx context.Context, data map[string]any) (int64, error) {
	return b.Insert(ctx, data)
}

// InsertMany adds several rows in one statement and returns the affected count.
// Every row must carry the same set of columns.
func (b *Builder) InsertMany(ctx context.Context, rows []map[string]any) (int64, error) {
	defer b.reset()
	if b.err != nil {
		return 0, b.err
	}
	cols, args, err := flattenRows(rows)
	if err != nil {
		return 0, err
	}
	sql := "INSERT INTO " + b.table + " " + valuesClause(b.db.driver, cols, len(rows))
	b.logDebug(ctx, sql, args)
	res, err := b.db.exec(ctx, sql, args)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Update sets data on the rows matching conds. When conds is empty the
// chained Where clauses are used instead; with neither, ErrNoConditions.
func (b *Builder) Update(ctx context.Context, data map[string]any, conds map[string]any) (int64, error) {
	defer b.reset()
	if b.err != nil {
		return 0, b.err
	}
	if len(data) == 0 {
		return 0, ErrEmptyData
	}
	ws, err := b.targetWheres(conds)
	if err != nil {
		return 0, err
	}
	sql, args := b.compileUpdate(data, ws)
	return b.affected(ctx, sql, args)
}

// Delete removes the rows matching conds, following the same rule as Update.
func (b *Builder) Delete(ctx context.Context, conds map[string]any) (int64, error) {
	defer b.reset()
	if b.err != nil {
		return 0, b.err
	}
	ws, err := b.targetWheres(conds)
	if err != nil {
		return 0, err
	}
	sql, args := b.compileDelete(ws)
	return b.affected(ctx, sql, args)
}

// Increment adds amount to col on the rows matching conds.
func (b *Builder) Increment(ctx context.Context, col string, amount int64, conds map[string]any) (int64, error) {
	return b.step(ctx, col, "+", amount, conds)
}

// Decrement subtracts amount from col on the rows matching conds.
func (b *Builder) Decrement(ctx context.Context, col string, amount int64, conds map[string]any) (int64, error) {
	return b.step(ctx, col, "-", amount, conds)
}

// UpdateOrCreate updates the first row matching conds with values, or
// inserts conds merged with values. It returns the row's primary key.
func (b *Builder) UpdateOrCreate(ctx context.Context, conds, values map[string]any) (int64, error) {
	if b.err != nil {
		defer b.reset()
		return 0, b.err
	}
	if len(conds) == 0 {
		b.reset()
		return 0, ErrNoConditions
	}

	existing, err := b.WhereMap(conds).First(ctx)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		if len(values) > 0 {
			if _, err := b.Update(ctx, values, conds); err != nil {
				return 0, err
			}
		}
		return existing.Int64(b.pk), nil
	}

	merged := maps.Clone(conds)
	maps.Copy(merged, values)
	return b.Insert(ctx, merged)
}

// Upsert inserts rows, updating the non-unique columns of rows that collide
// on uniqueBy. uniqueBy defaults to the primary key.
func (b *Builder) Upsert(ctx context.Context, rows []map[string]any, uniqueBy ...string) (int64, error) {
	defer b.reset()
	if b.err != nil {
		return 0, b.err
	}
	if len(uniqueBy) == 0 {
		uniqueBy = []string{b.pk}
	}
	cols, args, err := flattenRows(rows)
	if err != nil {
		return 0, err
	}
	sql, err := b.db.driver.CompileUpsert(b.table, cols, len(rows), uniqueBy)
	if err != nil {
		return 0, err
	}
	return b.affected(ctx, sql, args)
}

func (b *Builder) step(ctx context.Context, col, sign string, amount int64, conds map[string]any) (int64, error) {
	defer b.reset()
	if b.err != nil {
		return 0, b.err
	}
	ws, err := b.targetWheres(conds)
	if err != nil {
		return 0, err
	}
	q := b.db.driver.Quote(col)
	whereSQL, whereArgs := compileWheres(ws)
	sql := "UPDATE " + b.table + " SET " + q + " = " + q + " " + sign + " ?" + whereSQL
	return b.affected(ctx, sql, append([]any{amount}, whereArgs...))
}

func (b *Builder) targetWheres(conds map[string]any) ([]where, error) {
	if len(conds) > 0 {
		return conditionWheres(conds), nil
	}
	if len(b.c.wheres) > 0 {
		return b.c.wheres, nil
	}
	return nil, ErrNoConditions
}

func (b *Builder) affected(ctx context.Context, sql string, args []any) (int64, error) {
	b.logDebug(ctx, sql, args)
	res, err := b.db.exec(ctx, sql, args)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// flattenRows returns the shared sorted column list and all bindings row by row.
func flattenRows(rows []map[string]any) ([]string, []any, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, nil, ErrEmptyData
	}
	cols := sortedKeys(rows[0])
	args := make([]any, 0, len(cols)*len(rows))
	for i, r := range rows {
		if !slices.Equal(sortedKeys(r), cols) {
			return nil, nil, fmt.Errorf("%w: row %d", ErrColumnMismatch, i)
		}
		for _, c := range cols {
			args = append(args, r[c])
		}
	}
	return cols, args, nil
}
