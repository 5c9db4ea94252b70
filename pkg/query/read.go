package query

import (
	"context"
	"log/slog"
	"slices"
)

// Get runs the SELECT and returns every row.
func (b *Builder) Get(ctx context.Context) ([]Row, error) {
	defer b.reset()
	if b.err != nil {
		return nil, b.err
	}
	sql, args := b.compileSelect()
	b.logDebug(ctx, sql, args)
	return b.db.fetch(ctx, sql, args)
}

// First returns the first matching row or nil when there is none.
func (b *Builder) First(ctx context.Context) (Row, error) {
	rows, err := b.Limit(1).Get(ctx)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// Find looks a row up by primary key. A missing row is not an error.
func (b *Builder) Find(ctx context.Context, id any) (Row, error) {
	return b.Where(b.pk, id).First(ctx)
}

// FindOrFail is Find that returns *NotFoundError for a missing row.
func (b *Builder) FindOrFail(ctx context.Context, id any) (Row, error) {
	return b.FindByOrFail(ctx, b.pk, id)
}

// FindByOrFail looks a row up by an arbitrary column.
func (b *Builder) FindByOrFail(ctx context.Context, col string, val any) (Row, error) {
	row, err := b.Where(col, val).First(ctx)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, &NotFoundError{Table: b.table, Column: col, Value: val}
	}
	return row, nil
}

// Count returns the number of matching rows, 0 for an empty result.
//
// Grouped or distinct queries are counted over a subquery, so the result is
// the number of groups or distinct rows.
func (b *Builder) Count(ctx context.Context) (int64, error) {
	if b.c.distinct || len(b.c.groupBy) > 0 {
		return b.countSubquery(ctx)
	}
	v, err := b.aggregate(ctx, "COUNT(*)", "count")
	if err != nil {
		return 0, err
	}
	n, _ := toInt64(v)
	return n, nil
}

// Exists reports whether at least one row matches.
func (b *Builder) Exists(ctx context.Context) (bool, error) {
	n, err := b.Count(ctx)
	return n > 0, err
}

// Sum returns SUM(col), 0 when no rows match.
func (b *Builder) Sum(ctx context.Context, col string) (float64, error) {
	return b.floatAggregate(ctx, "SUM("+col+")")
}

func (b *Builder) Avg(ctx context.Context, col string) (float64, error) {
	return b.floatAggregate(ctx, "AVG("+col+")")
}

func (b *Builder) Min(ctx context.Context, col string) (float64, error) {
	return b.floatAggregate(ctx, "MIN("+col+")")
}

func (b *Builder) Max(ctx context.Context, col string) (float64, error) {
	return b.floatAggregate(ctx, "MAX("+col+")")
}

// Pluck returns the values of a single column.
func (b *Builder) Pluck(ctx context.Context, col string) ([]any, error) {
	rows, err := b.Select(col).Get(ctx)
	if err != nil {
		return nil, err
	}
	key := lastSegment(col)
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r[key]
	}
	return out, nil
}

// Except runs the query and drops cols from every row.
func (b *Builder) Except(ctx context.Context, cols ...string) ([]Row, error) {
	rows, err := b.Get(ctx)
	if err != nil {
		return nil, err
	}
	for i, r := range rows {
		rows[i] = r.Except(cols...)
	}
	return rows, nil
}

// Page is one page of results along with the total match count.
type Page struct {
	Items       []Row `json:"items"`
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
}

// Paginate returns the 1-based page of perPage rows.
func (b *Builder) Paginate(ctx context.Context, perPage, page int) (*Page, error) {
	perPage = max(perPage, 1)
	page = max(page, 1)

	snapshot := b.c.clone()
	total, err := b.Count(ctx)
	if err != nil {
		return nil, err
	}

	b.c = snapshot
	items, err := b.Limit(perPage).Offset((page - 1) * perPage).Get(ctx)
	if err != nil {
		return nil, err
	}

	last := int((total + int64(perPage) - 1) / int64(perPage))
	return &Page{
		Items:       items,
		Total:       total,
		PerPage:     perPage,
		CurrentPage: page,
		LastPage:    max(last, 1),
	}, nil
}

// Chunk walks the result set size rows at a time. It stops after an empty
// or short page, or as soon as fn returns false.
func (b *Builder) Chunk(ctx context.Context, size int, fn func(rows []Row) bool) error {
	size = max(size, 1)
	snapshot := b.c.clone()
	defer b.reset()

	for page := 0; ; page++ {
		b.c = snapshot.clone()
		rows, err := b.Limit(size).Offset(page * size).Get(ctx)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		if !fn(rows) || len(rows) < size {
			return nil
		}
	}
}

func (b *Builder) aggregate(ctx context.Context, expr, alias string) (any, error) {
	b.c.columns = []string{expr + " AS " + alias}
	b.c.orderBy = nil
	b.c.limit, b.c.offset = 0, 0
	rows, err := b.Get(ctx)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0][alias], nil
}

func (b *Builder) countSubquery(ctx context.Context) (int64, error) {
	defer b.reset()
	if b.err != nil {
		return 0, b.err
	}
	if len(b.c.columns) == 0 && len(b.c.groupBy) > 0 {
		b.c.columns = slices.Clone(b.c.groupBy)
	}
	b.c.orderBy = nil
	b.c.limit, b.c.offset = 0, 0

	inner, args := b.compileSelect()
	sql := "SELECT COUNT(*) AS count FROM (" + inner + ") AS sub"
	b.logDebug(ctx, sql, args)
	rows, err := b.db.fetch(ctx, sql, args)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	n, _ := toInt64(rows[0]["count"])
	return n, nil
}

func (b *Builder) floatAggregate(ctx context.Context, expr string) (float64, error) {
	v, err := b.aggregate(ctx, expr, "aggregate")
	if err != nil {
		return 0, err
	}
	f, _ := toFloat64(v)
	return f, nil
}

func (b *Builder) logDebug(ctx context.Context, sql string, args []any) {
	if b.debug {
		b.db.logger.InfoContext(ctx, "query debug",
			slog.String("table", b.table),
			slog.String("sql", sql),
			slog.Any("bindings", args),
		)
	}
}

// lastSegment strips a table qualifier: "posts.title" -> "title".
func lastSegment(col string) string {
	for i := len(col) - 1; i >= 0; i-- {
		if col[i] == '.' {
			return col[i+1:]
		}
	}
	return col
}
