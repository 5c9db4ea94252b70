package query_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pypehq/pype/pkg/query"
)

const postsDDL = `CREATE TABLE posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL UNIQUE,
	body TEXT,
	views INTEGER NOT NULL DEFAULT 0,
	published INTEGER NOT NULL DEFAULT 0
)`

func openSQLite(t *testing.T) *query.DB {
	t.Helper()

	pool, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	pool.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = pool.Close() })

	db := query.New(pool, query.SQLite{})
	_, err = db.Exec(context.Background(), postsDDL)
	require.NoError(t, err)
	return db
}

func seedPosts(t *testing.T, db *query.DB, titles ...string) {
	t.Helper()
	for i, title := range titles {
		_, err := db.Table("posts").Insert(context.Background(), map[string]any{
			"title": title,
			"views": int64(i * 10),
		})
		require.NoError(t, err)
	}
}

func TestSQLite_InsertThenFind(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()

	id, err := db.Table("posts").Insert(ctx, map[string]any{"title": "Hello", "body": "World"})
	require.NoError(t, err)
	assert.Positive(t, id)

	row, err := db.Table("posts").Find(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "Hello", row.String("title"))
	assert.Equal(t, "World", row.String("body"))
	assert.Equal(t, id, row.Int64("id"))

	viaFail, err := db.Table("posts").FindOrFail(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, row, viaFail)
}

func TestSQLite_FindMissing(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()

	row, err := db.Table("posts").Find(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, row)

	_, err = db.Table("posts").FindOrFail(ctx, 42)
	require.ErrorIs(t, err, query.ErrNotFound)
	assert.Equal(t, "record with ID 42 not found in posts", err.Error())

	var nf *query.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "posts", nf.Table)

	_, err = db.Table("posts").FindByOrFail(ctx, "title", "nope")
	require.ErrorIs(t, err, query.ErrNotFound)
}

func TestSQLite_CountOnEmptyTable(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()

	n, err := db.Table("posts").Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	exists, err := db.Table("posts").Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	sum, err := db.Table("posts").Sum(ctx, "views")
	require.NoError(t, err)
	assert.Zero(t, sum)
}

func TestSQLite_StateResetsAfterTerminal(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()
	seedPosts(t, db, "a", "b", "c")

	posts := db.Table("posts")
	rows, err := posts.Where("title", "a").OrderBy("id", "DESC").Limit(1).Get(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	sql, args := posts.ToSQL()
	assert.Equal(t, "SELECT * FROM posts", sql)
	assert.Empty(t, args)

	all, err := posts.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLite_UpdateOrCreateWithoutConditionsResets(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()
	seedPosts(t, db, "a", "b", "c")

	posts := db.Table("posts")
	_, err := posts.Where("title", "a").UpdateOrCreate(ctx, nil, map[string]any{"views": int64(1)})
	require.ErrorIs(t, err, query.ErrNoConditions)

	sql, args := posts.ToSQL()
	assert.Equal(t, "SELECT * FROM posts", sql)
	assert.Empty(t, args)

	all, err := posts.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLite_CountGroupedAndDistinct(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()
	seedPosts(t, db, "a", "b", "c") // views 0, 10, 20
	_, err := db.Table("posts").Insert(ctx, map[string]any{"title": "d", "views": int64(10)})
	require.NoError(t, err)

	groups, err := db.Table("posts").GroupBy("views").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), groups)

	distinct, err := db.Table("posts").Select("views").Distinct().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), distinct)

	page, err := db.Table("posts").GroupBy("views").OrderBy("views", "ASC").Paginate(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.LastPage)
	assert.Len(t, page.Items, 2)

	page, err = db.Table("posts").Select("views").Distinct().Paginate(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 1)

	all, err := db.Table("posts").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), all)
}

func TestSQLite_Aggregates(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()
	seedPosts(t, db, "a", "b", "c", "d") // views 0, 10, 20, 30

	sum, err := db.Table("posts").Sum(ctx, "views")
	require.NoError(t, err)
	assert.InDelta(t, 60.0, sum, 0.001)

	avg, err := db.Table("posts").Avg(ctx, "views")
	require.NoError(t, err)
	assert.InDelta(t, 15.0, avg, 0.001)

	lo, err := db.Table("posts").Min(ctx, "views")
	require.NoError(t, err)
	assert.Zero(t, lo)

	hi, err := db.Table("posts").WhereOp("views", "<", 30).Max(ctx, "views")
	require.NoError(t, err)
	assert.InDelta(t, 20.0, hi, 0.001)

	n, err := db.Table("posts").WhereOp("views", ">", 5).OrderBy("id", "ASC").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	titles, err := db.Table("posts").WhereIn("views", int64(10), int64(20)).OrderBy("id", "ASC").Pluck(ctx, "title")
	require.NoError(t, err)
	assert.Equal(t, []any{"b", "c"}, titles)
}

func TestSQLite_UpdateDeleteIncrement(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()
	seedPosts(t, db, "a", "b")

	n, err := db.Table("posts").Update(ctx, map[string]any{"body": "edited"}, map[string]any{"title": "a"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = db.Table("posts").Where("title", "b").Update(ctx, map[string]any{"published": true}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = db.Table("posts").Update(ctx, map[string]any{"body": "all"}, nil)
	require.ErrorIs(t, err, query.ErrNoConditions)

	n, err = db.Table("posts").Increment(ctx, "views", 5, map[string]any{"title": "a"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = db.Table("posts").Decrement(ctx, "views", 2, map[string]any{"title": "a"})
	require.NoError(t, err)

	a, err := db.Table("posts").FindByOrFail(ctx, "title", "a")
	require.NoError(t, err)
	assert.Equal(t, "edited", a.String("body"))
	assert.Equal(t, int64(3), a.Int64("views"))

	b, err := db.Table("posts").FindByOrFail(ctx, "title", "b")
	require.NoError(t, err)
	assert.True(t, b.Bool("published"))

	n, err = db.Table("posts").Delete(ctx, map[string]any{"title": "a"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := db.Table("posts").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), left)
}

func TestSQLite_Upsert(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()

	id, err := db.Table("posts").Insert(ctx, map[string]any{"title": "a", "body": "keep", "views": int64(1)})
	require.NoError(t, err)

	_, err = db.Table("posts").Upsert(ctx, []map[string]any{
		{"title": "a", "views": int64(99)},
		{"title": "b", "views": int64(2)},
	}, "title")
	require.NoError(t, err)

	a, err := db.Table("posts").FindByOrFail(ctx, "title", "a")
	require.NoError(t, err)
	assert.Equal(t, id, a.Int64("id"))
	assert.Equal(t, int64(99), a.Int64("views"))
	assert.Equal(t, "keep", a.String("body"), "columns absent from the upsert are preserved")

	n, err := db.Table("posts").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = db.Table("posts").Upsert(ctx, []map[string]any{{"title": "c"}, {"title": "d", "views": 1}}, "title")
	require.ErrorIs(t, err, query.ErrColumnMismatch)
}

func TestSQLite_UpdateOrCreate(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()

	created, err := db.Table("posts").UpdateOrCreate(ctx, map[string]any{"title": "a"}, map[string]any{"views": int64(1)})
	require.NoError(t, err)

	updated, err := db.Table("posts").UpdateOrCreate(ctx, map[string]any{"title": "a"}, map[string]any{"views": int64(7)})
	require.NoError(t, err)
	assert.Equal(t, created, updated)

	row, err := db.Table("posts").Find(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, int64(7), row.Int64("views"))
}

func TestSQLite_UniqueViolation(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()
	seedPosts(t, db, "dup")

	_, err := db.Table("posts").Insert(ctx, map[string]any{"title": "dup"})
	require.Error(t, err)
	require.ErrorIs(t, err, query.ErrQuery)
	assert.True(t, db.Driver().IsUniqueViolation(err))

	var qe *query.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Contains(t, qe.SQL, "INSERT INTO posts")
}

func TestSQLite_ChunkAndPaginate(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()
	seedPosts(t, db, "a", "b", "c", "d", "e")

	var seen []string
	err := db.Table("posts").WhereOp("views", ">=", 10).OrderBy("id", "ASC").Chunk(ctx, 2, func(rows []query.Row) bool {
		for _, r := range rows {
			seen = append(seen, r.String("title"))
		}
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d", "e"}, seen)

	calls := 0
	err = db.Table("posts").Chunk(ctx, 2, func([]query.Row) bool {
		calls++
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	page, err := db.Table("posts").OrderBy("id", "ASC").Paginate(ctx, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.LastPage)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "e", page.Items[0].String("title"))
}

func TestSQLite_InsertManyAndExcept(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()

	n, err := db.Table("posts").InsertMany(ctx, []map[string]any{
		{"title": "x", "body": "1"},
		{"title": "y", "body": "2"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err := db.Table("posts").OrderBy("title", "ASC").Except(ctx, "body", "views", "published")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.False(t, rows[0].Has("body"))
	assert.True(t, rows[0].Has("id"))

	only, err := db.Table("posts").Only("title").Take(1).Get(ctx)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Len(t, only[0], 1)
}

func TestSQLite_Transaction(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()
	errBoom := errors.New("boom")

	err := db.Transaction(ctx, func(tx *query.DB) error {
		_, err := tx.Table("posts").Insert(ctx, map[string]any{"title": "rolled back"})
		require.NoError(t, err)
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	assert.Panics(t, func() {
		_ = db.Transaction(ctx, func(tx *query.DB) error {
			_, _ = tx.Table("posts").Insert(ctx, map[string]any{"title": "panicked"})
			panic("boom")
		})
	})

	err = db.Transaction(ctx, func(tx *query.DB) error {
		_, err := tx.Table("posts").Insert(ctx, map[string]any{"title": "committed"})
		return err
	})
	require.NoError(t, err)

	titles, err := db.Table("posts").Pluck(ctx, "title")
	require.NoError(t, err)
	assert.Equal(t, []any{"committed"}, titles)
}

func TestSQLite_RawAndTruncate(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()
	seedPosts(t, db, "a", "b")

	rows, err := db.Raw(ctx, "SELECT title FROM posts WHERE views > ? ORDER BY id", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0].String("title"))

	require.NoError(t, db.Truncate(ctx, "posts"))
	n, err := db.Table("posts").Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
