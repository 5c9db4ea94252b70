package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pypehq/pype/pkg/query"
)

func newOffline(d query.Driver) *query.DB {
	return query.New(nil, d)
}

func TestBuilder_WhereCompilation(t *testing.T) {
	t.Parallel()

	db := newOffline(query.SQLite{})

	t.Run("first conjunction is dropped", func(t *testing.T) {
		t.Parallel()
		sql, args := db.Table("users").OrWhere("a", 1).Where("b", 2).ToSQL()
		assert.Equal(t, "SELECT * FROM users WHERE a = ? AND b = ?", sql)
		assert.Equal(t, []any{1, 2}, args)
	})

	t.Run("or is not grouped", func(t *testing.T) {
		t.Parallel()
		sql, _ := db.Table("t").Where("a", 1).OrWhere("b", 2).Where("c", 3).ToSQL()
		assert.Equal(t, "SELECT * FROM t WHERE a = ? OR b = ? AND c = ?", sql)
	})

	t.Run("where in expands placeholders in bind order", func(t *testing.T) {
		t.Parallel()
		sql, args := db.Table("posts").Where("status", "draft").WhereIn("id", 1, 2, 3).Where("views", 5).ToSQL()
		assert.Equal(t, "SELECT * FROM posts WHERE status = ? AND id IN (?, ?, ?) AND views = ?", sql)
		assert.Equal(t, []any{"draft", 1, 2, 3, 5}, args)
	})

	t.Run("empty where in matches nothing", func(t *testing.T) {
		t.Parallel()
		sql, args := db.Table("posts").WhereIn("id").ToSQL()
		assert.Equal(t, "SELECT * FROM posts WHERE 1 = 0", sql)
		assert.Empty(t, args)

		sql, _ = db.Table("posts").WhereNotIn("id").ToSQL()
		assert.Equal(t, "SELECT * FROM posts WHERE 1 = 1", sql)
	})

	t.Run("between null and like helpers", func(t *testing.T) {
		t.Parallel()
		sql, args := db.Table("posts").
			WhereBetween("views", 10, 20).
			WhereNull("deleted_at").
			WhereNotNull("published_at").
			WhereLike("title", "go").
			WhereStartsWith("slug", "intro").
			WhereEndsWith("email", "@example.com").
			ToSQL()
		assert.Equal(t, "SELECT * FROM posts WHERE views BETWEEN ? AND ? AND deleted_at IS NULL"+
			" AND published_at IS NOT NULL AND title LIKE ? AND slug LIKE ? AND email LIKE ?", sql)
		assert.Equal(t, []any{10, 20, "%go%", "intro%", "%@example.com"}, args)
	})

	t.Run("nil equality becomes IS NULL", func(t *testing.T) {
		t.Parallel()
		sql, args := db.Table("posts").Where("parent_id", nil).WhereOp("deleted_at", "!=", nil).ToSQL()
		assert.Equal(t, "SELECT * FROM posts WHERE parent_id IS NULL AND deleted_at IS NOT NULL", sql)
		assert.Empty(t, args)
	})
}

func TestBuilder_SelectCompilation(t *testing.T) {
	t.Parallel()

	db := newOffline(query.SQLite{})

	sql, args := db.Table("posts p").
		Select("p.id", "COUNT(c.id) AS comments").
		Distinct().
		LeftJoin("comments c", "c.post_id", "=", "p.id").
		WhereOp("p.views", ">=", 100).
		GroupBy("p.id").
		Having("COUNT(c.id)", ">", 2).
		OrderBy("comments", "desc").
		Limit(5).
		Offset(10).
		ToSQL()

	assert.Equal(t, "SELECT DISTINCT p.id, COUNT(c.id) AS comments FROM posts p"+
		" LEFT JOIN comments c ON c.post_id = p.id WHERE p.views >= ?"+
		" GROUP BY p.id HAVING COUNT(c.id) > ? ORDER BY comments DESC LIMIT 5 OFFSET 10", sql)
	assert.Equal(t, []any{100, 2}, args)
}

func TestBuilder_LimitOffsetPerDialect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		driver query.Driver
		want   string
	}{
		{name: "mysql", driver: query.MySQL{}, want: "SELECT * FROM t LIMIT 18446744073709551615 OFFSET 20"},
		{name: "pgsql", driver: query.Postgres{}, want: "SELECT * FROM t OFFSET 20"},
		{name: "sqlite", driver: query.SQLite{}, want: "SELECT * FROM t LIMIT -1 OFFSET 20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sql, _ := newOffline(tt.driver).Table("t").Skip(20).ToSQL()
			assert.Equal(t, tt.want, sql)
		})
	}
}

func TestBuilder_Misuse(t *testing.T) {
	t.Parallel()

	db := newOffline(query.SQLite{})
	ctx := context.Background()

	t.Run("statement passed as table", func(t *testing.T) {
		t.Parallel()
		_, err := db.Table("SELECT * FROM users").Get(ctx)
		require.ErrorIs(t, err, query.ErrRawStatement)
	})

	t.Run("statement passed to select", func(t *testing.T) {
		t.Parallel()
		b := db.Table("users").Select("select id from users")
		require.ErrorIs(t, b.Err(), query.ErrRawStatement)

		_, err := b.Count(ctx)
		require.ErrorIs(t, err, query.ErrRawStatement)
		assert.NoError(t, b.Err(), "terminal operation resets the builder")
	})

	t.Run("unknown operator", func(t *testing.T) {
		t.Parallel()
		_, err := db.Table("users").WhereOp("id", "===", 1).First(ctx)
		require.ErrorIs(t, err, query.ErrInvalidOperator)
	})

	t.Run("unknown direction", func(t *testing.T) {
		t.Parallel()
		_, err := db.Table("users").OrderBy("id", "sideways").Get(ctx)
		require.ErrorIs(t, err, query.ErrInvalidDirection)
	})
}

func TestRebind(t *testing.T) {
	t.Parallel()

	got := query.Rebind(`SELECT * FROM t WHERE a = ? AND b = '?' AND "c?" = ? AND d IN (?, ?)`)
	assert.Equal(t, `SELECT * FROM t WHERE a = $1 AND b = '?' AND "c?" = $2 AND d IN ($3, $4)`, got)
	assert.Equal(t, "SELECT 1", query.Rebind("SELECT 1"))
}

func TestDriver_CompileUpsert(t *testing.T) {
	t.Parallel()

	cols := []string{"email", "id", "name"}

	tests := []struct {
		name   string
		driver query.Driver
		unique []string
		want   string
	}{
		{
			name:   "mysql",
			driver: query.MySQL{},
			unique: []string{"id"},
			want: "INSERT INTO users (`email`, `id`, `name`) VALUES (?, ?, ?), (?, ?, ?)" +
				" ON DUPLICATE KEY UPDATE `email` = VALUES(`email`), `name` = VALUES(`name`)",
		},
		{
			name:   "pgsql",
			driver: query.Postgres{},
			unique: []string{"id"},
			want: `INSERT INTO users ("email", "id", "name") VALUES (?, ?, ?), (?, ?, ?)` +
				` ON CONFLICT ("id") DO UPDATE SET "email" = EXCLUDED."email", "name" = EXCLUDED."name"`,
		},
		{
			name:   "sqlite",
			driver: query.SQLite{},
			unique: []string{"email"},
			want: "INSERT INTO users (`email`, `id`, `name`) VALUES (?, ?, ?), (?, ?, ?)" +
				" ON CONFLICT (`email`) DO UPDATE SET `id` = excluded.`id`, `name` = excluded.`name`",
		},
		{
			name:   "pgsql all unique",
			driver: query.Postgres{},
			unique: []string{"email", "id", "name"},
			want:   `INSERT INTO users ("email", "id", "name") VALUES (?, ?, ?), (?, ?, ?) ON CONFLICT ("email", "id", "name") DO NOTHING`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.driver.CompileUpsert("users", cols, 2, tt.unique)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := query.SQLite{}.CompileUpsert("users", nil, 1, []string{"id"})
	require.ErrorIs(t, err, query.ErrEmptyData)
}

func TestDriverFor(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"mysql":      "mysql",
		"pgsql":      "pgsql",
		"postgresql": "pgsql",
		"SQLite":     "sqlite",
	} {
		d, err := query.DriverFor(in)
		require.NoError(t, err)
		assert.Equal(t, want, d.Name())
	}

	_, err := query.DriverFor("oracle")
	require.ErrorIs(t, err, query.ErrUnknownDriver)
}

func TestQuote(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "`posts`.`id`", query.MySQL{}.Quote("posts.id"))
	assert.Equal(t, `"title"`, query.Postgres{}.Quote("title"))
	assert.Equal(t, "COUNT(*)", query.SQLite{}.Quote("COUNT(*)"))
}
