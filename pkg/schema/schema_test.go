package schema_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pypehq/pype/pkg/query"
	"github.com/pypehq/pype/pkg/schema"
)

func postsBlueprint(t *schema.Blueprint) {
	t.ID()
	t.String("title", 0).Unique()
	t.Text("body").Nullable()
	t.Boolean("published").Default(false)
	t.Double("price", 0, 0).Default(0)
	t.Enum("status", "draft", "live").Default("draft")
	t.Timestamps()
}

func compileCreate(d query.Driver) []string {
	return schema.CompileCreate(d, blueprint("posts", postsBlueprint))
}

// blueprint is a tiny shim so tests can build a Blueprint without a database.
func blueprint(table string, fn func(*schema.Blueprint)) *schema.Blueprint {
	return schema.NewBlueprint(table, fn)
}

func TestCompileCreate(t *testing.T) {
	t.Parallel()

	t.Run("mysql", func(t *testing.T) {
		t.Parallel()
		stmts := compileCreate(query.MySQL{})
		require.Len(t, stmts, 1)
		assert.Equal(t, "CREATE TABLE IF NOT EXISTS `posts` ("+
			"`id` INT UNSIGNED AUTO_INCREMENT PRIMARY KEY, "+
			"`title` VARCHAR(255) NOT NULL UNIQUE, "+
			"`body` TEXT, "+
			"`published` TINYINT(1) NOT NULL DEFAULT 0, "+
			"`price` DOUBLE(8, 2) NOT NULL DEFAULT 0, "+
			"`status` ENUM('draft', 'live') NOT NULL DEFAULT 'draft', "+
			"`created_at` TIMESTAMP DEFAULT CURRENT_TIMESTAMP, "+
			"`updated_at` TIMESTAMP DEFAULT CURRENT_TIMESTAMP"+
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci", stmts[0])
	})

	t.Run("pgsql", func(t *testing.T) {
		t.Parallel()
		stmts := compileCreate(query.Postgres{})
		require.Len(t, stmts, 1)
		assert.Equal(t, `CREATE TABLE IF NOT EXISTS "posts" (`+
			`"id" SERIAL PRIMARY KEY, `+
			`"title" VARCHAR(255) NOT NULL UNIQUE, `+
			`"body" TEXT, `+
			`"published" BOOLEAN NOT NULL DEFAULT FALSE, `+
			`"price" NUMERIC(8, 2) NOT NULL DEFAULT 0, `+
			`"status" VARCHAR(255) CHECK ("status" IN ('draft', 'live')) NOT NULL DEFAULT 'draft', `+
			`"created_at" TIMESTAMP DEFAULT CURRENT_TIMESTAMP, `+
			`"updated_at" TIMESTAMP DEFAULT CURRENT_TIMESTAMP)`, stmts[0])
	})

	t.Run("sqlite", func(t *testing.T) {
		t.Parallel()
		stmts := compileCreate(query.SQLite{})
		require.Len(t, stmts, 1)
		assert.Contains(t, stmts[0], "`id` INTEGER PRIMARY KEY AUTOINCREMENT")
		assert.Contains(t, stmts[0], "`price` REAL NOT NULL DEFAULT 0")
		assert.Contains(t, stmts[0], "`created_at` DATETIME DEFAULT CURRENT_TIMESTAMP")
	})
}

func TestCompileAlterAndIndexes(t *testing.T) {
	t.Parallel()

	bp := blueprint("posts", func(t *schema.Blueprint) {
		t.Integer("views").Default(0)
		t.SoftDeletes()
		t.Index("views")
	})

	stmts := schema.CompileAlter(query.Postgres{}, bp)
	assert.Equal(t, []string{
		`ALTER TABLE "posts" ADD COLUMN "views" INTEGER NOT NULL DEFAULT 0`,
		`ALTER TABLE "posts" ADD COLUMN "deleted_at" TIMESTAMP`,
		`CREATE INDEX IF NOT EXISTS "posts_views_index" ON "posts" ("views")`,
	}, stmts)

	mysql := schema.CompileAlter(query.MySQL{}, bp)
	assert.Equal(t, "CREATE INDEX `posts_views_index` ON `posts` (`views`)", mysql[2])
	assert.Equal(t, "DROP TABLE IF EXISTS `posts`", schema.CompileDrop(query.MySQL{}, "posts"))
}

func TestSchema_SQLite(t *testing.T) {
	t.Parallel()

	pool, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	pool.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = pool.Close() })

	ctx := context.Background()
	s := schema.New(query.New(pool, query.SQLite{}))

	ok, err := s.HasTable(ctx, "posts")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Create(ctx, "posts", postsBlueprint))
	require.NoError(t, s.Alter(ctx, "posts", func(t *schema.Blueprint) {
		t.Integer("views").Default(0)
	}))

	ok, err = s.HasTable(ctx, "posts")
	require.NoError(t, err)
	assert.True(t, ok)

	id, err := s.DB().Table("posts").Insert(ctx, map[string]any{"title": "hello"})
	require.NoError(t, err)

	row, err := s.DB().Table("posts").FindOrFail(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "draft", row.String("status"))
	assert.Equal(t, int64(0), row.Int64("views"))
	assert.False(t, row.Time("created_at").IsZero())

	require.NoError(t, s.Drop(ctx, "posts"))
	ok, err = s.HasTable(ctx, "posts")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseNameAndSorted(t *testing.T) {
	t.Parallel()

	v, name, err := schema.ParseName("20240101120000_create_posts_table")
	require.NoError(t, err)
	assert.Equal(t, int64(20240101120000), v)
	assert.Equal(t, "create_posts_table", name)

	_, _, err = schema.ParseName("create_posts")
	require.Error(t, err)

	a := schema.CreateTable(2, "b", func(*schema.Blueprint) {})
	b := schema.CreateTable(1, "a", func(*schema.Blueprint) {})
	sorted, err := schema.Sorted([]schema.Migration{a, b})
	require.NoError(t, err)
	assert.Equal(t, int64(1), sorted[0].Version)

	_, err = schema.Sorted([]schema.Migration{a, a})
	require.Error(t, err)
}
