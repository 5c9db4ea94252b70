// Package schema is a small DDL builder used by migrations.
//
// A Blueprint collects column definitions; the grammar renders them for the
// query.Driver in use so one migration runs unchanged on MySQL, PostgreSQL
// and SQLite:
//
//	var CreatePosts = schema.CreateTable(20240101120000, "posts", func(t *schema.Blueprint) {
//		t.ID()
//		t.String("title", 255)
//		t.Text("body").Nullable()
//		t.Enum("status", "draft", "published").Default("draft")
//		t.Timestamps()
//		t.SoftDeletes()
//	})
//
// Columns are NOT NULL unless Nullable is called. Timestamp columns default
// to CURRENT_TIMESTAMP. Alter issues one ALTER TABLE ... ADD COLUMN per
// column.
//
// Migrations are executed by db.Migrator, which records applied versions
// in the migrations table.
package schema
