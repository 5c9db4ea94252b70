package schema

import (
	"context"
	"fmt"

	"github.com/pypehq/pype/pkg/query"
)

// Schema executes DDL against one connection or transaction.
type Schema struct {
	db *query.DB
}

// New returns a Schema bound to db.
func New(db *query.DB) *Schema {
	return &Schema{db: db}
}

// DB exposes the query builder for data migrations.
func (s *Schema) DB() *query.DB {
	return s.db
}

// Create runs CREATE TABLE IF NOT EXISTS for the columns fn declares.
//
// Example:
//
//	s.Create(ctx, "posts", func(t *schema.Blueprint) {
//		t.ID()
//		t.String("title", 255).Unique()
//		t.Text("body").Nullable()
//		t.Boolean("published").Default(false)
//		t.Timestamps()
//	})
func (s *Schema) Create(ctx context.Context, table string, fn func(t *Blueprint)) error {
	return s.run(ctx, CompileCreate(s.db.Driver(), NewBlueprint(table, fn)))
}

// Alter adds the columns fn declares to an existing table.
func (s *Schema) Alter(ctx context.Context, table string, fn func(t *Blueprint)) error {
	return s.run(ctx, CompileAlter(s.db.Driver(), NewBlueprint(table, fn)))
}

// Drop removes a table if it exists.
func (s *Schema) Drop(ctx context.Context, table string) error {
	return s.run(ctx, []string{CompileDrop(s.db.Driver(), table)})
}

// HasTable reports whether table exists in the current database.
func (s *Schema) HasTable(ctx context.Context, table string) (bool, error) {
	var q string
	switch s.db.Driver().Name() {
	case "sqlite":
		q = "SELECT COUNT(*) AS count FROM sqlite_master WHERE type = 'table' AND name = ?"
	case "pgsql":
		q = "SELECT COUNT(*) AS count FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?"
	default:
		q = "SELECT COUNT(*) AS count FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
	}
	rows, err := s.db.Raw(ctx, q, table)
	if err != nil {
		return false, err
	}
	return len(rows) > 0 && rows[0].Int64("count") > 0, nil
}

func (s *Schema) run(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}
