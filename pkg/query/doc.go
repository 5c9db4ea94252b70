// Package query provides a fluent, dialect-aware SQL query builder over
// database/sql for MySQL, PostgreSQL and SQLite.
//
// A DB wraps one connection pool and one Driver. Each call to DB.Table
// returns a Builder whose clauses are private to it, so concurrent requests
// never share query state:
//
//	drv, err := query.DriverFor(cfg.Type)
//	if err != nil {
//		return err
//	}
//	db := query.New(pool, drv, query.WithLogger(log))
//
//	rows, err := db.Table("posts").
//		Where("published", true).
//		WhereIn("category_id", 1, 2, 3).
//		OrderBy("created_at", "DESC").
//		Limit(10).
//		Get(ctx)
//
// # Predicates
//
// Predicates are joined in insertion order, Where with AND and OrWhere with
// OR. The first predicate's conjunction is dropped. There is no grouping:
//
//	db.Table("t").Where("a", 1).OrWhere("b", 2).Where("c", 3)
//	// SELECT * FROM t WHERE a = ? OR b = ? AND c = ?
//
// Use WhereRaw when explicit parentheses are needed.
//
// # Terminal operations
//
// Get, First, Find, Count, Insert, Update, Delete, Upsert and the other
// terminal methods execute the statement and then reset the builder, keeping
// only the table name. Misuse detected while chaining (a full statement
// passed to Table or Select, an unknown operator) is reported by the next
// terminal call without touching the database.
//
// # Dialects
//
// The builder always emits "?" placeholders. The Postgres driver rebinds them
// to $n at prepare time and uses RETURNING to read generated keys. Upsert is
// compiled per dialect: ON DUPLICATE KEY UPDATE for MySQL and
// ON CONFLICT ... DO UPDATE for PostgreSQL and SQLite.
//
// # Errors
//
// Failed statements return *QueryError (matching ErrQuery) with the native
// driver message. FindOrFail and FindByOrFail return *NotFoundError
// (matching ErrNotFound).
package query
