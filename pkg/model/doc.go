// Package model gives a table a small active-record surface on top of the
// query builder.
//
// A [Model] is defined once and shared; it holds no query state. Rows come
// back as [*Record] values whose attributes are read through explicit
// accessors (String, Int64, Time and so on) rather than struct fields.
//
//	posts := model.Define(db, "posts", model.WithFillable("title", "body"), model.WithTimestamps())
//
//	p, err := posts.Create(ctx, map[string]any{"title": "Hello"})
//	p.Set("body", "First post")
//	err = p.Save(ctx)
//
// WithSchema keeps the table layout next to the model; Migration turns it
// into a schema.Migration for the migrator.
package model
