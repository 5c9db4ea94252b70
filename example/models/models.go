// Package models declares the tables of the example blog.
package models

import (
	"github.com/pypehq/pype/pkg/model"
	"github.com/pypehq/pype/pkg/query"
	"github.com/pypehq/pype/pkg/schema"
)

func Users(db *query.DB) *model.Model {
	return model.Define(db, "users",
		model.WithFillable("name", "email", "password", "avatar", "provider", "provider_id"),
		model.WithHidden("password"),
		model.WithTimestamps(),
		model.WithSchema(func(t *schema.Blueprint) {
			t.ID()
			t.String("name", 0).Nullable()
			t.String("email", 0).Unique()
			t.String("password", 0).Nullable()
			t.String("avatar", 0).Nullable()
			t.String("provider", 50).Nullable()
			t.String("provider_id", 0).Nullable()
			t.Timestamp("email_verified_at").Nullable()
			t.Timestamps()
		}),
	)
}

func Posts(db *query.DB) *model.Model {
	return model.Define(db, "posts",
		model.WithFillable("title", "body", "cover", "user_id"),
		model.WithTimestamps(),
		model.WithSchema(func(t *schema.Blueprint) {
			t.ID()
			t.BigInteger("user_id").Nullable()
			t.String("title", 0)
			t.Text("body")
			t.String("cover", 0).Nullable()
			t.Timestamps()
			t.Index("user_id")
		}),
	)
}
