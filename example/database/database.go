// Package database holds the migrations and seeders of the example blog.
package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/pypehq/pype/example/models"
	"github.com/pypehq/pype/pkg/auth"
	"github.com/pypehq/pype/pkg/query"
	"github.com/pypehq/pype/pkg/schema"
	"github.com/pypehq/pype/pkg/seed"
	"github.com/pypehq/pype/pkg/session"
)

// SessionsTable stores sessions when the app runs without Redis.
const SessionsTable = session.DefaultTable

//go:embed seeds/*.yaml
var seeds embed.FS

func Migrations() []schema.Migration {
	return []schema.Migration{
		models.Users(nil).Migration(20240101000000),
		models.Posts(nil).Migration(20240101000100),
		auth.New(nil).Migration(20240101000200),
		session.Migration(20240101000300, SessionsTable),
	}
}

// Seeders creates the demo user (ann@example.com / secret), the posts from
// seeds/blog.yaml and a few drafts, in that order.
func Seeders() ([]seed.Seeder, error) {
	users := seed.Func("users", func(ctx context.Context, db *query.DB) error {
		_, err := auth.New(db).Register(ctx, map[string]any{
			"name":     "Ann",
			"email":    "ann@example.com",
			"password": "secret",
		})
		return err
	})
	blog, err := seed.FromYAML(seeds, "seeds/blog.yaml")
	if err != nil {
		return nil, err
	}
	drafts := seed.Factory("posts", 5, func(i int) map[string]any {
		return map[string]any{
			"user_id": 1,
			"title":   fmt.Sprintf("Draft #%d", i+1),
			"body":    "Nothing here yet.",
		}
	})
	return []seed.Seeder{users, blog, drafts}, nil
}
