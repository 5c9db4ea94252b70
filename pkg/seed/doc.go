// Package seed fills a database with development or test data.
//
// Seeders are registered on a [Runner] and run in order, each inside its own
// transaction:
//
//	fixtures, err := seed.FromYAML(os.DirFS("database"), "seeds/blog.yaml")
//	r, err := seed.NewRunner(conn.Query(), seed.WithSeeders(
//	    seed.Truncate("posts", "users"),
//	    fixtures,
//	    seed.Factory("posts", 50, func(i int) map[string]any {
//	        return map[string]any{"title": fmt.Sprintf("Post %d", i), "user_id": 1}
//	    }),
//	))
//	err = r.Run(ctx)           // everything
//	err = r.Run(ctx, "blog")   // one seeder by name
package seed
