// Command pype scaffolds controllers, models, middleware, views and
// migrations for a pype application:
//
//	pype make:controller Post
//	pype make:view posts.index
//	pype make:migration create_posts_table
package main

import (
	"github.com/pypehq/pype/pkg/console"
)

func main() {
	console.Execute(console.WithName("pype"))
}
