// Package console is the command line of a pype application.
//
// An application binary hands its pieces to [Execute]:
//
//	console.Execute(
//	    console.WithApp(buildApp, ":8080", pype.ShutdownHook(db.Shutdown(conn))),
//	    console.WithDatabase(connect, migrations.All(), seeders...),
//	)
//
// which gives it:
//
//	serve                 start the HTTP server
//	routes                list registered routes
//	migrate               run pending migrations
//	migrate:rollback      revert the last migration
//	migrate:fresh         revert everything and migrate again (--force, --seed)
//	migrate:status        show applied and pending migrations
//	db:seed [name...]     run seeders
//	make:controller       app/controllers/<name>_controller.go
//	make:model            app/models/<name>.go
//	make:middleware       app/middleware/<name>.go
//	make:view             views/<dir>/<name>.html from dot notation
//	make:migration        database/migrations/<timestamp>_<name>.go
//
// The make:* commands need no application and are what cmd/pype exposes.
package console
