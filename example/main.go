// Command example is a small blog built on pype: posts CRUD, password and
// OAuth sign-in, welcome mail, cover image uploads, database or Redis
// sessions.
//
//	go run ./example migrate
//	go run ./example db:seed
//	go run ./example serve
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pypehq/pype"
	"github.com/pypehq/pype/example/database"
	"github.com/pypehq/pype/middlewares"
	"github.com/pypehq/pype/pkg/console"
	"github.com/pypehq/pype/pkg/db"
	"github.com/pypehq/pype/pkg/logger"
	"github.com/pypehq/pype/pkg/query"
	"github.com/pypehq/pype/pkg/redis"
	"github.com/pypehq/pype/pkg/storage"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.NewWithSentry(cfg.Log, cfg.Sentry, middlewares.RequestIDExtractor())

	seeders, err := database.Seeders()
	if err != nil {
		fmt.Fprintln(os.Stderr, "seeders:", err)
		os.Exit(1)
	}

	k := &kernel{cfg: cfg, log: log}
	console.Execute(
		console.WithName("blog"),
		console.WithLogger(log),
		console.WithApp(k.build, cfg.Addr,
			pype.Logger(log),
			pype.ShutdownHook(k.shutdown),
			pype.ShutdownHook(logger.FlushSentry(2*time.Second)),
		),
		console.WithDatabase(k.connect, database.Migrations(), seeders...),
	)
}

// kernel owns the connections the serve command opens.
type kernel struct {
	cfg   config
	log   *slog.Logger
	conn  *db.Connection
	rdb   redis.Client
	files storage.Storage
}

// connect opens the database from DB_* settings, falling back to
// ./blog.sqlite when DB_TYPE is unset.
func (k *kernel) connect(ctx context.Context) (*db.Connection, error) {
	cfg, err := db.LoadConfig()
	if errors.Is(err, db.ErrConfiguration) && os.Getenv("DB_TYPE") == "" {
		cfg.Type, cfg.Path = "sqlite", "blog.sqlite"
		err = cfg.Validate()
	}
	if err != nil {
		return nil, err
	}
	return db.Open(ctx, cfg, query.WithLogger(k.log))
}

func (k *kernel) build(ctx context.Context) (*pype.App, error) {
	conn, err := k.connect(ctx)
	if err != nil {
		return nil, err
	}
	k.conn = conn

	if k.cfg.Redis.Enabled() {
		rdb, err := redis.Open(ctx, k.cfg.Redis)
		if err != nil {
			return nil, errors.Join(err, conn.Close())
		}
		k.rdb = rdb
	}

	sender, err := newMailSender(k.cfg, k.log)
	if err != nil {
		return nil, errors.Join(err, k.shutdown(ctx))
	}
	files, err := storage.Open(k.cfg.Storage)
	if err != nil {
		return nil, errors.Join(err, k.shutdown(ctx))
	}
	k.files = files
	return newApp(k.cfg, k.log, services{conn: k.conn, rdb: k.rdb, mail: sender, files: files})
}

func (k *kernel) shutdown(ctx context.Context) error {
	var errs []error
	if k.rdb != nil {
		errs = append(errs, redis.Shutdown(k.rdb)(ctx))
	}
	if k.conn != nil {
		errs = append(errs, db.Shutdown(k.conn)(ctx))
	}
	if c, ok := k.files.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
