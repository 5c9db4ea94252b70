package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pypehq/pype/pkg/logger"
	"github.com/pypehq/pype/pkg/query"
)

// Seeder fills the database with data. Run receives a handle bound to the
// seeder's own transaction.
type Seeder interface {
	Name() string
	Run(ctx context.Context, db *query.DB) error
}

type funcSeeder struct {
	name string
	fn   func(ctx context.Context, db *query.DB) error
}

func (s funcSeeder) Name() string { return s.name }

func (s funcSeeder) Run(ctx context.Context, db *query.DB) error { return s.fn(ctx, db) }

// Func turns a function into a named Seeder.
func Func(name string, fn func(ctx context.Context, db *query.DB) error) Seeder {
	return funcSeeder{name: name, fn: fn}
}

// Factory inserts n rows built by fn into table. fn receives the row index.
func Factory(table string, n int, fn func(i int) map[string]any) Seeder {
	return Func(table+"_factory", func(ctx context.Context, db *query.DB) error {
		if n <= 0 {
			return nil
		}
		rows := make([]map[string]any, n)
		for i := range n {
			rows[i] = fn(i)
		}
		_, err := db.Table(table).InsertMany(ctx, rows)
		return err
	})
}

// Truncate empties tables before the seeders that follow it.
func Truncate(tables ...string) Seeder {
	return Func("truncate", func(ctx context.Context, db *query.DB) error {
		for _, t := range tables {
			if err := db.Truncate(ctx, t); err != nil {
				return fmt.Errorf("truncate %s: %w", t, err)
			}
		}
		return nil
	})
}

// Runner runs registered seeders in registration order.
type Runner struct {
	db      *query.DB
	log     *slog.Logger
	seeders []Seeder
	byName  map[string]Seeder
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger reports each seeder as it completes.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = l
	}
}

// WithSeeders registers seeders. Names must be unique.
func WithSeeders(seeders ...Seeder) RunnerOption {
	return func(r *Runner) {
		r.seeders = append(r.seeders, seeders...)
	}
}

func NewRunner(db *query.DB, opts ...RunnerOption) (*Runner, error) {
	r := &Runner{db: db, log: logger.NewNope(), byName: make(map[string]Seeder)}
	for _, opt := range opts {
		opt(r)
	}
	for _, s := range r.seeders {
		if _, dup := r.byName[s.Name()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSeeder, s.Name())
		}
		r.byName[s.Name()] = s
	}
	return r, nil
}

// Names lists registered seeders in run order.
func (r *Runner) Names() []string {
	out := make([]string, len(r.seeders))
	for i, s := range r.seeders {
		out[i] = s.Name()
	}
	return out
}

// Run executes the named seeders, or all of them when names is empty. Each
// seeder runs in its own transaction; the first failure stops the run.
func (r *Runner) Run(ctx context.Context, names ...string) error {
	list := r.seeders
	if len(names) > 0 {
		list = make([]Seeder, 0, len(names))
		for _, n := range names {
			s, ok := r.byName[n]
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownSeeder, n)
			}
			list = append(list, s)
		}
	}

	for _, s := range list {
		start := time.Now()
		err := r.db.Transaction(ctx, func(tx *query.DB) error {
			return s.Run(ctx, tx)
		})
		if err != nil {
			r.log.ErrorContext(ctx, "seeder failed", slog.String("seeder", s.Name()), slog.Any("error", err))
			return fmt.Errorf("seeder %s: %w", s.Name(), err)
		}
		r.log.InfoContext(ctx, "seeded", slog.String("seeder", s.Name()), slog.Duration("duration", time.Since(start)))
	}
	return nil
}
