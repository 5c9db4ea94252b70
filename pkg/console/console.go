package console

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pypehq/pype/internal"
	"github.com/pypehq/pype/pkg/db"
	"github.com/pypehq/pype/pkg/logger"
	"github.com/pypehq/pype/pkg/schema"
	"github.com/pypehq/pype/pkg/seed"
)

// Console builds the command tree for one application.
type Console struct {
	name       string
	out        io.Writer
	log        *slog.Logger
	app        func(ctx context.Context) (*internal.App, error)
	addr       string
	runOpts    []internal.RunOption
	connect    func(ctx context.Context) (*db.Connection, error)
	migrations []schema.Migration
	seeders    []seed.Seeder
	root       string
	now        func() time.Time
}

// Option configures a Console.
type Option func(*Console)

// WithName sets the binary name shown in usage. Default "pype".
func WithName(name string) Option {
	return func(c *Console) { c.name = name }
}

// WithOutput redirects command output. Default os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(c *Console) { c.out = w }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Console) { c.log = l }
}

// WithApp enables serve and routes. build is called once per command.
func WithApp(build func(ctx context.Context) (*internal.App, error), addr string, opts ...internal.RunOption) Option {
	return func(c *Console) {
		c.app = build
		c.addr = addr
		c.runOpts = opts
	}
}

// WithDatabase enables the migrate and db:seed commands.
func WithDatabase(connect func(ctx context.Context) (*db.Connection, error), migrations []schema.Migration, seeders ...seed.Seeder) Option {
	return func(c *Console) {
		c.connect = connect
		c.migrations = migrations
		c.seeders = seeders
	}
}

// WithRoot sets the project directory make:* commands write into. Default ".".
func WithRoot(dir string) Option {
	return func(c *Console) { c.root = dir }
}

// New returns the root command. Application commands appear only when the
// matching option is set; make:* commands are always available.
func New(opts ...Option) *cobra.Command {
	c := &Console{
		name: "pype",
		out:  os.Stdout,
		log:  logger.NewNope(),
		root: ".",
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c.command()
}

func (c *Console) command() *cobra.Command {
	root := &cobra.Command{
		Use:           c.name,
		Short:         "Application console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.out)
	root.SetErr(c.out)

	if c.app != nil {
		root.AddCommand(c.serveCmd(), c.routesCmd())
	}
	if c.connect != nil {
		root.AddCommand(
			c.migrateCmd(),
			c.rollbackCmd(),
			c.freshCmd(),
			c.statusCmd(),
			c.seedCmd(),
		)
	}
	root.AddCommand(c.makeCmds()...)
	return root
}

// Execute runs the console with os.Args and exits non-zero on failure.
func Execute(opts ...Option) {
	cmd := New(opts...)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		p := printer{w: cmd.ErrOrStderr()}
		p.Error("%v", err)
		os.Exit(1)
	}
}
