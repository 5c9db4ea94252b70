package console

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pypehq/pype/pkg/db"
	"github.com/pypehq/pype/pkg/seed"
)

// withMigrator opens the connection, builds a migrator and closes the
// connection afterwards.
func (c *Console) withMigrator(ctx context.Context, fn func(m *db.Migrator) error) error {
	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	m, err := db.NewMigrator(conn, c.migrations, db.WithMigrationLogger(c.log))
	if err != nil {
		return err
	}
	return fn(m)
}

func (c *Console) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := printer{w: cmd.OutOrStdout()}
			return c.withMigrator(cmd.Context(), func(m *db.Migrator) error {
				n, err := m.Up(cmd.Context())
				if err != nil {
					return err
				}
				if n == 0 {
					p.Info("Nothing to migrate")
					return nil
				}
				p.Success("Applied %d migration(s)", n)
				return nil
			})
		},
	}
}

func (c *Console) rollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:rollback",
		Short: "Revert the last migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := printer{w: cmd.OutOrStdout()}
			return c.withMigrator(cmd.Context(), func(m *db.Migrator) error {
				ok, err := m.Rollback(cmd.Context())
				if err != nil {
					return err
				}
				if !ok {
					p.Info("Nothing to roll back")
					return nil
				}
				p.Success("Rolled back one migration")
				return nil
			})
		},
	}
}

func (c *Console) freshCmd() *cobra.Command {
	var (
		force    bool
		withSeed bool
	)
	cmd := &cobra.Command{
		Use:   "migrate:fresh",
		Short: "Revert every migration and run them all again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := printer{w: cmd.OutOrStdout()}
			if !force {
				return fmt.Errorf("migrate:fresh drops all data, pass --force to confirm")
			}
			err := c.withMigrator(cmd.Context(), func(m *db.Migrator) error {
				n, err := m.Fresh(cmd.Context())
				if err != nil {
					return err
				}
				p.Success("Re-applied %d migration(s)", n)
				return nil
			})
			if err != nil || !withSeed {
				return err
			}
			return c.runSeeders(cmd, nil)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "confirm data loss")
	cmd.Flags().BoolVar(&withSeed, "seed", false, "run all seeders afterwards")
	return cmd
}

func (c *Console) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:status",
		Short: "Show which migrations have run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withMigrator(cmd.Context(), func(m *db.Migrator) error {
				list, err := m.Status(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, bold("VERSION\tNAME\tSTATUS\tAPPLIED AT"))
				for _, s := range list {
					state, at := yellow("pending"), ""
					if s.Applied {
						state, at = green("applied"), s.AppliedAt.Format(time.DateTime)
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Version, s.Name, state, at)
				}
				return tw.Flush()
			})
		},
	}
}

func (c *Console) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "db:seed [seeder...]",
		Short: "Run all seeders, or only the named ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSeeders(cmd, args)
		},
	}
}

func (c *Console) runSeeders(cmd *cobra.Command, names []string) error {
	p := printer{w: cmd.OutOrStdout()}
	if len(c.seeders) == 0 {
		p.Warn("No seeders registered")
		return nil
	}

	conn, err := c.connect(cmd.Context())
	if err != nil {
		return err
	}
	defer conn.Close()

	r, err := seed.NewRunner(conn.Query(), seed.WithSeeders(c.seeders...), seed.WithLogger(c.log))
	if err != nil {
		return err
	}
	if err := r.Run(cmd.Context(), names...); err != nil {
		return err
	}
	if len(names) == 0 {
		names = r.Names()
	}
	for _, n := range names {
		p.Success("Seeded %s", n)
	}
	return nil
}
