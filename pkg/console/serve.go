package console

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pypehq/pype/internal"
)

func (c *Console) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			printer{w: cmd.OutOrStdout()}.Info("Listening on %s", addr)
			return app.Run(addr, append([]internal.RunOption{internal.WithContext(cmd.Context())}, c.runOpts...)...)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", c.addr, "listen address")
	return cmd
}

func (c *Console) routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List registered routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			routes := app.Routes()
			if len(routes) == 0 {
				printer{w: cmd.OutOrStdout()}.Warn("No routes registered")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, bold("METHOD\tPATH\tNAME\tACTION\tMIDDLEWARE"))
			for _, r := range routes {
				action := r.Action
				if r.CSRFExempt {
					action += " (csrf exempt)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Method, r.Path, r.Name, action, strings.Join(r.Middleware, ","))
			}
			return tw.Flush()
		},
	}
}
