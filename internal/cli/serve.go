package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/famtree/pkg/pipeline"
	"github.com/matzehuels/famtree/pkg/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		noCache    bool
		saveOnExit bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tree over a JSON HTTP API",
		Long: `Serve the tree over a JSON HTTP API.

Edits are held in memory until POST /save, or until shutdown with
--save-on-exit. GET /render returns the drawing in any render format.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			var gridSize float64
			if c.Settings.ShowGrid {
				gridSize = c.Settings.GridSize
			}
			srv := server.New(sess,
				server.WithLogger(c.Logger),
				server.WithRunner(runner),
				server.WithGrid(c.grid()),
				server.WithRenderDefaults(pipeline.Options{
					Theme:    c.Settings.NodeColorTheme,
					Language: c.Settings.Language,
					GridSize: gridSize,
				}),
			)

			printInfo("Serving %s on http://%s", c.location(), addr)
			err = srv.ListenAndServe(ctx, addr)

			if sess.Dirty() {
				if !saveOnExit {
					printWarning("unsaved changes discarded; POST /save or use --save-on-exit")
					return err
				}
				if serr := sess.Save(context.WithoutCancel(ctx)); serr != nil {
					return serr
				}
				printSuccess("Saved %s", c.location())
			}
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&saveOnExit, "save-on-exit", false, "save pending edits on shutdown")
	return cmd
}
