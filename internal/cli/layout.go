package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/famtree/pkg/canvas"
	"github.com/matzehuels/famtree/pkg/errors"
	"github.com/matzehuels/famtree/pkg/layout"
	"github.com/matzehuels/famtree/pkg/storage"
	"github.com/matzehuels/famtree/pkg/tree"
)

// initCommand creates an empty tree at --file.
func (c *CLI) initCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			if !sess.Created() && !force {
				return errors.New(errors.ErrCodeInvalidPath, "%s already holds a tree (use --force to overwrite)", c.location())
			}
			if !sess.Created() {
				sess.Store = tree.New()
			}
			if err := sess.Save(ctx); err != nil {
				return err
			}
			printSuccess("Created %s", StyleHighlight.Render(c.location()))
			printDetail("backend %s", sess.Repository.Backend())
			printNextStep("Add someone", `famtree person add "Name"`)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing tree")
	return cmd
}

// layoutCommand recomputes node positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		reset     bool
		autoWidth bool
	)

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Recompute node positions by generation",
		Long: `Recompute node positions by generation.

Nodes that were moved by hand keep their place unless --reset is given,
which discards every manual placement.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if autoWidth {
				cfg := layout.DefaultConfig()
				cfg.AutoWidth = true
				c.layoutConfig = &cfg
			}
			sess, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			prog := newProgress(c.Logger)
			res := sess.Layout(reset)
			if err := sess.Save(ctx); err != nil {
				return err
			}
			prog.done("Layout complete")

			var events int
			sess.View(func(s *tree.Store) { events = len(s.Events()) })
			printSuccess("Laid out %s", c.location())
			printStats(len(res.Generations), events, len(res.Tiers), nil)
			printDetail("%d crossings", res.Crossings)
			if w := res.Warning(); w != nil {
				printWarning("%s", errors.UserMessage(w))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "discard manual placements")
	cmd.Flags().BoolVar(&autoWidth, "auto-width", false, "size nodes by label length")
	return cmd
}

// checkCommand audits the tree for structural problems that the editing
// commands prevent but imported data may carry.
func (c *CLI) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report ancestry cycles and other structural problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var problems []error
			err := c.read(cmd.Context(), func(s *tree.Store) error {
				problems = s.Validator().Audit()
				for _, cycle := range s.Validator().Cycles() {
					names := make([]string, 0, len(cycle))
					for _, id := range cycle {
						p, _ := s.Person(id)
						names = append(names, p.Name)
					}
					printDetail("cycle: %v", names)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if len(problems) == 0 {
				printSuccess("No problems found")
				return nil
			}
			for _, p := range problems {
				printError("%s %s", errors.GetCode(p), errors.UserMessage(p))
			}
			return fmt.Errorf("%d problems found", len(problems))
		},
	}
}

// moveCommand places one node by hand, pinning it.
func (c *CLI) moveCommand() *cobra.Command {
	var (
		snap     bool
		gridSize float64
	)

	cmd := &cobra.Command{
		Use:   "move <node> <x> <y>",
		Short: "Move a person or event to a canvas position and pin it there",
		Long: `Move a person or event to a canvas position and pin it there.

<node> is a person or event name or id prefix; prefix it with "person:" or
"event:" when the two clash. With --snap the position is rounded to the grid.`,
		Example: `  famtree move "Sato Taro" 120 40 --snap
  famtree move event:Wedding 300 200`,
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: c.completePersons,
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := parseCoord(args[1])
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "x %q", args[1])
			}
			y, err := parseCoord(args[2])
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "y %q", args[2])
			}
			grid := canvas.Grid{Size: c.Settings.GridSize, Enabled: snap}
			if cmd.Flags().Changed("grid") {
				grid.Size = gridSize
			}

			var (
				ref tree.NodeRef
				pos tree.Point
			)
			err = c.mutate(cmd.Context(), func(s *tree.Store) error {
				if ref, err = resolveNode(s, args[0]); err != nil {
					return err
				}
				ctl := canvas.NewController(s, canvas.WithGrid(grid))
				if err := ctl.DragTo(ref, tree.Point{X: x, Y: y}); err != nil {
					return err
				}
				pos, _, _ = s.NodePosition(ref)
				return nil
			})
			if err != nil {
				return err
			}
			printSuccess("Moved %s to %s", ref.Kind, formatPoint(pos))
			return nil
		},
	}
	cmd.Flags().BoolVar(&snap, "snap", false, "snap to the grid")
	cmd.Flags().Float64Var(&gridSize, "grid", 0, "grid size for --snap (default from settings)")
	return cmd
}

// convertCommand copies a tree between storage backends.
func (c *CLI) convertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <src> <dst>",
		Short: "Copy a tree between files and databases",
		Long: `Copy a tree between files and databases.

Locations are chosen by scheme or extension: redis:// and mongodb:// URLs,
.db/.sqlite/.sqlite3 for SQLite, .yaml/.yml for YAML and anything else for
JSON. Invalid records in <src> are dropped and reported.`,
		Example: `  famtree convert family.json family.db
  famtree convert family.db redis://localhost:6379/0#sato`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := storage.Open(args[0])
			if err != nil {
				return err
			}
			defer src.Close()
			dst, err := storage.Open(args[1])
			if err != nil {
				return err
			}
			defer dst.Close()

			var (
				s      *tree.Store
				report tree.LoadReport
			)
			err = spin(ctx, "Converting", fmt.Sprintf("Converted %s to %s", args[0], args[1]), func() error {
				if s, report, err = src.Load(ctx); err != nil {
					return err
				}
				return dst.Save(ctx, s.Snapshot())
			})
			if err != nil {
				return err
			}
			printDetail("%s → %s · %d persons", src.Backend(), dst.Backend(), s.Len())
			if report.Total() > 0 {
				printWarning("%s", report.String())
			}
			return nil
		},
	}
}
