// Package cli implements the famtree command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/famtree/pkg/buildinfo"
	"github.com/matzehuels/famtree/pkg/cache"
	"github.com/matzehuels/famtree/pkg/canvas"
	"github.com/matzehuels/famtree/pkg/layout"
	"github.com/matzehuels/famtree/pkg/observability"
	"github.com/matzehuels/famtree/pkg/pipeline"
	"github.com/matzehuels/famtree/pkg/session"
	"github.com/matzehuels/famtree/pkg/settings"
	"github.com/matzehuels/famtree/pkg/storage"
	"github.com/matzehuels/famtree/pkg/tree"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "famtree"

	// defaultTree is the tree location used when neither --file nor the
	// tree setting is given.
	defaultTree = "family.json"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Settings are loaded before every command runs.
	Settings     settings.Settings
	SettingsPath string

	file         string
	noLayout     bool
	layoutConfig *layout.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:   newLogger(w, level),
		Settings: settings.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RegisterHooks routes store, layout and storage events to the debug log.
func (c *CLI) RegisterHooks() {
	h := logHooks{logger: c.Logger}
	observability.SetStoreHooks(h)
	observability.SetLayoutHooks(h)
	observability.SetStorageHooks(h)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "famtree edits and draws family trees",
		Long: `famtree keeps a family tree of persons, parent-child and spouse relations,
families and events, lays it out by generation and renders it as SVG, PDF,
PNG or Graphviz DOT.`,
		Version:      buildinfo.Resolve().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadSettings()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.file, "file", "f", "", "tree location: file path, redis:// or mongodb:// URL (default from settings, else family.json)")
	root.PersistentFlags().BoolVar(&c.noLayout, "no-layout", false, "do not recompute the layout after edits")

	root.AddCommand(c.initCommand())
	root.AddCommand(c.personCommand())
	root.AddCommand(c.parentCommand())
	root.AddCommand(c.spouseCommand())
	root.AddCommand(c.familyCommand())
	root.AddCommand(c.eventCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.moveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.settingsCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadSettings() error {
	s, path, err := settings.LoadDefault()
	c.SettingsPath = path
	if err != nil {
		c.Logger.Warn("ignoring settings file", "path", path, "err", err)
	}
	c.Settings = s
	return nil
}

// =============================================================================
// Tree Access
// =============================================================================

// location returns the tree location: --file, then the tree setting, then
// family.json.
func (c *CLI) location() string {
	switch {
	case c.file != "":
		return c.file
	case c.Settings.Tree != "":
		return c.Settings.Tree
	}
	return defaultTree
}

func (c *CLI) engine() *layout.Engine {
	cfg := layout.DefaultConfig()
	if c.layoutConfig != nil {
		cfg = *c.layoutConfig
	}
	cfg.PhotoDir = storage.Dir(c.location())
	return layout.New(layout.WithLogger(c.Logger), layout.WithConfig(cfg))
}

func (c *CLI) grid() canvas.Grid {
	return canvas.Grid{Size: c.Settings.GridSize, Enabled: c.Settings.ShowGrid}
}

// openSession opens the tree, creating an empty one when the location
// holds nothing yet.
func (c *CLI) openSession(ctx context.Context) (*session.Session, error) {
	sess, report, err := session.Open(ctx, c.location(),
		session.WithLogger(c.Logger),
		session.WithEngine(c.engine()),
		session.WithAutoLayout(!c.noLayout),
	)
	if err != nil {
		return nil, err
	}
	if report.Total() > 0 {
		printWarning("%s", report.String())
	}
	return sess, nil
}

// read opens the tree and runs fn against it without saving.
func (c *CLI) read(ctx context.Context, fn func(*tree.Store) error) error {
	sess, err := c.openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	var ferr error
	sess.View(func(s *tree.Store) { ferr = fn(s) })
	return ferr
}

// mutate opens the tree, applies fn and saves the result. Nothing is
// written when fn fails.
func (c *CLI) mutate(ctx context.Context, fn func(*tree.Store) error) error {
	sess, err := c.openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Do(fn); err != nil {
		return err
	}
	return sess.Save(ctx)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}
