package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/famtree/pkg/pipeline"
)

// renderOpts holds the flags of the render command that are not pipeline
// options.
type renderOpts struct {
	output   string
	formats  string
	showGrid bool
	noCache  bool
}

func (c *CLI) renderCommand() *cobra.Command {
	var ro renderOpts
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the tree to SVG, PDF, PNG or Graphviz",
		Long: `Render the tree to SVG, PDF, PNG or Graphviz.

Formats:
  svg       the canvas drawing at stored positions
  pdf, png  the canvas drawing converted with rsvg-convert
  dot       Graphviz source with one rank per generation
  nodelink  SVG laid out by Graphviz

Theme, language and grid default to the settings file. Rendered files are
cached by tree content and options; --refresh bypasses the cache.`,
		Example: `  famtree render -o family.svg
  famtree render -o family --format svg,pdf --theme high_contrast`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.renderDefaults(cmd, &opts, &ro)
			return c.runRender(cmd.Context(), opts, ro)
		},
	}

	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output file (one format) or base path (several)")
	cmd.Flags().StringVar(&ro.formats, "format", pipeline.FormatSVG, "output format(s), comma-separated: svg, pdf, png, dot, nodelink")
	cmd.Flags().StringVar(&opts.Theme, "theme", "", "node colors: default, high_contrast")
	cmd.Flags().StringVar(&opts.Language, "lang", "", "tooltip language: ja, en")
	cmd.Flags().BoolVar(&ro.showGrid, "grid", false, "draw the grid")
	cmd.Flags().Float64Var(&opts.GridSize, "grid-size", 0, "grid spacing")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show dates in dot and nodelink output")
	cmd.Flags().BoolVar(&opts.Events, "events", false, "include events in dot and nodelink output")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "PNG resolution multiplier")
	cmd.Flags().BoolVar(&opts.AutoWidth, "auto-width", false, "size nodes by label length")
	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "ignore manual placements")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "re-render even when cached")
	cmd.Flags().BoolVar(&ro.noCache, "no-cache", false, "disable the artifact cache")

	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{"svg", "pdf", "png", "dot", "nodelink"}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("theme", cobra.FixedCompletions(
		[]string{"default", "high_contrast"}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("lang", cobra.FixedCompletions(
		[]string{"ja", "en"}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

// renderDefaults fills options the user did not set from the settings file.
func (c *CLI) renderDefaults(cmd *cobra.Command, opts *pipeline.Options, ro *renderOpts) {
	changed := cmd.Flags().Changed
	opts.Location = c.location()
	opts.Formats = parseFormats(ro.formats)
	if !changed("theme") {
		opts.Theme = c.Settings.NodeColorTheme
	}
	if !changed("lang") {
		opts.Language = c.Settings.Language
	}
	if !changed("grid") {
		ro.showGrid = c.Settings.ShowGrid
	}
	switch {
	case !ro.showGrid:
		opts.GridSize = 0
	case !changed("grid-size"):
		opts.GridSize = c.Settings.GridSize
	}
}

func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, ro renderOpts) error {
	runner, err := c.newRunner(ro.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		return err
	}
	if result.Report.Total() > 0 {
		printWarning("%s", result.Report.String())
	}
	if w := result.Layout.Warning(); w != nil {
		printWarning("%s", w)
	}

	paths := outputPaths(ro.output, opts.Location, opts.Formats)
	for _, format := range opts.Formats {
		if err := writeOutput(paths[format], result.Artifacts[format]); err != nil {
			return err
		}
	}
	prog.done(fmt.Sprintf("Rendered %d artifacts", len(paths)))

	printSuccess("Rendered %s", opts.Location)
	for _, format := range opts.Formats {
		printFile(paths[format])
	}
	cached := result.CacheInfo.RenderHit
	printStats(result.Stats.Persons, result.Stats.Events, len(result.Layout.Tiers), &cached)
	return nil
}

// parseFormats splits the --format flag, dropping blanks and duplicates.
func parseFormats(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	if len(out) == 0 {
		return []string{pipeline.FormatSVG}
	}
	return out
}

// fileExt maps a format to its file extension. nodelink output is SVG,
// kept apart from the canvas SVG.
func fileExt(format string) string {
	if format == pipeline.FormatNodelink {
		return ".nodelink.svg"
	}
	return "." + format
}

// outputPaths assigns a file to every format. A single format writes to
// output as given; several formats share output as a base path with the
// format extension appended. Without output the base is the tree file
// name, or "family" for database locations.
func outputPaths(output, location string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if output != "" && len(formats) == 1 {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, location)
	for _, f := range formats {
		paths[f] = base + fileExt(f)
	}
	return paths
}

func basePath(output, location string) string {
	if output != "" {
		ext := filepath.Ext(output)
		if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
			return strings.TrimSuffix(output, ext)
		}
		return output
	}
	if u, err := url.Parse(location); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return "family"
	}
	return strings.TrimSuffix(location, filepath.Ext(location))
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
