// Package pipeline runs the load, layout and render stages that turn a
// stored tree into files.
//
// The CLI `render` command and the HTTP server share this package so both
// produce identical artifacts for identical input.
//
// # Architecture
//
//  1. Load: open the repository at a location and read the tree
//  2. Layout: assign generations and place every unpinned node
//  3. Render: produce each requested format, consulting the artifact cache
//
// Each stage can also be run on its own.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Location: "family.db",
//	    Formats:  []string{"svg", "pdf"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/famtree/pkg/cache"
	"github.com/matzehuels/famtree/pkg/canvas"
	"github.com/matzehuels/famtree/pkg/errors"
	"github.com/matzehuels/famtree/pkg/layout"
	"github.com/matzehuels/famtree/pkg/render/svg"
	"github.com/matzehuels/famtree/pkg/storage"
	"github.com/matzehuels/famtree/pkg/tree"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultScale is the PNG resolution multiplier.
	DefaultScale = 2.0

	// DefaultLanguage is the tooltip language.
	DefaultLanguage = svg.LangJapanese
)

// Output formats.
const (
	FormatSVG      = "svg"      // canvas drawing at stored positions
	FormatDOT      = "dot"      // Graphviz source
	FormatNodelink = "nodelink" // Graphviz-placed SVG
	FormatPDF      = "pdf"
	FormatPNG      = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:      true,
	FormatDOT:      true,
	FormatNodelink: true,
	FormatPDF:      true,
	FormatPNG:      true,
}

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run. The JSON form is accepted by the
// HTTP render endpoint.
type Options struct {
	// Load
	Location string `json:"location,omitempty"`

	// Layout
	Reset     bool          `json:"reset,omitempty"`
	AutoWidth bool          `json:"auto_width,omitempty"`
	Layout    layout.Config `json:"-"`

	// Render
	Formats  []string `json:"formats,omitempty"`
	Theme    string   `json:"theme,omitempty"`
	Language string   `json:"language,omitempty"`
	GridSize float64  `json:"grid_size,omitempty"` // zero hides the grid
	Year     int      `json:"year,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Events   bool     `json:"events,omitempty"`
	Scale    float64  `json:"scale,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"` // bypass the artifact cache

	Logger *log.Logger `json:"-"`
}

// Result is the outcome of a pipeline run.
type Result struct {
	Store  *tree.Store
	Report tree.LoadReport
	Layout layout.Result

	// TreeHash is the SHA-256 of the tree's canonical JSON after layout.
	TreeHash string

	// Artifacts holds rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Persons    int
	Events     int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo records which formats came from the artifact cache.
type CacheInfo struct {
	RenderHit bool // every requested format was cached
	Hits      []string
}

// =============================================================================
// Validation
// =============================================================================

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid format: %q (must be one of: svg, dot, nodelink, pdf, png)", format)
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTheme checks that a theme name is known.
func ValidateTheme(name string) error {
	if _, ok := svg.ThemeByName(name); !ok {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid theme: %q (must be one of: default, high_contrast)", name)
	}
	return nil
}

// ValidateLanguage checks the tooltip language.
func ValidateLanguage(lang string) error {
	if lang != svg.LangJapanese && lang != svg.LangEnglish {
		return errors.New(errors.ErrCodeInvalidInput, "invalid language: %q (must be ja or en)", lang)
	}
	return nil
}

// SetDefaults fills empty fields. It is idempotent.
func (o *Options) SetDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
	if o.Year == 0 {
		o.Year = time.Now().Year()
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.AutoWidth {
		o.Layout.AutoWidth = true
	}
	if o.Layout.PhotoDir == "" && o.Location != "" {
		o.Layout.PhotoDir = storage.Dir(o.Location)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate applies defaults and checks the render options.
func (o *Options) Validate() error {
	o.SetDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := ValidateTheme(o.Theme); err != nil {
		return err
	}
	if err := ValidateLanguage(o.Language); err != nil {
		return err
	}
	if o.GridSize < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "grid size must not be negative")
	}
	return nil
}

// Grid returns the grid drawn behind the canvas SVG.
func (o *Options) Grid() canvas.Grid {
	return canvas.Grid{Size: o.GridSize, Enabled: o.GridSize > 0}
}

// ArtifactKeyOpts returns the cache key options for format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	theme, _ := svg.ThemeByName(o.Theme)
	k := cache.ArtifactKeyOpts{Format: format, AutoSize: o.Layout.AutoWidth}
	switch format {
	case FormatSVG, FormatPDF, FormatPNG:
		k.Theme = theme.Name
		k.Language = o.Language
		k.Grid = o.GridSize
		k.Year = o.Year
	}
	switch format {
	case FormatDOT, FormatNodelink:
		k.Detailed = o.Detailed
		k.Events = o.Events
	}
	if format == FormatPNG {
		k.Scale = o.Scale
	}
	return k
}

// sortedFormats returns the requested formats without duplicates, in a
// fixed order.
func (o *Options) sortedFormats() []string {
	out := slices.Clone(o.Formats)
	slices.Sort(out)
	return slices.Compact(out)
}
