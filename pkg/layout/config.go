package layout

import (
	"path/filepath"
	"unicode/utf8"

	"github.com/matzehuels/famtree/pkg/tree"
)

// Default spacing, in world units.
const (
	DefaultNodeWidth   = 140.0
	DefaultNodeHeight  = 50.0
	DefaultNodeGap     = 50.0
	DefaultSpouseGap   = 20.0
	DefaultClusterGap  = 80.0
	DefaultRowHeight   = 130.0
	DefaultSweeps      = 4
	DefaultEventRowGap = 1

	// NameAreaHeight is the strip below a photo that holds the name.
	NameAreaHeight = 30.0
	// MaxPhotoHeight caps the photo area of a node.
	MaxPhotoHeight = 400.0

	charWidth    = 14.0
	minAutoWidth = 100.0
	maxAutoWidth = 250.0
)

// Config holds the geometry used by the engine.
type Config struct {
	NodeWidth  float64 // fixed node width, used when AutoWidth is false
	NodeHeight float64
	NodeGap    float64 // between two single-person clusters
	SpouseGap  float64 // between spouses inside a cluster
	ClusterGap float64 // between clusters when either holds a couple
	RowHeight  float64 // vertical distance between generation tiers
	Origin     tree.Point

	// Sweeps is the number of alternating barycenter passes. Zero means
	// DefaultSweeps; a negative value disables reordering.
	Sweeps int

	// EventRowGap is the number of tiers between the deepest generation and
	// the row of automatically placed events.
	EventRowGap int

	// AutoWidth sizes nodes by their label length.
	AutoWidth bool

	// PhotoDir resolves relative photo paths. Empty means the working
	// directory.
	PhotoDir string

	// Photos reads image dimensions. Nil means ReadPhotoSize.
	Photos PhotoSizer
}

// DefaultConfig returns the standard geometry.
func DefaultConfig() Config {
	return Config{
		NodeWidth:   DefaultNodeWidth,
		NodeHeight:  DefaultNodeHeight,
		NodeGap:     DefaultNodeGap,
		SpouseGap:   DefaultSpouseGap,
		ClusterGap:  DefaultClusterGap,
		RowHeight:   DefaultRowHeight,
		Sweeps:      DefaultSweeps,
		EventRowGap: DefaultEventRowGap,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.NodeWidth <= 0 {
		c.NodeWidth = d.NodeWidth
	}
	if c.NodeHeight <= 0 {
		c.NodeHeight = d.NodeHeight
	}
	if c.NodeGap <= 0 {
		c.NodeGap = d.NodeGap
	}
	if c.SpouseGap <= 0 {
		c.SpouseGap = d.SpouseGap
	}
	if c.ClusterGap <= 0 {
		c.ClusterGap = d.ClusterGap
	}
	if c.RowHeight <= 0 {
		c.RowHeight = d.RowHeight
	}
	switch {
	case c.Sweeps == 0:
		c.Sweeps = d.Sweeps
	case c.Sweeps < 0:
		c.Sweeps = 0
	}
	if c.EventRowGap <= 0 {
		c.EventRowGap = d.EventRowGap
	}
	if c.Photos == nil {
		c.Photos = ReadPhotoSize
	}
	return c
}

// NodeSize returns the width and height of a node with the given label.
func (c Config) NodeSize(label string) (w, h float64) {
	c = c.withDefaults()
	if !c.AutoWidth {
		return c.NodeWidth, c.NodeHeight
	}
	w = float64(utf8.RuneCountInString(label)) * charWidth
	return min(max(w, minAutoWidth), maxAutoWidth), c.NodeHeight
}

// PersonSize returns the node size of p. A person shown with a photo keeps
// the label width and gets a photo area whose height follows the image's
// aspect ratio times the photo scale, plus NameAreaHeight for the name.
// When the photo cannot be read the node falls back to NodeSize.
func (c Config) PersonSize(p tree.Person) (w, h float64) {
	c = c.withDefaults()
	w, h = c.NodeSize(p.Name)
	if !p.ShowsPhoto() {
		return w, h
	}
	iw, ih, ok := c.Photos(c.PhotoFile(p.PhotoPath))
	if !ok || iw <= 0 || ih <= 0 {
		return w, h
	}
	photo := min(w*float64(ih)/float64(iw)*p.Scale(), MaxPhotoHeight)
	return w, photo + NameAreaHeight
}

// PhotoFile resolves path against PhotoDir.
func (c Config) PhotoFile(path string) string {
	if path == "" || c.PhotoDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.PhotoDir, path)
}
