package canvas

import (
	"math"

	"github.com/matzehuels/famtree/pkg/tree"
)

// Zoom limits.
const (
	DefaultMinZoom = 0.3
	DefaultMaxZoom = 3.0

	// scrollScale converts wheel deltas into zoom factors: exp(dy/scrollScale).
	scrollScale = 400.0
)

// Viewport maps world coordinates to screen coordinates:
//
//	screen = world*Zoom + Pan
type Viewport struct {
	Pan     tree.Point
	Zoom    float64
	MinZoom float64
	MaxZoom float64
}

// NewViewport returns an unzoomed, unpanned viewport.
func NewViewport() Viewport {
	return Viewport{Zoom: 1, MinZoom: DefaultMinZoom, MaxZoom: DefaultMaxZoom}
}

// ToScreen converts a world point to screen coordinates.
func (v Viewport) ToScreen(world tree.Point) tree.Point {
	return world.Scale(v.zoom()).Add(v.Pan)
}

// ToWorld converts a screen point to world coordinates.
func (v Viewport) ToWorld(screen tree.Point) tree.Point {
	return screen.Sub(v.Pan).Scale(1 / v.zoom())
}

// PanBy moves the view by a screen-space delta.
func (v *Viewport) PanBy(delta tree.Point) {
	v.Pan = v.Pan.Add(delta)
}

// ZoomAt multiplies the zoom by factor, clamped to [MinZoom, MaxZoom], and
// adjusts the pan so the world point under screen stays under it.
func (v *Viewport) ZoomAt(screen tree.Point, factor float64) {
	if factor <= 0 || math.IsNaN(factor) {
		return
	}
	anchor := v.ToWorld(screen)
	v.Zoom = v.clamp(v.zoom() * factor)
	v.Pan = screen.Sub(anchor.Scale(v.Zoom))
}

// Scroll zooms at screen by exp(dy/400). Positive dy zooms in.
func (v *Viewport) Scroll(screen tree.Point, dy float64) {
	v.ZoomAt(screen, math.Exp(dy/scrollScale))
}

func (v Viewport) zoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}

func (v Viewport) clamp(z float64) float64 {
	lo, hi := v.MinZoom, v.MaxZoom
	if lo <= 0 {
		lo = DefaultMinZoom
	}
	if hi <= 0 {
		hi = DefaultMaxZoom
	}
	return min(max(z, lo), hi)
}
