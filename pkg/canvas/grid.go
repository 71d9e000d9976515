package canvas

import (
	"math"

	"github.com/matzehuels/famtree/pkg/tree"
)

// DefaultGridSize is the grid spacing in world units.
const DefaultGridSize = 50.0

// Grid is the snapping grid drawn behind the canvas.
type Grid struct {
	Size    float64
	Enabled bool
}

// Snap rounds each axis of p to the nearest multiple of Size. A disabled
// grid or a non-positive size returns p unchanged.
func (g Grid) Snap(p tree.Point) tree.Point {
	if !g.Enabled || g.Size <= 0 {
		return p
	}
	return tree.Point{
		X: math.Round(p.X/g.Size) * g.Size,
		Y: math.Round(p.Y/g.Size) * g.Size,
	}
}

// Lines returns the world coordinates of the vertical and horizontal grid
// lines that intersect the rectangle [min, max].
func (g Grid) Lines(minPt, maxPt tree.Point) (xs, ys []float64) {
	if g.Size <= 0 {
		return nil, nil
	}
	for x := math.Ceil(minPt.X/g.Size) * g.Size; x <= maxPt.X; x += g.Size {
		xs = append(xs, x)
	}
	for y := math.Ceil(minPt.Y/g.Size) * g.Size; y <= maxPt.Y; y += g.Size {
		ys = append(ys, y)
	}
	return xs, ys
}
