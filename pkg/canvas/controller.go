package canvas

import (
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/famtree/pkg/layout"
	"github.com/matzehuels/famtree/pkg/tree"
)

// Board is the node-level view of a store the controller works on.
// [*tree.Store] implements it. The controller only ever moves nodes; it
// never touches relationships.
type Board interface {
	NodeRefs() []tree.NodeRef
	NodePosition(ref tree.NodeRef) (tree.Point, tree.PinState, bool)
	NodeLabel(ref tree.NodeRef) string
	MoveNode(ref tree.NodeRef, pos tree.Point) error
}

type gesture int

const (
	idle gesture = iota
	panning
	dragging
)

// Controller turns pointer input into viewport changes, selection changes
// and committed node moves.
type Controller struct {
	board Board
	view  Viewport
	grid  Grid
	cfg   layout.Config

	selected []tree.NodeRef // in selection order

	gesture gesture
	last    tree.Point                  // last pointer position, screen space
	start   tree.Point                  // pointer-down position, world space
	origins map[tree.NodeRef]tree.Point // node positions at pointer-down
	delta   tree.Point                  // current drag offset, world space
}

// Option configures a Controller.
type Option func(*Controller)

// WithGrid sets the snapping grid.
func WithGrid(g Grid) Option {
	return func(c *Controller) { c.grid = g }
}

// WithViewport sets the initial viewport.
func WithViewport(v Viewport) Option {
	return func(c *Controller) { c.view = v }
}

// WithLayoutConfig sizes nodes the same way the layout engine does.
func WithLayoutConfig(cfg layout.Config) Option {
	return func(c *Controller) { c.cfg = cfg }
}

// NewController creates a controller over b with a default viewport, a
// disabled grid and default node sizes.
func NewController(b Board, opts ...Option) *Controller {
	c := &Controller{
		board: b,
		view:  NewViewport(),
		grid:  Grid{Size: DefaultGridSize},
		cfg:   layout.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Viewport returns the current viewport.
func (c *Controller) Viewport() Viewport { return c.view }

// Grid returns the snapping grid.
func (c *Controller) Grid() Grid { return c.grid }

// SetGrid replaces the snapping grid.
func (c *Controller) SetGrid(g Grid) { c.grid = g }

// =============================================================================
// Pointer gestures
// =============================================================================

// PointerDown starts a gesture. Pressing on a node starts dragging it
// (together with the rest of the selection when it is selected); pressing
// on empty canvas starts panning.
func (c *Controller) PointerDown(screen tree.Point) {
	c.last = screen
	c.start = c.view.ToWorld(screen)
	c.delta = tree.Point{}

	ref, ok := c.HitTest(screen)
	if !ok {
		c.gesture = panning
		return
	}
	if !c.Selected(ref) {
		c.selected = []tree.NodeRef{ref}
	}
	c.gesture = dragging
	c.origins = make(map[tree.NodeRef]tree.Point, len(c.selected))
	for _, r := range c.selected {
		if pos, _, ok := c.board.NodePosition(r); ok {
			c.origins[r] = pos
		}
	}
}

// PointerMove continues the current gesture.
func (c *Controller) PointerMove(screen tree.Point) {
	switch c.gesture {
	case panning:
		c.view.PanBy(screen.Sub(c.last))
	case dragging:
		c.delta = c.view.ToWorld(screen).Sub(c.start)
	}
	c.last = screen
}

// PointerUp ends the current gesture. A drag commits the snapped position
// of every dragged node, which pins it.
func (c *Controller) PointerUp(screen tree.Point) error {
	c.PointerMove(screen)
	defer c.endGesture()

	if c.gesture != dragging || c.delta == (tree.Point{}) {
		return nil
	}
	return c.commit(c.origins, c.delta)
}

// Dragging reports whether a node drag is in progress.
func (c *Controller) Dragging() bool { return c.gesture == dragging }

// Position returns where ref is displayed: its stored position, offset by
// the drag delta while it is being dragged.
func (c *Controller) Position(ref tree.NodeRef) (tree.Point, bool) {
	if origin, ok := c.origins[ref]; ok && c.gesture == dragging {
		return origin.Add(c.delta), true
	}
	pos, _, ok := c.board.NodePosition(ref)
	return pos, ok
}

// DragTo moves ref to world in one step, as if it had been dragged there.
// When ref is part of a multi-selection every selected node moves by the
// same delta. Positions are snapped to the grid and pinned.
func (c *Controller) DragTo(ref tree.NodeRef, world tree.Point) error {
	pos, _, ok := c.board.NodePosition(ref)
	if !ok {
		return c.board.MoveNode(ref, world)
	}
	targets := []tree.NodeRef{ref}
	if c.Selected(ref) {
		targets = c.selected
	}
	if len(targets) == 1 {
		return c.board.MoveNode(ref, c.grid.Snap(world))
	}
	origins := make(map[tree.NodeRef]tree.Point, len(targets))
	for _, r := range targets {
		if p, _, ok := c.board.NodePosition(r); ok {
			origins[r] = p
		}
	}
	return c.commit(origins, world.Sub(pos))
}

func (c *Controller) commit(origins map[tree.NodeRef]tree.Point, delta tree.Point) error {
	refs := make([]tree.NodeRef, 0, len(origins))
	for r := range origins {
		refs = append(refs, r)
	}
	slices.SortFunc(refs, tree.CompareRefs)
	for _, r := range refs {
		if err := c.board.MoveNode(r, c.grid.Snap(origins[r].Add(delta))); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) endGesture() {
	c.gesture = idle
	c.origins = nil
	c.delta = tree.Point{}
}

// =============================================================================
// Selection
// =============================================================================

// Click updates the selection. A plain click selects only the node under
// the pointer, or clears the selection on empty canvas. An additive click
// toggles the node under the pointer and keeps the rest.
func (c *Controller) Click(screen tree.Point, additive bool) {
	ref, ok := c.HitTest(screen)
	switch {
	case !ok && !additive:
		c.selected = nil
	case !ok:
	case additive && c.Selected(ref):
		c.selected = slices.DeleteFunc(c.selected, func(r tree.NodeRef) bool { return r == ref })
	case additive:
		c.selected = append(c.selected, ref)
	default:
		c.selected = []tree.NodeRef{ref}
	}
}

// Select replaces the selection.
func (c *Controller) Select(refs ...tree.NodeRef) {
	c.selected = slices.Clone(refs)
}

// Selection returns the selected nodes in selection order.
func (c *Controller) Selection() []tree.NodeRef { return slices.Clone(c.selected) }

// Selected reports whether ref is selected.
func (c *Controller) Selected(ref tree.NodeRef) bool { return slices.Contains(c.selected, ref) }

// ClearSelection deselects everything.
func (c *Controller) ClearSelection() { c.selected = nil }

// =============================================================================
// Viewport
// =============================================================================

// Scroll zooms around the pointer.
func (c *Controller) Scroll(screen tree.Point, dy float64) { c.view.Scroll(screen, dy) }

// PanBy moves the view by a screen-space delta.
func (c *Controller) PanBy(delta tree.Point) { c.view.PanBy(delta) }

// ZoomAt zooms around a screen point.
func (c *Controller) ZoomAt(screen tree.Point, factor float64) { c.view.ZoomAt(screen, factor) }

// =============================================================================
// Hit testing
// =============================================================================

// Rect returns the world-space rectangle of ref.
func (c *Controller) Rect(ref tree.NodeRef) (minPt, maxPt tree.Point, ok bool) {
	pos, ok := c.Position(ref)
	if !ok {
		return tree.Point{}, tree.Point{}, false
	}
	w, h := c.nodeSize(ref)
	return pos, pos.Add(tree.Point{X: w, Y: h}), true
}

// personBoard is implemented by boards that can hand out whole persons, so
// photo nodes get their full height.
type personBoard interface {
	Person(id uuid.UUID) (tree.Person, bool)
}

func (c *Controller) nodeSize(ref tree.NodeRef) (w, h float64) {
	if pb, ok := c.board.(personBoard); ok && ref.Kind == tree.NodePerson {
		if p, ok := pb.Person(ref.ID); ok {
			return c.cfg.PersonSize(p)
		}
	}
	return c.cfg.NodeSize(c.board.NodeLabel(ref))
}

// HitTest returns the topmost node under a screen point. Events are above
// persons and later ids are above earlier ones.
func (c *Controller) HitTest(screen tree.Point) (tree.NodeRef, bool) {
	world := c.view.ToWorld(screen)
	refs := c.board.NodeRefs()
	slices.SortFunc(refs, tree.CompareRefs)
	for i := len(refs) - 1; i >= 0; i-- {
		minPt, maxPt, ok := c.Rect(refs[i])
		if !ok {
			continue
		}
		if world.X >= minPt.X && world.X <= maxPt.X && world.Y >= minPt.Y && world.Y <= maxPt.Y {
			return refs[i], true
		}
	}
	return tree.NodeRef{}, false
}
