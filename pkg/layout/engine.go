package layout

import (
	"io"
	"maps"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/famtree/pkg/errors"
	"github.com/matzehuels/famtree/pkg/observability"
	"github.com/matzehuels/famtree/pkg/tree"
)

// Sink is a [Source] that accepts computed positions. [*tree.Store]
// implements it.
type Sink interface {
	Source
	PlaceNode(ref tree.NodeRef, pos tree.Point) bool
	UnpinAll()
	MarkLayoutFresh()
}

// Result is the outcome of one layout run.
type Result struct {
	// Generations maps every person to its tier.
	Generations map[uuid.UUID]int

	// Tiers lists person ids per generation, left to right.
	Tiers [][]uuid.UUID

	// Positions holds the top-left corner of every node. Pinned nodes are
	// reported at their pinned position.
	Positions map[tree.NodeRef]tree.Point

	// Crossings is the number of parent-child edge crossings between
	// consecutive tiers in the chosen ordering.
	Crossings int

	// Degraded lists persons on or below an ancestry cycle, placed at
	// generation 0. Empty for valid graphs.
	Degraded []uuid.UUID
}

// Warning returns a LAYOUT_DEGRADED error when generations could not be
// derived for every person, nil otherwise.
func (r Result) Warning() error {
	if len(r.Degraded) == 0 {
		return nil
	}
	return errors.New(errors.ErrCodeLayoutDegraded,
		"%d persons sit on or below an ancestry cycle and were placed at generation 0", len(r.Degraded))
}

// Engine computes generation tiers and node positions.
type Engine struct {
	cfg    Config
	logger *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the geometry. Zero fields fall back to defaults.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg.withDefaults() }
}

// WithLogger sets the logger for run summaries.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine with the default geometry and a discarding logger.
func New(opts ...Option) *Engine {
	e := &Engine{
		cfg:    DefaultConfig(),
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine geometry.
func (e *Engine) Config() Config { return e.cfg }

// Compute lays out src without modifying it. Identical input always
// yields identical output.
func (e *Engine) Compute(src Source) Result {
	start := time.Now()
	g := newGraph(src)
	hooks := observability.Layout()
	hooks.OnLayoutStart(g.len())

	gen, degraded := g.generations()
	tiers := tiersOf(gen)
	clusters := g.buildClusters(tiers, gen)
	crossings := g.orderTiers(clusters, e.cfg.Sweeps)

	widths := make([]float64, g.len())
	heights := make([]float64, g.len())
	for i, p := range g.persons {
		widths[i], heights[i] = e.cfg.PersonSize(p)
	}
	xs := e.solveX(g, clusters, widths)

	eventRow := 0
	if len(tiers) > 0 {
		eventRow = len(tiers) - 1 + e.cfg.EventRowGap
	}
	rowY := e.rowOffsets(g, gen, heights, eventRow)

	res := Result{
		Generations: make(map[uuid.UUID]int, g.len()),
		Positions:   make(map[tree.NodeRef]tree.Point, g.len()),
		Crossings:   crossings,
	}
	centre := make(map[uuid.UUID]float64, g.len())
	for i, p := range g.persons {
		res.Generations[p.ID] = gen[i]
		pos := tree.Point{X: xs[i], Y: rowY[gen[i]]}
		if p.Pin == tree.Pinned {
			pos = p.Position
		}
		res.Positions[tree.PersonRef(p.ID)] = pos
		centre[p.ID] = pos.X + widths[i]/2
	}
	for id, pos := range e.placeEvents(src, rowY[eventRow], centre) {
		res.Positions[tree.EventRef(id)] = pos
	}
	for _, row := range flatten(clusters) {
		ids := make([]uuid.UUID, len(row))
		for k, i := range row {
			ids[k] = g.persons[i].ID
		}
		res.Tiers = append(res.Tiers, ids)
	}
	for _, i := range degraded {
		res.Degraded = append(res.Degraded, g.persons[i].ID)
	}

	elapsed := time.Since(start)
	if len(res.Degraded) > 0 {
		e.logger.Warn("ancestry cycle found, generations degraded", "persons", len(res.Degraded))
	}
	e.logger.Debug("computed layout",
		"persons", g.len(),
		"tiers", len(res.Tiers),
		"crossings", crossings,
		"duration", elapsed)
	hooks.OnLayoutComplete(g.len(), elapsed, len(res.Degraded))
	return res
}

// rowOffsets returns the top y of rows 0 through last. Rows are RowHeight
// apart, and a row holding a node taller than NodeHeight pushes the rows
// below it down by the excess. Pinned persons do not count.
func (e *Engine) rowOffsets(g *graph, gen []int, heights []float64, last int) []float64 {
	excess := make([]float64, last+1)
	for i, p := range g.persons {
		if p.Pin == tree.Pinned || gen[i] > last {
			continue
		}
		excess[gen[i]] = max(excess[gen[i]], heights[i]-e.cfg.NodeHeight)
	}
	ys := make([]float64, last+1)
	ys[0] = e.cfg.Origin.Y
	for r := 1; r <= last; r++ {
		ys[r] = ys[r-1] + e.cfg.RowHeight + excess[r-1]
	}
	return ys
}

// Apply computes the layout of sink, writes every unpinned position back
// and marks the layout fresh.
func (e *Engine) Apply(sink Sink) Result {
	res := e.Compute(sink)
	for _, ref := range slices.SortedFunc(maps.Keys(res.Positions), tree.CompareRefs) {
		sink.PlaceNode(ref, res.Positions[ref])
	}
	sink.MarkLayoutFresh()
	return res
}

// Reset unpins every node and re-applies the layout, discarding manual
// placements.
func (e *Engine) Reset(sink Sink) Result {
	sink.UnpinAll()
	return e.Apply(sink)
}
