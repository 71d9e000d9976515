package layout

import (
	"cmp"
	"math"
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/famtree/pkg/tree"
)

// placed is the extent of one cluster after x assignment.
type placed struct {
	c      *cluster
	xs     []float64 // per member, same order as c.members
	anchor bool      // holds at least one pinned member
}

func (p *placed) left() float64 { return slices.Min(p.xs) }

func (p *placed) right(widths []float64) float64 {
	r := math.Inf(-1)
	for k, x := range p.xs {
		r = max(r, x+widths[p.c.members[k]])
	}
	return r
}

func (p *placed) shift(dx float64) {
	for i := range p.xs {
		p.xs[i] += dx
	}
}

// tiersOf buckets person indices by generation, each bucket in id order.
func tiersOf(gen []int) [][]int {
	depth := 0
	for _, g := range gen {
		depth = max(depth, g+1)
	}
	tiers := make([][]int, depth)
	for i, g := range gen {
		tiers[g] = append(tiers[g], i)
	}
	return tiers
}

// solveX assigns an x to every person.
//
// Members of a cluster are packed with SpouseGap. A cluster holding pinned
// members is an anchor: its pinned members keep their x and unpinned
// members sit next to them. Anchors are ordered by pinned x. Unpinned
// clusters before the first anchor of a tier are packed right-to-left
// against it; the rest are packed left-to-right after everything placed
// before them, skipping over anchors they would overlap.
// Tiers without anchors are centred on the widest free tier.
func (e *Engine) solveX(g *graph, clusters [][]*cluster, widths []float64) []float64 {
	cfg := e.cfg
	xs := make([]float64, g.len())
	rows := make([][]*placed, len(clusters))

	for t, row := range clusters {
		rows[t] = make([]*placed, len(row))
		for k, c := range row {
			rows[t][k] = e.placeCluster(g, c, widths)
		}
		sortAnchors(rows[t])
	}

	gap := func(a, b *placed) float64 {
		if len(a.c.members) > 1 || len(b.c.members) > 1 {
			return cfg.ClusterGap
		}
		return cfg.NodeGap
	}

	free := make([]float64, len(rows))
	widest := 0.0
	for t, row := range rows {
		if slices.ContainsFunc(row, func(p *placed) bool { return p.anchor }) {
			continue
		}
		cursor := 0.0
		for k, p := range row {
			if k > 0 {
				cursor += gap(row[k-1], p)
			}
			cursor += p.right(widths) - p.left()
		}
		free[t] = cursor
		widest = max(widest, cursor)
	}

	for t, row := range rows {
		first := slices.IndexFunc(row, func(p *placed) bool { return p.anchor })
		if first < 0 {
			cursor := cfg.Origin.X + (widest-free[t])/2
			for k, p := range row {
				if k > 0 {
					cursor += gap(row[k-1], p)
				}
				p.shift(cursor - p.left())
				cursor = p.right(widths)
			}
		} else {
			for k := first - 1; k >= 0; k-- {
				next := row[k+1]
				p := row[k]
				p.shift(next.left() - gap(p, next) - p.right(widths))
			}
			e.packAfter(row, first, widths, gap)
		}
		for _, p := range row {
			for m, i := range p.c.members {
				xs[i] = p.xs[m]
			}
		}
	}
	return xs
}

// packAfter places the unpinned clusters that follow the first anchor of
// row. Each starts a gap after the rightmost cluster placed so far and is
// pushed past any later anchor it would overlap.
func (e *Engine) packAfter(row []*placed, first int, widths []float64, gap func(a, b *placed) float64) {
	last := row[first]
	limit := last.right(widths)
	for k := first + 1; k < len(row); k++ {
		p := row[k]
		if p.anchor {
			if r := p.right(widths); r >= limit {
				last, limit = p, r
			}
			continue
		}
		x := limit + gap(last, p)
		width := p.right(widths) - p.left()
		for _, q := range row[k+1:] {
			if !q.anchor {
				continue
			}
			if x+width+gap(p, q) > q.left() && x < q.right(widths)+gap(q, p) {
				x = q.right(widths) + gap(q, p)
			}
		}
		p.shift(x - p.left())
		last, limit = p, p.right(widths)
	}
}

// placeCluster lays out the members of c relative to each other. Pinned
// members keep their x; members after a placed member follow it and members
// before the first pinned member precede it.
func (e *Engine) placeCluster(g *graph, c *cluster, widths []float64) *placed {
	p := &placed{c: c, xs: make([]float64, len(c.members))}
	firstPinned := -1
	for k, i := range c.members {
		if g.persons[i].Pin == tree.Pinned {
			p.xs[k] = g.persons[i].Position.X
			p.anchor = true
			if firstPinned < 0 {
				firstPinned = k
			}
		}
	}
	if firstPinned < 0 {
		firstPinned = 0
	}
	for k := firstPinned + 1; k < len(c.members); k++ {
		if g.persons[c.members[k]].Pin != tree.Pinned {
			prev := c.members[k-1]
			p.xs[k] = p.xs[k-1] + widths[prev] + e.cfg.SpouseGap
		}
	}
	for k := firstPinned - 1; k >= 0; k-- {
		i := c.members[k]
		p.xs[k] = p.xs[k+1] - e.cfg.SpouseGap - widths[i]
	}
	return p
}

// sortAnchors reorders the anchors of a row by their pinned x while keeping
// them in the slots anchors already occupy, so unpinned clusters keep their
// barycenter order between anchors.
func sortAnchors(row []*placed) {
	var slots []int
	var anchors []*placed
	for k, p := range row {
		if p.anchor {
			slots = append(slots, k)
			anchors = append(anchors, p)
		}
	}
	slices.SortStableFunc(anchors, func(a, b *placed) int {
		if c := cmp.Compare(a.left(), b.left()); c != 0 {
			return c
		}
		return a.c.minID - b.c.minID
	})
	for k, slot := range slots {
		row[slot] = anchors[k]
	}
}

// placeEvents positions unpinned events on the row at y below the deepest
// tier, ordered by the mean centre x of their linked persons. Events
// without linked persons follow in id order.
func (e *Engine) placeEvents(src Source, y float64, centre map[uuid.UUID]float64) map[uuid.UUID]tree.Point {
	cfg := e.cfg
	events := src.Events()
	links := src.EventLinks()

	type want struct {
		ev  tree.Event
		x   float64
		has bool
	}
	var queue []want
	out := make(map[uuid.UUID]tree.Point, len(events))
	for _, ev := range events {
		if ev.Pin == tree.Pinned {
			out[ev.ID] = ev.Position
			continue
		}
		var sum float64
		var n int
		for _, l := range links {
			if x, ok := centre[l.Person]; ok && l.Event == ev.ID {
				sum += x
				n++
			}
		}
		w := want{ev: ev}
		if n > 0 {
			w.x, w.has = sum/float64(n), true
		}
		queue = append(queue, w)
	}
	slices.SortStableFunc(queue, func(a, b want) int {
		if a.has != b.has {
			if a.has {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(a.x, b.x); c != 0 {
			return c
		}
		return tree.CompareIDs(a.ev.ID, b.ev.ID)
	})

	cursor := math.Inf(-1)
	for _, w := range queue {
		width, _ := cfg.NodeSize(w.ev.Name)
		x := cfg.Origin.X
		if w.has {
			x = w.x - width/2
		}
		x = max(x, cursor)
		out[w.ev.ID] = tree.Point{X: x, Y: y}
		cursor = x + width + cfg.NodeGap
	}
	return out
}
