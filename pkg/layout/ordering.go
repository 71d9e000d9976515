package layout

import (
	"cmp"
	"slices"
)

// cluster is a run of same-generation spouses placed side by side.
type cluster struct {
	members []int // left-to-right
	minID   int   // smallest member index, the tie breaker
}

// buildClusters groups each tier into spouse components restricted to the
// tier and linearizes every component. The walk starts at the smallest
// member with at most one in-tier spouse (a chain end), or at the smallest
// member when the component is a ring, and visits spouses in id order.
func (g *graph) buildClusters(tiers [][]int, gen []int) [][]*cluster {
	out := make([][]*cluster, len(tiers))
	seen := make([]bool, g.len())

	for t, tier := range tiers {
		for _, start := range tier {
			if seen[start] {
				continue
			}
			comp := g.spouseComponent(start, gen)
			head := comp[0]
			for _, m := range comp {
				if len(g.tierSpouses(m, gen)) <= 1 {
					head = m
					break
				}
			}

			c := &cluster{minID: comp[0]}
			var walk func(int)
			walk = func(i int) {
				seen[i] = true
				c.members = append(c.members, i)
				for _, sp := range g.tierSpouses(i, gen) {
					if !seen[sp] {
						walk(sp)
					}
				}
			}
			walk(head)
			out[t] = append(out[t], c)
		}
		slices.SortFunc(out[t], func(a, b *cluster) int { return a.minID - b.minID })
	}
	return out
}

// spouseComponent returns the sorted members of the same-generation spouse
// component containing start.
func (g *graph) spouseComponent(start int, gen []int) []int {
	comp := []int{start}
	visited := map[int]bool{start: true}
	for k := 0; k < len(comp); k++ {
		for _, sp := range g.tierSpouses(comp[k], gen) {
			if !visited[sp] {
				visited[sp] = true
				comp = append(comp, sp)
			}
		}
	}
	slices.Sort(comp)
	return comp
}

// tierSpouses returns the spouses of i in its own generation, in id order.
func (g *graph) tierSpouses(i int, gen []int) []int {
	var out []int
	for _, sp := range g.spouses[i] {
		if gen[sp] == gen[i] {
			out = append(out, sp)
		}
	}
	slices.Sort(out)
	return out
}

// flatten returns the person order of each tier.
func flatten(clusters [][]*cluster) [][]int {
	out := make([][]int, len(clusters))
	for t, row := range clusters {
		for _, c := range row {
			out[t] = append(out[t], c.members...)
		}
	}
	return out
}

// orderTiers reorders the clusters of every tier with alternating
// barycenter sweeps and keeps the arrangement with the fewest crossings.
// The last sweep always runs bottom-up. It returns the crossing count of the
// kept arrangement.
func (g *graph) orderTiers(clusters [][]*cluster, sweeps int) int {
	best := cloneClusters(clusters)
	bestCrossings := g.countCrossings(flatten(clusters))

	for i := range sweeps {
		if bestCrossings == 0 {
			break
		}
		up := (sweeps-1-i)%2 == 0
		if up {
			for t := len(clusters) - 2; t >= 0; t-- {
				g.reorderTier(clusters, t, false)
			}
		} else {
			for t := 1; t < len(clusters); t++ {
				g.reorderTier(clusters, t, true)
			}
		}
		if c := g.countCrossings(flatten(clusters)); c < bestCrossings {
			best, bestCrossings = cloneClusters(clusters), c
		}
	}

	copy(clusters, best)
	return bestCrossings
}

// reorderTier sorts the clusters of tier t by the mean slot of their
// parents (byParents) or children. A cluster without neighbours in that
// direction keeps its current mean slot.
func (g *graph) reorderTier(clusters [][]*cluster, t int, byParents bool) {
	slots := make(map[int]float64)
	for _, row := range clusters {
		pos := 0
		for _, c := range row {
			for _, m := range c.members {
				slots[m] = float64(pos)
				pos++
			}
		}
	}

	type keyed struct {
		c   *cluster
		key float64
	}
	row := make([]keyed, len(clusters[t]))
	for k, c := range clusters[t] {
		var sum, own float64
		var n int
		for _, m := range c.members {
			own += slots[m]
			neighbours := g.children[m]
			if byParents {
				neighbours = g.parents[m]
			}
			for _, nb := range neighbours {
				if s, ok := slots[nb]; ok {
					sum += s
					n++
				}
			}
		}
		key := own / float64(len(c.members))
		if n > 0 {
			key = sum / float64(n)
		}
		row[k] = keyed{c, key}
	}

	slices.SortStableFunc(row, func(a, b keyed) int {
		if c := cmp.Compare(a.key, b.key); c != 0 {
			return c
		}
		return a.c.minID - b.c.minID
	})
	for k := range row {
		clusters[t][k] = row[k].c
	}
}

func cloneClusters(clusters [][]*cluster) [][]*cluster {
	out := make([][]*cluster, len(clusters))
	for t := range clusters {
		out[t] = slices.Clone(clusters[t])
	}
	return out
}
