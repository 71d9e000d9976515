package layout

import "slices"

// posMap maps each person index in order to its slot.
func posMap(order []int) map[int]int {
	m := make(map[int]int, len(order))
	for i, v := range order {
		m[v] = i
	}
	return m
}

// countCrossings sums the parent-child edge crossings between each pair of
// consecutive tiers. Edges that skip a tier are not counted.
func (g *graph) countCrossings(tiers [][]int) int {
	crossings := 0
	for t := 0; t+1 < len(tiers); t++ {
		crossings += g.countTierCrossings(tiers[t], tiers[t+1])
	}
	return crossings
}

// countTierCrossings counts crossings between an upper and a lower tier
// with a Fenwick tree. Two edges (u1,v1) and (u2,v2) cross if and only if
// pos(u1) < pos(u2) and pos(v1) > pos(v2), so the count is the number of
// inversions of lower positions once edges are sorted by upper position.
func (g *graph) countTierCrossings(upper, lower []int) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}
	lowerPos := posMap(lower)

	type edge struct{ upper, lower int }
	edges := make([]edge, 0, len(upper)*2)
	for i, p := range upper {
		for _, child := range g.children[p] {
			if pos, ok := lowerPos[child]; ok {
				edges = append(edges, edge{i, pos})
			}
		}
	}
	if len(edges) < 2 {
		return 0
	}

	slices.SortFunc(edges, func(a, b edge) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	fenwick := make([]int, len(lower)+1)
	crossings, total := 0, 0
	for _, e := range edges {
		lessOrEqual := 0
		for q := e.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual

		total++
		for idx := e.lower + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}
