package layout

import (
	"github.com/google/uuid"

	"github.com/matzehuels/famtree/pkg/tree"
)

// Source is the read side of a genealogy store. [*tree.Store] implements it.
type Source interface {
	Persons() []tree.Person
	Events() []tree.Event
	EventLinks() []tree.EventLink
	ParentsOf(id uuid.UUID) []uuid.UUID
	ChildrenOf(id uuid.UUID) []uuid.UUID
	SpousesOf(id uuid.UUID) []uuid.UUID
}

// graph is an index-based copy of the person graph. Persons are numbered in
// id order, so comparing indices compares ids.
type graph struct {
	persons  []tree.Person
	index    map[uuid.UUID]int
	parents  [][]int
	children [][]int
	spouses  [][]int
}

func newGraph(src Source) *graph {
	persons := src.Persons()
	g := &graph{
		persons:  persons,
		index:    make(map[uuid.UUID]int, len(persons)),
		parents:  make([][]int, len(persons)),
		children: make([][]int, len(persons)),
		spouses:  make([][]int, len(persons)),
	}
	for i, p := range persons {
		g.index[p.ID] = i
	}
	resolve := func(ids []uuid.UUID) []int {
		out := make([]int, 0, len(ids))
		for _, id := range ids {
			if j, ok := g.index[id]; ok {
				out = append(out, j)
			}
		}
		return out
	}
	for i, p := range persons {
		g.parents[i] = resolve(src.ParentsOf(p.ID))
		g.children[i] = resolve(src.ChildrenOf(p.ID))
		g.spouses[i] = resolve(src.SpousesOf(p.ID))
	}
	return g
}

func (g *graph) len() int { return len(g.persons) }

// longestPath runs Kahn's algorithm: every released person sits one below
// its deepest parent and never above its floor. Persons whose in-degree never
// drops to zero are reported as not released.
func (g *graph) longestPath(floor []int) (gen []int, released []bool) {
	n := g.len()
	gen = make([]int, n)
	released = make([]bool, n)
	inDegree := make([]int, n)
	queue := make([]int, 0, n)

	for i := range n {
		gen[i] = floor[i]
		inDegree[i] = len(g.parents[i])
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		released[curr] = true

		for _, child := range g.children[curr] {
			if row := gen[curr] + 1; row > gen[child] {
				gen[child] = row
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}
	return gen, released
}

// descendants marks every person reachable from i through child edges.
func (g *graph) descendants(i int) []bool {
	seen := make([]bool, g.len())
	stack := append([]int(nil), g.children[i]...)
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[curr] {
			continue
		}
		seen[curr] = true
		stack = append(stack, g.children[curr]...)
	}
	return seen
}

// generations computes the generation of every person.
//
// Parentless persons with spouses are leveled with their deepest spouse,
// ignoring spouses that descend from them. Raising such a person can push
// its descendants (and in turn their spouses) down, so leveling repeats
// until nothing changes, at most once per person. Persons still moving
// after that are put back on their own floor and returned as degraded, as
// are persons on or below an ancestry cycle, which Kahn's pass never
// releases and which are put at generation 0.
func (g *graph) generations() (gen []int, degraded []int) {
	n := g.len()
	floor := make([]int, n)

	leveled := make(map[int][]int)
	for i := range n {
		if len(g.parents[i]) > 0 || len(g.spouses[i]) == 0 {
			continue
		}
		below := g.descendants(i)
		for _, sp := range g.spouses[i] {
			if !below[sp] {
				leveled[i] = append(leveled[i], sp)
			}
		}
	}

	var released []bool
	unstable := make([]bool, n)
	for pass := 0; ; pass++ {
		gen, released = g.longestPath(floor)
		changed := make([]bool, n)
		moved := false
		for i, spouses := range leveled {
			if !released[i] {
				continue
			}
			for _, sp := range spouses {
				if released[sp] && gen[sp] > floor[i] {
					floor[i] = gen[sp]
					changed[i], moved = true, true
				}
			}
		}
		if !moved {
			break
		}
		if pass == n {
			for i := range n {
				if changed[i] {
					floor[i], unstable[i] = 0, true
				}
			}
			gen, released = g.longestPath(floor)
			break
		}
	}

	for i := range n {
		switch {
		case !released[i]:
			gen[i] = 0
			degraded = append(degraded, i)
		case unstable[i]:
			degraded = append(degraded, i)
		}
	}
	return gen, degraded
}

// Generations returns the generation of every person in src, and the ids of
// persons whose generation could not be derived because they sit on or
// below an ancestry cycle. Those persons are reported at generation 0.
func Generations(src Source) (map[uuid.UUID]int, []uuid.UUID) {
	g := newGraph(src)
	gen, degraded := g.generations()

	out := make(map[uuid.UUID]int, g.len())
	for i, p := range g.persons {
		out[p.ID] = gen[i]
	}
	ids := make([]uuid.UUID, len(degraded))
	for k, i := range degraded {
		ids[k] = g.persons[i].ID
	}
	return out, ids
}
