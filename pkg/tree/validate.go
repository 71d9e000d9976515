package tree

import (
	"github.com/google/uuid"

	"github.com/matzehuels/famtree/pkg/errors"
)

// Validator enforces the graph invariants of a [Store]: no self-parentage,
// no ancestry cycles, no duplicate parent-child edges and at most one
// spouse edge per unordered pair.
//
// Every check returns a typed error (see [errors.IsStructural]) and never
// mutates the store.
type Validator struct {
	store *Store
}

// CheckParentChild reports whether the edge parent -> child of the given
// kind may be added.
func (v *Validator) CheckParentChild(parent, child uuid.UUID, kind EdgeKind) error {
	if parent == child {
		return errors.New(errors.ErrCodeSelfParent, "%s cannot be its own parent", parent)
	}
	for _, e := range v.store.edges {
		if e.Parent == parent && e.Child == child && e.Kind == kind {
			return errors.New(errors.ErrCodeDuplicateEdge, "%s edge from %s to %s already exists", kind, parent, child)
		}
	}
	if v.IsAncestor(child, parent) {
		return errors.New(errors.ErrCodeCycle, "%s is already an ancestor of %s", child, parent)
	}
	return nil
}

// CheckSpouse reports whether a spouse edge between a and b may be added.
func (v *Validator) CheckSpouse(a, b uuid.UUID) error {
	if a == b {
		return errors.New(errors.ErrCodeSelfSpouse, "%s cannot be their own spouse", a)
	}
	if _, ok := v.store.Spouse(a, b); ok {
		return errors.New(errors.ErrCodeDuplicateSpouse, "%s and %s are already spouses", a, b)
	}
	return nil
}

// IsAncestor reports whether ancestor reaches person by following child
// edges. The breadth-first walk stops after as many levels as there are
// persons, so it terminates on cyclic data too.
func (v *Validator) IsAncestor(ancestor, person uuid.UUID) bool {
	if ancestor == person {
		return false
	}
	seen := map[uuid.UUID]bool{ancestor: true}
	frontier := []uuid.UUID{ancestor}
	for depth := 0; depth <= len(v.store.persons) && len(frontier) > 0; depth++ {
		var next []uuid.UUID
		for _, id := range frontier {
			for _, c := range v.store.children[id] {
				if c == person {
					return true
				}
				if !seen[c] {
					seen[c] = true
					next = append(next, c)
				}
			}
		}
		frontier = next
	}
	return false
}

// Audit reports every invariant violation present in the store. Stores
// built through the mutation methods are always clean; data restored with
// [FromSnapshot] may carry ancestry cycles.
func (v *Validator) Audit() []error {
	var errs []error
	for _, e := range v.store.edges {
		if e.Parent == e.Child {
			errs = append(errs, errors.New(errors.ErrCodeSelfParent, "%s is its own parent", e.Parent))
		}
	}
	for _, cycle := range v.Cycles() {
		errs = append(errs, errors.New(errors.ErrCodeCycle, "ancestry cycle through %d persons starting at %s", len(cycle), cycle[0]))
	}
	for i, a := range v.store.spouses {
		if a.Person1 == a.Person2 {
			errs = append(errs, errors.New(errors.ErrCodeSelfSpouse, "%s is their own spouse", a.Person1))
		}
		for _, b := range v.store.spouses[i+1:] {
			if b.Joins(a.Person1, a.Person2) {
				errs = append(errs, errors.New(errors.ErrCodeDuplicateSpouse, "%s and %s are spouses twice", a.Person1, a.Person2))
			}
		}
	}
	return errs
}

// Cycles returns one representative cycle (as a person id path) per
// back edge found by a depth-first search over child edges. Persons are
// visited in id order so the result is deterministic.
func (v *Validator) Cycles() [][]uuid.UUID {
	const (
		white = iota
		gray
		black
	)

	color := make(map[uuid.UUID]int, len(v.store.persons))
	var stack []uuid.UUID
	var cycles [][]uuid.UUID

	var dfs func(id uuid.UUID)
	dfs = func(id uuid.UUID) {
		color[id] = gray
		stack = append(stack, id)
		for _, child := range sortedIDs(v.store.children[id]) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == child {
						cycles = append(cycles, append([]uuid.UUID(nil), stack[i:]...))
						break
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for _, p := range v.store.Persons() {
		if color[p.ID] == white {
			dfs(p.ID)
		}
	}
	return cycles
}
