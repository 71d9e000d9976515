package tree

import (
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/famtree/pkg/errors"
)

// AddParentChild records parent as a parent of child with the given kind.
// Both persons must exist and the validator must accept the edge; a
// rejected edge leaves the store unchanged. Marks the layout stale.
func (s *Store) AddParentChild(parent, child uuid.UUID, kind EdgeKind) (err error) {
	defer s.observe("add_parent_child", &err)

	if err := s.requirePersons(parent, child); err != nil {
		return err
	}
	if err := s.Validator().CheckParentChild(parent, child, kind); err != nil {
		return err
	}
	s.edges = append(s.edges, ParentChildEdge{Parent: parent, Child: child, Kind: kind})
	s.link(parent, child)
	s.stale = true
	return nil
}

// RemoveParentChild deletes every edge from parent to child, whatever
// its kind.
func (s *Store) RemoveParentChild(parent, child uuid.UUID) (err error) {
	defer s.observe("remove_parent_child", &err)

	if err := s.requirePersons(parent, child); err != nil {
		return err
	}
	n := len(s.edges)
	s.edges = slices.DeleteFunc(s.edges, func(e ParentChildEdge) bool {
		return e.Parent == parent && e.Child == child
	})
	if len(s.edges) == n {
		return errors.New(errors.ErrCodeEdgeNotFound, "no edge from %s to %s", parent, child)
	}
	s.reindex()
	s.stale = true
	return nil
}

// AddSpouse records a spouse relation between a and b. The pair is stored
// in canonical order; adding it again in either order is rejected.
func (s *Store) AddSpouse(a, b uuid.UUID, memo string) (err error) {
	defer s.observe("add_spouse", &err)

	if err := s.requirePersons(a, b); err != nil {
		return err
	}
	if err := s.Validator().CheckSpouse(a, b); err != nil {
		return err
	}
	s.spouses = append(s.spouses, NewSpouseEdge(a, b, memo))
	s.stale = true
	return nil
}

// UpdateSpouse replaces the memo of the spouse edge joining a and b.
func (s *Store) UpdateSpouse(a, b uuid.UUID, memo string) (err error) {
	defer s.observe("update_spouse", &err)

	i := s.spouseIndex(a, b)
	if i < 0 {
		return errSpouseNotFound(a, b)
	}
	s.spouses[i].Memo = memo
	return nil
}

// RemoveSpouse deletes the spouse edge joining a and b in either order.
func (s *Store) RemoveSpouse(a, b uuid.UUID) (err error) {
	defer s.observe("remove_spouse", &err)

	i := s.spouseIndex(a, b)
	if i < 0 {
		return errSpouseNotFound(a, b)
	}
	s.spouses = slices.Delete(s.spouses, i, i+1)
	s.stale = true
	return nil
}

func (s *Store) spouseIndex(a, b uuid.UUID) int {
	return slices.IndexFunc(s.spouses, func(e SpouseEdge) bool { return e.Joins(a, b) })
}

func (s *Store) requirePersons(ids ...uuid.UUID) error {
	for _, id := range ids {
		if !s.hasPerson(id) {
			return errPersonNotFound(id)
		}
	}
	return nil
}

func errSpouseNotFound(a, b uuid.UUID) error {
	return errors.New(errors.ErrCodeEdgeNotFound, "no spouse edge between %s and %s", a, b)
}
