package tree

import (
	"slices"

	"github.com/matzehuels/famtree/pkg/errors"
)

// NodePosition returns the position and pin state of a canvas node.
func (s *Store) NodePosition(ref NodeRef) (Point, PinState, bool) {
	switch ref.Kind {
	case NodePerson:
		if p, ok := s.persons[ref.ID]; ok {
			return p.Position, p.Pin, true
		}
	case NodeEvent:
		if ev, ok := s.events[ref.ID]; ok {
			return ev.Position, ev.Pin, true
		}
	}
	return Point{}, Auto, false
}

// NodeLabel returns the display label of a canvas node.
func (s *Store) NodeLabel(ref NodeRef) string {
	switch ref.Kind {
	case NodePerson:
		if p, ok := s.persons[ref.ID]; ok {
			return p.Name
		}
	case NodeEvent:
		if ev, ok := s.events[ref.ID]; ok {
			return ev.Name
		}
	}
	return ""
}

// NodeRefs returns every person and event node, persons first, each group
// ordered by id.
func (s *Store) NodeRefs() []NodeRef {
	refs := make([]NodeRef, 0, len(s.persons)+len(s.events))
	for id := range s.persons {
		refs = append(refs, PersonRef(id))
	}
	for id := range s.events {
		refs = append(refs, EventRef(id))
	}
	slices.SortFunc(refs, CompareRefs)
	return refs
}

// MoveNode writes a user-chosen position and pins the node so the layout
// engine leaves it alone until [Store.UnpinAll].
func (s *Store) MoveNode(ref NodeRef, pos Point) (err error) {
	defer s.observe("move_node", &err)

	switch ref.Kind {
	case NodePerson:
		p, ok := s.persons[ref.ID]
		if !ok {
			return errPersonNotFound(ref.ID)
		}
		p.Position, p.Pin = pos, Pinned
	case NodeEvent:
		ev, ok := s.events[ref.ID]
		if !ok {
			return errEventNotFound(ref.ID)
		}
		ev.Position, ev.Pin = pos, Pinned
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown node kind %d", int(ref.Kind))
	}
	return nil
}

// PlaceNode writes an engine-computed position. Pinned and unknown nodes
// are left untouched and PlaceNode reports false.
func (s *Store) PlaceNode(ref NodeRef, pos Point) bool {
	switch ref.Kind {
	case NodePerson:
		if p, ok := s.persons[ref.ID]; ok && p.Pin == Auto {
			p.Position = pos
			return true
		}
	case NodeEvent:
		if ev, ok := s.events[ref.ID]; ok && ev.Pin == Auto {
			ev.Position = pos
			return true
		}
	}
	return false
}

// UnpinAll returns every node to engine-managed placement.
func (s *Store) UnpinAll() {
	for _, p := range s.persons {
		p.Pin = Auto
	}
	for _, ev := range s.events {
		ev.Pin = Auto
	}
}

// PinAll pins every node at its current position.
func (s *Store) PinAll() {
	for _, p := range s.persons {
		p.Pin = Pinned
	}
	for _, ev := range s.events {
		ev.Pin = Pinned
	}
}
