package tree

import (
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/famtree/pkg/errors"
	"github.com/matzehuels/famtree/pkg/observability"
)

// Store owns the genealogy graph: persons, parent-child edges, spouse
// edges, families, events and event links. All mutations go through its
// methods; edge mutations are checked by the store's [Validator] before
// they are committed.
//
// The zero value is not usable - use [New] or [FromSnapshot].
// Store is not safe for concurrent use without external synchronization.
type Store struct {
	persons  map[uuid.UUID]*Person
	edges    []ParentChildEdge
	spouses  []SpouseEdge
	families []*Family
	events   map[uuid.UUID]*Event
	links    []EventLink

	children map[uuid.UUID][]uuid.UUID // parent -> distinct children
	parents  map[uuid.UUID][]uuid.UUID // child -> distinct parents

	stale bool
	newID func() uuid.UUID
}

// Option configures a Store.
type Option func(*Store)

// WithIDSource sets the generator used for new person, family and event
// ids. The default is uuid.New.
func WithIDSource(fn func() uuid.UUID) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		persons:  make(map[uuid.UUID]*Person),
		events:   make(map[uuid.UUID]*Event),
		children: make(map[uuid.UUID][]uuid.UUID),
		parents:  make(map[uuid.UUID][]uuid.UUID),
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validator returns the relationship validator bound to this store.
func (s *Store) Validator() *Validator { return &Validator{store: s} }

// LayoutStale reports whether a structural mutation happened since the
// last [Store.MarkLayoutFresh].
func (s *Store) LayoutStale() bool { return s.stale }

// MarkLayoutFresh clears the stale flag. The layout engine calls it after
// writing positions back.
func (s *Store) MarkLayoutFresh() { s.stale = false }

// Len returns the number of persons.
func (s *Store) Len() int { return len(s.persons) }

func (s *Store) observe(op string, errp *error) {
	observability.Store().OnMutation(op, *errp)
}

// nodeIDTaken reports whether a person or an event already uses id.
func (s *Store) nodeIDTaken(id uuid.UUID) bool {
	return s.hasPerson(id) || s.events[id] != nil
}

func (s *Store) allocID(taken func(uuid.UUID) bool) uuid.UUID {
	for {
		id := s.newID()
		if id != uuid.Nil && !taken(id) {
			return id
		}
	}
}

// =============================================================================
// Persons
// =============================================================================

// AddPerson validates p and inserts it. A zero p.ID is replaced with a
// fresh id; a non-zero id must not already be in use. Position and pin
// state are kept as given. Marks the layout stale.
func (s *Store) AddPerson(p Person) (id uuid.UUID, err error) {
	defer s.observe("add_person", &err)

	p.normalize()
	if err := errors.ValidateStruct(p); err != nil {
		return uuid.Nil, err
	}
	if p.ID == uuid.Nil {
		p.ID = s.allocID(s.nodeIDTaken)
	} else if s.nodeIDTaken(p.ID) {
		return uuid.Nil, errors.New(errors.ErrCodeDuplicateID, "id %s already in use", p.ID)
	}
	s.persons[p.ID] = &p
	s.stale = true
	return p.ID, nil
}

// UpdatePerson replaces the descriptive fields (name, gender, dates,
// deceased flag, memo, photo settings) of an existing person. Position and
// pin state are left unchanged. The layout is marked stale only when the
// photo settings change, since they decide the node height.
func (s *Store) UpdatePerson(p Person) (err error) {
	defer s.observe("update_person", &err)

	cur, ok := s.persons[p.ID]
	if !ok {
		return errPersonNotFound(p.ID)
	}
	p.normalize()
	if err := errors.ValidateStruct(p); err != nil {
		return err
	}
	cur.Name = p.Name
	cur.Gender = p.Gender
	cur.Birth = p.Birth
	cur.Death = p.Death
	cur.Deceased = p.Deceased
	cur.Memo = p.Memo
	if cur.PhotoPath != p.PhotoPath || cur.Display != p.Display || cur.Scale() != p.Scale() {
		s.stale = true
	}
	cur.PhotoPath = p.PhotoPath
	cur.Display = p.Display
	cur.PhotoScale = p.PhotoScale
	return nil
}

// RemovePerson deletes a person together with every parent-child edge,
// spouse edge, event link and family membership that references it.
func (s *Store) RemovePerson(id uuid.UUID) (err error) {
	defer s.observe("remove_person", &err)

	if !s.hasPerson(id) {
		return errPersonNotFound(id)
	}
	delete(s.persons, id)
	s.edges = slices.DeleteFunc(s.edges, func(e ParentChildEdge) bool {
		return e.Parent == id || e.Child == id
	})
	s.spouses = slices.DeleteFunc(s.spouses, func(e SpouseEdge) bool {
		return e.Person1 == id || e.Person2 == id
	})
	s.links = slices.DeleteFunc(s.links, func(l EventLink) bool { return l.Person == id })
	for _, f := range s.families {
		f.Members = slices.DeleteFunc(f.Members, func(m uuid.UUID) bool { return m == id })
	}
	s.reindex()
	s.stale = true
	return nil
}

// Person returns a copy of the person with the given id.
func (s *Store) Person(id uuid.UUID) (Person, bool) {
	p, ok := s.persons[id]
	if !ok {
		return Person{}, false
	}
	return *p, true
}

// Persons returns copies of all persons ordered by id.
func (s *Store) Persons() []Person {
	out := make([]Person, 0, len(s.persons))
	for _, p := range s.persons {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b Person) int { return CompareIDs(a.ID, b.ID) })
	return out
}

// FindPersons returns persons whose id starts with query or whose name
// equals query case-insensitively, ordered by id. An exact id match wins.
func (s *Store) FindPersons(query string) []Person {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if id, err := uuid.Parse(query); err == nil {
		if p, ok := s.Person(id); ok {
			return []Person{p}
		}
	}
	lower := strings.ToLower(query)
	var out []Person
	for _, p := range s.Persons() {
		if strings.HasPrefix(p.ID.String(), lower) || strings.EqualFold(p.Name, query) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) hasPerson(id uuid.UUID) bool {
	_, ok := s.persons[id]
	return ok
}

// =============================================================================
// Relationship queries
// =============================================================================

// ParentsOf returns the distinct parents of id ordered by id.
func (s *Store) ParentsOf(id uuid.UUID) []uuid.UUID { return sortedIDs(s.parents[id]) }

// ChildrenOf returns the distinct children of id ordered by id.
func (s *Store) ChildrenOf(id uuid.UUID) []uuid.UUID { return sortedIDs(s.children[id]) }

// SpousesOf returns the spouses of id ordered by id.
func (s *Store) SpousesOf(id uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	for _, e := range s.spouses {
		if o := e.Other(id); o != uuid.Nil {
			out = append(out, o)
		}
	}
	return sortedIDs(out)
}

// Spouse returns the spouse edge joining a and b in either order.
func (s *Store) Spouse(a, b uuid.UUID) (SpouseEdge, bool) {
	for _, e := range s.spouses {
		if e.Joins(a, b) {
			return e, true
		}
	}
	return SpouseEdge{}, false
}

// Roots returns the ids of persons without recorded parents, ordered by id.
func (s *Store) Roots() []uuid.UUID {
	var out []uuid.UUID
	for id := range s.persons {
		if len(s.parents[id]) == 0 {
			out = append(out, id)
		}
	}
	return sortedIDs(out)
}

// ParentChildEdges returns a copy of all parent-child edges in insertion order.
func (s *Store) ParentChildEdges() []ParentChildEdge { return slices.Clone(s.edges) }

// SpouseEdges returns a copy of all spouse edges in insertion order.
func (s *Store) SpouseEdges() []SpouseEdge { return slices.Clone(s.spouses) }

// reindex rebuilds the parent/child adjacency from the edge list.
func (s *Store) reindex() {
	s.children = make(map[uuid.UUID][]uuid.UUID, len(s.persons))
	s.parents = make(map[uuid.UUID][]uuid.UUID, len(s.persons))
	for _, e := range s.edges {
		s.link(e.Parent, e.Child)
	}
}

// link records parent -> child in the adjacency index once per pair.
func (s *Store) link(parent, child uuid.UUID) {
	if slices.Contains(s.children[parent], child) {
		return
	}
	s.children[parent] = append(s.children[parent], child)
	s.parents[child] = append(s.parents[child], parent)
}

func sortedIDs(ids []uuid.UUID) []uuid.UUID {
	out := slices.Clone(ids)
	slices.SortFunc(out, CompareIDs)
	return out
}

func errPersonNotFound(id uuid.UUID) error {
	return errors.New(errors.ErrCodePersonNotFound, "person %s not found", id)
}
