package tree

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Snapshot is a plain-data copy of a store, used by persistence layers.
// Pin state is not part of the persisted model.
type Snapshot struct {
	Persons  []Person
	Edges    []ParentChildEdge
	Spouses  []SpouseEdge
	Families []Family
	Events   []Event
	Links    []EventLink
}

// LoadReport counts the records [FromSnapshot] dropped because they were
// malformed: nil or repeated ids, references to missing persons or events,
// self-edges and duplicates.
type LoadReport struct {
	Persons  int
	Edges    int
	Spouses  int
	Families int
	Members  int
	Events   int
	Links    int
}

// Total returns the number of dropped records.
func (r LoadReport) Total() int {
	return r.Persons + r.Edges + r.Spouses + r.Families + r.Members + r.Events + r.Links
}

// Add returns the field-wise sum of r and o.
func (r LoadReport) Add(o LoadReport) LoadReport {
	return LoadReport{
		Persons:  r.Persons + o.Persons,
		Edges:    r.Edges + o.Edges,
		Spouses:  r.Spouses + o.Spouses,
		Families: r.Families + o.Families,
		Members:  r.Members + o.Members,
		Events:   r.Events + o.Events,
		Links:    r.Links + o.Links,
	}
}

func (r LoadReport) String() string {
	if r.Total() == 0 {
		return "nothing dropped"
	}
	var parts []string
	add := func(n int, what string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, what))
		}
	}
	add(r.Persons, "persons")
	add(r.Edges, "parent-child edges")
	add(r.Spouses, "spouse edges")
	add(r.Families, "families")
	add(r.Members, "family members")
	add(r.Events, "events")
	add(r.Links, "event links")
	return "dropped " + strings.Join(parts, ", ")
}

// Snapshot returns a deep copy of the store contents. Persons and events
// are ordered by id; edges, spouses, families and links keep store order.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Persons:  s.Persons(),
		Edges:    s.ParentChildEdges(),
		Spouses:  s.SpouseEdges(),
		Families: s.Families(),
		Events:   s.Events(),
		Links:    s.EventLinks(),
	}
}

// FromSnapshot rebuilds a store from persisted data. Unlike the mutation
// methods it does not run the validator on edges: dangling and duplicate
// records are dropped and counted, while ancestry cycles are kept so the
// layout engine can report them. Every loaded node is pinned at its
// stored position.
func FromSnapshot(snap Snapshot, opts ...Option) (*Store, LoadReport) {
	s := New(opts...)
	var r LoadReport

	for _, p := range snap.Persons {
		if p.ID == uuid.Nil || s.hasPerson(p.ID) {
			r.Persons++
			continue
		}
		p.normalize()
		p.Pin = Pinned
		s.persons[p.ID] = &p
	}

	for _, ev := range snap.Events {
		if ev.ID == uuid.Nil || s.events[ev.ID] != nil || s.hasPerson(ev.ID) {
			r.Events++
			continue
		}
		ev.Pin = Pinned
		s.events[ev.ID] = &ev
	}

	for _, e := range snap.Edges {
		dup := slices.Contains(s.edges, e)
		if e.Parent == e.Child || !s.hasPerson(e.Parent) || !s.hasPerson(e.Child) || dup {
			r.Edges++
			continue
		}
		s.edges = append(s.edges, e)
		s.link(e.Parent, e.Child)
	}

	for _, e := range snap.Spouses {
		if e.Person1 == e.Person2 || !s.hasPerson(e.Person1) || !s.hasPerson(e.Person2) {
			r.Spouses++
			continue
		}
		if _, dup := s.Spouse(e.Person1, e.Person2); dup {
			r.Spouses++
			continue
		}
		s.spouses = append(s.spouses, NewSpouseEdge(e.Person1, e.Person2, e.Memo))
	}

	for _, f := range snap.Families {
		if f.ID == uuid.Nil || s.familyIndex(f.ID) >= 0 {
			r.Families++
			continue
		}
		members := make([]uuid.UUID, 0, len(f.Members))
		for _, m := range f.Members {
			if !s.hasPerson(m) || slices.Contains(members, m) {
				r.Members++
				continue
			}
			members = append(members, m)
		}
		f.Members = members
		s.families = append(s.families, &f)
	}

	for _, l := range snap.Links {
		if s.events[l.Event] == nil || !s.hasPerson(l.Person) || s.linkIndex(l.Event, l.Person) >= 0 {
			r.Links++
			continue
		}
		s.links = append(s.links, l)
	}

	return s, r
}
