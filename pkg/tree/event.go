package tree

import (
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/famtree/pkg/errors"
)

// AddEvent validates ev and inserts it, allocating an id when ev.ID is
// zero. Marks the layout stale.
func (s *Store) AddEvent(ev Event) (id uuid.UUID, err error) {
	defer s.observe("add_event", &err)

	if err := errors.ValidateStruct(ev); err != nil {
		return uuid.Nil, err
	}
	if ev.ID == uuid.Nil {
		ev.ID = s.allocID(s.nodeIDTaken)
	} else if s.nodeIDTaken(ev.ID) {
		return uuid.Nil, errors.New(errors.ErrCodeDuplicateID, "id %s already in use", ev.ID)
	}
	s.events[ev.ID] = &ev
	s.stale = true
	return ev.ID, nil
}

// UpdateEvent replaces name, date, description and color of an event.
func (s *Store) UpdateEvent(ev Event) (err error) {
	defer s.observe("update_event", &err)

	cur, ok := s.events[ev.ID]
	if !ok {
		return errEventNotFound(ev.ID)
	}
	if err := errors.ValidateStruct(ev); err != nil {
		return err
	}
	cur.Name = ev.Name
	cur.Date = ev.Date
	cur.Description = ev.Description
	cur.Color = ev.Color
	return nil
}

// RemoveEvent deletes an event and all of its links.
func (s *Store) RemoveEvent(id uuid.UUID) (err error) {
	defer s.observe("remove_event", &err)

	if _, ok := s.events[id]; !ok {
		return errEventNotFound(id)
	}
	delete(s.events, id)
	s.links = slices.DeleteFunc(s.links, func(l EventLink) bool { return l.Event == id })
	s.stale = true
	return nil
}

// Event returns a copy of the event with the given id.
func (s *Store) Event(id uuid.UUID) (Event, bool) {
	ev, ok := s.events[id]
	if !ok {
		return Event{}, false
	}
	return *ev, true
}

// Events returns copies of all events ordered by id.
func (s *Store) Events() []Event {
	out := make([]Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, *ev)
	}
	slices.SortFunc(out, func(a, b Event) int { return CompareIDs(a.ID, b.ID) })
	return out
}

// AddEventLink relates an event to a person. At most one link may exist
// per (event, person) pair.
func (s *Store) AddEventLink(l EventLink) (err error) {
	defer s.observe("add_event_link", &err)

	if _, ok := s.events[l.Event]; !ok {
		return errEventNotFound(l.Event)
	}
	if err := s.requirePersons(l.Person); err != nil {
		return err
	}
	if s.linkIndex(l.Event, l.Person) >= 0 {
		return errors.New(errors.ErrCodeDuplicateLink, "event %s is already linked to %s", l.Event, l.Person)
	}
	s.links = append(s.links, l)
	s.stale = true
	return nil
}

// UpdateEventLink replaces style and memo of an existing link.
func (s *Store) UpdateEventLink(l EventLink) (err error) {
	defer s.observe("update_event_link", &err)

	i := s.linkIndex(l.Event, l.Person)
	if i < 0 {
		return errLinkNotFound(l.Event, l.Person)
	}
	s.links[i].Style = l.Style
	s.links[i].Memo = l.Memo
	return nil
}

// RemoveEventLink deletes the link between event and person.
func (s *Store) RemoveEventLink(event, person uuid.UUID) (err error) {
	defer s.observe("remove_event_link", &err)

	i := s.linkIndex(event, person)
	if i < 0 {
		return errLinkNotFound(event, person)
	}
	s.links = slices.Delete(s.links, i, i+1)
	s.stale = true
	return nil
}

// EventLinks returns a copy of all links in insertion order.
func (s *Store) EventLinks() []EventLink { return slices.Clone(s.links) }

// LinksOf returns the links of one event in insertion order.
func (s *Store) LinksOf(event uuid.UUID) []EventLink {
	var out []EventLink
	for _, l := range s.links {
		if l.Event == event {
			out = append(out, l)
		}
	}
	return out
}

func (s *Store) linkIndex(event, person uuid.UUID) int {
	return slices.IndexFunc(s.links, func(l EventLink) bool {
		return l.Event == event && l.Person == person
	})
}

func errEventNotFound(id uuid.UUID) error {
	return errors.New(errors.ErrCodeEventNotFound, "event %s not found", id)
}

func errLinkNotFound(event, person uuid.UUID) error {
	return errors.New(errors.ErrCodeLinkNotFound, "no link between event %s and %s", event, person)
}
