package io

import (
	"cmp"
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/famtree/pkg/tree"
)

// Document is the persisted form of a family tree. The same structure is
// used for JSON, YAML and MongoDB documents.
type Document struct {
	Persons    map[string]Person `json:"persons" yaml:"persons" bson:"persons"`
	Edges      []Edge            `json:"edges" yaml:"edges" bson:"edges"`
	Spouses    []Spouse          `json:"spouses" yaml:"spouses" bson:"spouses"`
	Families   []Family          `json:"families" yaml:"families" bson:"families"`
	Events     map[string]Event  `json:"events,omitempty" yaml:"events,omitempty" bson:"events,omitempty"`
	EventLinks []EventLink       `json:"event_links,omitempty" yaml:"event_links,omitempty" bson:"event_links,omitempty"`

	// EventRelations is the older name of EventLinks. It is read, never
	// written.
	EventRelations []EventLink `json:"event_relations,omitempty" yaml:"event_relations,omitempty" bson:"-"`
}

// Person is a persisted person. Missing dates are null.
type Person struct {
	ID       string     `json:"id" yaml:"id" bson:"id"`
	Name     string     `json:"name" yaml:"name" bson:"name"`
	Gender   string     `json:"gender" yaml:"gender" bson:"gender"`
	Birth    *string    `json:"birth" yaml:"birth" bson:"birth"`
	Deceased bool       `json:"deceased" yaml:"deceased" bson:"deceased"`
	Death    *string    `json:"death" yaml:"death" bson:"death"`
	Memo     string     `json:"memo" yaml:"memo" bson:"memo"`
	Position [2]float64 `json:"position" yaml:"position,flow" bson:"position"`

	PhotoPath   string   `json:"photo_path,omitempty" yaml:"photo_path,omitempty" bson:"photo_path,omitempty"`
	DisplayMode string   `json:"display_mode,omitempty" yaml:"display_mode,omitempty" bson:"display_mode,omitempty"`
	PhotoScale  *float64 `json:"photo_scale,omitempty" yaml:"photo_scale,omitempty" bson:"photo_scale,omitempty"`
}

// Edge is a persisted parent-child edge.
type Edge struct {
	Parent string `json:"parent" yaml:"parent" bson:"parent"`
	Child  string `json:"child" yaml:"child" bson:"child"`
	Kind   string `json:"kind" yaml:"kind" bson:"kind"`
}

// Spouse is a persisted spouse edge.
type Spouse struct {
	Person1 string `json:"person1" yaml:"person1" bson:"person1"`
	Person2 string `json:"person2" yaml:"person2" bson:"person2"`
	Memo    string `json:"memo" yaml:"memo" bson:"memo"`
}

// Family is a persisted family. A null color means the default color.
type Family struct {
	ID      string    `json:"id" yaml:"id" bson:"id"`
	Name    string    `json:"name" yaml:"name" bson:"name"`
	Members []string  `json:"members" yaml:"members" bson:"members"`
	Color   *[3]uint8 `json:"color" yaml:"color,flow" bson:"color"`
}

// Event is a persisted event.
type Event struct {
	ID          string     `json:"id" yaml:"id" bson:"id"`
	Name        string     `json:"name" yaml:"name" bson:"name"`
	Date        *string    `json:"date" yaml:"date" bson:"date"`
	Description string     `json:"description" yaml:"description" bson:"description"`
	Color       *[3]uint8  `json:"color,omitempty" yaml:"color,omitempty,flow" bson:"color,omitempty"`
	Position    [2]float64 `json:"position" yaml:"position,flow" bson:"position"`
}

// EventLink is a persisted event link. RelationType is the older name of
// Style.
type EventLink struct {
	Event        string `json:"event" yaml:"event" bson:"event"`
	Person       string `json:"person" yaml:"person" bson:"person"`
	Style        string `json:"style,omitempty" yaml:"style,omitempty" bson:"style,omitempty"`
	RelationType string `json:"relation_type,omitempty" yaml:"relation_type,omitempty" bson:"-"`
	Memo         string `json:"memo" yaml:"memo" bson:"memo"`
}

// NewDocument converts a snapshot into its persisted form.
func NewDocument(snap tree.Snapshot) Document {
	doc := Document{
		Persons:  make(map[string]Person, len(snap.Persons)),
		Edges:    make([]Edge, 0, len(snap.Edges)),
		Spouses:  make([]Spouse, 0, len(snap.Spouses)),
		Families: make([]Family, 0, len(snap.Families)),
	}
	for _, p := range snap.Persons {
		id := p.ID.String()
		person := Person{
			ID:        id,
			Name:      p.Name,
			Gender:    p.Gender.String(),
			Birth:     optional(p.Birth),
			Deceased:  p.Deceased,
			Death:     optional(p.Death),
			Memo:      p.Memo,
			Position:  [2]float64{p.Position.X, p.Position.Y},
			PhotoPath: p.PhotoPath,
		}
		if p.Display != tree.DisplayNameOnly {
			person.DisplayMode = p.Display.String()
		}
		if p.PhotoScale > 0 {
			scale := p.PhotoScale
			person.PhotoScale = &scale
		}
		doc.Persons[id] = person
	}
	for _, e := range snap.Edges {
		doc.Edges = append(doc.Edges, Edge{Parent: e.Parent.String(), Child: e.Child.String(), Kind: e.Kind.String()})
	}
	for _, e := range snap.Spouses {
		doc.Spouses = append(doc.Spouses, Spouse{Person1: e.Person1.String(), Person2: e.Person2.String(), Memo: e.Memo})
	}
	for _, f := range snap.Families {
		color := [3]uint8(f.Color)
		members := make([]string, len(f.Members))
		for i, m := range f.Members {
			members[i] = m.String()
		}
		doc.Families = append(doc.Families, Family{ID: f.ID.String(), Name: f.Name, Members: members, Color: &color})
	}
	if len(snap.Events) > 0 {
		doc.Events = make(map[string]Event, len(snap.Events))
	}
	for _, ev := range snap.Events {
		id := ev.ID.String()
		color := [3]uint8(ev.Color)
		doc.Events[id] = Event{
			ID:          id,
			Name:        ev.Name,
			Date:        optional(ev.Date),
			Description: ev.Description,
			Color:       &color,
			Position:    [2]float64{ev.Position.X, ev.Position.Y},
		}
	}
	for _, l := range snap.Links {
		doc.EventLinks = append(doc.EventLinks, EventLink{
			Event:  l.Event.String(),
			Person: l.Person.String(),
			Style:  l.Style.String(),
			Memo:   l.Memo,
		})
	}
	return doc
}

// Snapshot converts the document into a snapshot. Records whose ids do not
// parse are dropped and counted in the returned report; everything else is
// left to [tree.FromSnapshot].
func (d Document) Snapshot() (tree.Snapshot, tree.LoadReport) {
	var snap tree.Snapshot
	var r tree.LoadReport

	for key, p := range d.Persons {
		if p.ID == "" {
			p.ID = key
		}
		id, ok := parseID(p.ID)
		if !ok {
			r.Persons++
			continue
		}
		snap.Persons = append(snap.Persons, tree.Person{
			ID:       id,
			Name:     p.Name,
			Gender:   tree.ParseGender(p.Gender),
			Birth:    deref(p.Birth),
			Deceased: p.Deceased,
			Death:    deref(p.Death),
			Memo:     p.Memo,
			Position: tree.Point{X: p.Position[0], Y: p.Position[1]},

			PhotoPath:  p.PhotoPath,
			Display:    tree.ParseDisplayMode(p.DisplayMode),
			PhotoScale: derefScale(p.PhotoScale),
		})
	}

	for _, e := range d.Edges {
		parent, ok1 := parseID(e.Parent)
		child, ok2 := parseID(e.Child)
		if !ok1 || !ok2 {
			r.Edges++
			continue
		}
		snap.Edges = append(snap.Edges, tree.ParentChildEdge{Parent: parent, Child: child, Kind: tree.ParseEdgeKind(e.Kind)})
	}

	for _, e := range d.Spouses {
		a, ok1 := parseID(e.Person1)
		b, ok2 := parseID(e.Person2)
		if !ok1 || !ok2 {
			r.Spouses++
			continue
		}
		snap.Spouses = append(snap.Spouses, tree.SpouseEdge{Person1: a, Person2: b, Memo: e.Memo})
	}

	for _, f := range d.Families {
		id, ok := parseID(f.ID)
		if !ok {
			r.Families++
			continue
		}
		fam := tree.Family{ID: id, Name: f.Name, Color: tree.DefaultFamilyColor}
		if f.Color != nil {
			fam.Color = tree.RGB(*f.Color)
		}
		for _, m := range f.Members {
			mid, ok := parseID(m)
			if !ok {
				r.Members++
				continue
			}
			fam.Members = append(fam.Members, mid)
		}
		snap.Families = append(snap.Families, fam)
	}

	for key, ev := range d.Events {
		if ev.ID == "" {
			ev.ID = key
		}
		id, ok := parseID(ev.ID)
		if !ok {
			r.Events++
			continue
		}
		out := tree.Event{
			ID:          id,
			Name:        ev.Name,
			Date:        deref(ev.Date),
			Description: ev.Description,
			Color:       tree.DefaultEventColor,
			Position:    tree.Point{X: ev.Position[0], Y: ev.Position[1]},
		}
		if ev.Color != nil {
			out.Color = tree.RGB(*ev.Color)
		}
		snap.Events = append(snap.Events, out)
	}

	for _, l := range slices.Concat(d.EventLinks, d.EventRelations) {
		ev, ok1 := parseID(l.Event)
		p, ok2 := parseID(l.Person)
		if !ok1 || !ok2 {
			r.Links++
			continue
		}
		style := l.Style
		if style == "" {
			style = l.RelationType
		}
		snap.Links = append(snap.Links, tree.EventLink{Event: ev, Person: p, Style: tree.ParseLinkStyle(style), Memo: l.Memo})
	}

	sortSnapshot(&snap)
	return snap, r
}

// Store converts the document into a store. The report counts every record
// dropped on the way: unparseable ids here, dangling and duplicate records
// in [tree.FromSnapshot].
func (d Document) Store(opts ...tree.Option) (*tree.Store, tree.LoadReport) {
	snap, r := d.Snapshot()
	s, fr := tree.FromSnapshot(snap, opts...)
	return s, r.Add(fr)
}

// sortSnapshot orders records that came out of maps so loading is
// deterministic.
func sortSnapshot(snap *tree.Snapshot) {
	slices.SortFunc(snap.Persons, func(a, b tree.Person) int {
		return cmp.Or(tree.CompareIDs(a.ID, b.ID), cmp.Compare(a.Name, b.Name))
	})
	slices.SortFunc(snap.Events, func(a, b tree.Event) int {
		return cmp.Or(tree.CompareIDs(a.ID, b.ID), cmp.Compare(a.Name, b.Name))
	})
}

func parseID(s string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// derefScale leaves a missing or non-positive scale at zero, which
// tree.Person treats as 1.
func derefScale(f *float64) float64 {
	if f == nil || *f <= 0 {
		return 0
	}
	return *f
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
