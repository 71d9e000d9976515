package tree

import (
	"slices"
	"testing"

	"github.com/google/uuid"

	"github.com/matzehuels/famtree/pkg/errors"
)

// seqIDs returns an id source producing 00..01, 00..02, ... so tests get
// stable ids whose order matches creation order.
func seqIDs() func() uuid.UUID {
	var n byte
	return func() uuid.UUID {
		n++
		return uuid.UUID{15: n}
	}
}

func newTestStore() *Store { return New(WithIDSource(seqIDs())) }

func mustAdd(t *testing.T, s *Store, name string) uuid.UUID {
	t.Helper()
	id, err := s.AddPerson(Person{Name: name})
	if err != nil {
		t.Fatalf("AddPerson(%q) error = %v", name, err)
	}
	return id
}

func mustEdge(t *testing.T, s *Store, parent, child uuid.UUID) {
	t.Helper()
	if err := s.AddParentChild(parent, child, KindBiological); err != nil {
		t.Fatalf("AddParentChild() error = %v", err)
	}
}

func TestAddPerson(t *testing.T) {
	s := newTestStore()

	id, err := s.AddPerson(Person{Name: "  Ada ", Death: "1852-11-27"})
	if err != nil {
		t.Fatalf("AddPerson() error = %v", err)
	}
	p, ok := s.Person(id)
	if !ok {
		t.Fatal("Person() not found after add")
	}
	if p.Name != "Ada" {
		t.Errorf("Name = %q, want %q", p.Name, "Ada")
	}
	if !p.Deceased {
		t.Error("death date should imply deceased")
	}
	if p.Pin != Auto {
		t.Errorf("Pin = %v, want auto", p.Pin)
	}
	if !s.LayoutStale() {
		t.Error("adding a person should mark the layout stale")
	}

	if _, err := s.AddPerson(Person{Name: ""}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty name: error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
	if _, err := s.AddPerson(Person{ID: id, Name: "Again"}); !errors.Is(err, errors.ErrCodeDuplicateID) {
		t.Errorf("duplicate id: error = %v, want %s", err, errors.ErrCodeDuplicateID)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestUpdatePerson(t *testing.T) {
	s := newTestStore()
	id := mustAdd(t, s, "Ada")
	if err := s.MoveNode(PersonRef(id), Point{10, 20}); err != nil {
		t.Fatal(err)
	}
	s.MarkLayoutFresh()

	err := s.UpdatePerson(Person{ID: id, Name: "Ada King", Gender: GenderFemale, Birth: "1815"})
	if err != nil {
		t.Fatalf("UpdatePerson() error = %v", err)
	}
	p, _ := s.Person(id)
	if p.Name != "Ada King" || p.Gender != GenderFemale || p.Birth != "1815" {
		t.Errorf("fields not updated: %+v", p)
	}
	if p.Position != (Point{10, 20}) || p.Pin != Pinned {
		t.Errorf("position/pin changed: %+v %v", p.Position, p.Pin)
	}
	if s.LayoutStale() {
		t.Error("field updates should not mark the layout stale")
	}

	err = s.UpdatePerson(Person{ID: id, Name: "Ada King", PhotoPath: "ada.jpg", Display: DisplayNameAndPhoto, PhotoScale: 0.8})
	if err != nil {
		t.Fatalf("UpdatePerson(photo) error = %v", err)
	}
	p, _ = s.Person(id)
	if p.PhotoPath != "ada.jpg" || !p.ShowsPhoto() || p.Scale() != 0.8 {
		t.Errorf("photo fields not updated: %+v", p)
	}
	if !s.LayoutStale() {
		t.Error("photo changes resize the node and should mark the layout stale")
	}
	if err := s.UpdatePerson(Person{ID: id, Name: "Ada", PhotoScale: 11}); !errors.IsInvalid(err) {
		t.Errorf("scale 11: error = %v, want validation error", err)
	}

	if err := s.UpdatePerson(Person{ID: uuid.New(), Name: "x"}); !errors.IsReference(err) {
		t.Errorf("unknown id: error = %v, want reference error", err)
	}
}

func TestRemovePersonCascades(t *testing.T) {
	s := newTestStore()
	a := mustAdd(t, s, "A")
	b := mustAdd(t, s, "B")
	c := mustAdd(t, s, "C")
	d := mustAdd(t, s, "D")
	mustEdge(t, s, a, b)
	mustEdge(t, s, a, c)
	if err := s.AddSpouse(b, d, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.AddSpouse(a, d, ""); err != nil {
		t.Fatal(err)
	}
	fam, _ := s.AddFamily("House", DefaultFamilyColor)
	_ = s.AddFamilyMember(fam, a)
	_ = s.AddFamilyMember(fam, b)
	ev, _ := s.AddEvent(Event{Name: "Wedding"})
	_ = s.AddEventLink(EventLink{Event: ev, Person: a})
	_ = s.AddEventLink(EventLink{Event: ev, Person: d})

	if err := s.RemovePerson(a); err != nil {
		t.Fatalf("RemovePerson() error = %v", err)
	}

	if len(s.ParentChildEdges()) != 0 {
		t.Errorf("edges = %v, want none", s.ParentChildEdges())
	}
	if got := s.SpouseEdges(); len(got) != 1 || !got[0].Joins(b, d) {
		t.Errorf("spouses = %v, want only B-D", got)
	}
	if f, _ := s.Family(fam); !slices.Equal(f.Members, []uuid.UUID{b}) {
		t.Errorf("members = %v, want [B]", f.Members)
	}
	if links := s.LinksOf(ev); len(links) != 1 || links[0].Person != d {
		t.Errorf("links = %v, want only D", links)
	}
	for _, id := range []uuid.UUID{b, c, d} {
		if _, ok := s.Person(id); !ok {
			t.Errorf("person %s should survive the cascade", id)
		}
	}
	if got := s.Roots(); !slices.Equal(got, []uuid.UUID{b, c, d}) {
		t.Errorf("Roots() = %v, want [B C D]", got)
	}
	if err := s.RemovePerson(a); !errors.Is(err, errors.ErrCodePersonNotFound) {
		t.Errorf("second remove: error = %v", err)
	}
}

func TestSpouseSymmetry(t *testing.T) {
	s := newTestStore()
	x := mustAdd(t, s, "X")
	y := mustAdd(t, s, "Y")

	// Add in reverse id order; storage is canonical.
	if err := s.AddSpouse(y, x, "1990"); err != nil {
		t.Fatalf("AddSpouse() error = %v", err)
	}
	e1, ok1 := s.Spouse(x, y)
	e2, ok2 := s.Spouse(y, x)
	if !ok1 || !ok2 || e1 != e2 {
		t.Fatalf("Spouse() not symmetric: %v %v", e1, e2)
	}
	if e1.Person1 != x || e1.Memo != "1990" {
		t.Errorf("edge = %+v, want canonical order with memo", e1)
	}

	for _, pair := range [][2]uuid.UUID{{x, y}, {y, x}} {
		err := s.AddSpouse(pair[0], pair[1], "")
		if !errors.Is(err, errors.ErrCodeDuplicateSpouse) {
			t.Errorf("AddSpouse(%v) error = %v, want duplicate", pair, err)
		}
	}
	if err := s.AddSpouse(x, x, ""); !errors.Is(err, errors.ErrCodeSelfSpouse) {
		t.Errorf("self spouse: error = %v", err)
	}

	if err := s.UpdateSpouse(y, x, "2001"); err != nil {
		t.Fatal(err)
	}
	if e, _ := s.Spouse(x, y); e.Memo != "2001" {
		t.Errorf("memo = %q after update", e.Memo)
	}
	if got := s.SpousesOf(y); !slices.Equal(got, []uuid.UUID{x}) {
		t.Errorf("SpousesOf(Y) = %v", got)
	}
	if err := s.RemoveSpouse(y, x); err != nil {
		t.Fatalf("RemoveSpouse() error = %v", err)
	}
	if err := s.RemoveSpouse(x, y); !errors.Is(err, errors.ErrCodeEdgeNotFound) {
		t.Errorf("second remove: error = %v", err)
	}
}

func TestParentChildQueries(t *testing.T) {
	s := newTestStore()
	a := mustAdd(t, s, "A")
	b := mustAdd(t, s, "B")
	c := mustAdd(t, s, "C")
	mustEdge(t, s, a, c)
	mustEdge(t, s, b, c)
	if err := s.AddParentChild(a, c, KindAdoptive); err != nil {
		t.Fatalf("second kind for the same pair should be allowed: %v", err)
	}

	if got := s.ParentsOf(c); !slices.Equal(got, []uuid.UUID{a, b}) {
		t.Errorf("ParentsOf(C) = %v", got)
	}
	if got := s.ChildrenOf(a); !slices.Equal(got, []uuid.UUID{c}) {
		t.Errorf("ChildrenOf(A) = %v, want one distinct child", got)
	}

	s.MarkLayoutFresh()
	if err := s.RemoveParentChild(a, c); err != nil {
		t.Fatal(err)
	}
	if n := len(s.ParentChildEdges()); n != 1 {
		t.Errorf("edges after remove = %d, want 1 (all kinds of the pair removed)", n)
	}
	if !s.LayoutStale() {
		t.Error("removing an edge should mark the layout stale")
	}
	if err := s.RemoveParentChild(a, c); !errors.Is(err, errors.ErrCodeEdgeNotFound) {
		t.Errorf("second remove: error = %v", err)
	}
}

func TestFamilies(t *testing.T) {
	s := newTestStore()
	a := mustAdd(t, s, "A")
	b := mustAdd(t, s, "B")

	f1, err := s.AddFamily("Smith", RGB{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	f2, _ := s.AddFamily("Jones", DefaultFamilyColor)

	if err := s.AddFamilyMember(f1, a); err != nil {
		t.Fatal(err)
	}
	if err := s.AddFamilyMember(f1, a); !errors.Is(err, errors.ErrCodeDuplicateMember) {
		t.Errorf("duplicate member: error = %v", err)
	}
	_ = s.AddFamilyMember(f2, a)
	_ = s.AddFamilyMember(f2, b)

	if got := s.FamiliesOf(a); len(got) != 2 {
		t.Errorf("FamiliesOf(A) = %d families, want 2", len(got))
	}
	if err := s.UpdateFamily(f1, "Smythe", RGB{9, 9, 9}); err != nil {
		t.Fatal(err)
	}
	if f, _ := s.Family(f1); f.Name != "Smythe" || f.Color != (RGB{9, 9, 9}) {
		t.Errorf("family after update = %+v", f)
	}
	if err := s.RemoveFamilyMember(f2, a); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveFamily(f1); err != nil {
		t.Fatal(err)
	}
	if got := s.Families(); len(got) != 1 || got[0].ID != f2 {
		t.Errorf("Families() = %+v", got)
	}
	if err := s.AddFamilyMember(f1, b); !errors.Is(err, errors.ErrCodeFamilyNotFound) {
		t.Errorf("removed family: error = %v", err)
	}
	if err := s.AddFamilyMember(f2, uuid.New()); !errors.Is(err, errors.ErrCodePersonNotFound) {
		t.Errorf("unknown person: error = %v", err)
	}
}

func TestEvents(t *testing.T) {
	s := newTestStore()
	a := mustAdd(t, s, "A")
	ev, err := s.AddEvent(Event{Name: "Emigration", Date: "1902"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddEvent(Event{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("nameless event: error = %v", err)
	}

	link := EventLink{Event: ev, Person: a, Style: StyleArrowToPerson}
	if err := s.AddEventLink(link); err != nil {
		t.Fatal(err)
	}
	if err := s.AddEventLink(link); !errors.Is(err, errors.ErrCodeDuplicateLink) {
		t.Errorf("duplicate link: error = %v", err)
	}
	link.Memo = "left from Hamburg"
	if err := s.UpdateEventLink(link); err != nil {
		t.Fatal(err)
	}
	if got := s.LinksOf(ev); len(got) != 1 || got[0].Memo != "left from Hamburg" {
		t.Errorf("LinksOf() = %+v", got)
	}

	if err := s.UpdateEvent(Event{ID: ev, Name: "Emigration", Date: "1903"}); err != nil {
		t.Fatal(err)
	}
	if e, _ := s.Event(ev); e.Date != "1903" {
		t.Errorf("Date = %q", e.Date)
	}

	if err := s.RemoveEvent(ev); err != nil {
		t.Fatal(err)
	}
	if len(s.EventLinks()) != 0 {
		t.Error("removing an event should remove its links")
	}
	if err := s.RemoveEventLink(ev, a); !errors.Is(err, errors.ErrCodeLinkNotFound) {
		t.Errorf("RemoveEventLink() error = %v", err)
	}
}

func TestPositionsAndPins(t *testing.T) {
	s := newTestStore()
	a := mustAdd(t, s, "A")
	ev, _ := s.AddEvent(Event{Name: "E"})

	if !s.PlaceNode(PersonRef(a), Point{1, 2}) {
		t.Error("PlaceNode should write auto nodes")
	}
	if err := s.MoveNode(PersonRef(a), Point{100, 350}); err != nil {
		t.Fatal(err)
	}
	if s.PlaceNode(PersonRef(a), Point{0, 0}) {
		t.Error("PlaceNode must not overwrite a pinned node")
	}
	pos, pin, ok := s.NodePosition(PersonRef(a))
	if !ok || pos != (Point{100, 350}) || pin != Pinned {
		t.Errorf("NodePosition() = %v %v %v", pos, pin, ok)
	}

	if err := s.MoveNode(EventRef(ev), Point{5, 5}); err != nil {
		t.Fatal(err)
	}
	s.UnpinAll()
	for _, ref := range s.NodeRefs() {
		if _, pin, _ := s.NodePosition(ref); pin != Auto {
			t.Errorf("%v still pinned after UnpinAll", ref)
		}
	}
	if err := s.MoveNode(EventRef(uuid.New()), Point{}); !errors.Is(err, errors.ErrCodeEventNotFound) {
		t.Errorf("unknown event: error = %v", err)
	}
	if refs := s.NodeRefs(); len(refs) != 2 || refs[0].Kind != NodePerson || refs[1].Kind != NodeEvent {
		t.Errorf("NodeRefs() = %v", refs)
	}
}

func TestFindPersons(t *testing.T) {
	s := newTestStore()
	a := mustAdd(t, s, "Ada")
	mustAdd(t, s, "ada")
	b := mustAdd(t, s, "Byron")

	tests := []struct {
		query string
		want  int
	}{
		{"", 0},
		{a.String(), 1},
		{"ADA", 2},
		{"byron", 1},
		{"00000000-0000", 3},
		{b.String(), 1},
		{"nobody", 0},
	}
	for _, tt := range tests {
		if got := s.FindPersons(tt.query); len(got) != tt.want {
			t.Errorf("FindPersons(%q) = %d results, want %d", tt.query, len(got), tt.want)
		}
	}
}

func TestParseHelpers(t *testing.T) {
	if ParseGender("F") != GenderFemale || ParseGender("male") != GenderMale || ParseGender("?") != GenderUnknown {
		t.Error("ParseGender mismatch")
	}
	if ParseEdgeKind("Adoptive") != KindAdoptive || ParseEdgeKind("") != KindBiological || ParseEdgeKind("step") != KindOther {
		t.Error("ParseEdgeKind mismatch")
	}
	c, err := ParseRGB("#ff8000")
	if err != nil || c != (RGB{255, 128, 0}) {
		t.Errorf("ParseRGB() = %v, %v", c, err)
	}
	if c.Hex() != "#ff8000" {
		t.Errorf("Hex() = %s", c.Hex())
	}
	if _, err := ParseRGB("#fff"); err == nil {
		t.Error("short color should fail")
	}
	for in, want := range map[string]DisplayMode{
		"NameAndPhoto":   DisplayNameAndPhoto,
		"name-and-photo": DisplayNameAndPhoto,
		"photo":          DisplayNameAndPhoto,
		"NameOnly":       DisplayNameOnly,
		"":               DisplayNameOnly,
	} {
		if got := ParseDisplayMode(in); got != want {
			t.Errorf("ParseDisplayMode(%q) = %v, want %v", in, got, want)
		}
	}
	if (Person{}).Scale() != 1 {
		t.Error("zero photo scale should mean 1")
	}
	for in, want := range map[string]LinkStyle{
		"Line":              StyleLine,
		"Arrow":             StyleArrowToPerson,
		"ArrowToPerson":     StyleArrowToPerson,
		"arrow-from-person": StyleArrowFromPerson,
		"ArrowToEvent":      StyleArrowFromPerson,
		"dotted":            StyleLine,
	} {
		if got := ParseLinkStyle(in); got != want {
			t.Errorf("ParseLinkStyle(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestAllocatedIDsAreUniqueAcrossNodes(t *testing.T) {
	ids := []uuid.UUID{{15: 1}, {15: 1}, {15: 2}}
	next := func() uuid.UUID {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	s := New(WithIDSource(next))

	ev, err := s.AddEvent(Event{Name: "Wedding"})
	if err != nil {
		t.Fatal(err)
	}
	p, err := s.AddPerson(Person{Name: "Taro"})
	if err != nil {
		t.Fatal(err)
	}
	if p == ev {
		t.Fatalf("person and event share id %s", p)
	}
	if p != (uuid.UUID{15: 2}) {
		t.Errorf("person id = %s, want the next free id", p)
	}
}
