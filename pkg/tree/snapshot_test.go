package tree

import (
	"testing"

	"github.com/google/uuid"
)

func TestFromSnapshotDropsMalformedRecords(t *testing.T) {
	a, b, c := uuid.UUID{15: 1}, uuid.UUID{15: 2}, uuid.UUID{15: 3}
	ghost := uuid.UUID{15: 99}
	ev := uuid.UUID{15: 10}
	fam := uuid.UUID{15: 20}

	snap := Snapshot{
		Persons: []Person{
			{ID: a, Name: "A", Position: Point{10, 20}},
			{ID: b, Name: "B"},
			{ID: c, Name: "C", Death: "1900"},
			{ID: a, Name: "A again"},
			{Name: "no id"},
		},
		Edges: []ParentChildEdge{
			{Parent: a, Child: b},
			{Parent: a, Child: b},
			{Parent: a, Child: a},
			{Parent: ghost, Child: b},
			{Parent: a, Child: b, Kind: KindAdoptive},
		},
		Spouses: []SpouseEdge{
			{Person1: b, Person2: a},
			{Person1: a, Person2: b},
			{Person1: c, Person2: c},
			{Person1: c, Person2: ghost},
		},
		Families: []Family{
			{ID: fam, Name: "Main", Members: []uuid.UUID{a, b, a, ghost}},
			{ID: fam, Name: "Duplicate"},
		},
		Events: []Event{
			{ID: ev, Name: "Wedding"},
			{ID: a, Name: "collides with a person"},
		},
		Links: []EventLink{
			{Event: ev, Person: a},
			{Event: ev, Person: a},
			{Event: ev, Person: ghost},
			{Event: ghost, Person: b},
		},
	}

	s, report := FromSnapshot(snap)

	want := LoadReport{Persons: 2, Edges: 3, Spouses: 3, Families: 1, Members: 2, Events: 1, Links: 3}
	if report != want {
		t.Errorf("report = %+v, want %+v", report, want)
	}
	if report.Total() != 15 {
		t.Errorf("Total() = %d, want 15", report.Total())
	}

	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
	if n := len(s.ParentChildEdges()); n != 2 {
		t.Errorf("edges = %d, want 2", n)
	}
	spouses := s.SpouseEdges()
	if len(spouses) != 1 || spouses[0].Person1 != a || spouses[0].Person2 != b {
		t.Errorf("spouses = %+v, want canonical {a b}", spouses)
	}
	f, _ := s.Family(fam)
	if len(f.Members) != 2 {
		t.Errorf("members = %v, want [a b]", f.Members)
	}

	pa, _ := s.Person(a)
	if pa.Name != "A" || pa.Position != (Point{10, 20}) || pa.Pin != Pinned {
		t.Errorf("person a = %+v, want first record pinned at (10,20)", pa)
	}
	pc, _ := s.Person(c)
	if !pc.Deceased {
		t.Error("death date should imply deceased")
	}
	if s.LayoutStale() {
		t.Error("freshly loaded store should not be stale")
	}
}

func TestFromSnapshotKeepsCycles(t *testing.T) {
	a, b := uuid.UUID{15: 1}, uuid.UUID{15: 2}
	s, report := FromSnapshot(Snapshot{
		Persons: []Person{{ID: a, Name: "A"}, {ID: b, Name: "B"}},
		Edges:   []ParentChildEdge{{Parent: a, Child: b}, {Parent: b, Child: a}},
	})
	if report.Total() != 0 {
		t.Errorf("report = %v, want nothing dropped", report)
	}
	if len(s.Validator().Cycles()) != 1 {
		t.Error("cycle should survive loading")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore()
	a := mustAdd(t, s, "A")
	b := mustAdd(t, s, "B")
	c := mustAdd(t, s, "C")
	mustEdge(t, s, a, c)
	if err := s.AddSpouse(b, a, "m. 1900"); err != nil {
		t.Fatal(err)
	}
	fam, _ := s.AddFamily("Main", DefaultFamilyColor)
	if err := s.AddFamilyMember(fam, c); err != nil {
		t.Fatal(err)
	}
	ev, _ := s.AddEvent(Event{Name: "Move", Date: "1910"})
	if err := s.AddEventLink(EventLink{Event: ev, Person: c, Style: StyleArrowToPerson}); err != nil {
		t.Fatal(err)
	}

	restored, report := FromSnapshot(s.Snapshot())
	if report.Total() != 0 {
		t.Fatalf("report = %v", report)
	}

	got := restored.Snapshot()
	orig := s.Snapshot()
	if len(got.Persons) != len(orig.Persons) || len(got.Edges) != 1 || len(got.Spouses) != 1 ||
		len(got.Families) != 1 || len(got.Events) != 1 || len(got.Links) != 1 {
		t.Fatalf("restored snapshot = %+v", got)
	}
	if got.Spouses[0].Memo != "m. 1900" {
		t.Errorf("spouse memo = %q", got.Spouses[0].Memo)
	}
	if got.Links[0].Style != StyleArrowToPerson {
		t.Errorf("link style = %v", got.Links[0].Style)
	}
	for i := range got.Persons {
		if got.Persons[i].ID != orig.Persons[i].ID || got.Persons[i].Name != orig.Persons[i].Name {
			t.Errorf("person %d = %+v, want %+v", i, got.Persons[i], orig.Persons[i])
		}
	}
}

func TestLoadReportString(t *testing.T) {
	if got := (LoadReport{}).String(); got != "nothing dropped" {
		t.Errorf("String() = %q", got)
	}
	got := LoadReport{Edges: 2, Links: 1}.String()
	if got != "dropped 2 parent-child edges, 1 event links" {
		t.Errorf("String() = %q", got)
	}
}
