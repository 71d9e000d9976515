package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/famtree/pkg/tree"
)

func sample(t *testing.T) (*tree.Store, map[string]string) {
	t.Helper()
	s := tree.New()
	ids := make(map[string]string)
	add := func(p tree.Person) tree.Person {
		id, err := s.AddPerson(p)
		if err != nil {
			t.Fatal(err)
		}
		ids[p.Name] = id.String()
		p.ID = id
		return p
	}
	taro := add(tree.Person{Name: "Taro", Gender: tree.GenderMale, Birth: "1950"})
	hana := add(tree.Person{Name: "Hana", Gender: tree.GenderFemale, Death: "2020"})
	ken := add(tree.Person{Name: "Ken"})
	if err := s.AddSpouse(taro.ID, hana.ID, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.AddParentChild(taro.ID, ken.ID, tree.KindBiological); err != nil {
		t.Fatal(err)
	}
	if err := s.AddParentChild(hana.ID, ken.ID, tree.KindAdoptive); err != nil {
		t.Fatal(err)
	}
	ev, err := s.AddEvent(tree.Event{Name: "Wedding", Color: tree.RGB{255, 0, 0}})
	if err != nil {
		t.Fatal(err)
	}
	ids["Wedding"] = ev.String()
	if err := s.AddEventLink(tree.EventLink{Event: ev, Person: taro.ID, Style: tree.StyleArrowFromPerson}); err != nil {
		t.Fatal(err)
	}
	return s, ids
}

func TestToDOT_Basic(t *testing.T) {
	s, ids := sample(t)
	dot := ToDOT(s, Options{})

	for _, want := range []string{
		"digraph G",
		`label="Taro"`,
		`"` + ids["Taro"] + `" -> "` + ids["Ken"] + `";`,
		`"` + ids["Hana"] + `" -> "` + ids["Ken"] + `" [style=dashed];`,
		"dir=none",
		"constraint=false",
		"rounded,filled,dashed",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %q", want)
		}
	}
	if strings.Contains(dot, "Wedding") {
		t.Error("events included without Options.Events")
	}
}

func TestToDOT_Ranks(t *testing.T) {
	s, ids := sample(t)
	dot := ToDOT(s, Options{})

	if n := strings.Count(dot, "rank=same"); n != 2 {
		t.Fatalf("rank groups = %d, want 2", n)
	}
	for _, line := range strings.Split(dot, "\n") {
		if strings.Contains(line, "rank=same") && strings.Contains(line, ids["Taro"]) {
			if !strings.Contains(line, ids["Hana"]) {
				t.Error("spouses not ranked together")
			}
			if strings.Contains(line, ids["Ken"]) {
				t.Error("child ranked with parents")
			}
		}
	}
}

func TestToDOT_DetailedAndEvents(t *testing.T) {
	s, ids := sample(t)
	dot := ToDOT(s, Options{Detailed: true, Events: true})

	for _, want := range []string{
		`"Taro\n1950 - "`,
		`"Hana\n - 2020"`,
		`label="Ken"`,
		"shape=ellipse",
		`"` + ids["Wedding"] + `" -> "` + ids["Taro"] + `" [dir=back, color="#ff0000"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("detailed output missing %q", want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg/>")); string(got) != "<svg/>" {
		t.Errorf("no viewBox changed output: %s", got)
	}
}
