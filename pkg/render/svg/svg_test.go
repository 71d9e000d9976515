package svg

import (
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/famtree/pkg/canvas"
	"github.com/matzehuels/famtree/pkg/layout"
	"github.com/matzehuels/famtree/pkg/tree"
)

func family(t *testing.T) (*tree.Store, map[string]tree.NodeRef) {
	t.Helper()
	s := tree.New()
	refs := make(map[string]tree.NodeRef)
	add := func(p tree.Person) {
		id, err := s.AddPerson(p)
		if err != nil {
			t.Fatalf("AddPerson(%s): %v", p.Name, err)
		}
		refs[p.Name] = tree.PersonRef(id)
	}
	add(tree.Person{Name: "Taro", Gender: tree.GenderMale, Birth: "1950-01-01"})
	add(tree.Person{Name: "Hana", Gender: tree.GenderFemale, Birth: "1952", Death: "2020-03-01"})
	add(tree.Person{Name: "Ken & <Co>", Gender: tree.GenderMale})
	add(tree.Person{Name: "Mio"})

	id := func(n string) tree.NodeRef { return refs[n] }
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(s.AddSpouse(id("Taro").ID, id("Hana").ID, "1975"))
	must(s.AddParentChild(id("Taro").ID, id("Ken & <Co>").ID, tree.KindBiological))
	must(s.AddParentChild(id("Hana").ID, id("Ken & <Co>").ID, tree.KindBiological))
	must(s.AddParentChild(id("Hana").ID, id("Mio").ID, tree.KindAdoptive))

	ev, err := s.AddEvent(tree.Event{Name: "Move", Date: "1980", Color: tree.RGB{10, 20, 30}})
	must(err)
	refs["Move"] = tree.EventRef(ev)
	must(s.AddEventLink(tree.EventLink{Event: ev, Person: id("Mio").ID, Style: tree.StyleArrowToPerson}))

	fam, err := s.AddFamily("Sato", tree.RGB{100, 150, 255})
	must(err)
	must(s.AddFamilyMember(fam, id("Taro").ID))
	must(s.AddFamilyMember(fam, id("Hana").ID))

	layout.New().Apply(s)
	return s, refs
}

func TestRenderWellFormed(t *testing.T) {
	s, _ := family(t)
	out := Render(s, WithGrid(canvas.Grid{Size: 50, Enabled: true}))

	dec := xml.NewDecoder(strings.NewReader(string(out)))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("invalid XML: %v", err)
		}
	}

	got := string(out)
	for _, want := range []string{
		`class="grid"`,
		`class="family"`,
		`class="spouse"`,
		`class="parent couple"`,
		`stroke-dasharray="6 4"`,
		`class="event-link"`,
		"<polygon",
		"Ken &amp; &lt;Co&gt;",
		"#0a141e",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if n := strings.Count(got, `<g class="person"`); n != 4 {
		t.Errorf("person groups = %d, want 4", n)
	}
}

func TestRenderDeterministic(t *testing.T) {
	s, _ := family(t)
	a := Render(s, WithYear(2024))
	b := Render(s, WithYear(2024))
	if string(a) != string(b) {
		t.Error("two renders of the same tree differ")
	}
}

func TestRenderEmpty(t *testing.T) {
	out := string(Render(tree.New()))
	if !strings.Contains(out, `viewBox="0.0 0.0 200.0 100.0"`) {
		t.Errorf("empty tree viewBox: %s", out)
	}
	if strings.Contains(out, "<g ") {
		t.Error("empty tree should draw no groups")
	}
}

func TestRenderSelectionAndTheme(t *testing.T) {
	s, refs := family(t)
	out := string(Render(s, WithTheme(HighContrastTheme), WithSelection(refs["Taro"])))
	if !strings.Contains(out, HighContrastTheme.SelectedStroke.Hex()) {
		t.Error("selected node not highlighted")
	}
	if !strings.Contains(out, HighContrastTheme.SelectedFill[0].Hex()) {
		t.Error("selected male fill not used")
	}
}

func TestRenderPhoto(t *testing.T) {
	s := tree.New()
	hana, err := s.AddPerson(tree.Person{Name: "Hana", PhotoPath: "hana.png", Display: tree.DisplayNameAndPhoto})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddPerson(tree.Person{Name: "Taro", PhotoPath: "taro.png"}); err != nil {
		t.Fatal(err)
	}
	cfg := layout.DefaultConfig()
	cfg.PhotoDir = "photos"
	cfg.Photos = func(path string) (int, int, bool) {
		if path == filepath.Join("photos", "hana.png") {
			return 100, 100, true
		}
		return 0, 0, false
	}
	layout.New(layout.WithConfig(cfg)).Apply(s)
	out := string(Render(s, WithLayout(cfg)))

	if n := strings.Count(out, "<image "); n != 1 {
		t.Fatalf("images = %d, want 1 (Taro shows name only)", n)
	}
	if !strings.Contains(out, `href="`+filepath.Join("photos", "hana.png")+`"`) {
		t.Error("photo href not resolved against the photo directory")
	}
	p, _ := s.Person(hana)
	// 140 wide photo area plus the name strip.
	rectAttr := fmt.Sprintf(`x="%.1f" y="%.1f" width="140.0" height="170.0"`, p.Position.X, p.Position.Y)
	if !strings.Contains(out, rectAttr) {
		t.Errorf("photo node rect %s not found", rectAttr)
	}
}

func TestAge(t *testing.T) {
	tests := []struct {
		name  string
		p     tree.Person
		age   int
		known bool
	}{
		{"living", tree.Person{Birth: "1950-05-01"}, 74, true},
		{"year only", tree.Person{Birth: "1950"}, 74, true},
		{"deceased", tree.Person{Birth: "1921-04-02", Death: "2001-01-01", Deceased: true}, 80, true},
		{"deceased without date", tree.Person{Birth: "1921", Deceased: true}, 0, false},
		{"no birth", tree.Person{}, 0, false},
		{"unparseable", tree.Person{Birth: "circa 1900"}, 0, false},
		{"death before birth", tree.Person{Birth: "1990", Death: "1980", Deceased: true}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			age, ok := Age(tt.p, 2024)
			if age != tt.age || ok != tt.known {
				t.Errorf("Age = %d, %v; want %d, %v", age, ok, tt.age, tt.known)
			}
		})
	}
}

func TestPersonTooltip(t *testing.T) {
	tests := []struct {
		lang string
		p    tree.Person
		want string
	}{
		{LangEnglish, tree.Person{Name: "Taro", Birth: "1950"}, "Name: Taro\nBirth: 1950 (74 years old)"},
		{LangJapanese, tree.Person{Name: "太郎", Birth: "1950"}, "名前: 太郎\n生年月日: 1950 (74歳)"},
		{LangEnglish, tree.Person{Name: "Hana", Birth: "1921", Death: "2001", Deceased: true, Memo: "poet"},
			"Name: Hana\nBirth: 1921 (died at 80)\nDeath: 2001\nMemo: poet"},
		{LangJapanese, tree.Person{Name: "花", Birth: "1921", Death: "2001", Deceased: true}, "名前: 花\n生年月日: 1921 (享年80歳)\n没年月日: 2001"},
		{LangEnglish, tree.Person{Name: "Ken", Deceased: true}, "Name: Ken\nDeceased: Yes"},
		{"fr", tree.Person{Name: "Ken"}, "Name: Ken"},
	}
	for _, tt := range tests {
		if got := PersonTooltip(tt.p, tt.lang, 2024); got != tt.want {
			t.Errorf("PersonTooltip(%s, %s) = %q, want %q", tt.p.Name, tt.lang, got, tt.want)
		}
	}
}

func TestThemeByName(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"", "default", true},
		{"default", "default", true},
		{"High-Contrast", "high_contrast", true},
		{"neon", "default", false},
	}
	for _, tt := range tests {
		th, ok := ThemeByName(tt.name)
		if th.Name != tt.want || ok != tt.ok {
			t.Errorf("ThemeByName(%q) = %s, %v", tt.name, th.Name, ok)
		}
	}
}

func TestFitLabel(t *testing.T) {
	if got := fitLabel("Short", 140, 14); got != "Short" {
		t.Errorf("fitLabel kept = %q", got)
	}
	got := fitLabel(strings.Repeat("x", 40), 140, fontSizeMin)
	if !strings.HasSuffix(got, "..") || len(got) >= 40 {
		t.Errorf("fitLabel long = %q", got)
	}
	if s := fontSize(140, 50, 4); s != fontSizeMax {
		t.Errorf("fontSize short label = %v", s)
	}
}
