package tree

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Gender of a person. The zero value is GenderUnknown.
type Gender int

const (
	GenderUnknown Gender = iota
	GenderMale
	GenderFemale
)

var genderNames = map[Gender]string{
	GenderUnknown: "Unknown",
	GenderMale:    "Male",
	GenderFemale:  "Female",
}

func (g Gender) String() string {
	if s, ok := genderNames[g]; ok {
		return s
	}
	return fmt.Sprintf("Gender(%d)", int(g))
}

// MarshalText encodes the gender as "Male", "Female" or "Unknown".
func (g Gender) MarshalText() ([]byte, error) {
	if _, ok := genderNames[g]; !ok {
		return nil, fmt.Errorf("invalid gender %d", int(g))
	}
	return []byte(g.String()), nil
}

// UnmarshalText accepts any casing of the three gender names.
// Unrecognized text decodes as GenderUnknown.
func (g *Gender) UnmarshalText(text []byte) error {
	*g = ParseGender(string(text))
	return nil
}

// ParseGender maps a name (case-insensitive, "m"/"f" allowed) to a Gender.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return GenderMale
	case "female", "f":
		return GenderFemale
	default:
		return GenderUnknown
	}
}

// EdgeKind tags a parent-child edge.
type EdgeKind int

const (
	KindBiological EdgeKind = iota
	KindAdoptive
	KindOther
)

var kindNames = map[EdgeKind]string{
	KindBiological: "biological",
	KindAdoptive:   "adoptive",
	KindOther:      "other",
}

func (k EdgeKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("EdgeKind(%d)", int(k))
}

func (k EdgeKind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("invalid edge kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name; unknown names decode as KindOther.
func (k *EdgeKind) UnmarshalText(text []byte) error {
	*k = ParseEdgeKind(string(text))
	return nil
}

// ParseEdgeKind maps a kind name to an EdgeKind. An empty string is
// biological; any other unrecognized value is KindOther.
func ParseEdgeKind(s string) EdgeKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "biological":
		return KindBiological
	case "adoptive":
		return KindAdoptive
	default:
		return KindOther
	}
}

// LinkStyle controls how an event link is drawn.
type LinkStyle int

const (
	StyleLine LinkStyle = iota
	StyleArrowToPerson
	StyleArrowFromPerson
)

var styleNames = map[LinkStyle]string{
	StyleLine:            "line",
	StyleArrowToPerson:   "arrow-to-person",
	StyleArrowFromPerson: "arrow-from-person",
}

func (s LinkStyle) String() string {
	if n, ok := styleNames[s]; ok {
		return n
	}
	return fmt.Sprintf("LinkStyle(%d)", int(s))
}

func (s LinkStyle) MarshalText() ([]byte, error) {
	if _, ok := styleNames[s]; !ok {
		return nil, fmt.Errorf("invalid link style %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *LinkStyle) UnmarshalText(text []byte) error {
	*s = ParseLinkStyle(string(text))
	return nil
}

// ParseLinkStyle maps a style name to a LinkStyle, defaulting to StyleLine.
// Case, dashes and underscores are ignored, so "ArrowToPerson" and
// "arrow-to-person" are the same style. A bare "arrow" points at the person.
func ParseLinkStyle(s string) LinkStyle {
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s))
	switch norm {
	case "arrow", "arrowtoperson", "toperson":
		return StyleArrowToPerson
	case "arrowfromperson", "fromperson", "arrowtoevent", "toevent":
		return StyleArrowFromPerson
	default:
		return StyleLine
	}
}

// DisplayMode selects what a person node shows.
type DisplayMode int

const (
	DisplayNameOnly DisplayMode = iota
	DisplayNameAndPhoto
)

var displayNames = map[DisplayMode]string{
	DisplayNameOnly:     "NameOnly",
	DisplayNameAndPhoto: "NameAndPhoto",
}

func (m DisplayMode) String() string {
	if s, ok := displayNames[m]; ok {
		return s
	}
	return fmt.Sprintf("DisplayMode(%d)", int(m))
}

func (m DisplayMode) MarshalText() ([]byte, error) {
	if _, ok := displayNames[m]; !ok {
		return nil, fmt.Errorf("invalid display mode %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *DisplayMode) UnmarshalText(text []byte) error {
	*m = ParseDisplayMode(string(text))
	return nil
}

// ParseDisplayMode maps "NameAndPhoto" (or just "photo") to
// DisplayNameAndPhoto, ignoring case, dashes and underscores. Anything else
// is DisplayNameOnly.
func ParseDisplayMode(s string) DisplayMode {
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s))
	switch norm {
	case "nameandphoto", "photo":
		return DisplayNameAndPhoto
	default:
		return DisplayNameOnly
	}
}

// Point is a position in world coordinates. For nodes it is the top-left
// corner of the node rectangle.
type Point struct {
	X, Y float64
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p multiplied by f on both axes.
func (p Point) Scale(f float64) Point { return Point{p.X * f, p.Y * f} }

// PinState records whether a node position is engine-managed or user-set.
type PinState uint8

const (
	// Auto positions are recomputed by the layout engine.
	Auto PinState = iota
	// Pinned positions are never overwritten by the layout engine.
	Pinned
)

func (p PinState) String() string {
	if p == Pinned {
		return "pinned"
	}
	return "auto"
}

// RGB is a display color.
type RGB [3]uint8

// Hex formats the color as "#rrggbb".
func (c RGB) Hex() string { return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]) }

// ParseRGB parses "#rrggbb" or "rrggbb".
func ParseRGB(s string) (RGB, error) {
	var c RGB
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return c, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return c, fmt.Errorf("color %q: %w", s, err)
	}
	return RGB{uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}

// DefaultFamilyColor is used for families created without a color.
var DefaultFamilyColor = RGB{100, 150, 255}

// DefaultEventColor is used for events created without a color.
var DefaultEventColor = RGB{255, 200, 100}

// Person is a node of the genealogy graph.
type Person struct {
	ID       uuid.UUID
	Name     string `validate:"required,max=200"`
	Gender   Gender `validate:"min=0,max=2"`
	Birth    string `validate:"max=64"` // empty when unknown
	Death    string `validate:"max=64"` // empty when unknown or alive
	Deceased bool
	Memo     string `validate:"max=4000"`
	Position Point
	Pin      PinState

	PhotoPath  string      `validate:"max=1024"`
	Display    DisplayMode `validate:"min=0,max=1"`
	PhotoScale float64     `validate:"gte=0,lte=10"` // zero means 1
}

// Scale returns the photo scale factor, treating zero as 1.
func (p Person) Scale() float64 {
	if p.PhotoScale <= 0 {
		return 1
	}
	return p.PhotoScale
}

// ShowsPhoto reports whether the node is drawn with a photo.
func (p Person) ShowsPhoto() bool {
	return p.Display == DisplayNameAndPhoto && p.PhotoPath != ""
}

// normalize enforces that a death date implies the deceased flag.
func (p *Person) normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.PhotoPath = strings.TrimSpace(p.PhotoPath)
	if p.Death != "" {
		p.Deceased = true
	}
}

// ParentChildEdge is a directed parent to child relation.
type ParentChildEdge struct {
	Parent uuid.UUID
	Child  uuid.UUID
	Kind   EdgeKind
}

// SpouseEdge is an unordered pair stored with the smaller id first.
type SpouseEdge struct {
	Person1 uuid.UUID
	Person2 uuid.UUID
	Memo    string
}

// NewSpouseEdge returns the canonical edge for the unordered pair {a, b}.
func NewSpouseEdge(a, b uuid.UUID, memo string) SpouseEdge {
	if CompareIDs(b, a) < 0 {
		a, b = b, a
	}
	return SpouseEdge{Person1: a, Person2: b, Memo: memo}
}

// Other returns the partner of id, or uuid.Nil if id is not in the pair.
func (e SpouseEdge) Other(id uuid.UUID) uuid.UUID {
	switch id {
	case e.Person1:
		return e.Person2
	case e.Person2:
		return e.Person1
	}
	return uuid.Nil
}

// Joins reports whether the edge connects a and b in either order.
func (e SpouseEdge) Joins(a, b uuid.UUID) bool {
	return (e.Person1 == a && e.Person2 == b) || (e.Person1 == b && e.Person2 == a)
}

// Family is a named, colored group of persons.
type Family struct {
	ID      uuid.UUID
	Name    string `validate:"max=200"`
	Color   RGB
	Members []uuid.UUID
}

// Has reports whether id is a member.
func (f *Family) Has(id uuid.UUID) bool {
	for _, m := range f.Members {
		if m == id {
			return true
		}
	}
	return false
}

// Event is a timeline node that can be linked to persons.
type Event struct {
	ID          uuid.UUID
	Name        string `validate:"required,max=200"`
	Date        string `validate:"max=64"`
	Description string `validate:"max=4000"`
	Color       RGB
	Position    Point
	Pin         PinState
}

// EventLink relates an event to a person.
type EventLink struct {
	Event  uuid.UUID
	Person uuid.UUID
	Style  LinkStyle
	Memo   string
}

// NodeKind distinguishes the two kinds of canvas nodes.
type NodeKind int

const (
	NodePerson NodeKind = iota
	NodeEvent
)

func (k NodeKind) String() string {
	if k == NodeEvent {
		return "event"
	}
	return "person"
}

// ParseNodeKind accepts "person" or "event".
func ParseNodeKind(s string) (NodeKind, bool) {
	switch strings.ToLower(s) {
	case "person", "persons":
		return NodePerson, true
	case "event", "events":
		return NodeEvent, true
	}
	return 0, false
}

// NodeRef addresses a person or event on the canvas.
type NodeRef struct {
	Kind NodeKind
	ID   uuid.UUID
}

// PersonRef returns a reference to a person node.
func PersonRef(id uuid.UUID) NodeRef { return NodeRef{Kind: NodePerson, ID: id} }

// EventRef returns a reference to an event node.
func EventRef(id uuid.UUID) NodeRef { return NodeRef{Kind: NodeEvent, ID: id} }

func (r NodeRef) String() string { return r.Kind.String() + ":" + r.ID.String() }

// CompareIDs orders ids by their byte value, which matches the order of
// their canonical string form.
func CompareIDs(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) }

// CompareRefs orders persons before events, then by id.
func CompareRefs(a, b NodeRef) int {
	if a.Kind != b.Kind {
		return int(a.Kind) - int(b.Kind)
	}
	return CompareIDs(a.ID, b.ID)
}
