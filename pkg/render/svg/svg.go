package svg

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/famtree/pkg/canvas"
	"github.com/matzehuels/famtree/pkg/layout"
	"github.com/matzehuels/famtree/pkg/tree"
)

const (
	cornerRadius   = 6.0
	edgeWidth      = 1.5
	spouseOffset   = 2.0
	familyPadding  = 20.0
	familyLabel    = 24.0
	familyLabelGap = 8.0
	linkMargin     = 2.0
	arrowSize      = 10.0
	arrowAngle     = math.Pi / 6
	defaultPadding = 40.0
	photoInset     = 4.0
)

// Tree is the read side of a store needed for drawing.
type Tree interface {
	Persons() []tree.Person
	Events() []tree.Event
	EventLinks() []tree.EventLink
	ParentChildEdges() []tree.ParentChildEdge
	SpouseEdges() []tree.SpouseEdge
	Families() []tree.Family
}

// Option configures [Render].
type Option func(*renderer)

type renderer struct {
	cfg      layout.Config
	theme    Theme
	grid     canvas.Grid
	lang     string
	year     int
	padding  float64
	selected map[tree.NodeRef]bool
}

// WithLayout sets the node geometry. It must match the configuration the
// positions were computed with.
func WithLayout(cfg layout.Config) Option { return func(r *renderer) { r.cfg = cfg } }

// WithTheme sets the colors.
func WithTheme(t Theme) Option { return func(r *renderer) { r.theme = t } }

// WithGrid draws grid lines when g is enabled.
func WithGrid(g canvas.Grid) Option { return func(r *renderer) { r.grid = g } }

// WithLanguage sets the tooltip language, "ja" or "en".
func WithLanguage(lang string) Option { return func(r *renderer) { r.lang = lang } }

// WithYear sets the year living persons are aged at.
func WithYear(year int) Option { return func(r *renderer) { r.year = year } }

// WithPadding sets the margin around the drawing.
func WithPadding(p float64) Option { return func(r *renderer) { r.padding = p } }

// WithSelection highlights the given nodes.
func WithSelection(refs ...tree.NodeRef) Option {
	return func(r *renderer) {
		for _, ref := range refs {
			r.selected[ref] = true
		}
	}
}

type rect struct{ x, y, w, h float64 }

func (r rect) cx() float64 { return r.x + r.w/2 }
func (r rect) cy() float64 { return r.y + r.h/2 }

func (r rect) union(o rect) rect {
	x0, y0 := min(r.x, o.x), min(r.y, o.y)
	x1, y1 := max(r.x+r.w, o.x+o.w), max(r.y+r.h, o.y+o.h)
	return rect{x0, y0, x1 - x0, y1 - y0}
}

// Render draws the tree at its stored positions in world coordinates.
// Output is deterministic for a given tree and options.
func Render(t Tree, opts ...Option) []byte {
	r := renderer{
		cfg:      layout.DefaultConfig(),
		theme:    DefaultTheme,
		lang:     LangEnglish,
		year:     time.Now().Year(),
		padding:  defaultPadding,
		selected: make(map[tree.NodeRef]bool),
	}
	for _, opt := range opts {
		opt(&r)
	}

	persons := t.Persons()
	events := t.Events()
	byID := make(map[uuid.UUID]tree.Person, len(persons))
	rects := make(map[uuid.UUID]rect, len(persons))
	photos := make(map[uuid.UUID]bool)
	for _, p := range persons {
		w, h := r.cfg.PersonSize(p)
		if _, plain := r.cfg.NodeSize(p.Name); p.ShowsPhoto() && h != plain {
			photos[p.ID] = true
		}
		byID[p.ID] = p
		rects[p.ID] = rect{p.Position.X, p.Position.Y, w, h}
	}
	eventRects := make(map[uuid.UUID]rect, len(events))
	eventColor := make(map[uuid.UUID]tree.RGB, len(events))
	for _, ev := range events {
		w, h := r.cfg.NodeSize(ev.Name)
		eventRects[ev.ID] = rect{ev.Position.X, ev.Position.Y, w, h}
		eventColor[ev.ID] = ev.Color
	}

	families := t.Families()
	boxes := make([]rect, len(families))
	hasBox := make([]bool, len(families))
	for i, f := range families {
		boxes[i], hasBox[i] = familyBox(f, rects)
	}

	bounds, ok := r.bounds(rects, eventRects, boxes, hasBox)
	if !ok {
		bounds = rect{0, 0, 200, 100}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		bounds.x, bounds.y, bounds.w, bounds.h, bounds.w, bounds.h)
	fmt.Fprintf(&buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
		bounds.x, bounds.y, bounds.w, bounds.h, r.theme.Background.Hex())

	r.renderGrid(&buf, bounds)
	for i, f := range families {
		if hasBox[i] {
			r.renderFamily(&buf, f, boxes[i])
		}
	}
	r.renderSpouses(&buf, t.SpouseEdges(), rects)
	r.renderParentLines(&buf, t.ParentChildEdges(), t.SpouseEdges(), rects)
	r.renderLinks(&buf, t.EventLinks(), eventRects, eventColor, rects)
	for _, ev := range events {
		r.renderEvent(&buf, ev, eventRects[ev.ID])
	}
	for _, p := range persons {
		r.renderPerson(&buf, p, rects[p.ID], photos[p.ID])
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *renderer) bounds(rects, eventRects map[uuid.UUID]rect, boxes []rect, hasBox []bool) (rect, bool) {
	var out rect
	first := true
	add := func(b rect) {
		if first {
			out, first = b, false
			return
		}
		out = out.union(b)
	}
	for _, b := range rects {
		add(b)
	}
	for _, b := range eventRects {
		add(b)
	}
	for i, b := range boxes {
		if hasBox[i] {
			add(b)
		}
	}
	if first {
		return out, false
	}
	p := r.padding
	return rect{out.x - p, out.y - p, out.w + 2*p, out.h + 2*p}, true
}

// familyBox is the padded bounding box of the members, with room for the
// name above it.
func familyBox(f tree.Family, rects map[uuid.UUID]rect) (rect, bool) {
	var box rect
	found := false
	for _, m := range f.Members {
		b, ok := rects[m]
		if !ok {
			continue
		}
		if !found {
			box, found = b, true
			continue
		}
		box = box.union(b)
	}
	if !found {
		return box, false
	}
	top := familyPadding + familyLabel + familyLabelGap
	return rect{box.x - familyPadding, box.y - top, box.w + 2*familyPadding, box.h + top + familyPadding}, true
}

func (r *renderer) renderGrid(buf *bytes.Buffer, b rect) {
	if !r.grid.Enabled {
		return
	}
	xs, ys := r.grid.Lines(tree.Point{X: b.x, Y: b.y}, tree.Point{X: b.x + b.w, Y: b.y + b.h})
	fmt.Fprintf(buf, `  <g class="grid" stroke="%s" stroke-width="1">`+"\n", r.theme.Grid.Hex())
	for _, x := range xs {
		fmt.Fprintf(buf, `    <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n", x, b.y, x, b.y+b.h)
	}
	for _, y := range ys {
		fmt.Fprintf(buf, `    <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n", b.x, y, b.x+b.w, y)
	}
	buf.WriteString("  </g>\n")
}

func (r *renderer) renderFamily(buf *bytes.Buffer, f tree.Family, b rect) {
	fmt.Fprintf(buf, `  <g class="family" id="family-%s">`+"\n", f.ID)
	fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" fill="%s" fill-opacity="0.12" stroke="%s" stroke-width="%.1f"/>`+"\n",
		b.x, b.y, b.w, b.h, cornerRadius*2, f.Color.Hex(), f.Color.Hex(), edgeWidth)
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-family='%s' font-size="14" font-weight="bold" fill="%s">%s</text>`+"\n",
		b.x+familyLabelGap, b.y+familyLabel, fontFamily, f.Color.Hex(), escapeXML(f.Name))
	buf.WriteString("  </g>\n")
}

// renderSpouses joins spouse centers with two parallel lines.
func (r *renderer) renderSpouses(buf *bytes.Buffer, spouses []tree.SpouseEdge, rects map[uuid.UUID]rect) {
	for _, s := range spouses {
		a, ok1 := rects[s.Person1]
		b, ok2 := rects[s.Person2]
		if !ok1 || !ok2 {
			continue
		}
		ax, ay, bx, by := a.cx(), a.cy(), b.cx(), b.cy()
		dx, dy := bx-ax, by-ay
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		px, py := -dy/l*spouseOffset, dx/l*spouseOffset

		fmt.Fprintf(buf, `  <g class="spouse" stroke="%s" stroke-width="%.1f">`, r.theme.Edge.Hex(), edgeWidth)
		if s.Memo != "" {
			fmt.Fprintf(buf, "<title>%s</title>", escapeXML(s.Memo))
		}
		fmt.Fprintf(buf, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`, ax+px, ay+py, bx+px, by+py)
		fmt.Fprintf(buf, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`, ax-px, ay-py, bx-px, by-py)
		buf.WriteString("</g>\n")
	}
}

// renderParentLines draws one line from the couple midpoint when two of a
// child's parents are spouses, and a bottom-to-top line from every other
// parent.
func (r *renderer) renderParentLines(buf *bytes.Buffer, edges []tree.ParentChildEdge, spouses []tree.SpouseEdge, rects map[uuid.UUID]rect) {
	married := func(a, b uuid.UUID) bool {
		for _, s := range spouses {
			if s.Joins(a, b) {
				return true
			}
		}
		return false
	}

	var order []uuid.UUID
	parents := make(map[uuid.UUID][]tree.ParentChildEdge)
	for _, e := range edges {
		if _, seen := parents[e.Child]; !seen {
			order = append(order, e.Child)
		}
		parents[e.Child] = append(parents[e.Child], e)
	}

	for _, child := range order {
		c, ok := rects[child]
		if !ok {
			continue
		}
		in := parents[child]
		coupled := make(map[int]bool)
	pairs:
		for i := 0; i < len(in); i++ {
			for j := i + 1; j < len(in); j++ {
				if married(in[i].Parent, in[j].Parent) {
					coupled[i], coupled[j] = true, true
					a, b := rects[in[i].Parent], rects[in[j].Parent]
					mx, my := (a.cx()+b.cx())/2, (a.cy()+b.cy())/2
					kind := in[i].Kind
					if kind == tree.KindBiological {
						kind = in[j].Kind
					}
					r.line(buf, "parent couple", mx, my, c.cx(), c.y, kind)
					break pairs
				}
			}
		}
		for i, e := range in {
			if coupled[i] {
				continue
			}
			p := rects[e.Parent]
			r.line(buf, "parent", p.cx(), p.y+p.h, c.cx(), c.y, e.Kind)
		}
	}
}

func (r *renderer) line(buf *bytes.Buffer, class string, x1, y1, x2, y2 float64, kind tree.EdgeKind) {
	dash := ""
	switch kind {
	case tree.KindAdoptive:
		dash = ` stroke-dasharray="6 4"`
	case tree.KindOther:
		dash = ` stroke-dasharray="2 3"`
	}
	fmt.Fprintf(buf, `  <line class="%s" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="%.1f"%s/>`+"\n",
		class, x1, y1, x2, y2, r.theme.Edge.Hex(), edgeWidth, dash)
}

// renderLinks draws event links between node borders in the event color,
// with an arrowhead on the person or event side as the style asks.
func (r *renderer) renderLinks(buf *bytes.Buffer, links []tree.EventLink, eventRects map[uuid.UUID]rect, colors map[uuid.UUID]tree.RGB, rects map[uuid.UUID]rect) {
	for _, l := range links {
		e, ok1 := eventRects[l.Event]
		p, ok2 := rects[l.Person]
		if !ok1 || !ok2 {
			continue
		}
		dx, dy := p.cx()-e.cx(), p.cy()-e.cy()
		d := math.Hypot(dx, dy)
		if d == 0 {
			continue
		}
		dx, dy = dx/d, dy/d
		te, tp := exitDistance(e, dx, dy)+linkMargin, exitDistance(p, dx, dy)+linkMargin
		sx, sy := e.cx()+dx*te, e.cy()+dy*te
		ex, ey := p.cx()-dx*tp, p.cy()-dy*tp
		color := colors[l.Event].Hex()

		fmt.Fprintf(buf, `  <g class="event-link" stroke="%s" fill="%s" stroke-width="%.1f">`, color, color, edgeWidth)
		if l.Memo != "" {
			fmt.Fprintf(buf, "<title>%s</title>", escapeXML(l.Memo))
		}
		fmt.Fprintf(buf, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`, sx, sy, ex, ey)
		switch l.Style {
		case tree.StyleArrowToPerson:
			arrowHead(buf, ex, ey, dx, dy)
		case tree.StyleArrowFromPerson:
			arrowHead(buf, sx, sy, -dx, -dy)
		}
		buf.WriteString("</g>\n")
	}
}

// exitDistance is how far a ray from the center of b along (dx, dy) travels
// before leaving b.
func exitDistance(b rect, dx, dy float64) float64 {
	tx, ty := math.Inf(1), math.Inf(1)
	if math.Abs(dx) > 1e-3 {
		tx = (b.w / 2) / math.Abs(dx)
	}
	if math.Abs(dy) > 1e-3 {
		ty = (b.h / 2) / math.Abs(dy)
	}
	return min(tx, ty)
}

// arrowHead draws a filled triangle with its tip at (x, y) pointing along
// (dx, dy).
func arrowHead(buf *bytes.Buffer, x, y, dx, dy float64) {
	angle := math.Atan2(dy, dx)
	lx := x - arrowSize*math.Cos(angle-arrowAngle)
	ly := y - arrowSize*math.Sin(angle-arrowAngle)
	rx := x - arrowSize*math.Cos(angle+arrowAngle)
	ry := y - arrowSize*math.Sin(angle+arrowAngle)
	fmt.Fprintf(buf, `<polygon points="%.1f,%.1f %.1f,%.1f %.1f,%.1f"/>`, x, y, lx, ly, rx, ry)
}

func (r *renderer) renderEvent(buf *bytes.Buffer, ev tree.Event, b rect) {
	label := ev.Name
	if ev.Date != "" {
		label += " (" + ev.Date + ")"
	}
	stroke, width := r.theme.Stroke, 1.0
	if r.selected[tree.EventRef(ev.ID)] {
		stroke, width = r.theme.SelectedStroke, 2.0
	}
	fmt.Fprintf(buf, `  <g class="event" id="event-%s">`, ev.ID)
	fmt.Fprintf(buf, "<title>%s</title>", escapeXML(EventTooltip(ev, r.lang)))
	fmt.Fprintf(buf, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" fill="%s" stroke="%s" stroke-width="%.1f"/>`,
		b.x, b.y, b.w, b.h, b.h/2, ev.Color.Hex(), stroke.Hex(), width)
	r.label(buf, label, b)
	buf.WriteString("</g>\n")
}

// renderPerson draws p in b. With a photo, the image fills the top of the
// node and the name sits in the strip below it.
func (r *renderer) renderPerson(buf *bytes.Buffer, p tree.Person, b rect, photo bool) {
	selected := r.selected[tree.PersonRef(p.ID)]
	stroke, width := r.theme.Stroke, 1.0
	if selected {
		stroke, width = r.theme.SelectedStroke, 2.0
	}
	dash := ""
	if p.Deceased {
		dash = ` stroke-dasharray="4 2"`
	}
	fmt.Fprintf(buf, `  <g class="person" id="person-%s">`, p.ID)
	fmt.Fprintf(buf, "<title>%s</title>", escapeXML(PersonTooltip(p, r.lang, r.year)))
	fmt.Fprintf(buf, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" fill="%s" stroke="%s" stroke-width="%.1f"%s/>`,
		b.x, b.y, b.w, b.h, cornerRadius, r.theme.fill(p.Gender, selected).Hex(), stroke.Hex(), width, dash)
	if !photo {
		r.label(buf, p.Name, b)
		buf.WriteString("</g>\n")
		return
	}
	area := b.h - layout.NameAreaHeight
	fmt.Fprintf(buf, `<image href="%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" preserveAspectRatio="xMidYMid meet"/>`,
		escapeXML(r.cfg.PhotoFile(p.PhotoPath)), b.x+photoInset, b.y+photoInset, b.w-2*photoInset, area-2*photoInset)
	r.label(buf, p.Name, rect{b.x, b.y + area, b.w, layout.NameAreaHeight})
	buf.WriteString("</g>\n")
}

func (r *renderer) label(buf *bytes.Buffer, label string, b rect) {
	size := fontSize(b.w, b.h, len([]rune(label)))
	fmt.Fprintf(buf, `<text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="central" font-family='%s' font-size="%.1f" fill="%s">%s</text>`,
		b.cx(), b.cy(), fontFamily, size, r.theme.Text.Hex(), escapeXML(fitLabel(label, b.w, size)))
}
