package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/google/uuid"

	"github.com/matzehuels/famtree/pkg/layout"
	"github.com/matzehuels/famtree/pkg/render"
	"github.com/matzehuels/famtree/pkg/tree"
)

// Tree is what [ToDOT] reads. [*tree.Store] implements it.
type Tree interface {
	layout.Source
	ParentChildEdges() []tree.ParentChildEdge
	SpouseEdges() []tree.SpouseEdge
}

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds birth and death dates to person labels.
	Detailed bool

	// Events includes event nodes and their links.
	Events bool
}

var genderFill = map[tree.Gender]string{
	tree.GenderMale:    "#add8e6",
	tree.GenderFemale:  "#ffb6c1",
	tree.GenderUnknown: "#f5f5f5",
}

// ToDOT converts a tree to Graphviz DOT. Persons of one generation share a
// rank; spouse edges are undirected and do not constrain ranking.
func ToDOT(t Tree, opts Options) string {
	gens, _ := layout.Generations(t)
	tiers := make(map[int][]uuid.UUID)
	for id, g := range gens {
		tiers[g] = append(tiers[g], id)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, p := range t.Persons() {
		attrs := []string{
			fmt.Sprintf("label=%q", personLabel(p, opts.Detailed)),
			fmt.Sprintf("fillcolor=%q", genderFill[p.Gender]),
		}
		if p.Deceased {
			attrs = append(attrs, "style=\"rounded,filled,dashed\"")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", p.ID.String(), strings.Join(attrs, ", "))
	}

	for _, g := range slices.Sorted(maps.Keys(tiers)) {
		ids := tiers[g]
		slices.SortFunc(ids, tree.CompareIDs)
		quoted := make([]string, len(ids))
		for i, id := range ids {
			quoted[i] = strconv.Quote(id.String())
		}
		fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(quoted, "; "))
	}

	buf.WriteString("\n")
	for _, e := range t.ParentChildEdges() {
		attr := ""
		switch e.Kind {
		case tree.KindAdoptive:
			attr = " [style=dashed]"
		case tree.KindOther:
			attr = " [style=dotted]"
		}
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.Parent.String(), e.Child.String(), attr)
	}
	for _, s := range t.SpouseEdges() {
		fmt.Fprintf(&buf, "  %q -> %q [dir=none, color=\"#aaaaaa\", penwidth=2, constraint=false];\n",
			s.Person1.String(), s.Person2.String())
	}

	if opts.Events {
		writeEvents(&buf, t)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeEvents(buf *bytes.Buffer, t Tree) {
	buf.WriteString("\n")
	colors := make(map[uuid.UUID]string)
	for _, ev := range t.Events() {
		colors[ev.ID] = ev.Color.Hex()
		label := ev.Name
		if ev.Date != "" {
			label += "\n" + ev.Date
		}
		fmt.Fprintf(buf, "  %q [label=%q, shape=ellipse, fillcolor=%q];\n", ev.ID.String(), label, ev.Color.Hex())
	}
	for _, l := range t.EventLinks() {
		dir := "none"
		switch l.Style {
		case tree.StyleArrowToPerson:
			dir = "forward"
		case tree.StyleArrowFromPerson:
			dir = "back"
		}
		fmt.Fprintf(buf, "  %q -> %q [dir=%s, color=%q, constraint=false];\n",
			l.Event.String(), l.Person.String(), dir, colors[l.Event])
	}
}

func personLabel(p tree.Person, detailed bool) string {
	if !detailed || (p.Birth == "" && p.Death == "") {
		return p.Name
	}
	return p.Name + "\n" + p.Birth + " - " + p.Death
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a
// unitless one so the diagram scales like the canvas SVG.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
