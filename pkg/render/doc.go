// Package render turns a laid-out family tree into files.
//
// # Overview
//
// Two renderers live in subpackages:
//
//   - [svg] draws the tree at its stored positions, the same picture the
//     interactive canvas shows (grid, family boxes, spouse and parent lines,
//     events with their links, tooltips)
//   - [nodelink] emits Graphviz DOT with one rank per generation and lets
//     Graphviz place the nodes
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert tool
// (from librsvg). Without the tool they fail with UNSUPPORTED.
//
//	out := svg.Render(store)
//	pdf, err := render.ToPDF(ctx, out)
//	png, err := render.ToPNG(ctx, out, 2.0)  // 2x scale
//
// [svg]: github.com/matzehuels/famtree/pkg/render/svg
// [nodelink]: github.com/matzehuels/famtree/pkg/render/nodelink
package render
