// Package nodelink renders family trees as Graphviz node-link diagrams.
//
// # Overview
//
// Unlike the canvas SVG, which draws nodes where the user put them, this
// package hands the graph to Graphviz and lets it choose positions. Persons
// of one generation share a rank, parent-child edges point down, spouse
// edges are undirected and do not affect ranking.
//
// # Usage
//
//	dot := nodelink.ToDOT(store, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output, use the render functions:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # Options
//
//   - Detailed: person labels include birth and death dates
//   - Events: event nodes and their links are included
package nodelink
