// Package svg draws a family tree as a standalone SVG document.
//
// Nodes are drawn at their stored positions, so the output matches what
// the interactive canvas shows. Drawing order is back to front: grid,
// family boxes, spouse lines, parent lines, event links, events and
// persons. Every node carries a <title> tooltip.
//
//	res := layout.New().Apply(store)
//	svg := svg.Render(store,
//	    svg.WithTheme(svg.HighContrastTheme),
//	    svg.WithLanguage(svg.LangJapanese),
//	)
package svg
