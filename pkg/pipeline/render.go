package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/famtree/pkg/render"
	"github.com/matzehuels/famtree/pkg/render/nodelink"
	"github.com/matzehuels/famtree/pkg/render/svg"
	"github.com/matzehuels/famtree/pkg/tree"
)

// RenderFormat produces one artifact of s. Nodes are drawn at their
// current positions; run the layout stage first for a fresh tree.
func RenderFormat(ctx context.Context, s *tree.Store, format string, opts Options) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatSVG:
		data = canvasSVG(s, opts)
	case FormatPDF:
		data, err = render.ToPDF(ctx, canvasSVG(s, opts))
	case FormatPNG:
		data, err = render.ToPNG(ctx, canvasSVG(s, opts), opts.Scale)
	case FormatDOT:
		data = []byte(nodelink.ToDOT(s, nodelinkOptions(opts)))
	case FormatNodelink:
		data, err = nodelink.RenderSVG(ctx, nodelink.ToDOT(s, nodelinkOptions(opts)))
	default:
		return nil, ValidateFormat(format)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return data, nil
}

func canvasSVG(s *tree.Store, opts Options) []byte {
	theme, _ := svg.ThemeByName(opts.Theme)
	return svg.Render(s,
		svg.WithLayout(opts.Layout),
		svg.WithTheme(theme),
		svg.WithGrid(opts.Grid()),
		svg.WithLanguage(opts.Language),
		svg.WithYear(opts.Year),
	)
}

func nodelinkOptions(opts Options) nodelink.Options {
	return nodelink.Options{Detailed: opts.Detailed, Events: opts.Events}
}
