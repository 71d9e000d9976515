package svg

import (
	"strings"

	"github.com/matzehuels/famtree/pkg/tree"
)

// Theme holds the colors of a rendered tree.
type Theme struct {
	Name string

	// Fill and SelectedFill are indexed by gender: male, female, unknown.
	Fill         [3]tree.RGB
	SelectedFill [3]tree.RGB

	Stroke         tree.RGB
	SelectedStroke tree.RGB
	Edge           tree.RGB
	Grid           tree.RGB
	Text           tree.RGB
	Background     tree.RGB
}

// DefaultTheme uses soft pastel fills.
var DefaultTheme = Theme{
	Name:           "default",
	Fill:           [3]tree.RGB{{173, 216, 230}, {255, 182, 193}, {245, 245, 245}},
	SelectedFill:   [3]tree.RGB{{200, 235, 255}, {255, 220, 230}, {200, 230, 255}},
	Stroke:         tree.RGB{128, 128, 128},
	SelectedStroke: tree.RGB{0, 100, 200},
	Edge:           tree.RGB{170, 170, 170},
	Grid:           tree.RGB{230, 230, 230},
	Text:           tree.RGB{30, 30, 30},
	Background:     tree.RGB{255, 255, 255},
}

// HighContrastTheme uses saturated fills and dark strokes.
var HighContrastTheme = Theme{
	Name:           "high_contrast",
	Fill:           [3]tree.RGB{{140, 200, 255}, {255, 155, 200}, {230, 230, 230}},
	SelectedFill:   [3]tree.RGB{{80, 170, 255}, {255, 100, 170}, {190, 220, 255}},
	Stroke:         tree.RGB{70, 70, 70},
	SelectedStroke: tree.RGB{0, 60, 160},
	Edge:           tree.RGB{90, 90, 90},
	Grid:           tree.RGB{200, 200, 200},
	Text:           tree.RGB{0, 0, 0},
	Background:     tree.RGB{255, 255, 255},
}

// ThemeByName returns the theme called name ("default" or
// "high_contrast"; dashes are accepted for underscores).
func ThemeByName(name string) (Theme, bool) {
	switch strings.ReplaceAll(strings.ToLower(name), "-", "_") {
	case "", DefaultTheme.Name:
		return DefaultTheme, true
	case HighContrastTheme.Name:
		return HighContrastTheme, true
	}
	return DefaultTheme, false
}

func (t Theme) fill(g tree.Gender, selected bool) tree.RGB {
	i := 2
	switch g {
	case tree.GenderMale:
		i = 0
	case tree.GenderFemale:
		i = 1
	}
	if selected {
		return t.SelectedFill[i]
	}
	return t.Fill[i]
}
