package cli

import (
	"strconv"
	"time"

	"github.com/matzehuels/famtree/pkg/tree"
)

// now is replaced in tests.
var now = time.Now

func currentYear() int { return now().Year() }

func itoa(n int) string { return strconv.Itoa(n) }

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func formatPoint(p tree.Point) string {
	return "(" + formatFloat(p.X) + ", " + formatFloat(p.Y) + ")"
}

// parseCoord parses one coordinate of a move target.
func parseCoord(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
