package svg

import (
	"bytes"
	"encoding/xml"
	"unicode/utf8"
)

const (
	fontHeightRatio = 0.45
	fontWidthRatio  = 0.85
	fontCharWidth   = 0.6
	fontSizeMin     = 8.0
	fontSizeMax     = 16.0
	fontFamily      = `-apple-system, "Segoe UI", "Hiragino Sans", "Noto Sans CJK JP", sans-serif`
)

// fontSize fits a label of n runes into a w by h box.
func fontSize(w, h float64, n int) float64 {
	n = max(1, n)
	byHeight := h * fontHeightRatio
	byWidth := (w * fontWidthRatio) / (float64(n) * fontCharWidth)
	return max(fontSizeMin, min(fontSizeMax, min(byHeight, byWidth)))
}

// fitLabel shortens label with ".." when it cannot fit at the minimum
// font size.
func fitLabel(label string, w, size float64) string {
	maxRunes := max(3, int(w*fontWidthRatio/(size*fontCharWidth)))
	if utf8.RuneCountInString(label) <= maxRunes {
		return label
	}
	runes := []rune(label)
	return string(runes[:maxRunes-2]) + ".."
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
