package parser

import (
	"math"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// Thresholds are fractions of the glyph's font size.
const (
	lineBreakRatio = 0.5
	wordGapRatio   = 0.2
)

// textLines groups positioned glyphs into lines, in content-stream order.
// A vertical move of more than half the font size, or a jump back to the
// left, starts a new line. A horizontal gap wider than a fifth of the font
// size inside a line becomes a space.
func textLines(texts []pdflib.Text) []string {
	var (
		lines    []string
		cur      strings.Builder
		lastY    float64
		lastEndX float64
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			lines = append(lines, s)
		}
		cur.Reset()
	}

	for i, t := range texts {
		size := math.Max(t.FontSize, 1)
		if i > 0 {
			switch {
			case math.Abs(t.Y-lastY) > size*lineBreakRatio, t.X < lastEndX-size:
				flush()
			case t.X-lastEndX > size*wordGapRatio && t.S != " " && !strings.HasSuffix(cur.String(), " "):
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(t.S)
		lastY = t.Y
		lastEndX = t.X + t.W
	}
	flush()
	return lines
}

// splitLines returns the non-blank lines of text, trimmed.
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}
