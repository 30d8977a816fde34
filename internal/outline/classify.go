// Package outline builds per-document heading outlines.
package outline

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Level is a heading level tag.
type Level string

const (
	H1 Level = "H1"
	H2 Level = "H2"
	H3 Level = "H3"
)

// Classify assigns a heading level from text length and case alone.
// Short all-caps text is H1; otherwise the level follows length bands.
func Classify(text string) (Level, bool) {
	trimmed := strings.TrimSpace(text)
	n := utf8.RuneCountInString(trimmed)
	switch {
	case n < 20 && isUpper(text):
		return H1, true
	case n < 40:
		return H2, true
	case n < 60:
		return H3, true
	}
	return "", false
}

// isUpper reports whether s has at least one cased rune and no lower-case ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// CleanText collapses all whitespace runs, newlines included, to single spaces.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
