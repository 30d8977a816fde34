// Package sections finds section-title candidates in raw document text and
// locates their context.
package sections

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docsections/internal/doctree"
)

const (
	// MaxCandidateTokens is the longest line, in whitespace-separated tokens,
	// still considered a title.
	MaxCandidateTokens = 8

	// SnippetLead and SnippetTrail bound the snippet window in characters
	// before and after the match offset.
	SnippetLead  = 100
	SnippetTrail = 300

	// DefaultPage is reported when no page contains the title.
	DefaultPage = 1
)

// ExtractCandidates scans text line by line and returns title-shaped lines in
// order of first appearance. Exact duplicates are dropped.
func ExtractCandidates(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, line := range strings.Split(text, "\n") {
		clean := strings.TrimSpace(line)
		if !IsCandidate(clean) || seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	return out
}

// IsCandidate reports whether an already trimmed line looks like a title:
// non-empty, at most MaxCandidateTokens tokens, first character upper-case.
func IsCandidate(clean string) bool {
	if clean == "" {
		return false
	}
	if len(strings.Fields(clean)) > MaxCandidateTokens {
		return false
	}
	first, _ := utf8.DecodeRuneInString(clean)
	return unicode.IsUpper(first)
}

// Top returns at most n candidates, preserving order.
func Top(candidates []string, n int) []string {
	if n < 0 {
		n = 0
	}
	if len(candidates) > n {
		return candidates[:n]
	}
	return candidates
}

// Snippet returns the text around the first case-insensitive occurrence of
// title: SnippetLead characters before it through SnippetTrail characters
// after its start, with newlines replaced by spaces and trimmed. It returns ""
// when title does not occur.
func Snippet(text, title string) string {
	runes := []rune(text)
	idx := indexFold(runes, []rune(title))
	if idx < 0 {
		return ""
	}
	start := max(0, idx-SnippetLead)
	end := min(len(runes), idx+SnippetTrail)
	window := strings.ReplaceAll(string(runes[start:end]), "\n", " ")
	return strings.TrimSpace(window)
}

// LocatePage returns the number of the first page whose text contains
// title, ignoring case. It returns DefaultPage when none does.
func LocatePage(title string, pages []doctree.Page) int {
	needle := []rune(title)
	for _, page := range pages {
		if indexFold([]rune(page.Text), needle) >= 0 {
			return page.Number
		}
	}
	return DefaultPage
}

// indexFold is a case-insensitive rune index. Folding is per rune so offsets
// in the lowered text match offsets in the original.
func indexFold(haystack, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
	n := lower(needle)
	h := lower(haystack)
outer:
	for i := 0; i+len(n) <= len(h); i++ {
		for j := range n {
			if h[i+j] != n[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}

func lower(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}
