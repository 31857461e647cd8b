package sessions

import (
	"strings"
	"unicode"
)

// DefaultPreviewChars is the preview budget used when none is configured
const DefaultPreviewChars = 200

// Ellipsis marks a truncated preview
const Ellipsis = "…"

// Truncate flattens s onto one line and shortens it to at most budget characters,
// cutting back to the last space when there is one, followed by Ellipsis.
func Truncate(s string, budget int) string {
	cleaned := cleanPreview(s)
	runes := []rune(cleaned)
	if budget < 0 {
		budget = 0
	}
	if len(runes) <= budget {
		return cleaned
	}

	cut := runes[:budget]
	if i := lastSpace(cut); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRightFunc(string(cut), unicode.IsSpace) + Ellipsis
}

// cleanPreview replaces line feeds with spaces, removes carriage returns and
// other control characters, then trims
func cleanPreview(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteRune(' ')
		case r == '\r':
		case unicode.IsControl(r) && !unicode.IsSpace(r):
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}
