package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var lower = cases.Lower(language.Und)

func isIgnorable(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '-', '_', ':', ';', ',', '.', '\'', '"', '!', '?', '(', ')', '[', ']', '{', '}':
		return true
	}
	return false
}

// Normalize folds a title into its comparison form. It is idempotent.
func Normalize(title string) string {
	if title == "" {
		return ""
	}
	folded := lower.String(norm.NFC.String(title))
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if isIgnorable(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizePtr is Normalize treating nil as the empty string.
func NormalizePtr(title *string) string {
	if title == nil {
		return ""
	}
	return Normalize(*title)
}
