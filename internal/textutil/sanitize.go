package textutil

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// SanitizeText strips markup from free text such as synopses and
// collapses the whitespace left behind.
func SanitizeText(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	cleaned := html.UnescapeString(stripPolicy.Sanitize(value))
	return strings.Join(strings.Fields(cleaned), " ")
}

// SanitizePtr applies SanitizeText and maps blank results to nil.
func SanitizePtr(value *string) *string {
	if value == nil {
		return nil
	}
	cleaned := SanitizeText(*value)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
