package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize reduces text to the form used for every comparison:
// diacritics removed, lower case, whitespace runs collapsed, trimmed.
//
//	"  Café  CRÈME " -> "cafe creme"
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	// A transform.Chain keeps state, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, text)
	if err != nil {
		// Only reachable on invalid UTF-8 internals; fall back to the raw text.
		stripped = text
	}

	return strings.Join(strings.Fields(strings.ToLower(stripped)), " ")
}
