// Package normalize cleans user-entered text before it is stored or used as a lookup key.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	multipleSpaces  = regexp.MustCompile(`\s+`)
)

// Name returns the lookup key for an ingredient name.
// "Crème  Fraîche" -> "creme fraiche", "All-Purpose Flour" -> "all purpose flour".
func Name(s string) string {
	// Decompose accents, then drop the combining marks.
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, " ")
	return strings.TrimSpace(multipleSpaces.ReplaceAllString(s, " "))
}

// DisplayName trims and collapses whitespace but keeps the user's spelling.
func DisplayName(s string) string {
	return strings.TrimSpace(multipleSpaces.ReplaceAllString(s, " "))
}
