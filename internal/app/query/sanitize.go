// Package query provides search-term sanitization for the keyword search API.
package query

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// disallowed matches every character the search API does not accept in a term.
var disallowed = regexp.MustCompile(`[^a-zA-Z0-9.+\-_*]`)

// stripMarks decomposes characters and drops the combining marks, so that
// accented letters collapse to their base form ("café" -> "cafe").
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Sanitize prepares a raw term for the search API: diacritics are folded to
// base characters, spaces become '+', and any remaining character outside
// [A-Za-z0-9.+*_-] is removed.
func Sanitize(term string) string {
	folded, _, err := transform.String(stripMarks, term)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to the raw term
		// and let the character strip below handle it.
		folded = term
	}
	folded = strings.ReplaceAll(folded, " ", "+")
	return disallowed.ReplaceAllString(folded, "")
}
