// Package match implements the pure, side-effect-free matching primitives
// the fulfillment engine and enrichment worker build on: string
// normalization, similarity scoring, filename parsing, and release-type
// classification. Nothing in this package performs I/O.
package match

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	parenSegment    = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	punctuation     = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	accentStripper  = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Normalize lower-cases s, strips accents, removes parenthesized/bracketed
// segments, collapses punctuation to spaces, and trims repeated whitespace.
// It is the shared key used by fuzzy lookups and dedup checks throughout
// the catalog and fulfillment engine.
func Normalize(s string) string {
	s = parenSegment.ReplaceAllString(s, " ")
	if stripped, _, err := transform.String(accentStripper, s); err == nil {
		s = stripped
	}
	s = strings.ToLower(s)
	s = punctuation.ReplaceAllString(s, " ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
