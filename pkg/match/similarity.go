package match

import (
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

var levenshteinOptions = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: func(a, b rune) bool { return a == b },
}

// Similarity returns a symmetric score in [0,1]: 1.0 iff Normalize(a) ==
// Normalize(b), derived from the Levenshtein edit-distance ratio otherwise.
// Callers compare the result against the 0.7/0.8/0.9 thresholds named
// throughout the fulfillment engine and enrichment worker.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 1.0
	}
	ra, rb := []rune(na), []rune(nb)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	dist := levenshtein.DistanceForStrings(ra, rb, levenshteinOptions)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	score := 1 - float64(dist)/float64(maxLen)
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}
