package match

import (
	"regexp"
	"strings"
)

var (
	featuringSegment = regexp.MustCompile(`(?i)[\(\[](?:feat\.?|ft\.?|featuring|with)\b[^\)\]]*[\)\]]`)
	taggedSegment    = regexp.MustCompile(`(?i)[\(\[](?:explicit|clean|radio edit|radio version)[\)\]]`)
)

// CleanTrackNameForSearch strips search-hostile decoration — featuring
// credits, "(Explicit)"/"(Clean)" tags, radio-edit markers — from a track
// title while preserving musically meaningful parentheticals such as
// (Live), (Acoustic), (Remix), (Extended Version), (Remastered), (Demo),
// (Instrumental), and year/edition markers. If cleaning would yield an
// empty string, the original name is returned unchanged.
func CleanTrackNameForSearch(name string) string {
	cleaned := featuringSegment.ReplaceAllString(name, "")
	cleaned = taggedSegment.ReplaceAllString(cleaned, "")
	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return name
	}
	return cleaned
}
