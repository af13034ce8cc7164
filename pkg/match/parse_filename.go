package match

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ParsedFilename holds the fields recoverable from a downloaded file's path
// when no tags (or insufficient tags) are present. Optional fields are nil
// when not recovered.
type ParsedFilename struct {
	Artist      *string
	Title       string
	Album       *string
	TrackNumber *int
}

var (
	dashSplit    = regexp.MustCompile(`\s+-\s+`)
	trackNumber  = regexp.MustCompile(`^\d{1,3}$`)
	leadingYear  = regexp.MustCompile(`^\d{4}\s*-\s*`)
)

func isTrackNumberToken(s string) bool {
	return trackNumber.MatchString(strings.TrimSpace(s))
}

func atoiTrack(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

func strPtr(s string) *string { return &s }

// ParseFilename recovers {artist?, title, album?, track_number?} from a
// download's path, trying dash-separated layouts first, then an underscore
// layout, and finally falling back to the parent directory as album with
// the whole basename as title.
func ParseFilename(path string) ParsedFilename {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSpace(base)

	tokens := dashSplit.Split(base, -1)

	var parsed ParsedFilename
	switch {
	case len(tokens) >= 3 && isTrackNumberToken(tokens[0]):
		parsed = ParsedFilename{
			TrackNumber: atoiTrack(tokens[0]),
			Artist:      strPtr(strings.TrimSpace(tokens[1])),
			Title:       strings.TrimSpace(strings.Join(tokens[2:], " - ")),
		}
	case len(tokens) >= 2 && !isTrackNumberToken(tokens[0]):
		parsed = ParsedFilename{
			Artist: strPtr(strings.TrimSpace(tokens[0])),
			Title:  strings.TrimSpace(strings.Join(tokens[1:], " - ")),
		}
	case len(tokens) >= 2 && isTrackNumberToken(tokens[0]):
		parsed = ParsedFilename{
			TrackNumber: atoiTrack(tokens[0]),
			Title:       strings.TrimSpace(strings.Join(tokens[1:], " - ")),
		}
	default:
		if u := parseUnderscoreLayout(base); u != nil {
			parsed = *u
		} else {
			parentDir := filepath.Base(filepath.Dir(path))
			album := leadingYear.ReplaceAllString(parentDir, "")
			parsed = ParsedFilename{
				Title: base,
				Album: strPtr(album),
			}
		}
	}

	if parsed.Artist != nil && parsed.Title != "" {
		parsed.Title = stripArtistFromTitle(*parsed.Artist, parsed.Title)
	}
	return parsed
}

// parseUnderscoreLayout handles "Artist_Album_NN_Title", returning nil if
// base doesn't fit that shape.
func parseUnderscoreLayout(base string) *ParsedFilename {
	parts := strings.Split(base, "_")
	if len(parts) < 4 {
		return nil
	}
	if !isTrackNumberToken(parts[2]) {
		return nil
	}
	return &ParsedFilename{
		Artist:      strPtr(strings.TrimSpace(parts[0])),
		Album:       strPtr(strings.TrimSpace(parts[1])),
		TrackNumber: atoiTrack(parts[2]),
		Title:       strings.TrimSpace(strings.Join(parts[3:], "_")),
	}
}

// stripArtistFromTitle removes a leading/embedded artist credit from title
// when the artist name also appears inside it, e.g. "Artist - Artist - Song".
func stripArtistFromTitle(artist, title string) string {
	na, nt := Normalize(artist), Normalize(title)
	if na == "" || !strings.Contains(nt, na) {
		return title
	}
	idx := strings.Index(strings.ToLower(title), strings.ToLower(artist))
	if idx < 0 {
		return title
	}
	stripped := title[:idx] + title[idx+len(artist):]
	stripped = dashSplit.ReplaceAllString(stripped, " ")
	stripped = strings.TrimSpace(stripped)
	if stripped == "" {
		return title
	}
	return stripped
}
