package match

import "testing"

func TestMatchTrackToOfficialListByNumber(t *testing.T) {
	official := []OfficialTrack{
		{Number: 1, Title: "Song A"},
		{Number: 2, Title: "Song B"},
		{Number: 3, Title: "Song C"},
	}

	files := []string{
		"/dl/01 - Song A.mp3",
		"/dl/02 - song-b.mp3",
	}

	var matched []OfficialTrack
	for _, f := range files {
		parsed := ParseFilename(f)
		corrected, ok := MatchTrackToOfficialList(parsed, official)
		if !ok {
			t.Fatalf("no match for %q", f)
		}
		matched = append(matched, corrected)
	}

	if matched[0].Number != 1 || matched[1].Number != 2 {
		t.Fatalf("matched = %+v, want tracks 1 and 2 paired in order", matched)
	}
	// Official track #3 ("Song C") is left unmatched with no error.
}

func TestMatchTrackToOfficialListBySimilarityWhenNoNumber(t *testing.T) {
	official := []OfficialTrack{
		{Number: 1, Title: "Bohemian Rhapsody"},
		{Number: 2, Title: "Somebody to Love"},
	}
	parsed := ParsedFilename{Title: "Bohemian Rhapsody"}

	corrected, ok := MatchTrackToOfficialList(parsed, official)
	if !ok || corrected.Number != 1 {
		t.Fatalf("corrected = %+v, ok = %v, want track 1", corrected, ok)
	}
}

func TestMatchTrackToOfficialListBelowThresholdFails(t *testing.T) {
	official := []OfficialTrack{{Number: 1, Title: "Completely Unrelated Name"}}
	parsed := ParsedFilename{Title: "Nothing Alike Whatsoever"}

	if _, ok := MatchTrackToOfficialList(parsed, official); ok {
		t.Fatalf("expected no match below threshold")
	}
}
