package match

// OfficialTrack is one entry of an album's authoritative tracklist, as
// returned by the metadata provider.
type OfficialTrack struct {
	Number int
	Title  string
}

// MatchTrackToOfficialList pairs a filename-parsed track against an album's
// official tracklist. A present track number is used as the primary key;
// otherwise (or if no official track carries that number) the official
// track whose title has the highest similarity to parsed.Title is chosen,
// provided that similarity exceeds 0.8. ok is false when nothing clears the
// threshold.
func MatchTrackToOfficialList(parsed ParsedFilename, official []OfficialTrack) (corrected OfficialTrack, ok bool) {
	if parsed.TrackNumber != nil {
		for _, o := range official {
			if o.Number == *parsed.TrackNumber {
				return o, true
			}
		}
	}

	var best OfficialTrack
	bestScore := 0.0
	found := false
	for _, o := range official {
		s := Similarity(parsed.Title, o.Title)
		if s > bestScore {
			bestScore = s
			best = o
			found = true
		}
	}
	if found && bestScore > 0.8 {
		return best, true
	}
	return OfficialTrack{}, false
}
