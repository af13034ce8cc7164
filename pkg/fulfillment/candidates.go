package fulfillment

import (
	"context"
	"sort"

	"github.com/nezreka/fulfillment/pkg/match"
	"github.com/nezreka/fulfillment/pkg/p2pclient"
)

const (
	titleWeight  = 0.6
	artistWeight = 0.4
)

// selectCandidate searches for task's descriptor and returns the highest
// scoring candidate not already in used_sources, or nil if none remain.
func (e *Engine) selectCandidate(ctx context.Context, task *Task) (*Candidate, error) {
	var artist string
	if len(task.Descriptor.Artists) > 0 {
		artist = task.Descriptor.Artists[0]
	}
	query := buildQuery(artist, task.Descriptor.Name)

	tracks, albums, err := e.p2p.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	candidates := rankCandidates(tracks, albums, artist, task.Descriptor.Name)

	for _, c := range candidates {
		if _, used := task.UsedSources[c.Key()]; used {
			continue
		}
		chosen := c
		return &chosen, nil
	}
	return nil, nil
}

func buildQuery(artist, title string) string {
	cleaned := match.CleanTrackNameForSearch(title)
	if artist == "" {
		return cleaned
	}
	return artist + " " + cleaned
}

// rankCandidates scores every result and returns them sorted best-first;
// ties break on quality term then first-seen order (stable sort
// preserves first-seen order for equal scores).
func rankCandidates(tracks []p2pclient.TrackResult, albums []p2pclient.AlbumResult, artist, title string) []Candidate {
	var out []Candidate
	for _, t := range tracks {
		out = append(out, scoreTrack(t, artist, title))
	}
	for _, a := range albums {
		for _, t := range a.Tracks {
			if t.Username == "" {
				t.Username = a.Username
			}
			out = append(out, scoreTrack(t, artist, title))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return qualityTerm(out[i]) > qualityTerm(out[j])
	})
	return out
}

func scoreTrack(t p2pclient.TrackResult, artist, title string) Candidate {
	parsed := match.ParseFilename(t.Filename)
	titleSim := match.Similarity(match.Normalize(title), match.Normalize(parsed.Title))

	candArtist := ""
	if parsed.Artist != nil {
		candArtist = *parsed.Artist
	}
	artistSim := 1.0
	if artist != "" {
		artistSim = match.Similarity(match.Normalize(artist), match.Normalize(candArtist))
	}

	c := Candidate{
		Username:     t.Username,
		Filename:     t.Filename,
		Size:         t.Size,
		Bitrate:      t.Bitrate,
		QualityScore: t.QualityScore,
	}
	// Title/artist similarity dominate the score; the quality term is a
	// small additive nudge so it can't override a better text match but
	// still separates otherwise-identical candidates.
	c.Score = titleSim*titleWeight + artistSim*artistWeight + qualityTerm(c)*0.05
	return c
}

// qualityTerm derives a [0,1] quality signal from bitrate/format,
// doubling as the explicit tiebreaker when two candidates score equally.
func qualityTerm(c Candidate) float64 {
	if c.Bitrate == nil {
		return c.QualityScore
	}
	const flacEquivalentBitrate = 1411
	q := float64(*c.Bitrate) / flacEquivalentBitrate
	if q > 1 {
		q = 1
	}
	return q
}
