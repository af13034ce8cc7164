package enrichment

import (
	"context"

	"github.com/nezreka/fulfillment/pkg/catalog"
	"github.com/nezreka/fulfillment/pkg/match"
	"github.com/nezreka/fulfillment/pkg/metaprovider"
)

// processTrackBatch implements priority-3: one get_album_tracks call for a
// matched album, matching local tracks first by track_number + name
// similarity, then falling back to name-only similarity.
func (w *Worker) processTrackBatch(ctx context.Context, album catalog.Album) error {
	children, err := w.store.UnattemptedTracksByAlbum(ctx, album.ID)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		return nil
	}

	remote, err := w.provider.GetAlbumTracks(ctx, *album.ExternalID)
	if err != nil {
		return w.store.MarkChildrenErrorBulk(ctx, "tracks", "album_id", album.ID)
	}

	used := make([]bool, len(remote))
	for _, child := range children {
		idx, ok := bestUnusedTrackMatch(child, remote, used)
		if !ok {
			if err := w.store.SetMatchResult(ctx, "tracks", child.ID, catalog.MatchNotFound, nil); err != nil {
				return err
			}
			continue
		}
		used[idx] = true
		m := remote[idx]
		duration := m.DurationMs
		trackNum := m.TrackNumber
		if err := w.store.ApplyTrackMatch(ctx, child.ID, catalog.TrackMatch{
			ExternalID:  m.ID,
			DurationMs:  &duration,
			TrackNumber: &trackNum,
		}); err != nil {
			return err
		}
	}
	return nil
}

// bestUnusedTrackMatch prefers an exact track_number match combined with a
// passing name similarity; absent that, it falls back to the best
// name-only match above threshold.
func bestUnusedTrackMatch(child catalog.Track, candidates []metaprovider.Track, used []bool) (int, bool) {
	if child.TrackNumber != nil {
		for i, c := range candidates {
			if used[i] || metaprovider.IsNumericOnly(c.ID) {
				continue
			}
			if c.TrackNumber == *child.TrackNumber && match.Similarity(child.Title, c.Name) >= titleMatchThreshold {
				return i, true
			}
		}
	}

	bestIdx, bestScore := -1, 0.0
	for i, c := range candidates {
		if used[i] || metaprovider.IsNumericOnly(c.ID) {
			continue
		}
		score := match.Similarity(child.Title, c.Name)
		if score >= titleMatchThreshold && score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return 0, false
	}
	return bestIdx, true
}
