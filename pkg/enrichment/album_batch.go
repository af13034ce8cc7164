package enrichment

import (
	"context"
	"strconv"
	"strings"

	"github.com/nezreka/fulfillment/pkg/catalog"
	"github.com/nezreka/fulfillment/pkg/match"
	"github.com/nezreka/fulfillment/pkg/metaprovider"
)

// processAlbumBatch implements priority-2: one get_artist_albums call for
// a matched artist, then locally fuzzy-matches every unattempted child
// album against the returned list. A network failure marks every
// currently-unattempted child error in bulk so they re-enter via the
// stale-retry tier.
func (w *Worker) processAlbumBatch(ctx context.Context, artist catalog.Artist) error {
	children, err := w.store.UnattemptedAlbumsByArtist(ctx, artist.ID)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		return nil
	}

	remote, err := w.provider.GetArtistAlbums(ctx, *artist.ExternalID, "", 50)
	if err != nil {
		if markErr := w.store.MarkChildrenErrorBulk(ctx, "albums", "artist_id", artist.ID); markErr != nil {
			return markErr
		}
		return err
	}

	used := make([]bool, len(remote))
	for _, child := range children {
		idx, ok := bestUnusedAlbumMatch(child.Title, remote, used)
		if !ok {
			if err := w.store.SetMatchResult(ctx, "albums", child.ID, catalog.MatchNotFound, nil); err != nil {
				return err
			}
			continue
		}
		used[idx] = true
		m := remote[idx]
		var thumb *string
		if len(m.Images) > 0 {
			thumb = &m.Images[0].URL
		}
		trackCount := m.TotalTracks
		if err := w.store.ApplyAlbumMatch(ctx, child.ID, catalog.AlbumMatch{
			ExternalID: m.ID,
			ThumbURL:   thumb,
			Genres:     m.Genres,
			Year:       parseYear(m.ReleaseDate),
			TrackCount: &trackCount,
		}); err != nil {
			return err
		}
	}
	return nil
}

// bestUnusedAlbumMatch returns the index of the best-scoring unused
// candidate at or above the match threshold, or ok=false.
func bestUnusedAlbumMatch(title string, candidates []metaprovider.Album, used []bool) (int, bool) {
	bestIdx, bestScore := -1, 0.0
	for i, c := range candidates {
		if used[i] || metaprovider.IsNumericOnly(c.ID) {
			continue
		}
		score := match.Similarity(title, c.Name)
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

func parseYear(releaseDate string) *int {
	if releaseDate == "" {
		return nil
	}
	yearStr := strings.SplitN(releaseDate, "-", 2)[0]
	y, err := strconv.Atoi(yearStr)
	if err != nil {
		return nil
	}
	return &y
}
