package enrichment

import (
	"context"
	"log/slog"

	"github.com/nezreka/fulfillment/pkg/catalog"
	"github.com/nezreka/fulfillment/pkg/match"
	"github.com/nezreka/fulfillment/pkg/metaprovider"
)

// processArtist implements priority-1: search the provider for a.Name,
// accept the first result with name similarity ≥ 0.8, rejecting any
// result whose id is purely numeric.
func (w *Worker) processArtist(ctx context.Context, a catalog.Artist) error {
	results, err := w.provider.SearchArtists(ctx, a.Name, 5)
	if err != nil {
		if markErr := w.store.SetMatchResult(ctx, "artists", a.ID, catalog.MatchError, nil); markErr != nil {
			slog.Error("enrichment: mark artist error failed", "artist", a.ID, "err", markErr)
		}
		return err
	}

	best, ok := bestArtistMatch(a.Name, results)
	if !ok {
		return w.store.SetMatchResult(ctx, "artists", a.ID, catalog.MatchNotFound, nil)
	}

	var thumb *string
	if len(best.Images) > 0 {
		thumb = &best.Images[0].URL
	}
	return w.store.ApplyArtistMatch(ctx, a.ID, catalog.ArtistMatch{
		ExternalID: best.ID,
		ThumbURL:   thumb,
		Genres:     best.Genres,
	})
}

func bestArtistMatch(name string, candidates []metaprovider.Artist) (metaprovider.Artist, bool) {
	for _, c := range candidates {
		if metaprovider.IsNumericOnly(c.ID) {
			continue
		}
		if match.Similarity(name, c.Name) >= titleMatchThreshold {
			return c, true
		}
	}
	return metaprovider.Artist{}, false
}
