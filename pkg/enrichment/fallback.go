package enrichment

import (
	"context"
	"log/slog"

	"github.com/nezreka/fulfillment/pkg/catalog"
	"github.com/nezreka/fulfillment/pkg/match"
	"github.com/nezreka/fulfillment/pkg/metaprovider"
)

// processFallbackAlbum implements priority-4: an album whose parent
// artist isn't matched gets a query-as-string search instead of an
// artist-scoped listing.
func (w *Worker) processFallbackAlbum(ctx context.Context, album catalog.Album) error {
	artist, err := w.store.GetArtist(ctx, album.ArtistID)
	if err != nil {
		return err
	}

	results, err := w.provider.SearchAlbums(ctx, album.Title+" "+artist.Name, 5)
	if err != nil {
		if markErr := w.store.SetMatchResult(ctx, "albums", album.ID, catalog.MatchError, nil); markErr != nil {
			slog.Error("enrichment: mark album error failed", "album", album.ID, "err", markErr)
		}
		return err
	}

	best, ok := firstAlbumMatch(album.Title, results)
	if !ok {
		return w.store.SetMatchResult(ctx, "albums", album.ID, catalog.MatchNotFound, nil)
	}

	var thumb *string
	if len(best.Images) > 0 {
		thumb = &best.Images[0].URL
	}
	trackCount := best.TotalTracks
	return w.store.ApplyAlbumMatch(ctx, album.ID, catalog.AlbumMatch{
		ExternalID: best.ID,
		ThumbURL:   thumb,
		Genres:     best.Genres,
		Year:       parseYear(best.ReleaseDate),
		TrackCount: &trackCount,
	})
}

// processFallbackTrack implements priority-5: a track whose parent album
// isn't matched, same query-as-string treatment.
func (w *Worker) processFallbackTrack(ctx context.Context, track catalog.Track) error {
	artist, err := w.store.GetArtist(ctx, track.ArtistID)
	if err != nil {
		return err
	}

	results, err := w.provider.SearchTracks(ctx, track.Title+" "+artist.Name, 5)
	if err != nil {
		if markErr := w.store.SetMatchResult(ctx, "tracks", track.ID, catalog.MatchError, nil); markErr != nil {
			slog.Error("enrichment: mark track error failed", "track", track.ID, "err", markErr)
		}
		return err
	}

	best, ok := firstTrackMatch(track.Title, results)
	if !ok {
		return w.store.SetMatchResult(ctx, "tracks", track.ID, catalog.MatchNotFound, nil)
	}

	duration := best.DurationMs
	trackNum := best.TrackNumber
	return w.store.ApplyTrackMatch(ctx, track.ID, catalog.TrackMatch{
		ExternalID:  best.ID,
		DurationMs:  &duration,
		TrackNumber: &trackNum,
	})
}

func firstAlbumMatch(title string, candidates []metaprovider.Album) (metaprovider.Album, bool) {
	for _, c := range candidates {
		if metaprovider.IsNumericOnly(c.ID) {
			continue
		}
		if match.Similarity(title, c.Name) >= titleMatchThreshold {
			return c, true
		}
	}
	return metaprovider.Album{}, false
}

func firstTrackMatch(title string, candidates []metaprovider.Track) (metaprovider.Track, bool) {
	for _, c := range candidates {
		if metaprovider.IsNumericOnly(c.ID) {
			continue
		}
		if match.Similarity(title, c.Name) >= titleMatchThreshold {
			return c, true
		}
	}
	return metaprovider.Track{}, false
}
