package watchlist

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/nezreka/fulfillment/pkg/catalog"
	"github.com/nezreka/fulfillment/pkg/match"
	"github.com/nezreka/fulfillment/pkg/metaprovider"
)

const existsThreshold = 0.7

// scanArtist implements one watchlist entry's scan: fetch releases newer
// than its cutoff, categorize and filter each, check local presence for
// every surviving track, and refresh the similar-artist cache if stale.
func (s *Scanner) scanArtist(ctx context.Context, e catalog.WatchlistEntry) error {
	s.refreshThumbnail(ctx, e.ExternalArtistID)

	cutoff := s.releaseCutoff(ctx, e.LastScanTimestamp)

	albums, err := s.provider.GetArtistAlbums(ctx, e.ExternalArtistID, "", 50)
	if err != nil {
		slog.Warn("watchlist: get_artist_albums failed", "artist", e.Name, "err", err)
		return err
	}

	now := time.Now()
	for _, album := range albums {
		releaseDate, ok := parseReleaseDate(album.ReleaseDate)
		if !ok || releaseDate.Before(cutoff) {
			continue
		}
		if err := s.scanRelease(ctx, e, album, now); err != nil {
			slog.Warn("watchlist: scan release failed", "artist", e.Name, "album", album.Name, "err", err)
		}
	}

	if err := s.store.TouchWatchlistScan(ctx, e.ExternalArtistID); err != nil {
		return err
	}

	s.refreshSimilarArtists(ctx, e.ExternalArtistID, e.Name)
	return nil
}

func (s *Scanner) refreshThumbnail(ctx context.Context, externalArtistID string) {
	// Best-effort: no fetch method is needed since the artist's image is
	// already carried on every album payload; skipped here when a scan
	// finds no albums to pull one from. Populated opportunistically in
	// scanRelease below via the album's own artist list.
	_ = externalArtistID
}

// releaseCutoff computes max(lastScan, now - lookback_days), honoring the
// "all" sentinel stored in the metadata slot that disables the filter.
func (s *Scanner) releaseCutoff(ctx context.Context, lastScan *time.Time) time.Time {
	lookback, disabled := s.lookbackWindow(ctx)
	if disabled {
		return time.Time{}
	}
	floor := time.Now().Add(-lookback)
	if lastScan != nil && lastScan.After(floor) {
		return *lastScan
	}
	return floor
}

func (s *Scanner) lookbackWindow(ctx context.Context) (time.Duration, bool) {
	raw, ok, err := s.store.GetMetadata(ctx, "lookback_days")
	if err != nil || !ok {
		return time.Duration(s.cfg.DefaultLookbackDays) * 24 * time.Hour, false
	}
	if strings.EqualFold(raw, "all") {
		return 0, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return time.Duration(s.cfg.DefaultLookbackDays) * 24 * time.Hour, false
	}
	return time.Duration(days) * 24 * time.Hour, false
}

// scanRelease categorizes one release, applies the watchlist entry's type
// filter, then checks every surviving track for local presence.
func (s *Scanner) scanRelease(ctx context.Context, e catalog.WatchlistEntry, album metaprovider.Album, now time.Time) error {
	tracks, err := s.provider.GetAlbumTracks(ctx, album.ID)
	if err != nil {
		return err
	}

	if len(album.Images) > 0 {
		if err := s.store.RefreshArtistThumbnail(ctx, e.ExternalArtistID, album.Images[0].URL); err != nil {
			slog.Warn("watchlist: refresh thumbnail failed", "artist", e.Name, "err", err)
		}
	}

	switch match.ReleaseCategory(len(tracks)) {
	case "single":
		if !e.IncludeSingles {
			return nil
		}
	case "ep":
		if !e.IncludeEPs {
			return nil
		}
	default:
		if !e.IncludeAlbums {
			return nil
		}
	}
	if !e.IncludeCompilations && match.IsCompilationAlbum(album.Name) {
		return nil
	}

	for _, t := range tracks {
		if !e.IncludeLive && match.IsLiveVersion(t.Name) {
			continue
		}
		if !e.IncludeRemixes && match.IsRemixVersion(t.Name) {
			continue
		}
		if !e.IncludeAcoustic && match.IsAcousticVersion(t.Name) {
			continue
		}

		_, _, exists, err := s.store.CheckTrackExists(ctx, t.Name, e.Name, existsThreshold)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		descriptor := trackDescriptor(t, album)
		if err := s.store.AddToWishlist(ctx, catalog.WishlistEntry{
			ExternalTrackID: t.ID,
			Descriptor:      descriptor,
			SourceType:      catalog.SourceWatchlist,
			SourceInfo: map[string]any{
				"artist_name":    e.Name,
				"album_name":     album.Name,
				"scan_timestamp": now.UTC().Format(time.RFC3339),
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

func trackDescriptor(t metaprovider.Track, album metaprovider.Album) catalog.TrackDescriptor {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	images := make([]string, 0, len(album.Images))
	for _, img := range album.Images {
		images = append(images, img.URL)
	}
	return catalog.TrackDescriptor{
		ID:      t.ID,
		Name:    t.Name,
		Artists: artists,
		Album: catalog.AlbumSummary{
			ID:          album.ID,
			Name:        album.Name,
			Images:      images,
			ReleaseDate: album.ReleaseDate,
			AlbumType:   album.AlbumType,
		},
		DurationMs: t.DurationMs,
		Popularity: t.Popularity,
	}
}

// refreshSimilarArtists re-fetches the related-artist cache when it's
// older than 30 days, storing up to similarArtistFetchSize entries with
// rank and bumping occurrence_count on conflict via UpsertSimilarArtist.
func (s *Scanner) refreshSimilarArtists(ctx context.Context, externalArtistID, name string) {
	fresh, err := s.store.SimilarArtistsCacheFresh(ctx, externalArtistID)
	if err != nil {
		slog.Warn("watchlist: similar-artist freshness check failed", "artist", name, "err", err)
		return
	}
	if fresh {
		return
	}

	related, err := s.provider.GetRelatedArtists(ctx, externalArtistID)
	if err != nil {
		slog.Warn("watchlist: get_related_artists failed", "artist", name, "err", err)
		return
	}
	for i, r := range related {
		if i >= similarArtistFetchSize {
			break
		}
		if err := s.store.UpsertSimilarArtist(ctx, catalog.SimilarArtist{
			SourceArtistID:  externalArtistID,
			SimilarArtistID: r.ID,
			Name:            r.Name,
			Rank:            i + 1,
		}); err != nil {
			slog.Warn("watchlist: upsert similar artist failed", "artist", name, "similar", r.Name, "err", err)
		}
	}
}

func parseReleaseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
