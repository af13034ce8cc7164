package watchlist

import (
	"context"
	"log/slog"
	"time"

	"github.com/nezreka/fulfillment/pkg/catalog"
	"github.com/nezreka/fulfillment/pkg/match"
	"github.com/nezreka/fulfillment/pkg/metaprovider"
)

const discoveryPoolLastPopulatedKey = "discovery_pool_last_populated"

// releasesPerArtist is the per-artist release cap when seeding the
// discovery pool: 3 most recent plus a random sample of older releases.
const (
	releasesPerArtist     = 10
	recentReleasesBiased  = 3
	newReleaseWindow      = 30 * 24 * time.Hour
	discoveryPoolSeedSize = 50
)

// populateDiscoveryPool refreshes the discovery pool if it's stale (gated
// at discoveryPoolGate), seeding from the top similar artists by
// occurrence, and evicts anything older than discoveryPoolEviction.
func (s *Scanner) populateDiscoveryPool(ctx context.Context) error {
	last, ok, err := s.store.DiscoveryPoolLastPopulated(ctx)
	if err != nil {
		return err
	}
	if ok && time.Since(last) < discoveryPoolGate {
		return s.evictStalePool(ctx)
	}

	seeds, err := s.store.TopSimilarArtistsByOccurrence(ctx, discoveryPoolSeedSize)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, seed := range seeds {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.seedArtistReleases(ctx, seed, now); err != nil {
			slog.Warn("watchlist: seed discovery releases failed", "artist", seed.Name, "err", err)
		}
	}

	if err := s.store.SetMetadata(ctx, discoveryPoolLastPopulatedKey, now.UTC().Format(time.RFC3339)); err != nil {
		slog.Warn("watchlist: set discovery pool timestamp failed", "err", err)
	}

	return s.evictStalePool(ctx)
}

func (s *Scanner) evictStalePool(ctx context.Context) error {
	cutoff := time.Now().Add(-discoveryPoolEviction)
	n, err := s.store.EvictDiscoveryPoolOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("watchlist: evicted stale discovery pool entries", "count", n)
	}
	return nil
}

// seedArtistReleases fetches one similar artist's releases, biases the
// selection toward the 3 most recent plus a random sample of the rest up
// to releasesPerArtist, and inserts every surviving track.
func (s *Scanner) seedArtistReleases(ctx context.Context, seed catalog.SimilarArtist, now time.Time) error {
	albums, err := s.provider.GetArtistAlbums(ctx, seed.SimilarArtistID, "", 50)
	if err != nil {
		return err
	}
	if len(albums) == 0 {
		return nil
	}

	chosen := s.pickReleases(albums)

	var cachedGenres []string
	for i, album := range chosen {
		if i == 0 {
			for _, a := range album.Artists {
				if a.ID == seed.SimilarArtistID {
					cachedGenres = a.Genres
					break
				}
			}
		}
		if err := s.seedRelease(ctx, seed, album, cachedGenres, now); err != nil {
			slog.Warn("watchlist: seed release failed", "artist", seed.Name, "album", album.Name, "err", err)
		}
	}
	return nil
}

// pickReleases biases toward the most recently released albums: it sorts
// newest-first by release date, keeps the top recentReleasesBiased, then
// fills the remaining slots with a random sample of the rest.
func (s *Scanner) pickReleases(albums []metaprovider.Album) []metaprovider.Album {
	sorted := make([]metaprovider.Album, len(albums))
	copy(sorted, albums)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0; j-- {
			di, oki := parseReleaseDate(sorted[j].ReleaseDate)
			dj, okj := parseReleaseDate(sorted[j-1].ReleaseDate)
			if !oki || (okj && !di.After(dj)) {
				break
			}
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	if len(sorted) <= releasesPerArtist {
		return sorted
	}

	recent := sorted[:recentReleasesBiased]
	rest := append([]metaprovider.Album(nil), sorted[recentReleasesBiased:]...)
	s.shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })

	need := releasesPerArtist - recentReleasesBiased
	if need > len(rest) {
		need = len(rest)
	}
	return append(recent, rest[:need]...)
}

func (s *Scanner) seedRelease(ctx context.Context, seed catalog.SimilarArtist, album metaprovider.Album, genres []string, now time.Time) error {
	tracks, err := s.provider.GetAlbumTracks(ctx, album.ID)
	if err != nil {
		return err
	}

	releaseDate, hasDate := parseReleaseDate(album.ReleaseDate)
	isNew := hasDate && now.Sub(releaseDate) <= newReleaseWindow
	isSingle := match.ReleaseCategory(len(tracks)) == "single" || album.AlbumType == "single"

	var cover *string
	if len(album.Images) > 0 {
		cover = &album.Images[0].URL
	}

	for _, t := range tracks {
		durationMs := t.DurationMs
		popularity := t.Popularity
		entry := catalog.DiscoveryPoolTrack{
			ExternalTrackID:  t.ID,
			ExternalArtistID: seed.SimilarArtistID,
			ExternalAlbumID:  album.ID,
			Name:             t.Name,
			ArtistName:       seed.Name,
			AlbumName:        album.Name,
			CoverURL:         cover,
			DurationMs:       &durationMs,
			Popularity:       &popularity,
			IsNewRelease:     isNew,
			IsSingle:         isSingle,
			ArtistGenres:     genres,
			Blob:             trackDescriptor(t, album),
			AddedAt:          now,
		}
		if hasDate {
			entry.ReleaseDate = &releaseDate
		}
		if err := s.store.InsertDiscoveryPoolTrack(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}
