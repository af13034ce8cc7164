package catalog

import (
	"context"
	"database/sql"
)

// UpsertWatchlistEntry creates or updates a watched artist's filter flags.
func (s *Store) UpsertWatchlistEntry(ctx context.Context, e WatchlistEntry) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO watchlist_artists (external_artist_id, name, include_albums, include_eps, include_singles, include_live, include_remixes, include_acoustic, include_compilations)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (external_artist_id) DO UPDATE SET
    name                 = EXCLUDED.name,
    include_albums       = EXCLUDED.include_albums,
    include_eps          = EXCLUDED.include_eps,
    include_singles      = EXCLUDED.include_singles,
    include_live         = EXCLUDED.include_live,
    include_remixes      = EXCLUDED.include_remixes,
    include_acoustic     = EXCLUDED.include_acoustic,
    include_compilations = EXCLUDED.include_compilations`,
		e.ExternalArtistID, e.Name, e.IncludeAlbums, e.IncludeEPs, e.IncludeSingles, e.IncludeLive, e.IncludeRemixes, e.IncludeAcoustic, e.IncludeCompilations)
	return err
}

// RemoveWatchlistEntry deletes a watched artist by explicit user action.
func (s *Store) RemoveWatchlistEntry(ctx context.Context, externalArtistID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM watchlist_artists WHERE external_artist_id = $1`, externalArtistID)
	return err
}

// ListWatchlist returns every watched artist.
func (s *Store) ListWatchlist(ctx context.Context) ([]WatchlistEntry, error) {
	rows, err := s.pool.Query(ctx, `
SELECT external_artist_id, name, last_scan_timestamp, include_albums, include_eps, include_singles, include_live, include_remixes, include_acoustic, include_compilations, created_at
FROM watchlist_artists`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WatchlistEntry
	for rows.Next() {
		var e WatchlistEntry
		var lastScan sql.NullTime
		if err := rows.Scan(&e.ExternalArtistID, &e.Name, &lastScan, &e.IncludeAlbums, &e.IncludeEPs, &e.IncludeSingles, &e.IncludeLive, &e.IncludeRemixes, &e.IncludeAcoustic, &e.IncludeCompilations, &e.CreatedAt); err != nil {
			return nil, err
		}
		if lastScan.Valid {
			e.LastScanTimestamp = &lastScan.Time
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// TouchWatchlistScan bumps last_scan_timestamp to now for externalArtistID.
func (s *Store) TouchWatchlistScan(ctx context.Context, externalArtistID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE watchlist_artists SET last_scan_timestamp = now() WHERE external_artist_id = $1`, externalArtistID)
	return err
}

// RefreshArtistThumbnail updates the cached image for whichever local
// artist row (if any) is matched to externalID. A no-op when the artist
// hasn't been enriched yet — the watchlist scanner's image refresh is
// best-effort, not a precondition for scanning.
func (s *Store) RefreshArtistThumbnail(ctx context.Context, externalID, thumbURL string) error {
	_, err := s.pool.Exec(ctx, `UPDATE artists SET thumb_url = $2, updated_at = now() WHERE external_id = $1`, externalID, thumbURL)
	return err
}
