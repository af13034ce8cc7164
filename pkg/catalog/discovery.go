package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// InsertDiscoveryPoolTrack appends a candidate track to the discovery pool.
// The table is append-only; a track whose ExternalTrackID is already in
// the pool is ignored via ON CONFLICT DO NOTHING on the primary key.
func (s *Store) InsertDiscoveryPoolTrack(ctx context.Context, t DiscoveryPoolTrack) error {
	genresJSON, err := jsonbGenres(t.ArtistGenres)
	if err != nil {
		return fmt.Errorf("marshal artist genres: %w", err)
	}
	blobJSON, err := json.Marshal(t.Blob)
	if err != nil {
		return fmt.Errorf("marshal track blob: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO discovery_pool (external_track_id, external_artist_id, external_album_id, name, artist_name, album_name, cover_url, duration_ms, popularity, release_date, is_new_release, is_single, artist_genres_json, track_blob_json)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (external_track_id) DO NOTHING`,
		t.ExternalTrackID, t.ExternalArtistID, t.ExternalAlbumID, t.Name, t.ArtistName, t.AlbumName, t.CoverURL, t.DurationMs, t.Popularity, t.ReleaseDate, t.IsNewRelease, t.IsSingle, genresJSON, blobJSON)
	return err
}

// ListDiscoveryPool returns the full pool, most recently added first, for
// the curation pass to partition into Release Radar / Discovery Weekly.
func (s *Store) ListDiscoveryPool(ctx context.Context) ([]DiscoveryPoolTrack, error) {
	rows, err := s.pool.Query(ctx, `
SELECT external_track_id, external_artist_id, external_album_id, name, artist_name, album_name, cover_url, duration_ms, popularity, release_date, is_new_release, is_single, artist_genres_json, track_blob_json, added_at
FROM discovery_pool ORDER BY added_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DiscoveryPoolTrack
	for rows.Next() {
		var d DiscoveryPoolTrack
		var coverURL sql.NullString
		var durationMs sql.NullInt64
		var popularity sql.NullInt32
		var releaseDate sql.NullTime
		var genresJSON, blobJSON []byte
		if err := rows.Scan(&d.ExternalTrackID, &d.ExternalArtistID, &d.ExternalAlbumID, &d.Name, &d.ArtistName, &d.AlbumName, &coverURL, &durationMs, &popularity, &releaseDate, &d.IsNewRelease, &d.IsSingle, &genresJSON, &blobJSON, &d.AddedAt); err != nil {
			return nil, err
		}
		if coverURL.Valid {
			d.CoverURL = &coverURL.String
		}
		if durationMs.Valid {
			d.DurationMs = &durationMs.Int64
		}
		if popularity.Valid {
			n := int(popularity.Int32)
			d.Popularity = &n
		}
		if releaseDate.Valid {
			d.ReleaseDate = &releaseDate.Time
		}
		d.ArtistGenres = scanGenres(genresJSON)
		if len(blobJSON) > 0 {
			_ = json.Unmarshal(blobJSON, &d.Blob)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// EvictDiscoveryPoolOlderThan removes entries added before cutoff, the
// scanner's rolling-eviction cleanup pass.
func (s *Store) EvictDiscoveryPoolOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM discovery_pool WHERE added_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DiscoveryPoolLastPopulated returns the most recent added_at across the
// pool, used to gate the "populated < 24h ago, skip" rule. ok is false on
// an empty pool.
func (s *Store) DiscoveryPoolLastPopulated(ctx context.Context) (time.Time, bool, error) {
	var t sql.NullTime
	if err := s.pool.QueryRow(ctx, `SELECT MAX(added_at) FROM discovery_pool`).Scan(&t); err != nil {
		return time.Time{}, false, err
	}
	if !t.Valid {
		return time.Time{}, false, nil
	}
	return t.Time, true, nil
}
