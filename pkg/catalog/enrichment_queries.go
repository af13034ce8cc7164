package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// NextUnattemptedArtist returns one Artist with match_status = unattempted,
// or ok=false if none exist. This is priority-1 in the enrichment worker's
// pick order.
func (s *Store) NextUnattemptedArtist(ctx context.Context) (Artist, bool, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, name, thumb_url, genres, summary, external_id, match_status, last_attempted, created_at, updated_at
FROM artists WHERE match_status = 'unattempted' ORDER BY created_at ASC LIMIT 1`)
	a, err := scanArtist(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Artist{}, false, nil
		}
		return Artist{}, false, err
	}
	return a, true, nil
}

// NextAlbumBatchSeed returns a matched Artist with at least one unattempted
// child Album. Priority-2.
func (s *Store) NextAlbumBatchSeed(ctx context.Context) (Artist, bool, error) {
	row := s.pool.QueryRow(ctx, `
SELECT ar.id, ar.name, ar.thumb_url, ar.genres, ar.summary, ar.external_id, ar.match_status, ar.last_attempted, ar.created_at, ar.updated_at
FROM artists ar
WHERE ar.match_status = 'matched'
  AND EXISTS (SELECT 1 FROM albums al WHERE al.artist_id = ar.id AND al.match_status = 'unattempted')
ORDER BY ar.created_at ASC LIMIT 1`)
	a, err := scanArtist(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Artist{}, false, nil
		}
		return Artist{}, false, err
	}
	return a, true, nil
}

// UnattemptedAlbumsByArtist returns the unattempted child albums of artistID.
func (s *Store) UnattemptedAlbumsByArtist(ctx context.Context, artistID int64) ([]Album, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, artist_id, title, year, thumb_url, genres, track_count, duration_ms, external_id, match_status, last_attempted, created_at, updated_at
FROM albums WHERE artist_id = $1 AND match_status = 'unattempted'`, artistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Album
	for rows.Next() {
		alb, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, alb)
	}
	return out, rows.Err()
}

// NextTrackBatchSeed returns a matched Album with at least one unattempted
// child Track. Priority-3.
func (s *Store) NextTrackBatchSeed(ctx context.Context) (Album, bool, error) {
	row := s.pool.QueryRow(ctx, `
SELECT al.id, al.artist_id, al.title, al.year, al.thumb_url, al.genres, al.track_count, al.duration_ms, al.external_id, al.match_status, al.last_attempted, al.created_at, al.updated_at
FROM albums al
WHERE al.match_status = 'matched'
  AND EXISTS (SELECT 1 FROM tracks t WHERE t.album_id = al.id AND t.match_status = 'unattempted')
ORDER BY al.created_at ASC LIMIT 1`)
	alb, err := scanAlbum(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Album{}, false, nil
		}
		return Album{}, false, err
	}
	return alb, true, nil
}

// UnattemptedTracksByAlbum returns the unattempted child tracks of albumID.
func (s *Store) UnattemptedTracksByAlbum(ctx context.Context, albumID int64) ([]Track, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, album_id, artist_id, title, track_number, duration_ms, file_path, bitrate, explicit, external_id, match_status, last_attempted, created_at, updated_at
FROM tracks WHERE album_id = $1 AND match_status = 'unattempted'`, albumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// NextFallbackAlbum returns an unattempted Album whose parent Artist is not
// matched. Priority-4.
func (s *Store) NextFallbackAlbum(ctx context.Context) (Album, bool, error) {
	row := s.pool.QueryRow(ctx, `
SELECT al.id, al.artist_id, al.title, al.year, al.thumb_url, al.genres, al.track_count, al.duration_ms, al.external_id, al.match_status, al.last_attempted, al.created_at, al.updated_at
FROM albums al
JOIN artists ar ON ar.id = al.artist_id
WHERE al.match_status = 'unattempted' AND ar.match_status != 'matched'
ORDER BY al.created_at ASC LIMIT 1`)
	alb, err := scanAlbum(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Album{}, false, nil
		}
		return Album{}, false, err
	}
	return alb, true, nil
}

// NextFallbackTrack returns an unattempted Track whose parent Album is not
// matched. Priority-5.
func (s *Store) NextFallbackTrack(ctx context.Context) (Track, bool, error) {
	row := s.pool.QueryRow(ctx, `
SELECT t.id, t.album_id, t.artist_id, t.title, t.track_number, t.duration_ms, t.file_path, t.bitrate, t.explicit, t.external_id, t.match_status, t.last_attempted, t.created_at, t.updated_at
FROM tracks t
JOIN albums al ON al.id = t.album_id
WHERE t.match_status = 'unattempted' AND al.match_status != 'matched'
ORDER BY t.created_at ASC LIMIT 1`)
	t, err := scanTrack(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Track{}, false, nil
		}
		return Track{}, false, err
	}
	return t, true, nil
}

// StaleEntity identifies one not_found/error entity eligible for a retry,
// oldest last_attempted first.
type StaleEntity struct {
	Table string // "artists" | "albums" | "tracks"
	ID    int64
}

// NextStaleRetry scans all three tables for the oldest not_found/error
// entity that has cleared its reeligibility window. Priority-6, the
// fallback when nothing else in the priority list has work.
func (s *Store) NextStaleRetry(ctx context.Context, now time.Time) (StaleEntity, bool, error) {
	notFoundCutoff := reeligibleCutoff(MatchNotFound, now)
	errorCutoff := reeligibleCutoff(MatchError, now)

	const q = `
(SELECT 'artists' AS tbl, id, last_attempted FROM artists
   WHERE (match_status = 'not_found' AND last_attempted < $1)
      OR (match_status = 'error' AND last_attempted < $2))
UNION ALL
(SELECT 'albums', id, last_attempted FROM albums
   WHERE (match_status = 'not_found' AND last_attempted < $1)
      OR (match_status = 'error' AND last_attempted < $2))
UNION ALL
(SELECT 'tracks', id, last_attempted FROM tracks
   WHERE (match_status = 'not_found' AND last_attempted < $1)
      OR (match_status = 'error' AND last_attempted < $2))
ORDER BY last_attempted ASC LIMIT 1`

	var e StaleEntity
	var lastAttempted time.Time
	err := s.pool.QueryRow(ctx, q, notFoundCutoff, errorCutoff).Scan(&e.Table, &e.ID, &lastAttempted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StaleEntity{}, false, nil
		}
		return StaleEntity{}, false, err
	}
	return e, true, nil
}

// MarkChildrenErrorBulk marks every currently-unattempted child row of a
// parent batch (album or track batch) as error, the "any network failure on
// a batch marks all unattempted children error in bulk" rule.
func (s *Store) MarkChildrenErrorBulk(ctx context.Context, table string, parentColumn string, parentID int64) error {
	var q string
	switch table {
	case "albums":
		q = `UPDATE albums SET match_status = 'error', last_attempted = now(), updated_at = now() WHERE ` + parentColumn + ` = $1 AND match_status = 'unattempted'`
	case "tracks":
		q = `UPDATE tracks SET match_status = 'error', last_attempted = now(), updated_at = now() WHERE ` + parentColumn + ` = $1 AND match_status = 'unattempted'`
	default:
		return nil
	}
	_, err := s.pool.Exec(ctx, q, parentID)
	return err
}
