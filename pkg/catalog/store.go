// Package catalog is the durable store of artists, albums, tracks,
// watchlist, wishlist, discovery pool, external-match state, and a
// key-value metadata slot. Connections are per-operation (acquire, use,
// release) so the store stays safe under many concurrent workers; it
// exposes only high-level operations, never raw transactions, to callers.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store holds the connection pool. Callers receive a *Store; tests can
// point it at a throwaway database.
type Store struct {
	pool *pgxpool.Pool
}

// Connect dials Postgres using dsn and returns a ready Store.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close shuts down the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks that Postgres is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func jsonbGenres(genres []string) ([]byte, error) {
	if genres == nil {
		genres = []string{}
	}
	return json.Marshal(genres)
}

func scanGenres(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var genres []string
	if err := json.Unmarshal(raw, &genres); err != nil {
		return nil
	}
	return genres
}

// UpsertArtist inserts or updates an artist by local id, leaving
// enrichment-owned fields (external_id, match_status) untouched unless
// ExternalID is explicitly set.
func (s *Store) UpsertArtist(ctx context.Context, p UpsertArtistParams) (Artist, error) {
	genresJSON, err := jsonbGenres(p.Genres)
	if err != nil {
		return Artist{}, fmt.Errorf("marshal genres: %w", err)
	}
	row := s.pool.QueryRow(ctx, `
INSERT INTO artists (id, name, thumb_url, genres, summary, external_id)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    name       = EXCLUDED.name,
    thumb_url  = COALESCE(EXCLUDED.thumb_url, artists.thumb_url),
    genres     = CASE WHEN EXCLUDED.genres = '[]' THEN artists.genres ELSE EXCLUDED.genres END,
    summary    = COALESCE(EXCLUDED.summary, artists.summary),
    external_id = COALESCE(EXCLUDED.external_id, artists.external_id),
    updated_at = now()
RETURNING id, name, thumb_url, genres, summary, external_id, match_status, last_attempted, created_at, updated_at`,
		p.ID, p.Name, p.ThumbURL, genresJSON, p.Summary, p.ExternalID)
	return scanArtist(row)
}

// GetArtist returns an artist by local id.
func (s *Store) GetArtist(ctx context.Context, id int64) (Artist, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, name, thumb_url, genres, summary, external_id, match_status, last_attempted, created_at, updated_at
FROM artists WHERE id = $1`, id)
	return scanArtist(row)
}

func scanArtist(row pgx.Row) (Artist, error) {
	var a Artist
	var thumbURL, summary, externalID sql.NullString
	var lastAttempted sql.NullTime
	var genres []byte
	var matchStatus string
	if err := row.Scan(&a.ID, &a.Name, &thumbURL, &genres, &summary, &externalID, &matchStatus, &lastAttempted, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Artist{}, err
	}
	if thumbURL.Valid {
		a.ThumbURL = &thumbURL.String
	}
	if summary.Valid {
		a.Summary = &summary.String
	}
	if externalID.Valid {
		a.ExternalID = &externalID.String
	}
	if lastAttempted.Valid {
		a.LastAttempted = &lastAttempted.Time
	}
	a.Genres = scanGenres(genres)
	a.MatchStatus = MatchStatus(matchStatus)
	return a, nil
}

// UpsertAlbum inserts or updates an album by local id.
func (s *Store) UpsertAlbum(ctx context.Context, p UpsertAlbumParams) (Album, error) {
	genresJSON, err := jsonbGenres(p.Genres)
	if err != nil {
		return Album{}, fmt.Errorf("marshal genres: %w", err)
	}
	row := s.pool.QueryRow(ctx, `
INSERT INTO albums (id, artist_id, title, year, thumb_url, genres, track_count, duration_ms, external_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
    artist_id   = EXCLUDED.artist_id,
    title       = EXCLUDED.title,
    year        = COALESCE(EXCLUDED.year, albums.year),
    thumb_url   = COALESCE(EXCLUDED.thumb_url, albums.thumb_url),
    genres      = CASE WHEN EXCLUDED.genres = '[]' THEN albums.genres ELSE EXCLUDED.genres END,
    track_count = COALESCE(EXCLUDED.track_count, albums.track_count),
    duration_ms = COALESCE(EXCLUDED.duration_ms, albums.duration_ms),
    external_id = COALESCE(EXCLUDED.external_id, albums.external_id),
    updated_at  = now()
RETURNING id, artist_id, title, year, thumb_url, genres, track_count, duration_ms, external_id, match_status, last_attempted, created_at, updated_at`,
		p.ID, p.ArtistID, p.Title, p.Year, p.ThumbURL, genresJSON, p.TrackCount, p.DurationMs, p.ExternalID)
	return scanAlbum(row)
}

// GetAlbum returns an album by local id.
func (s *Store) GetAlbum(ctx context.Context, id int64) (Album, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, artist_id, title, year, thumb_url, genres, track_count, duration_ms, external_id, match_status, last_attempted, created_at, updated_at
FROM albums WHERE id = $1`, id)
	return scanAlbum(row)
}

// ListAlbumsByArtist returns every album owned by artistID.
func (s *Store) ListAlbumsByArtist(ctx context.Context, artistID int64) ([]Album, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, artist_id, title, year, thumb_url, genres, track_count, duration_ms, external_id, match_status, last_attempted, created_at, updated_at
FROM albums WHERE artist_id = $1 ORDER BY year ASC NULLS LAST, title ASC`, artistID)
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

func scanAlbum(row pgx.Row) (Album, error) {
	var a Album
	var thumbURL, externalID sql.NullString
	var year, trackCount sql.NullInt32
	var durationMs sql.NullInt64
	var lastAttempted sql.NullTime
	var genres []byte
	var matchStatus string
	if err := row.Scan(&a.ID, &a.ArtistID, &a.Title, &year, &thumbURL, &genres, &trackCount, &durationMs, &externalID, &matchStatus, &lastAttempted, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Album{}, err
	}
	if year.Valid {
		v := int(year.Int32)
		a.Year = &v
	}
	if thumbURL.Valid {
		a.ThumbURL = &thumbURL.String
	}
	if trackCount.Valid {
		v := int(trackCount.Int32)
		a.TrackCount = &v
	}
	if durationMs.Valid {
		a.DurationMs = &durationMs.Int64
	}
	if externalID.Valid {
		a.ExternalID = &externalID.String
	}
	if lastAttempted.Valid {
		a.LastAttempted = &lastAttempted.Time
	}
	a.Genres = scanGenres(genres)
	a.MatchStatus = MatchStatus(matchStatus)
	return a, nil
}

// UpsertTrack inserts or updates a track by local id.
func (s *Store) UpsertTrack(ctx context.Context, p UpsertTrackParams) (Track, error) {
	row := s.pool.QueryRow(ctx, `
INSERT INTO tracks (id, album_id, artist_id, title, track_number, duration_ms, file_path, bitrate, explicit, external_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
    album_id     = EXCLUDED.album_id,
    artist_id    = EXCLUDED.artist_id,
    title        = EXCLUDED.title,
    track_number = COALESCE(EXCLUDED.track_number, tracks.track_number),
    duration_ms  = COALESCE(EXCLUDED.duration_ms, tracks.duration_ms),
    file_path    = COALESCE(EXCLUDED.file_path, tracks.file_path),
    bitrate      = COALESCE(EXCLUDED.bitrate, tracks.bitrate),
    explicit     = EXCLUDED.explicit,
    external_id  = COALESCE(EXCLUDED.external_id, tracks.external_id),
    updated_at   = now()
RETURNING id, album_id, artist_id, title, track_number, duration_ms, file_path, bitrate, explicit, external_id, match_status, last_attempted, created_at, updated_at`,
		p.ID, p.AlbumID, p.ArtistID, p.Title, p.TrackNumber, p.DurationMs, p.FilePath, p.Bitrate, p.Explicit, p.ExternalID)
	return scanTrack(row)
}

// GetTrack returns a track by local id.
func (s *Store) GetTrack(ctx context.Context, id int64) (Track, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, album_id, artist_id, title, track_number, duration_ms, file_path, bitrate, explicit, external_id, match_status, last_attempted, created_at, updated_at
FROM tracks WHERE id = $1`, id)
	return scanTrack(row)
}

// ListTracksByAlbum returns every track owned by albumID, disc-then-track
// ordered (disc number is not modeled separately here; album ordering is by
// track_number alone, matching the data model's flat per-album numbering).
func (s *Store) ListTracksByAlbum(ctx context.Context, albumID int64) ([]Track, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, album_id, artist_id, title, track_number, duration_ms, file_path, bitrate, explicit, external_id, match_status, last_attempted, created_at, updated_at
FROM tracks WHERE album_id = $1 ORDER BY track_number ASC NULLS LAST`, albumID)
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

func scanTrack(row pgx.Row) (Track, error) {
	var t Track
	var filePath, externalID sql.NullString
	var trackNumber, bitrate sql.NullInt32
	var durationMs sql.NullInt64
	var lastAttempted sql.NullTime
	var matchStatus string
	if err := row.Scan(&t.ID, &t.AlbumID, &t.ArtistID, &t.Title, &trackNumber, &durationMs, &filePath, &bitrate, &t.Explicit, &externalID, &matchStatus, &lastAttempted, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Track{}, err
	}
	if trackNumber.Valid {
		v := int(trackNumber.Int32)
		t.TrackNumber = &v
	}
	if durationMs.Valid {
		t.DurationMs = &durationMs.Int64
	}
	if filePath.Valid {
		t.FilePath = &filePath.String
	}
	if bitrate.Valid {
		v := int(bitrate.Int32)
		t.Bitrate = &v
	}
	if externalID.Valid {
		t.ExternalID = &externalID.String
	}
	if lastAttempted.Valid {
		t.LastAttempted = &lastAttempted.Time
	}
	t.MatchStatus = MatchStatus(matchStatus)
	return t, nil
}

// SetTrackFilePath updates a track's on-disk location, the write the
// Post-Processor performs once a download lands in the library layout.
func (s *Store) SetTrackFilePath(ctx context.Context, trackID int64, path string) error {
	_, err := s.pool.Exec(ctx, `UPDATE tracks SET file_path = $2, updated_at = now() WHERE id = $1`, trackID, path)
	return err
}

// GetTrackByExternalID resolves a track by its metadata-provider id, the
// lookup the post-processor needs to turn a completed download's matched
// context back into a local track row. ok is false when no track carries
// that external id (e.g. the download was never enriched).
func (s *Store) GetTrackByExternalID(ctx context.Context, externalID string) (Track, bool, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, album_id, artist_id, title, track_number, duration_ms, file_path, bitrate, explicit, external_id, match_status, last_attempted, created_at, updated_at
FROM tracks WHERE external_id = $1`, externalID)
	t, err := scanTrack(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Track{}, false, nil
	}
	if err != nil {
		return Track{}, false, err
	}
	return t, true, nil
}

// SetMatchResult records an external-match outcome for one of the three
// entity kinds, bumping last_attempted. status must be matched, not_found,
// or error; externalID is nil unless status is matched.
func (s *Store) SetMatchResult(ctx context.Context, table string, id int64, status MatchStatus, externalID *string) error {
	var q string
	switch table {
	case "artists":
		q = `UPDATE artists SET match_status = $2, external_id = COALESCE($3, external_id), last_attempted = now(), updated_at = now() WHERE id = $1`
	case "albums":
		q = `UPDATE albums SET match_status = $2, external_id = COALESCE($3, external_id), last_attempted = now(), updated_at = now() WHERE id = $1`
	case "tracks":
		q = `UPDATE tracks SET match_status = $2, external_id = COALESCE($3, external_id), last_attempted = now(), updated_at = now() WHERE id = $1`
	default:
		return fmt.Errorf("catalog: unknown entity table %q", table)
	}
	_, err := s.pool.Exec(ctx, q, id, string(status), externalID)
	return err
}

// reeligibleCutoff returns the time before which a not_found/error entity
// becomes eligible for another enrichment attempt.
func reeligibleCutoff(status MatchStatus, now time.Time) time.Time {
	if status == MatchNotFound {
		return now.Add(-NotFoundRetryAfter)
	}
	return now.Add(-ErrorRetryAfter)
}
