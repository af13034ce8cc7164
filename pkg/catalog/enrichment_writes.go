package catalog

import (
	"context"
	"fmt"
)

// ArtistMatch is what the enrichment worker found for one artist.
type ArtistMatch struct {
	ExternalID string
	ThumbURL   *string
	Genres     []string
	Summary    *string
}

// AlbumMatch is what the enrichment worker found for one album.
type AlbumMatch struct {
	ExternalID string
	ThumbURL   *string
	Genres     []string
	Year       *int
	TrackCount *int
}

// TrackMatch is what the enrichment worker found for one track.
type TrackMatch struct {
	ExternalID  string
	DurationMs  *int64
	TrackNumber *int
}

// ApplyArtistMatch records a successful match: metadata plus match_status,
// in one statement so a crash between the two never leaves a matched row
// with a stale thumb/genres.
func (s *Store) ApplyArtistMatch(ctx context.Context, id int64, m ArtistMatch) error {
	genresJSON, err := jsonbGenres(m.Genres)
	if err != nil {
		return fmt.Errorf("marshal genres: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
UPDATE artists SET
    external_id   = $2,
    thumb_url     = COALESCE($3, thumb_url),
    genres        = CASE WHEN $4 = '[]' THEN genres ELSE $4 END,
    summary       = COALESCE($5, summary),
    match_status  = 'matched',
    last_attempted = now(),
    updated_at    = now()
WHERE id = $1`, id, m.ExternalID, m.ThumbURL, genresJSON, m.Summary)
	return err
}

// ApplyAlbumMatch records a successful album match.
func (s *Store) ApplyAlbumMatch(ctx context.Context, id int64, m AlbumMatch) error {
	genresJSON, err := jsonbGenres(m.Genres)
	if err != nil {
		return fmt.Errorf("marshal genres: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
UPDATE albums SET
    external_id   = $2,
    thumb_url     = COALESCE($3, thumb_url),
    genres        = CASE WHEN $4 = '[]' THEN genres ELSE $4 END,
    year          = COALESCE($5, year),
    track_count   = COALESCE($6, track_count),
    match_status  = 'matched',
    last_attempted = now(),
    updated_at    = now()
WHERE id = $1`, id, m.ExternalID, m.ThumbURL, genresJSON, m.Year, m.TrackCount)
	return err
}

// ApplyTrackMatch records a successful track match.
func (s *Store) ApplyTrackMatch(ctx context.Context, id int64, m TrackMatch) error {
	_, err := s.pool.Exec(ctx, `
UPDATE tracks SET
    external_id    = $2,
    duration_ms    = COALESCE($3, duration_ms),
    track_number   = COALESCE($4, track_number),
    match_status   = 'matched',
    last_attempted = now(),
    updated_at     = now()
WHERE id = $1`, id, m.ExternalID, m.DurationMs, m.TrackNumber)
	return err
}
