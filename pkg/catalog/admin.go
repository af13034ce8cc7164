package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// ClearAllData truncates every catalog table and reclaims space. It is
// destroyed-on-purpose territory: artists/albums/tracks are destroyed only
// by this full-refresh path.
func (s *Store) ClearAllData(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
TRUNCATE artists, albums, tracks, watchlist_artists, wishlist, similar_artists, discovery_pool RESTART IDENTITY CASCADE`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `VACUUM`)
	return err
}

// RecordFullRefreshCompletion mirrors the completion timestamp into the
// metadata slot so status surfaces can report "last full refresh".
func (s *Store) RecordFullRefreshCompletion(ctx context.Context) error {
	return s.SetMetadata(ctx, "last_full_refresh", time.Now().UTC().Format(time.RFC3339))
}

// GetDatabaseInfo returns catalog counts and the last-update timestamp for
// a diagnostics/status surface.
func (s *Store) GetDatabaseInfo(ctx context.Context) (DatabaseInfo, error) {
	var info DatabaseInfo
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM artists`).Scan(&info.ArtistCount); err != nil {
		return DatabaseInfo{}, err
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM albums`).Scan(&info.AlbumCount); err != nil {
		return DatabaseInfo{}, err
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&info.TrackCount); err != nil {
		return DatabaseInfo{}, err
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM wishlist`).Scan(&info.WishlistCount); err != nil {
		return DatabaseInfo{}, err
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM watchlist_artists`).Scan(&info.WatchlistCount); err != nil {
		return DatabaseInfo{}, err
	}
	var lastUpdated sql.NullTime
	if err := s.pool.QueryRow(ctx, `SELECT GREATEST(
		(SELECT MAX(updated_at) FROM artists),
		(SELECT MAX(updated_at) FROM albums),
		(SELECT MAX(updated_at) FROM tracks))`).Scan(&lastUpdated); err != nil {
		return DatabaseInfo{}, err
	}
	if lastUpdated.Valid {
		info.LastUpdated = &lastUpdated.Time
	}
	return info, nil
}

// GetMetadata reads a key from the flat key-value metadata table — the
// durable source of truth that pkg/kvstate mirrors for fast reads.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM metadata WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetMetadata upserts a key in the flat key-value metadata table.
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO metadata (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	return err
}
