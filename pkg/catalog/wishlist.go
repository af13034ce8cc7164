package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// AddToWishlist inserts a new wishlist entry, or — because uniqueness is on
// ExternalTrackID — merges SourceInfo into the existing row instead of
// inserting a duplicate.
func (s *Store) AddToWishlist(ctx context.Context, e WishlistEntry) error {
	descriptorJSON, err := json.Marshal(e.Descriptor)
	if err != nil {
		return fmt.Errorf("marshal descriptor: %w", err)
	}
	sourceInfo := e.SourceInfo
	if sourceInfo == nil {
		sourceInfo = map[string]any{}
	}
	sourceInfoJSON, err := json.Marshal(sourceInfo)
	if err != nil {
		return fmt.Errorf("marshal source info: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
INSERT INTO wishlist (external_track_id, descriptor_json, failure_reason, source_type, source_info_json, retry_count, date_added, last_attempted)
VALUES ($1, $2, $3, $4, $5, $6, now(), $7)
ON CONFLICT (external_track_id) DO UPDATE SET
    failure_reason   = EXCLUDED.failure_reason,
    source_info_json = wishlist.source_info_json || EXCLUDED.source_info_json`,
		e.ExternalTrackID, descriptorJSON, e.FailureReason, string(e.SourceType), sourceInfoJSON, e.RetryCount, e.LastAttempted)
	return err
}

// RemoveFromWishlist deletes an entry on successful download.
func (s *Store) RemoveFromWishlist(ctx context.Context, externalTrackID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM wishlist WHERE external_track_id = $1`, externalTrackID)
	return err
}

// BumpWishlistRetry increments retry_count and sets last_attempted=now with
// the given failure reason, the per-retry update on a failed auto-retry.
func (s *Store) BumpWishlistRetry(ctx context.Context, externalTrackID, failureReason string) error {
	_, err := s.pool.Exec(ctx, `
UPDATE wishlist SET retry_count = retry_count + 1, last_attempted = now(), failure_reason = $2
WHERE external_track_id = $1`, externalTrackID, failureReason)
	return err
}

// ListWishlistDue returns up to limit entries ordered by last_attempted
// ascending (nulls first, i.e. never-attempted entries go first), the
// bounded batch the auto-retry scheduler pulls each tick.
func (s *Store) ListWishlistDue(ctx context.Context, limit int) ([]WishlistEntry, error) {
	rows, err := s.pool.Query(ctx, `
SELECT external_track_id, descriptor_json, failure_reason, source_type, source_info_json, retry_count, date_added, last_attempted
FROM wishlist
ORDER BY last_attempted ASC NULLS FIRST
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWishlistEntries(rows)
}

// wishlistRowScanner matches both pgx.Rows and the single-row path used by
// ListWishlistDue's helper.
type wishlistRowScanner interface {
	Scan(dest ...any) error
}

func scanWishlistEntry(row wishlistRowScanner) (WishlistEntry, error) {
	var e WishlistEntry
	var descriptorJSON, sourceInfoJSON []byte
	var failureReason sql.NullString
	var sourceType string
	var lastAttempted sql.NullTime
	if err := row.Scan(&e.ExternalTrackID, &descriptorJSON, &failureReason, &sourceType, &sourceInfoJSON, &e.RetryCount, &e.DateAdded, &lastAttempted); err != nil {
		return WishlistEntry{}, err
	}
	if failureReason.Valid {
		e.FailureReason = failureReason.String
	}
	e.SourceType = WishlistSourceType(sourceType)
	if lastAttempted.Valid {
		e.LastAttempted = &lastAttempted.Time
	}
	if len(descriptorJSON) > 0 {
		_ = json.Unmarshal(descriptorJSON, &e.Descriptor)
	}
	if len(sourceInfoJSON) > 0 {
		_ = json.Unmarshal(sourceInfoJSON, &e.SourceInfo)
	}
	return e, nil
}

type wishlistRows interface {
	Next() bool
	Err() error
	wishlistRowScanner
}

func scanWishlistEntries(rows wishlistRows) ([]WishlistEntry, error) {
	var out []WishlistEntry
	for rows.Next() {
		e, err := scanWishlistEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// WishlistSummary is aggregate wishlist health for a status surface: total
// entries, a breakdown by source type, and the oldest unresolved entry's age.
type WishlistSummary struct {
	Total       int
	BySource    map[WishlistSourceType]int
	OldestAdded *time.Time
}

// Summary reads aggregate wishlist counts without pulling every row — a
// read the persisted queue never offered directly, added for the status
// surface.
func (s *Store) Summary(ctx context.Context) (WishlistSummary, error) {
	sum := WishlistSummary{BySource: map[WishlistSourceType]int{}}

	rows, err := s.pool.Query(ctx, `SELECT source_type, COUNT(*) FROM wishlist GROUP BY source_type`)
	if err != nil {
		return WishlistSummary{}, err
	}
	for rows.Next() {
		var src string
		var n int
		if err := rows.Scan(&src, &n); err != nil {
			rows.Close()
			return WishlistSummary{}, err
		}
		sum.BySource[WishlistSourceType(src)] = n
		sum.Total += n
	}
	if err := rows.Err(); err != nil {
		return WishlistSummary{}, err
	}
	rows.Close()

	var oldest sql.NullTime
	if err := s.pool.QueryRow(ctx, `SELECT MIN(date_added) FROM wishlist`).Scan(&oldest); err != nil {
		return WishlistSummary{}, err
	}
	if oldest.Valid {
		sum.OldestAdded = &oldest.Time
	}
	return sum, nil
}
