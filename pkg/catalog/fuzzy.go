package catalog

import (
	"context"
	"database/sql"

	"github.com/nezreka/fulfillment/pkg/match"
)

// CheckTrackExists returns the best local track whose (title, artist) fuzzy
// match exceeds threshold, confidence included. Candidates are prefiltered
// by full-text search on title and then scored in Go with C4 — SQL never
// computes confidence.
func (s *Store) CheckTrackExists(ctx context.Context, title, artist string, threshold float64) (Track, float64, bool, error) {
	rows, err := s.pool.Query(ctx, `
SELECT t.id, t.album_id, t.artist_id, t.title, t.track_number, t.duration_ms, t.file_path, t.bitrate, t.explicit, t.external_id, t.match_status, t.last_attempted, t.created_at, t.updated_at, ar.name
FROM tracks t
JOIN artists ar ON ar.id = t.artist_id
WHERE t.search_vector @@ websearch_to_tsquery('english', $1)`,
		title)
	if err != nil {
		return Track{}, 0, false, err
	}
	defer rows.Close()

	var best Track
	bestScore := 0.0
	found := false
	for rows.Next() {
		var t Track
		var artistName string
		var filePath, externalID sql.NullString
		var trackNumber, bitrate sql.NullInt32
		var durationMs sql.NullInt64
		var lastAttempted sql.NullTime
		var matchStatus string
		if err := rows.Scan(&t.ID, &t.AlbumID, &t.ArtistID, &t.Title, &trackNumber, &durationMs, &filePath, &bitrate, &t.Explicit, &externalID, &matchStatus, &lastAttempted, &t.CreatedAt, &t.UpdatedAt, &artistName); err != nil {
			return Track{}, 0, false, err
		}
		if trackNumber.Valid {
			n := int(trackNumber.Int32)
			t.TrackNumber = &n
		}
		if durationMs.Valid {
			t.DurationMs = &durationMs.Int64
		}
		if filePath.Valid {
			t.FilePath = &filePath.String
		}
		if bitrate.Valid {
			n := int(bitrate.Int32)
			t.Bitrate = &n
		}
		if externalID.Valid {
			t.ExternalID = &externalID.String
		}
		if lastAttempted.Valid {
			t.LastAttempted = &lastAttempted.Time
		}
		t.MatchStatus = MatchStatus(matchStatus)

		titleScore := match.Similarity(title, t.Title)
		artistScore := match.Similarity(artist, artistName)
		score := titleScore*0.6 + artistScore*0.4
		if score > bestScore {
			bestScore = score
			best = t
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return Track{}, 0, false, err
	}
	if !found || bestScore < threshold {
		return Track{}, bestScore, false, nil
	}
	return best, bestScore, true, nil
}

// CheckAlbumExists returns the best local album whose (title, artist) fuzzy
// match exceeds threshold.
func (s *Store) CheckAlbumExists(ctx context.Context, title, artist string, threshold float64) (Album, float64, bool, error) {
	rows, err := s.pool.Query(ctx, `
SELECT al.id, al.artist_id, al.title, al.year, al.thumb_url, al.genres, al.track_count, al.duration_ms, al.external_id, al.match_status, al.last_attempted, al.created_at, al.updated_at, ar.name
FROM albums al
JOIN artists ar ON ar.id = al.artist_id
WHERE al.search_vector @@ websearch_to_tsquery('english', $1)`,
		title)
	if err != nil {
		return Album{}, 0, false, err
	}
	defer rows.Close()

	var best Album
	bestScore := 0.0
	found := false
	for rows.Next() {
		var a Album
		var artistName string
		var thumbURL, externalID sql.NullString
		var year, trackCount sql.NullInt32
		var durationMs sql.NullInt64
		var lastAttempted sql.NullTime
		var genres []byte
		var matchStatus string
		if err := rows.Scan(&a.ID, &a.ArtistID, &a.Title, &year, &thumbURL, &genres, &trackCount, &durationMs, &externalID, &matchStatus, &lastAttempted, &a.CreatedAt, &a.UpdatedAt, &artistName); err != nil {
			return Album{}, 0, false, err
		}
		if year.Valid {
			y := int(year.Int32)
			a.Year = &y
		}
		if thumbURL.Valid {
			a.ThumbURL = &thumbURL.String
		}
		if trackCount.Valid {
			n := int(trackCount.Int32)
			a.TrackCount = &n
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

		titleScore := match.Similarity(title, a.Title)
		artistScore := match.Similarity(artist, artistName)
		score := titleScore*0.6 + artistScore*0.4
		if score > bestScore {
			bestScore = score
			best = a
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return Album{}, 0, false, err
	}
	if !found || bestScore < threshold {
		return Album{}, bestScore, false, nil
	}
	return best, bestScore, true, nil
}

// CheckAlbumCompleteness reports how many of an album's expected tracks are
// already on disk (file_path set). is_complete means owned/expected >= 0.9
// and owned > 0.
func (s *Store) CheckAlbumCompleteness(ctx context.Context, albumID int64, expectedTrackCount int) (owned int, expected int, isComplete bool, err error) {
	expected = expectedTrackCount
	err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tracks WHERE album_id = $1 AND file_path IS NOT NULL`, albumID).Scan(&owned)
	if err != nil {
		return 0, expected, false, err
	}
	if expected <= 0 {
		return owned, expected, false, nil
	}
	isComplete = owned > 0 && float64(owned)/float64(expected) >= 0.9
	return owned, expected, isComplete, nil
}
