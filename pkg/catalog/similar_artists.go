package catalog

import "context"

// UpsertSimilarArtist records or refreshes one (source, similar) edge,
// bumping occurrence_count on conflict since it aggregates across every
// watchlist source that names the pair.
func (s *Store) UpsertSimilarArtist(ctx context.Context, sa SimilarArtist) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO similar_artists (source_artist_id, similar_artist_id, name, rank, occurrence_count, last_refreshed)
VALUES ($1, $2, $3, $4, 1, now())
ON CONFLICT (source_artist_id, similar_artist_id) DO UPDATE SET
    name             = EXCLUDED.name,
    rank             = EXCLUDED.rank,
    occurrence_count = similar_artists.occurrence_count + 1,
    last_refreshed   = now()`,
		sa.SourceArtistID, sa.SimilarArtistID, sa.Name, sa.Rank)
	return err
}

// TopSimilarArtistsByOccurrence returns the top limit similar artists
// aggregated across all sources, ordered by occurrence_count descending —
// the seed list for discovery pool population.
func (s *Store) TopSimilarArtistsByOccurrence(ctx context.Context, limit int) ([]SimilarArtist, error) {
	rows, err := s.pool.Query(ctx, `
SELECT MIN(source_artist_id), similar_artist_id, MAX(name), MIN(rank), SUM(occurrence_count)::int, MAX(last_refreshed)
FROM similar_artists
GROUP BY similar_artist_id
ORDER BY SUM(occurrence_count) DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SimilarArtist
	for rows.Next() {
		var sa SimilarArtist
		if err := rows.Scan(&sa.SourceArtistID, &sa.SimilarArtistID, &sa.Name, &sa.Rank, &sa.OccurrenceCount, &sa.LastRefreshed); err != nil {
			return nil, err
		}
		out = append(out, sa)
	}
	return out, rows.Err()
}

// SimilarArtistsCacheFresh reports whether sourceArtistID's similar-artist
// cache was refreshed within the last 30 days.
func (s *Store) SimilarArtistsCacheFresh(ctx context.Context, sourceArtistID string) (bool, error) {
	var fresh bool
	err := s.pool.QueryRow(ctx, `
SELECT EXISTS(SELECT 1 FROM similar_artists WHERE source_artist_id = $1 AND last_refreshed > now() - interval '30 days')`,
		sourceArtistID).Scan(&fresh)
	return fresh, err
}
