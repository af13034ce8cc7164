package catalog

import "time"

// MatchStatus is the external-match lifecycle shared by Artist, Album, and
// Track: unattempted → {matched | not_found | error}, with not_found
// re-eligible after 30 days and error after 7 days.
type MatchStatus string

const (
	MatchUnattempted MatchStatus = "unattempted"
	MatchMatched     MatchStatus = "matched"
	MatchNotFound    MatchStatus = "not_found"
	MatchError       MatchStatus = "error"
)

// NotFoundRetryAfter and ErrorRetryAfter are the reeligibility windows
// named in the error-handling and enrichment sections.
const (
	NotFoundRetryAfter = 30 * 24 * time.Hour
	ErrorRetryAfter    = 7 * 24 * time.Hour
)

// Artist is a catalog entity created by the (out-of-scope) sync collaborator
// or the Post-Processor, enriched in place by the enrichment worker.
type Artist struct {
	ID            int64
	Name          string
	ThumbURL      *string
	Genres        []string
	Summary       *string
	ExternalID    *string
	MatchStatus   MatchStatus
	LastAttempted *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Album belongs to exactly one Artist.
type Album struct {
	ID            int64
	ArtistID      int64
	Title         string
	Year          *int
	ThumbURL      *string
	Genres        []string
	TrackCount    *int
	DurationMs    *int64
	ExternalID    *string
	MatchStatus   MatchStatus
	LastAttempted *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Track belongs to exactly one Album and Artist.
type Track struct {
	ID            int64
	AlbumID       int64
	ArtistID      int64
	Title         string
	TrackNumber   *int
	DurationMs    *int64
	FilePath      *string
	Bitrate       *int
	Explicit      bool
	ExternalID    *string
	MatchStatus   MatchStatus
	LastAttempted *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// WatchlistEntry is user-created and updated by the watchlist scanner on
// each scan; it is never deleted except by explicit user action.
type WatchlistEntry struct {
	ExternalArtistID   string
	Name               string
	LastScanTimestamp  *time.Time
	IncludeAlbums      bool
	IncludeEPs         bool
	IncludeSingles     bool
	IncludeLive        bool
	IncludeRemixes     bool
	IncludeAcoustic    bool
	IncludeCompilations bool
	CreatedAt          time.Time
}

// TrackDescriptor is the full external track payload carried by a wishlist
// entry and by discovery-pool blobs — enough to resubmit a fulfillment
// request without re-querying the metadata provider.
type TrackDescriptor struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Artists    []string      `json:"artists"`
	Album      AlbumSummary  `json:"album"`
	DurationMs int64         `json:"duration_ms"`
	Popularity int           `json:"popularity"`
}

// AlbumSummary is the denormalized album shape embedded in a TrackDescriptor.
type AlbumSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Images      []string `json:"images"`
	ReleaseDate string   `json:"release_date"`
	AlbumType   string   `json:"album_type"`
}

// WishlistSourceType names what produced a wishlist entry.
type WishlistSourceType string

const (
	SourcePlaylist  WishlistSourceType = "playlist"
	SourceAlbum     WishlistSourceType = "album"
	SourceWatchlist WishlistSourceType = "watchlist"
	SourceManual    WishlistSourceType = "manual"
	SourceWishlist  WishlistSourceType = "wishlist"
)

// WishlistEntry is created by a failed fulfillment attempt and deleted on
// successful download. Uniqueness is on ExternalTrackID; a second add
// merges SourceInfo instead of inserting a duplicate.
type WishlistEntry struct {
	ExternalTrackID string
	Descriptor      TrackDescriptor
	FailureReason   string
	SourceType      WishlistSourceType
	SourceInfo      map[string]any
	RetryCount      int
	DateAdded       time.Time
	LastAttempted   *time.Time
}

// SimilarArtist records one (source, similar) edge; occurrence_count
// aggregates across every watchlist source that names it.
type SimilarArtist struct {
	SourceArtistID  string
	SimilarArtistID string
	Name            string
	Rank            int
	OccurrenceCount int
	LastRefreshed   time.Time
}

// DiscoveryPoolTrack is an append-only candidate for Release Radar /
// Discovery Weekly curation, evicted on a rolling 365-day window.
type DiscoveryPoolTrack struct {
	ExternalTrackID  string
	ExternalArtistID string
	ExternalAlbumID  string
	Name             string
	ArtistName       string
	AlbumName        string
	CoverURL         *string
	DurationMs       *int64
	Popularity       *int
	ReleaseDate      *time.Time
	IsNewRelease     bool
	IsSingle         bool
	ArtistGenres     []string
	Blob             TrackDescriptor
	AddedAt          time.Time
}

// DatabaseInfo summarizes catalog size for diagnostics/status surfaces.
type DatabaseInfo struct {
	ArtistCount    int
	AlbumCount     int
	TrackCount     int
	WishlistCount  int
	WatchlistCount int
	LastUpdated    *time.Time
}

// UpsertArtistParams upserts by local id.
type UpsertArtistParams struct {
	ID         int64
	Name       string
	ThumbURL   *string
	Genres     []string
	Summary    *string
	ExternalID *string
}

// UpsertAlbumParams upserts by local id.
type UpsertAlbumParams struct {
	ID         int64
	ArtistID   int64
	Title      string
	Year       *int
	ThumbURL   *string
	Genres     []string
	TrackCount *int
	DurationMs *int64
	ExternalID *string
}

// UpsertTrackParams upserts by local id.
type UpsertTrackParams struct {
	ID          int64
	AlbumID     int64
	ArtistID    int64
	Title       string
	TrackNumber *int
	DurationMs  *int64
	FilePath    *string
	Bitrate     *int
	Explicit    bool
	ExternalID  *string
}
