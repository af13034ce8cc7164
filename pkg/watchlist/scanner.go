// Package watchlist periodically scans watched artists for new releases
// not yet present locally, adding missing tracks to the wishlist, and
// maintains the discovery pool and its curated playlists.
package watchlist

import (
	"context"
	"math/rand"
	"time"

	"github.com/nezreka/fulfillment/pkg/catalog"
	"github.com/nezreka/fulfillment/pkg/metaprovider"
)

// similarArtistCacheTTL and discoveryPoolGate are the named reeligibility
// windows for the similar-artist cache and the discovery pool population
// gate.
const (
	similarArtistCacheTTL  = 30 * 24 * time.Hour
	discoveryPoolGate      = 24 * time.Hour
	discoveryPoolEviction  = 365 * 24 * time.Hour
	defaultLookbackDays    = 30
	similarArtistFetchSize = 20
)

// Store is the subset of pkg/catalog.Store the scanner reads and writes.
type Store interface {
	ListWatchlist(ctx context.Context) ([]catalog.WatchlistEntry, error)
	TouchWatchlistScan(ctx context.Context, externalArtistID string) error
	RefreshArtistThumbnail(ctx context.Context, externalID, thumbURL string) error
	CheckTrackExists(ctx context.Context, title, artist string, threshold float64) (catalog.Track, float64, bool, error)
	AddToWishlist(ctx context.Context, e catalog.WishlistEntry) error
	SimilarArtistsCacheFresh(ctx context.Context, sourceArtistID string) (bool, error)
	UpsertSimilarArtist(ctx context.Context, sa catalog.SimilarArtist) error
	TopSimilarArtistsByOccurrence(ctx context.Context, limit int) ([]catalog.SimilarArtist, error)
	InsertDiscoveryPoolTrack(ctx context.Context, t catalog.DiscoveryPoolTrack) error
	ListDiscoveryPool(ctx context.Context) ([]catalog.DiscoveryPoolTrack, error)
	EvictDiscoveryPoolOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	DiscoveryPoolLastPopulated(ctx context.Context) (time.Time, bool, error)
	GetMetadata(ctx context.Context, key string) (string, bool, error)
	SetMetadata(ctx context.Context, key, value string) error
}

// Provider is the subset of pkg/metaprovider.Client the scanner queries.
type Provider interface {
	GetArtistAlbums(ctx context.Context, id, albumType string, limit int) ([]metaprovider.Album, error)
	GetAlbumTracks(ctx context.Context, id string) ([]metaprovider.Track, error)
	GetRelatedArtists(ctx context.Context, id string) ([]metaprovider.Artist, error)
}

// Config tunes the scanner.
type Config struct {
	MaxArtistsPerRun  int
	MustScanAfterDays int
	DefaultLookbackDays int
}

// DefaultConfig matches pkg/config.WatchlistConfig's defaults.
func DefaultConfig() Config {
	return Config{MaxArtistsPerRun: 50, MustScanAfterDays: 7, DefaultLookbackDays: defaultLookbackDays}
}

// Scanner drives one watchlist scan pass plus discovery pool maintenance.
type Scanner struct {
	store    Store
	provider Provider
	cfg      Config
	rng      *rand.Rand
}

// New constructs a Scanner. A nil rng uses the package-level math/rand
// source; tests inject a seeded one for deterministic sampling.
func New(store Store, provider Provider, cfg Config) *Scanner {
	return &Scanner{store: store, provider: provider, cfg: cfg}
}

// RunOnce performs one full scan pass: select artists, scan each, then
// maintain the discovery pool. Callers (cmd/fulfillmentd or a manual
// trigger) decide the schedule; the scanner itself has no internal loop.
func (s *Scanner) RunOnce(ctx context.Context) error {
	entries, err := s.store.ListWatchlist(ctx)
	if err != nil {
		return err
	}

	selected := s.selectArtists(entries, time.Now())
	for _, e := range selected {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.scanArtist(ctx, e); err != nil {
			continue
		}
	}

	return s.populateDiscoveryPool(ctx)
}

func (s *Scanner) shuffle(n int, swap func(i, j int)) {
	if s.rng != nil {
		s.rng.Shuffle(n, swap)
		return
	}
	rand.Shuffle(n, swap)
}

func (s *Scanner) intn(n int) int {
	if n <= 0 {
		return 0
	}
	if s.rng != nil {
		return s.rng.Intn(n)
	}
	return rand.Intn(n)
}
