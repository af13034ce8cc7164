// Package enrichment attaches external metadata-provider identities to
// locally-known artists, albums, and tracks. A single long-running loop
// walks a fixed six-tier priority list, picking one item of work per
// iteration and processing it to completion before picking the next.
package enrichment

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nezreka/fulfillment/pkg/catalog"
	"github.com/nezreka/fulfillment/pkg/metaprovider"
)

// titleMatchThreshold is the name-similarity bar below which a candidate
// match is rejected, applied uniformly to artist, album, and track name
// comparisons.
const titleMatchThreshold = 0.8

// Store is the subset of pkg/catalog.Store the worker reads and writes.
type Store interface {
	NextUnattemptedArtist(ctx context.Context) (catalog.Artist, bool, error)
	NextAlbumBatchSeed(ctx context.Context) (catalog.Artist, bool, error)
	UnattemptedAlbumsByArtist(ctx context.Context, artistID int64) ([]catalog.Album, error)
	NextTrackBatchSeed(ctx context.Context) (catalog.Album, bool, error)
	UnattemptedTracksByAlbum(ctx context.Context, albumID int64) ([]catalog.Track, error)
	NextFallbackAlbum(ctx context.Context) (catalog.Album, bool, error)
	NextFallbackTrack(ctx context.Context) (catalog.Track, bool, error)
	NextStaleRetry(ctx context.Context, now time.Time) (catalog.StaleEntity, bool, error)
	MarkChildrenErrorBulk(ctx context.Context, table, parentColumn string, parentID int64) error
	SetMatchResult(ctx context.Context, table string, id int64, status catalog.MatchStatus, externalID *string) error
	ApplyArtistMatch(ctx context.Context, id int64, m catalog.ArtistMatch) error
	ApplyAlbumMatch(ctx context.Context, id int64, m catalog.AlbumMatch) error
	ApplyTrackMatch(ctx context.Context, id int64, m catalog.TrackMatch) error
	GetArtist(ctx context.Context, id int64) (catalog.Artist, error)
	GetAlbum(ctx context.Context, id int64) (catalog.Album, error)
	GetTrack(ctx context.Context, id int64) (catalog.Track, error)
}

// Provider is the subset of pkg/metaprovider.Client the worker searches
// and fetches against.
type Provider interface {
	IsAuthenticated() bool
	SearchArtists(ctx context.Context, q string, limit int) ([]metaprovider.Artist, error)
	SearchAlbums(ctx context.Context, q string, limit int) ([]metaprovider.Album, error)
	SearchTracks(ctx context.Context, q string, limit int) ([]metaprovider.Track, error)
	GetArtistAlbums(ctx context.Context, id, albumType string, limit int) ([]metaprovider.Album, error)
	GetAlbumTracks(ctx context.Context, id string) ([]metaprovider.Track, error)
}

// Config tunes the worker's idle backoff.
type Config struct {
	// IdleInterval is how long Run waits before checking the priority
	// list again after a tick finds nothing to do.
	IdleInterval time.Duration
}

// DefaultConfig matches the component design's named constant.
func DefaultConfig() Config {
	return Config{IdleInterval: 5 * time.Second}
}

// Worker drives the enrichment loop.
type Worker struct {
	store    Store
	provider Provider
	cfg      Config

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New constructs a Worker. Call Run to start the loop.
func New(store Store, provider Provider, cfg Config) *Worker {
	return &Worker{store: store, provider: provider, cfg: cfg, stopCh: make(chan struct{})}
}

// Stop signals Run to exit at its next opportunity between items.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// Run is the single long-running loop. It remains responsive to shutdown
// between items: it never blocks mid-item waiting on ctx, only between
// one completed item and the next tick.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		default:
		}

		if !w.provider.IsAuthenticated() {
			slog.Warn("enrichment: provider not authenticated, waiting")
			if w.sleep(ctx) {
				return
			}
			continue
		}

		found, err := w.tick(ctx)
		if err != nil {
			slog.Error("enrichment: tick failed", "err", err)
		}
		if !found {
			if w.sleep(ctx) {
				return
			}
		}
	}
}

func (w *Worker) sleep(ctx context.Context) (stopped bool) {
	select {
	case <-ctx.Done():
		return true
	case <-w.stopCh:
		return true
	case <-time.After(w.cfg.IdleInterval):
		return false
	}
}

// tick picks exactly one item from the six-tier priority list and
// processes it. found is false only when every tier is empty.
func (w *Worker) tick(ctx context.Context) (found bool, err error) {
	if artist, ok, err := w.store.NextUnattemptedArtist(ctx); err != nil {
		return false, err
	} else if ok {
		return true, w.processArtist(ctx, artist)
	}

	if artist, ok, err := w.store.NextAlbumBatchSeed(ctx); err != nil {
		return false, err
	} else if ok {
		return true, w.processAlbumBatch(ctx, artist)
	}

	if album, ok, err := w.store.NextTrackBatchSeed(ctx); err != nil {
		return false, err
	} else if ok {
		return true, w.processTrackBatch(ctx, album)
	}

	if album, ok, err := w.store.NextFallbackAlbum(ctx); err != nil {
		return false, err
	} else if ok {
		return true, w.processFallbackAlbum(ctx, album)
	}

	if track, ok, err := w.store.NextFallbackTrack(ctx); err != nil {
		return false, err
	} else if ok {
		return true, w.processFallbackTrack(ctx, track)
	}

	if stale, ok, err := w.store.NextStaleRetry(ctx, time.Now()); err != nil {
		return false, err
	} else if ok {
		return true, w.processStaleRetry(ctx, stale)
	}

	return false, nil
}
