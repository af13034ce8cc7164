// Package postprocess moves a completed download into the library's
// artist/album/track layout, writes corrected ID3 tags, and records the
// final path back into the catalog.
package postprocess

import (
	"context"
	"time"

	"github.com/nezreka/fulfillment/pkg/catalog"
	"github.com/nezreka/fulfillment/pkg/fulfillment"
	"github.com/nezreka/fulfillment/pkg/objstore"
)

// Catalog is the subset of pkg/catalog.Store the post-processor writes to.
type Catalog interface {
	GetTrackByExternalID(ctx context.Context, externalID string) (catalog.Track, bool, error)
	SetTrackFilePath(ctx context.Context, trackID int64, path string) error
}

// Config tunes the processor.
type Config struct {
	// LibraryRoot is the directory new files are organized under, as
	// LibraryRoot/Artist/Album/NN - Title.ext.
	LibraryRoot string
	// SettleQuiet is how long the downloaded file must go unmodified
	// before the processor treats it as fully written. SettleTimeout
	// bounds the total wait.
	SettleQuiet   time.Duration
	SettleTimeout time.Duration
}

// DefaultConfig matches pkg/config.LibraryConfig's implied defaults.
func DefaultConfig(libraryRoot string) Config {
	return Config{
		LibraryRoot:   libraryRoot,
		SettleQuiet:   500 * time.Millisecond,
		SettleTimeout: 10 * time.Second,
	}
}

// Processor implements fulfillment.PostProcessor.
type Processor struct {
	cfg     Config
	catalog Catalog
	// store roots the library layout for existence checks. The actual
	// data move still goes through moveFile, which can take the
	// same-filesystem rename fast path objstore.Put doesn't offer.
	store *objstore.LocalFS
}

// New constructs a Processor, creating LibraryRoot if needed.
func New(cfg Config, cat Catalog) (*Processor, error) {
	store, err := objstore.NewLocalFS(cfg.LibraryRoot)
	if err != nil {
		return nil, err
	}
	return &Processor{cfg: cfg, catalog: cat, store: store}, nil
}

var _ fulfillment.PostProcessor = (*Processor)(nil)
