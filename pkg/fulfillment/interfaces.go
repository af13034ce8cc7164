package fulfillment

import (
	"context"

	"github.com/nezreka/fulfillment/pkg/catalog"
	"github.com/nezreka/fulfillment/pkg/events"
	"github.com/nezreka/fulfillment/pkg/p2pclient"
)

// P2PClient is the subset of pkg/p2pclient.Client the engine depends on,
// narrowed to an interface so tests can substitute a stub daemon.
type P2PClient interface {
	Search(ctx context.Context, query string) ([]p2pclient.TrackResult, []p2pclient.AlbumResult, error)
	Download(ctx context.Context, username, filename string, size int64) (*string, error)
	CancelDownload(ctx context.Context, username, id string, remove bool) error
	ClearAllCompletedDownloads(ctx context.Context) error
}

// TransferCache is the subset of pkg/transfercache.Cache the monitor
// loop polls.
type TransferCache interface {
	Lookup(ctx context.Context, username, filename string) (p2pclient.TransferRecord, bool)
}

// Catalog is the subset of pkg/catalog.Store the engine writes to on
// permanent failure (wishlist routing).
type Catalog interface {
	AddToWishlist(ctx context.Context, e catalog.WishlistEntry) error
}

// PostProcessor is the subset of pkg/postprocess.Processor the engine
// hands a completed download off to.
type PostProcessor interface {
	Process(ctx context.Context, filePath string, ctxInfo MatchedContext) error
}

// EventPublisher is the subset of pkg/events.Bus the engine publishes
// task-status transitions to.
type EventPublisher interface {
	Publish(ev events.TaskEvent)
}
