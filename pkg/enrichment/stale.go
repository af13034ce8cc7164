package enrichment

import (
	"context"
	"fmt"

	"github.com/nezreka/fulfillment/pkg/catalog"
)

// processStaleRetry implements priority-6: re-run the appropriate
// single-entity path for whichever table the stale scan returned. Stale
// artists always re-enter via processArtist (the only path for that
// table); stale albums/tracks re-enter via the fallback paths regardless
// of whether their parent is now matched, since this is a single retry,
// not a batch seed.
func (w *Worker) processStaleRetry(ctx context.Context, se catalog.StaleEntity) error {
	switch se.Table {
	case "artists":
		a, err := w.store.GetArtist(ctx, se.ID)
		if err != nil {
			return err
		}
		return w.processArtist(ctx, a)
	case "albums":
		al, err := w.store.GetAlbum(ctx, se.ID)
		if err != nil {
			return err
		}
		return w.processFallbackAlbum(ctx, al)
	case "tracks":
		t, err := w.store.GetTrack(ctx, se.ID)
		if err != nil {
			return err
		}
		return w.processFallbackTrack(ctx, t)
	default:
		return fmt.Errorf("enrichment: unknown stale entity table %q", se.Table)
	}
}
