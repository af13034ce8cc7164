package fulfillment

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nezreka/fulfillment/pkg/catalog"
	"github.com/nezreka/fulfillment/pkg/match"
)

// DownloadRoot is the configured P2P download directory the completion
// walker searches. Set by the caller that constructs the Engine (see
// cmd/fulfillmentd), defaulting to the current directory so tests that
// never touch completion don't need to configure it.
var DownloadRoot = "."

// completeTask implements completion detection & hand-off: settle, locate
// the file, hand it to the post-processor, signal the daemon, mark done,
// and free the task's slot.
func (e *Engine) completeTask(ctx context.Context, batch *Batch, task *Task) {
	batch.Lock()
	cand := task.CurrentCand
	mctx := task.MatchedContext
	batch.Unlock()
	if cand == nil {
		return
	}

	time.Sleep(e.cfg.FilesystemSettle)

	path, err := locateDownloadedFile(DownloadRoot, cand.Filename)
	if err != nil || path == "" {
		slog.Error("fulfillment: downloaded file not found after completion", "task", task.ID, "filename", cand.Filename)
		e.failTask(ctx, batch, task, "download completed but file not found", false)
		return
	}

	if e.post != nil && mctx != nil {
		if err := e.post.Process(ctx, path, *mctx); err != nil {
			slog.Error("fulfillment: post-processing failed", "task", task.ID, "path", path, "err", err)
		}
	}

	if task.DownloadID != "" {
		if err := e.p2p.CancelDownload(ctx, cand.Username, task.DownloadID, true); err != nil {
			slog.Warn("fulfillment: failed to signal daemon to remove completed transfer", "task", task.ID, "err", err)
		}
	}

	batch.Lock()
	task.Status = StatusDone
	task.StatusChanged = time.Now()
	batch.ActiveCount--
	batch.Unlock()
	e.publish(task, "")
	e.dispatch(ctx, batch)
}

// locateDownloadedFile walks root looking for an exact basename match
// first, then falls back to fuzzy matching the base filename (without
// extension) against every candidate file under root using match's
// normalization, accepting anything ≥ 0.85 similarity.
func locateDownloadedFile(root, wantFilename string) (string, error) {
	want := filepath.Base(wantFilename)
	wantStem := strings.TrimSuffix(want, filepath.Ext(want))

	var exact, bestFuzzy string
	bestScore := 0.0

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if base == want {
			exact = path
			return filepath.SkipAll
		}
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		score := match.Similarity(match.Normalize(wantStem), match.Normalize(stem))
		if score > bestScore {
			bestScore = score
			bestFuzzy = path
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if exact != "" {
		return exact, nil
	}
	if bestScore >= 0.85 {
		return bestFuzzy, nil
	}
	return "", nil
}

// routeToWishlist adds a permanently-failed task's descriptor to the
// wishlist with the originating source tag and failure reason.
func (e *Engine) routeToWishlist(ctx context.Context, task *Task, reason string) {
	entry := catalog.WishlistEntry{
		ExternalTrackID: task.Descriptor.ID,
		Descriptor:      task.Descriptor,
		FailureReason:   reason,
		SourceType:      catalog.WishlistSourceType(task.Source),
		SourceInfo:      map[string]any{"batch_id": task.BatchID},
	}
	if err := e.catalog.AddToWishlist(ctx, entry); err != nil {
		slog.Error("fulfillment: add_to_wishlist failed", "task", task.ID, "err", err)
	}
}
