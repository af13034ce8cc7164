package postprocess

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/nezreka/fulfillment/pkg/fulfillment"
)

// Process relocates a completed download into the library, tags it, and
// records the final path in the catalog. It implements
// fulfillment.PostProcessor.
func (p *Processor) Process(ctx context.Context, filePath string, ctxInfo fulfillment.MatchedContext) error {
	if err := p.waitForSettle(filePath); err != nil {
		return fmt.Errorf("waiting for %q to settle: %w", filePath, err)
	}

	key := libraryKey(ctxInfo, filepath.Ext(filePath))
	dest := filepath.Join(p.cfg.LibraryRoot, key)
	srcDir := filepath.Dir(filePath)

	exists, err := p.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("checking destination %q: %w", dest, err)
	}
	if exists {
		slog.Warn("postprocess: destination already exists, discarding duplicate download",
			"path", dest, "external_id", ctxInfo.ExternalID)
		if err := removeFile(filePath); err != nil {
			return fmt.Errorf("discarding duplicate %q: %w", filePath, err)
		}
		cleanupEmptyDir(srcDir)
		return p.recordPath(ctx, ctxInfo, dest)
	}

	if err := moveFile(filePath, dest); err != nil {
		return fmt.Errorf("moving %q to %q: %w", filePath, dest, err)
	}
	cleanupEmptyDir(srcDir)

	writeTags(dest, ctxInfo)

	return p.recordPath(ctx, ctxInfo, dest)
}

func (p *Processor) recordPath(ctx context.Context, ctxInfo fulfillment.MatchedContext, dest string) error {
	if ctxInfo.ExternalID == "" {
		return nil
	}
	track, found, err := p.catalog.GetTrackByExternalID(ctx, ctxInfo.ExternalID)
	if err != nil {
		return fmt.Errorf("looking up track %q: %w", ctxInfo.ExternalID, err)
	}
	if !found {
		slog.Warn("postprocess: no catalog track for external id", "external_id", ctxInfo.ExternalID)
		return nil
	}
	return p.catalog.SetTrackFilePath(ctx, track.ID, dest)
}
