package fulfillment

import (
	"context"
	"log/slog"
	"time"
)

// healingLoop periodically reconciles each batch's active_count against
// its actual in-flight task count, guarding against dropped callbacks
// that would otherwise leave a batch permanently under-dispatched.
func (e *Engine) healingLoop(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.HealingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.healAll(ctx)
		}
	}
}

func (e *Engine) healAll(ctx context.Context) {
	e.topMu.Lock()
	batches := make([]*Batch, 0, len(e.batches))
	for _, b := range e.batches {
		batches = append(batches, b)
	}
	e.topMu.Unlock()

	for _, b := range batches {
		e.heal(ctx, b)
	}
}

// heal recomputes active_count from the tasks actually in
// {searching, starting, queued, downloading} and corrects any drift,
// then re-kicks the dispatcher if a discrepancy was found.
func (e *Engine) heal(ctx context.Context, batch *Batch) {
	batch.Lock()
	if batch.Cancelled {
		batch.Unlock()
		return
	}
	taskIDs := append([]string(nil), batch.Queue...)
	recorded := batch.ActiveCount
	batch.Unlock()

	e.topMu.Lock()
	actual := 0
	for _, id := range taskIDs {
		if t, ok := e.tasks[id]; ok && t.Status.IsActive() {
			actual++
		}
	}
	e.topMu.Unlock()

	if actual == recorded {
		return
	}

	slog.Warn("fulfillment: healing active_count drift", "batch", batch.ID, "recorded", recorded, "actual", actual)
	batch.Lock()
	batch.ActiveCount = actual
	batch.Unlock()
	e.dispatch(ctx, batch)
}
