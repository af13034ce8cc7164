package fulfillment

import (
	"context"
	"log/slog"
	"time"

	"github.com/nezreka/fulfillment/pkg/p2pclient"
)

// monitorLoop is the single background loop, shared across all batches,
// that polls the transfer cache every ~1s. Ticks are serialized: the
// loop body never overlaps itself, satisfying "no two monitor ticks run
// concurrently."
func (e *Engine) monitorLoop(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.MonitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

func (e *Engine) tick(ctx context.Context) {
	e.topMu.Lock()
	tasks := make([]*Task, 0, len(e.tasks))
	for _, t := range e.tasks {
		tasks = append(tasks, t)
	}
	e.topMu.Unlock()

	for _, task := range tasks {
		batch := e.batchFor(task.BatchID)
		if batch == nil {
			continue
		}
		batch.Lock()
		cancelled := batch.Cancelled
		status := task.Status
		batch.Unlock()
		if cancelled || status.IsTerminal() || status == StatusSearching || status == StatusStarting {
			continue
		}
		e.checkTask(ctx, batch, task)
	}
}

// checkTask implements the monitor's per-task decision tree against the
// live transfer snapshot.
func (e *Engine) checkTask(ctx context.Context, batch *Batch, task *Task) {
	batch.Lock()
	cand := task.CurrentCand
	batch.Unlock()
	if cand == nil {
		return
	}

	live, ok := e.transfers.Lookup(ctx, cand.Username, cand.Filename)
	now := time.Now()

	batch.Lock()
	stateAge := now.Sub(task.StatusChanged)
	batch.Unlock()

	if !ok {
		if stateAge > e.cfg.StallTimeoutDefault {
			e.retryTask(ctx, batch, task)
		}
		return
	}

	if p2pclient.IsErrored(live.State) {
		e.errorRetryTask(ctx, batch, task)
		return
	}

	if p2pclient.IsSucceeded(live.State) && live.PercentComplete >= 100 {
		e.completeTask(ctx, batch, task)
		return
	}

	threshold := e.cfg.StallTimeoutDefault
	if task.IsAlbumDL {
		threshold = e.cfg.StallTimeoutAlbum
	}

	if p2pclient.IsQueued(live.State) {
		batch.Lock()
		start := task.QueuedStart
		batch.Unlock()
		if start != nil && now.Sub(*start) > threshold {
			e.timeoutRetryTask(ctx, batch, task)
		}
		return
	}

	if p2pclient.IsInProgress(live.State) {
		if live.PercentComplete < 1 {
			batch.Lock()
			start := task.DownloadStart
			if start == nil {
				task.DownloadStart = &now
			}
			dlStart := task.DownloadStart
			batch.Unlock()
			if dlStart != nil && now.Sub(*dlStart) > threshold {
				e.timeoutRetryTask(ctx, batch, task)
			}
			return
		}
		// Progress is being made: clear timers and reset the stuck-retry counter.
		batch.Lock()
		task.QueuedStart = nil
		task.DownloadStart = nil
		task.TimeoutRetries = 0
		if task.Status != StatusDownloading {
			task.Status = StatusDownloading
			task.StatusChanged = now
		}
		batch.Unlock()
		e.publish(task, "")
	}
}

func (e *Engine) errorRetryTask(ctx context.Context, batch *Batch, task *Task) {
	if e.kv != nil {
		inCooldown, err := e.kv.InErrorCooldown(ctx, task.ID)
		if err == nil && inCooldown {
			return
		}
	}

	batch.Lock()
	task.ErrorRetries++
	retries := task.ErrorRetries
	batch.Unlock()

	if retries > e.cfg.MaxErrorRetries {
		e.failTask(ctx, batch, task, "max error retries exceeded", true)
		return
	}
	if e.kv != nil {
		if err := e.kv.SetErrorCooldown(ctx, task.ID, e.cfg.ErrorCooldown); err != nil {
			slog.Warn("fulfillment: set error cooldown failed", "task", task.ID, "err", err)
		}
	}
	e.retryTask(ctx, batch, task)
}

func (e *Engine) timeoutRetryTask(ctx context.Context, batch *Batch, task *Task) {
	batch.Lock()
	lastRetry := task.LastRetryAt
	batch.Unlock()
	if lastRetry != nil && time.Since(*lastRetry) < e.cfg.MinRetrySpacing {
		return
	}

	batch.Lock()
	task.TimeoutRetries++
	retries := task.TimeoutRetries
	batch.Unlock()

	if retries > e.cfg.MaxTimeoutRetries {
		e.failTask(ctx, batch, task, "stalled after max timeout retries", true)
		return
	}
	e.retryTask(ctx, batch, task)
}
