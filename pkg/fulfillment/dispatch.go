package fulfillment

import (
	"context"
	"log/slog"
	"time"
)

// dispatch runs the slot-dispatcher invariant for batch: while
// active_count < max_concurrent and queue_index < len(queue), advance
// both atomically under the batch lock and spawn a worker for each
// newly-claimed task. The lock is held only for the bookkeeping; the
// actual search/download calls that can suspend run after it's released.
func (e *Engine) dispatch(ctx context.Context, batch *Batch) {
	batch.Lock()
	if batch.Cancelled {
		batch.Unlock()
		return
	}
	var claimed []string
	for batch.ActiveCount < batch.MaxConcurrent && batch.QueueIndex < len(batch.Queue) {
		taskID := batch.Queue[batch.QueueIndex]
		batch.QueueIndex++
		batch.ActiveCount++
		claimed = append(claimed, taskID)
	}
	complete := batch.IsComplete()
	batch.Unlock()

	for _, taskID := range claimed {
		e.wg.Add(1)
		go func(id string) {
			defer e.wg.Done()
			e.runTask(ctx, batch, id)
		}(taskID)
	}

	if complete {
		slog.Info("fulfillment: batch complete", "batch", batch.ID)
	}
}

// runTask drives one task from searching through starting/queued, then
// returns — the monitor loop takes over progress tracking from there.
func (e *Engine) runTask(ctx context.Context, batch *Batch, taskID string) {
	e.topMu.Lock()
	task := e.tasks[taskID]
	e.topMu.Unlock()
	if task == nil {
		return
	}
	e.attemptCandidate(ctx, batch, task)
}

// attemptCandidate searches for and selects the best remaining candidate,
// records it as used, and issues the download call. On no candidates
// remaining (or a failed search) it fails the task and routes it to the
// wishlist, on the first attempt as well as on a retry.
func (e *Engine) attemptCandidate(ctx context.Context, batch *Batch, task *Task) {
	cand, err := e.selectCandidate(ctx, task)
	if err != nil {
		slog.Warn("fulfillment: search failed", "task", task.ID, "err", err)
		e.failTask(ctx, batch, task, "search failed: "+err.Error(), true)
		return
	}
	if cand == nil {
		e.failTask(ctx, batch, task, "no remaining sources", true)
		return
	}

	batch.Lock()
	task.CurrentCand = cand
	task.UsedSources[cand.Key()] = struct{}{}
	task.Status = StatusStarting
	task.StatusChanged = time.Now()
	batch.Unlock()
	e.publish(task, "")

	e.setMatchedContext(task, cand)

	downloadID, err := e.p2p.Download(ctx, cand.Username, cand.Filename, cand.Size)
	if err != nil {
		slog.Warn("fulfillment: download() failed, will retry with next candidate", "task", task.ID, "err", err)
		e.retryTask(ctx, batch, task)
		return
	}

	now := time.Now()
	batch.Lock()
	if downloadID != nil {
		task.DownloadID = *downloadID
	}
	task.Status = StatusQueued
	task.QueuedStart = &now
	task.StatusChanged = now
	batch.Unlock()
	e.publish(task, "")
}

// setMatchedContext records the corrected metadata for this candidate
// before download() returns, per the concurrency model's rule that
// matched-context inserts happen at or immediately after selection and
// are only ever read by the monitor/post-processor afterward.
func (e *Engine) setMatchedContext(task *Task, cand *Candidate) {
	e.matchedMu.Lock()
	defer e.matchedMu.Unlock()
	d := task.Descriptor
	var artist string
	if len(d.Artists) > 0 {
		artist = d.Artists[0]
	}
	task.MatchedContext = &MatchedContext{
		ArtistName:  artist,
		AlbumName:   d.Album.Name,
		TrackTitle:  d.Name,
		ExternalID:  d.ID,
	}
}
