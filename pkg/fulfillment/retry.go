package fulfillment

import (
	"context"
	"time"
)

// retryTask implements the retry mechanics: the current source joins
// used_sources, status resets to searching, queue/download timers clear,
// status_change_time bumps. The task keeps its existing batch slot — it
// does not go back through dispatch's slot-claiming logic — so the retry
// runs inline as a new goroutine under the wg, same as an initial attempt.
func (e *Engine) retryTask(ctx context.Context, batch *Batch, task *Task) {
	now := time.Now()
	batch.Lock()
	if task.CurrentCand != nil {
		task.UsedSources[task.CurrentCand.Key()] = struct{}{}
	}
	task.Status = StatusSearching
	task.StatusChanged = now
	task.LastRetryAt = &now
	task.QueuedStart = nil
	task.DownloadStart = nil
	task.CurrentCand = nil
	task.DownloadID = ""
	batch.Unlock()
	e.publish(task, "")

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.attemptCandidate(ctx, batch, task)
	}()
}

// failTask marks a task terminally failed. When wishlist is true (every
// caller except explicit cancellation and the "file not found after
// completion" fatal case) it routes the task to the wishlist with the
// original descriptor and reason, per the permanent-failure rule. It then
// frees the task's slot and re-kicks the dispatcher.
func (e *Engine) failTask(ctx context.Context, batch *Batch, task *Task, reason string, wishlist bool) {
	batch.Lock()
	wasActive := task.Status.IsActive()
	task.Status = StatusFailed
	task.StatusChanged = time.Now()
	task.FailureReason = reason
	if wasActive {
		batch.ActiveCount--
	}
	batch.Unlock()
	e.publish(task, reason)

	if wishlist && e.catalog != nil {
		e.routeToWishlist(ctx, task, reason)
	}
	e.dispatch(ctx, batch)
}
