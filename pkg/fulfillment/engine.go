package fulfillment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nezreka/fulfillment/pkg/catalog"
	"github.com/nezreka/fulfillment/pkg/events"
	"github.com/nezreka/fulfillment/pkg/kvstate"
)

// Config tunes the engine's retry ladder and timeouts, defaulting to the
// values named in the component design.
type Config struct {
	MaxConcurrentPerBatch int
	MaxErrorRetries       int
	MaxTimeoutRetries     int
	ErrorCooldown         time.Duration
	StallTimeoutDefault   time.Duration
	StallTimeoutAlbum     time.Duration
	MinRetrySpacing       time.Duration
	MonitorInterval       time.Duration
	HealingInterval       time.Duration
	FilesystemSettle      time.Duration
}

// DefaultConfig matches the component design's named constants.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentPerBatch: 3,
		MaxErrorRetries:       3,
		MaxTimeoutRetries:     3,
		ErrorCooldown:         5 * time.Second,
		StallTimeoutDefault:   90 * time.Second,
		StallTimeoutAlbum:     15 * time.Second,
		MinRetrySpacing:       30 * time.Second,
		MonitorInterval:       1 * time.Second,
		HealingInterval:       30 * time.Second,
		FilesystemSettle:      1 * time.Second,
	}
}

// Engine owns every batch and task in flight. download_tasks,
// download_batches, and batch_locks form one logical map: topMu guards
// structural mutation (adding/removing tasks or batches); each Batch's
// own mu guards field updates within that batch, so slot-dispatch
// decisions for independent batches never contend with each other.
type Engine struct {
	cfg Config

	p2p       P2PClient
	transfers TransferCache
	catalog   Catalog
	kv        *kvstate.Store
	post      PostProcessor
	events    EventPublisher

	topMu   sync.Mutex
	batches map[string]*Batch
	tasks   map[string]*Task

	matchedMu sync.Mutex // guards Task.MatchedContext writes from the selection path

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New constructs an Engine. Call Start to launch its background monitor
// and healing loops.
func New(cfg Config, p2p P2PClient, transfers TransferCache, cat Catalog, kv *kvstate.Store, post PostProcessor, pub EventPublisher) *Engine {
	return &Engine{
		cfg:       cfg,
		p2p:       p2p,
		transfers: transfers,
		catalog:   cat,
		kv:        kv,
		post:      post,
		events:    pub,
		batches:   make(map[string]*Batch),
		tasks:     make(map[string]*Task),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the shared monitor loop and the periodic worker-count
// healing loop. Both observe ctx/stop and exit on their next tick.
func (e *Engine) Start(ctx context.Context) {
	e.wg.Add(2)
	go e.monitorLoop(ctx)
	go e.healingLoop(ctx)
}

// Stop signals background loops to exit on their next tick and waits up
// to a bounded grace period for them to finish.
func (e *Engine) Stop(grace time.Duration) {
	e.stopOnce.Do(func() { close(e.stopCh) })
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		slog.Warn("fulfillment: shutdown grace period elapsed, abandoning in-flight work")
	}
}

// SubmitRequest is one desired track to fulfill.
type SubmitRequest struct {
	Descriptor catalog.TrackDescriptor
	Source     SourceTag
	IsAlbumDL  bool
}

// SubmitBatch creates a batch of tasks for descriptors and kicks the slot
// dispatcher. maxConcurrent falls back to Config.MaxConcurrentPerBatch
// when zero.
func (e *Engine) SubmitBatch(ctx context.Context, reqs []SubmitRequest, maxConcurrent int) (*Batch, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("fulfillment: empty batch submission")
	}
	if maxConcurrent <= 0 {
		maxConcurrent = e.cfg.MaxConcurrentPerBatch
	}

	batch := &Batch{
		ID:            uuid.NewString(),
		MaxConcurrent: maxConcurrent,
		CreatedAt:     time.Now(),
	}

	e.topMu.Lock()
	for _, r := range reqs {
		t := &Task{
			ID:            uuid.NewString(),
			BatchID:       batch.ID,
			Descriptor:    r.Descriptor,
			Source:        r.Source,
			IsAlbumDL:     r.IsAlbumDL,
			Status:        StatusSearching,
			StatusChanged: time.Now(),
			UsedSources:   make(map[string]struct{}),
		}
		e.tasks[t.ID] = t
		batch.Queue = append(batch.Queue, t.ID)
	}
	e.batches[batch.ID] = batch
	e.topMu.Unlock()

	e.dispatch(ctx, batch)
	return batch, nil
}

// CancelBatch sets the cancelled flag; the dispatcher stops issuing new
// tasks and the monitor skips this batch on future ticks. In-flight tasks
// finish their current HTTP call then exit naturally via the monitor.
func (e *Engine) CancelBatch(batch *Batch) {
	batch.Lock()
	batch.Cancelled = true
	batch.Unlock()
}

// CancelTask issues a P2P cancel for a task's current candidate and marks
// it cancelled without retry — terminal, no wishlist entry.
func (e *Engine) CancelTask(ctx context.Context, taskID string) error {
	e.topMu.Lock()
	task, ok := e.tasks[taskID]
	e.topMu.Unlock()
	if !ok {
		return fmt.Errorf("fulfillment: unknown task %s", taskID)
	}
	batch := e.batchFor(task.BatchID)
	if batch == nil {
		return fmt.Errorf("fulfillment: unknown batch %s", task.BatchID)
	}

	batch.Lock()
	cur := task.CurrentCand
	wasActive := task.Status.IsActive()
	task.Status = StatusCancelled
	task.StatusChanged = time.Now()
	if wasActive {
		batch.ActiveCount--
	}
	batch.Unlock()

	if cur != nil && task.DownloadID != "" {
		if err := e.p2p.CancelDownload(ctx, cur.Username, task.DownloadID, true); err != nil {
			slog.Warn("fulfillment: cancel_download failed", "task", taskID, "err", err)
		}
	}
	e.publish(task, "")
	e.dispatch(ctx, batch)
	return nil
}

func (e *Engine) batchFor(batchID string) *Batch {
	e.topMu.Lock()
	defer e.topMu.Unlock()
	return e.batches[batchID]
}

// TaskSnapshot is a point-in-time, lock-free copy of a Task's status
// fields, safe to hand to a reader that doesn't own the batch lock.
type TaskSnapshot struct {
	ID            string
	BatchID       string
	Status        TaskStatus
	StatusChanged time.Time
	ErrorRetries  int
	FailureReason string
	Descriptor    catalog.TrackDescriptor
	Source        SourceTag
}

// BatchSnapshot is a point-in-time copy of a Batch's state plus its
// tasks' snapshots, in submission order.
type BatchSnapshot struct {
	ID            string
	MaxConcurrent int
	ActiveCount   int
	Cancelled     bool
	CreatedAt     time.Time
	Tasks         []TaskSnapshot
}

func snapshotTask(t *Task) TaskSnapshot {
	return TaskSnapshot{
		ID:            t.ID,
		BatchID:       t.BatchID,
		Status:        t.Status,
		StatusChanged: t.StatusChanged,
		ErrorRetries:  t.ErrorRetries,
		FailureReason: t.FailureReason,
		Descriptor:    t.Descriptor,
		Source:        t.Source,
	}
}

// GetTask returns a snapshot of a single task by ID.
func (e *Engine) GetTask(taskID string) (TaskSnapshot, bool) {
	e.topMu.Lock()
	task, ok := e.tasks[taskID]
	e.topMu.Unlock()
	if !ok {
		return TaskSnapshot{}, false
	}
	batch := e.batchFor(task.BatchID)
	if batch == nil {
		return snapshotTask(task), true
	}
	batch.Lock()
	snap := snapshotTask(task)
	batch.Unlock()
	return snap, true
}

// GetBatch returns a snapshot of a batch and every task in it, in
// submission order.
func (e *Engine) GetBatch(batchID string) (BatchSnapshot, bool) {
	batch := e.batchFor(batchID)
	if batch == nil {
		return BatchSnapshot{}, false
	}

	e.topMu.Lock()
	taskIDs := append([]string(nil), batch.Queue...)
	tasks := make([]*Task, 0, len(taskIDs))
	for _, id := range taskIDs {
		if t, ok := e.tasks[id]; ok {
			tasks = append(tasks, t)
		}
	}
	e.topMu.Unlock()

	batch.Lock()
	snap := BatchSnapshot{
		ID:            batch.ID,
		MaxConcurrent: batch.MaxConcurrent,
		ActiveCount:   batch.ActiveCount,
		Cancelled:     batch.Cancelled,
		CreatedAt:     batch.CreatedAt,
	}
	for _, t := range tasks {
		snap.Tasks = append(snap.Tasks, snapshotTask(t))
	}
	batch.Unlock()

	return snap, true
}

// CancelBatchByID looks up a batch by ID and cancels it, for callers
// (like an HTTP handler) that only have the ID.
func (e *Engine) CancelBatchByID(batchID string) bool {
	batch := e.batchFor(batchID)
	if batch == nil {
		return false
	}
	e.CancelBatch(batch)
	return true
}

func (e *Engine) publish(t *Task, errMsg string) {
	if e.events == nil {
		return
	}
	e.events.Publish(events.TaskEvent{
		TaskID:    t.ID,
		BatchID:   t.BatchID,
		NewStatus: string(t.Status),
		Error:     errMsg,
	})
}
