// Package wishlist drives the fixed-interval auto-retry scheduler: it
// periodically pulls due wishlist entries, resubmits them to the
// fulfillment engine, and reconciles each outcome back into the wishlist
// table by watching the engine's event stream.
package wishlist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nezreka/fulfillment/pkg/catalog"
	"github.com/nezreka/fulfillment/pkg/events"
	"github.com/nezreka/fulfillment/pkg/fulfillment"
)

// Store is the subset of pkg/catalog.Store the scheduler reads and writes.
type Store interface {
	ListWishlistDue(ctx context.Context, limit int) ([]catalog.WishlistEntry, error)
	RemoveFromWishlist(ctx context.Context, externalTrackID string) error
	BumpWishlistRetry(ctx context.Context, externalTrackID, failureReason string) error
}

// Engine is the subset of pkg/fulfillment.Engine the scheduler submits to.
type Engine interface {
	SubmitBatch(ctx context.Context, reqs []fulfillment.SubmitRequest, maxConcurrent int) (*fulfillment.Batch, error)
}

// EventSource is the subset of pkg/events.Bus the scheduler subscribes to
// in order to learn each resubmitted task's outcome.
type EventSource interface {
	Subscribe(bufferSize int) (<-chan events.TaskEvent, func())
}

// Config tunes the scheduler.
type Config struct {
	Interval      time.Duration
	BatchSize     int
	MaxConcurrent int
}

// DefaultConfig matches pkg/config.WishlistConfig's defaults.
func DefaultConfig() Config {
	return Config{Interval: time.Hour, BatchSize: 10, MaxConcurrent: 3}
}

// Scheduler runs one auto-retry tick at a time; a tick still in flight when
// the next one fires is skipped rather than overlapped.
type Scheduler struct {
	store  Store
	engine Engine
	events EventSource
	cfg    Config

	stopOnce sync.Once
	stopCh   chan struct{}
	running  sync.Mutex
}

// New constructs a Scheduler.
func New(store Store, engine Engine, bus EventSource, cfg Config) *Scheduler {
	return &Scheduler{store: store, engine: engine, events: bus, cfg: cfg, stopCh: make(chan struct{})}
}

// Stop signals Run to exit after its current tick.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Run fires one tick immediately, then every cfg.Interval, until ctx is
// cancelled or Stop is called. A tick already running when the timer fires
// again is skipped — the in-progress guard is TryLock, not a queue.
func (s *Scheduler) Run(ctx context.Context) {
	s.tick(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.running.TryLock() {
		slog.Warn("wishlist: tick skipped, previous run still in progress")
		return
	}
	defer s.running.Unlock()

	if err := s.RunOnce(ctx); err != nil {
		slog.Error("wishlist: auto-retry tick failed", "err", err)
	}
}

// RunOnce pulls one bounded batch of due entries, resubmits them, and
// blocks until every resubmitted task reaches a terminal state, updating
// the wishlist table as each one resolves.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	entries, err := s.store.ListWishlistDue(ctx, s.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	reqs := make([]fulfillment.SubmitRequest, len(entries))
	for i, e := range entries {
		reqs[i] = fulfillment.SubmitRequest{
			Descriptor: e.Descriptor,
			Source:     fulfillment.SourceWishlist,
		}
	}

	ch, unsubscribe := s.events.Subscribe(len(entries) * 2)
	defer unsubscribe()

	batch, err := s.engine.SubmitBatch(ctx, reqs, s.cfg.MaxConcurrent)
	if err != nil {
		return err
	}

	pending := make(map[string]string, len(entries)) // taskID -> externalTrackID
	for i, taskID := range batch.Queue {
		pending[taskID] = entries[i].ExternalTrackID
	}

	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-ch:
			externalID, ok := pending[ev.TaskID]
			if !ok {
				continue
			}
			if !isTerminal(ev.NewStatus) {
				continue
			}
			s.reconcile(ctx, externalID, ev)
			delete(pending, ev.TaskID)
		}
	}
	return nil
}

func (s *Scheduler) reconcile(ctx context.Context, externalID string, ev events.TaskEvent) {
	if ev.NewStatus == string(fulfillment.StatusDone) {
		if err := s.store.RemoveFromWishlist(ctx, externalID); err != nil {
			slog.Error("wishlist: remove_from_wishlist failed", "track", externalID, "err", err)
		}
		return
	}

	reason := ev.Error
	if reason == "" {
		reason = ev.NewStatus
	}
	if err := s.store.BumpWishlistRetry(ctx, externalID, reason); err != nil {
		slog.Error("wishlist: bump_wishlist_retry failed", "track", externalID, "err", err)
	}
}

func isTerminal(status string) bool {
	return fulfillment.TaskStatus(status).IsTerminal()
}
