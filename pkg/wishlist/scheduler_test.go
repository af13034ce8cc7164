package wishlist

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nezreka/fulfillment/pkg/catalog"
	"github.com/nezreka/fulfillment/pkg/events"
	"github.com/nezreka/fulfillment/pkg/fulfillment"
)

type fakeStore struct {
	mu       sync.Mutex
	due      []catalog.WishlistEntry
	removed  []string
	bumped   []string
}

func (f *fakeStore) ListWishlistDue(ctx context.Context, limit int) ([]catalog.WishlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	due := f.due
	f.due = nil
	if limit < len(due) {
		due = due[:limit]
	}
	return due, nil
}

func (f *fakeStore) RemoveFromWishlist(ctx context.Context, externalTrackID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, externalTrackID)
	return nil
}

func (f *fakeStore) BumpWishlistRetry(ctx context.Context, externalTrackID, failureReason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bumped = append(f.bumped, externalTrackID)
	return nil
}

type fakeEngine struct {
	bus *events.Bus
}

func (f *fakeEngine) SubmitBatch(ctx context.Context, reqs []fulfillment.SubmitRequest, maxConcurrent int) (*fulfillment.Batch, error) {
	batch := &fulfillment.Batch{ID: "batch-1"}
	for i := range reqs {
		taskID := "task-" + string(rune('a'+i))
		batch.Queue = append(batch.Queue, taskID)
	}
	return batch, nil
}

func TestRunOnceRemovesSuccessfulEntries(t *testing.T) {
	bus := events.New()
	store := &fakeStore{due: []catalog.WishlistEntry{
		{ExternalTrackID: "track-1"},
		{ExternalTrackID: "track-2"},
	}}
	engine := &fakeEngine{bus: bus}
	s := New(store, engine, bus, Config{BatchSize: 10, MaxConcurrent: 2})

	done := make(chan error, 1)
	go func() { done <- s.RunOnce(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	bus.Publish(events.TaskEvent{TaskID: "task-a", NewStatus: "done"})
	bus.Publish(events.TaskEvent{TaskID: "task-b", NewStatus: "failed", Error: "no sources"})

	if err := <-done; err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.removed) != 1 || store.removed[0] != "track-1" {
		t.Fatalf("expected track-1 removed, got %v", store.removed)
	}
	if len(store.bumped) != 1 || store.bumped[0] != "track-2" {
		t.Fatalf("expected track-2 bumped, got %v", store.bumped)
	}
}

func TestRunOnceReturnsImmediatelyWhenNothingDue(t *testing.T) {
	bus := events.New()
	store := &fakeStore{}
	engine := &fakeEngine{bus: bus}
	s := New(store, engine, bus, DefaultConfig())

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(store.removed) != 0 || len(store.bumped) != 0 {
		t.Fatal("expected no reconciliation when the wishlist is empty")
	}
}

func TestIsTerminalIgnoresInProgressStatuses(t *testing.T) {
	if isTerminal("searching") {
		t.Fatal("searching should not be terminal")
	}
	if !isTerminal("done") {
		t.Fatal("done should be terminal")
	}
}
