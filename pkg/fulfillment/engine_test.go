package fulfillment

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nezreka/fulfillment/pkg/catalog"
	"github.com/nezreka/fulfillment/pkg/p2pclient"
)

type fakeP2P struct {
	mu          sync.Mutex
	tracks      []p2pclient.TrackResult
	downloadErr error
	downloads   int
}

func (f *fakeP2P) Search(ctx context.Context, query string) ([]p2pclient.TrackResult, []p2pclient.AlbumResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tracks, nil, nil
}

func (f *fakeP2P) Download(ctx context.Context, username, filename string, size int64) (*string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads++
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	id := "dl-1"
	return &id, nil
}

func (f *fakeP2P) CancelDownload(ctx context.Context, username, id string, remove bool) error { return nil }
func (f *fakeP2P) ClearAllCompletedDownloads(ctx context.Context) error                        { return nil }

type fakeTransfers struct {
	mu  sync.Mutex
	rec map[string]p2pclient.TransferRecord
}

func newFakeTransfers() *fakeTransfers {
	return &fakeTransfers{rec: make(map[string]p2pclient.TransferRecord)}
}

func (f *fakeTransfers) set(username, filename string, rec p2pclient.TransferRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec[username+"::"+filename] = rec
}

func (f *fakeTransfers) Lookup(ctx context.Context, username, filename string) (p2pclient.TransferRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rec[username+"::"+filename]
	return r, ok
}

type fakeCatalog struct {
	mu         sync.Mutex
	wishlisted []catalog.WishlistEntry
}

func (f *fakeCatalog) AddToWishlist(ctx context.Context, e catalog.WishlistEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wishlisted = append(f.wishlisted, e)
	return nil
}

type fakePost struct {
	mu        sync.Mutex
	processed []string
}

func (f *fakePost) Process(ctx context.Context, filePath string, mctx MatchedContext) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, filePath)
	return nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestSubmitBatchWithNoCandidatesWishlistsEveryTask(t *testing.T) {
	p2p := &fakeP2P{} // no tracks: every task fails immediately with "no remaining sources"
	transfers := newFakeTransfers()
	cat := &fakeCatalog{}
	cfg := DefaultConfig()
	cfg.MonitorInterval = 10 * time.Millisecond
	cfg.HealingInterval = 50 * time.Millisecond
	e := New(cfg, p2p, transfers, cat, nil, nil, nil)

	reqs := make([]SubmitRequest, 5)
	for i := range reqs {
		reqs[i] = SubmitRequest{Descriptor: catalog.TrackDescriptor{ID: "t", Name: "Song", Artists: []string{"Artist"}}, Source: SourceManual}
	}
	batch, err := e.SubmitBatch(context.Background(), reqs, 2)
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		batch.Lock()
		defer batch.Unlock()
		return batch.IsComplete()
	})

	cat.mu.Lock()
	defer cat.mu.Unlock()
	if len(cat.wishlisted) != 5 {
		t.Fatalf("wishlisted = %d, want 5 (every task with no candidates fails to wishlist)", len(cat.wishlisted))
	}
}

func TestCompletedTaskInvokesPostProcessorAndMarksDone(t *testing.T) {
	dir := t.TempDir()
	DownloadRoot = dir
	defer func() { DownloadRoot = "." }()

	p2p := &fakeP2P{tracks: []p2pclient.TrackResult{
		{Username: "alice", Filename: "song.flac", Size: 100},
	}}
	transfers := newFakeTransfers()
	cat := &fakeCatalog{}
	post := &fakePost{}
	cfg := DefaultConfig()
	cfg.MonitorInterval = 10 * time.Millisecond
	cfg.FilesystemSettle = 0
	e := New(cfg, p2p, transfers, cat, nil, post, nil)
	e.Start(context.Background())
	defer e.Stop(time.Second)

	if err := os.WriteFile(dir+"/song.flac", []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	reqs := []SubmitRequest{{Descriptor: catalog.TrackDescriptor{ID: "t1", Name: "Song", Artists: []string{"Artist"}}, Source: SourceManual}}
	batch, err := e.SubmitBatch(context.Background(), reqs, 1)
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}

	waitFor(t, time.Second, func() bool {
		return p2p.downloads > 0
	})
	transfers.set("alice", "song.flac", p2pclient.TransferRecord{Username: "alice", Filename: "song.flac", State: "Completed, Succeeded", PercentComplete: 100})

	waitFor(t, 2*time.Second, func() bool {
		batch.Lock()
		defer batch.Unlock()
		return batch.IsComplete()
	})

	post.mu.Lock()
	defer post.mu.Unlock()
	if len(post.processed) != 1 {
		t.Fatalf("processed = %d, want 1", len(post.processed))
	}
}
