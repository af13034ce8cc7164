// Package fulfillment is the download fulfillment engine: it turns a
// batch of desired tracks into P2P search/download attempts, retries
// stalled or errored transfers against the next candidate, and hands
// completed downloads off to post-processing.
package fulfillment

import (
	"sync"
	"time"

	"github.com/nezreka/fulfillment/pkg/catalog"
)

// TaskStatus is a task's position in the state machine described by the
// engine's lifecycle diagram.
type TaskStatus string

const (
	StatusSearching   TaskStatus = "searching"
	StatusStarting    TaskStatus = "starting"
	StatusQueued      TaskStatus = "queued"
	StatusDownloading TaskStatus = "downloading"
	StatusPostProc    TaskStatus = "post-processing"
	StatusDone        TaskStatus = "done"
	StatusFailed      TaskStatus = "failed"
	StatusCancelled   TaskStatus = "cancelled"
)

// IsTerminal reports whether status is one of {done, failed, cancelled}.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed || s == StatusCancelled
}

// IsActive reports whether status counts toward a batch's active_count.
func (s TaskStatus) IsActive() bool {
	return s == StatusSearching || s == StatusStarting || s == StatusQueued || s == StatusDownloading
}

// SourceTag records who originated a fulfillment request, carried through
// to a permanent failure's wishlist entry.
type SourceTag string

const (
	SourcePlaylist  SourceTag = "playlist"
	SourceAlbum     SourceTag = "album"
	SourceWatchlist SourceTag = "watchlist"
	SourceManual    SourceTag = "manual"
	SourceWishlist  SourceTag = "wishlist"
)

// Candidate is one ranked search result, either a bare track or one
// track of an album directory (every track of each album result is
// ranked as its own candidate).
type Candidate struct {
	Username     string
	Filename     string
	Size         int64
	Bitrate      *int
	QualityScore float64
	Score        float64
}

// Key is the used_sources identity for a candidate: username::basename.
func (c Candidate) Key() string {
	return transferKey(c.Username, c.Filename)
}

// Task represents one desired track moving through the fulfillment state
// machine. Field mutations are only safe under the owning Batch's lock
// (see Batch.mu) except where noted.
type Task struct {
	ID             string
	BatchID        string
	Descriptor     catalog.TrackDescriptor
	Source         SourceTag
	IsAlbumDL      bool // true narrows the monitor's stall timeout to 15s
	Status         TaskStatus
	StatusChanged  time.Time
	UsedSources    map[string]struct{}
	CurrentCand    *Candidate
	DownloadID     string
	QueuedStart    *time.Time
	DownloadStart  *time.Time
	ErrorRetries   int
	TimeoutRetries int
	LastRetryAt    *time.Time
	FailureReason  string
	MatchedContext *MatchedContext
}

// MatchedContext is the corrected metadata the post-processor needs,
// captured at candidate-selection time (before download() returns or
// immediately after, per the concurrency model's matched-context rule).
type MatchedContext struct {
	ArtistName  string
	AlbumName   string
	TrackTitle  string
	TrackNumber *int
	Year        *int
	ExternalID  string
}

// Batch groups tasks dispatched together with a shared concurrency limit.
type Batch struct {
	ID            string
	Queue         []string // task IDs, in submission order
	QueueIndex    int
	ActiveCount   int
	MaxConcurrent int
	Cancelled     bool
	CreatedAt     time.Time

	mu sync.Mutex
}

// Lock/Unlock expose the batch lock so the engine's top-level map lock and
// the per-batch lock compose the two-tier locking scheme the concurrency
// model requires: a single top-level lock for structural task/batch map
// mutations, and a per-batch lock for field updates within one batch.
func (b *Batch) Lock()   { b.mu.Lock() }
func (b *Batch) Unlock() { b.mu.Unlock() }

// IsComplete reports whether every task has been dispatched and none
// remain active.
func (b *Batch) IsComplete() bool {
	return b.QueueIndex == len(b.Queue) && b.ActiveCount == 0
}

func transferKey(username, filename string) string {
	return username + "::" + basename(filename)
}

func basename(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}
