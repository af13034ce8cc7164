// Package transfercache coalesces repeated GetAllTransfers polls behind a
// short TTL so multiple fulfillment tasks checking the same tick don't
// each round-trip the daemon.
package transfercache

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nezreka/fulfillment/pkg/p2pclient"
)

// DefaultTTL matches the 750ms snapshot window named for the transfer cache.
const DefaultTTL = 750 * time.Millisecond

// Fetcher is the subset of p2pclient.Client the cache needs, kept as an
// interface so tests can substitute a stub.
type Fetcher interface {
	GetAllTransfers(ctx context.Context) ([]p2pclient.TransferRecord, error)
}

// Cache wraps Fetcher.GetAllTransfers with a TTL'd, indexed snapshot.
// Under the TTL every caller reads the same snapshot; at expiry exactly
// one caller refreshes (via singleflight) while the rest wait on it.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	group   singleflight.Group

	mu         sync.RWMutex
	snapshot   map[string]p2pclient.TransferRecord
	lastUpdate time.Time
}

// New creates a Cache with the given TTL (DefaultTTL if zero).
func New(fetcher Fetcher, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{fetcher: fetcher, ttl: ttl}
}

// Key builds the lookup key for a username/filename pair: the filename's
// basename joined with the username, so a transfer can be found regardless
// of which directory the daemon reports it under.
func Key(username, filename string) string {
	return username + "::" + filepath.Base(filename)
}

// Snapshot returns the indexed transfer map, refreshing it if the TTL has
// elapsed. On upstream error it returns an empty map and does not bump
// lastUpdate, so the very next call retries the fetch instead of serving
// a stale error result for a full TTL window.
func (c *Cache) Snapshot(ctx context.Context) map[string]p2pclient.TransferRecord {
	c.mu.RLock()
	fresh := time.Since(c.lastUpdate) < c.ttl
	snap := c.snapshot
	c.mu.RUnlock()
	if fresh {
		return snap
	}

	v, _, _ := c.group.Do("snapshot", func() (any, error) {
		c.mu.RLock()
		stillStale := time.Since(c.lastUpdate) >= c.ttl
		current := c.snapshot
		c.mu.RUnlock()
		if !stillStale {
			return current, nil
		}

		records, err := c.fetcher.GetAllTransfers(ctx)
		if err != nil {
			return map[string]p2pclient.TransferRecord{}, nil
		}
		indexed := make(map[string]p2pclient.TransferRecord, len(records))
		for _, r := range records {
			indexed[Key(r.Username, r.Filename)] = r
		}
		c.mu.Lock()
		c.snapshot = indexed
		c.lastUpdate = time.Now()
		c.mu.Unlock()
		return indexed, nil
	})
	return v.(map[string]p2pclient.TransferRecord)
}

// Lookup returns the transfer record for username/filename, if present in
// the current (possibly just-refreshed) snapshot.
func (c *Cache) Lookup(ctx context.Context, username, filename string) (p2pclient.TransferRecord, bool) {
	rec, ok := c.Snapshot(ctx)[Key(username, filename)]
	return rec, ok
}
