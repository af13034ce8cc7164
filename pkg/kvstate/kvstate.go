// Package kvstate provides the Redis-backed layer used for fast shared
// reads of runtime-tunable configuration (mirrored from the catalog's
// metadata table) and for cross-restart cooldown timestamps such as the
// auth-backoff window described in spec.md §7.
package kvstate

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store wraps a Redis client with the key schema this package owns.
type Store struct {
	rdb *redis.Client
}

// New returns a Store backed by the given Redis client. The caller owns the
// client's lifecycle (created via NewClient or NewClientFromOptions).
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// NewClient dials Redis at addr. Connectivity is not verified until first
// use — callers that want a fail-fast startup should call Ping.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// Ping checks that Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// --- metadata mirror ---

func metaKey(key string) string { return "meta:" + key }

// GetMeta reads a mirrored metadata-table value. ok is false on a cache
// miss (not to be confused with an empty string value).
func (s *Store) GetMeta(ctx context.Context, key string) (value string, ok bool, err error) {
	v, err := s.rdb.Get(ctx, metaKey(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// SetMeta mirrors a metadata-table value for fast shared reads. The
// catalog's metadata table remains the durable source of truth; this is a
// cache with no expiry — callers invalidate it on write-through.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, metaKey(key), value, 0).Err()
}

// --- auth backoff ---

func authBackoffKey(service string) string { return "authbackoff:" + service }

// SetAuthBackoff records that service hit an auth failure and should not be
// retried until the backoff elapses, surviving a process restart mid-wait.
func (s *Store) SetAuthBackoff(ctx context.Context, service string, backoff time.Duration) error {
	until := time.Now().Add(backoff).Unix()
	return s.rdb.Set(ctx, authBackoffKey(service), strconv.FormatInt(until, 10), backoff+time.Second).Err()
}

// AuthBackoffUntil returns the time before which service should not be
// retried, and whether a backoff is currently in effect.
func (s *Store) AuthBackoffUntil(ctx context.Context, service string) (time.Time, bool, error) {
	v, err := s.rdb.Get(ctx, authBackoffKey(service)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	unix, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false, nil
	}
	until := time.Unix(unix, 0)
	return until, time.Now().Before(until), nil
}

// --- per-task error-retry cooldown ---

func errCooldownKey(taskID string) string { return "errcooldown:" + taskID }

// SetErrorCooldown marks taskID as ineligible for another error-retry until
// the cooldown elapses (spec.md §4.5's 5s cooldown between error retries).
func (s *Store) SetErrorCooldown(ctx context.Context, taskID string, cooldown time.Duration) error {
	return s.rdb.Set(ctx, errCooldownKey(taskID), "1", cooldown).Err()
}

// InErrorCooldown reports whether taskID is still within its error-retry
// cooldown window.
func (s *Store) InErrorCooldown(ctx context.Context, taskID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, errCooldownKey(taskID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
