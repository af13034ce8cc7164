package kvstate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return New(rdb)
}

func TestMetaRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.GetMeta(ctx, "discovery_lookback_period"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := s.SetMeta(ctx, "discovery_lookback_period", "45"); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	v, ok, err := s.GetMeta(ctx, "discovery_lookback_period")
	if err != nil || !ok || v != "45" {
		t.Fatalf("GetMeta = %q, %v, %v", v, ok, err)
	}
}

func TestAuthBackoff(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, active, err := s.AuthBackoffUntil(ctx, "metaprovider"); err != nil || active {
		t.Fatalf("expected no backoff, got active=%v err=%v", active, err)
	}
	if err := s.SetAuthBackoff(ctx, "metaprovider", 30*time.Second); err != nil {
		t.Fatalf("SetAuthBackoff: %v", err)
	}
	until, active, err := s.AuthBackoffUntil(ctx, "metaprovider")
	if err != nil || !active {
		t.Fatalf("expected active backoff, got active=%v err=%v", active, err)
	}
	if until.Before(time.Now()) {
		t.Fatalf("backoff already expired: %v", until)
	}
}

func TestErrorCooldown(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if in, err := s.InErrorCooldown(ctx, "task-1"); err != nil || in {
		t.Fatalf("expected not in cooldown, got %v %v", in, err)
	}
	if err := s.SetErrorCooldown(ctx, "task-1", 5*time.Second); err != nil {
		t.Fatalf("SetErrorCooldown: %v", err)
	}
	if in, err := s.InErrorCooldown(ctx, "task-1"); err != nil || !in {
		t.Fatalf("expected in cooldown, got %v %v", in, err)
	}
}
