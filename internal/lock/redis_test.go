package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/venue-reservation/internal/booking"
)

func newLocker(t *testing.T, wait time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisLocker(rdb, "test", 5*time.Second, wait), mr
}

func TestRedisLockerExclusive(t *testing.T) {
	l, mr := newLocker(t, 50*time.Millisecond)
	ctx := context.Background()
	key := booking.SlotLockKey("2025-10-01", "10:00")

	release, err := l.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !mr.Exists("test:" + key) {
		t.Fatalf("lock key not written")
	}
	if ttl := mr.TTL("test:" + key); ttl <= 0 || ttl > 5*time.Second {
		t.Fatalf("ttl: got %v", ttl)
	}
	if _, err := l.Acquire(ctx, key); !errors.Is(err, booking.ErrSlotBusy) {
		t.Fatalf("second acquire: got %v, want ErrSlotBusy", err)
	}

	release()
	release()
	if mr.Exists("test:" + key) {
		t.Fatalf("lock key still present after release")
	}
	again, err := l.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	again()
}

func TestRedisLockerReleaseKeepsForeignLock(t *testing.T) {
	l, mr := newLocker(t, 0)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	// Simulate expiry followed by another holder.
	mr.Set("test:k", "someone-else")
	release()
	if got, _ := mr.Get("test:k"); got != "someone-else" {
		t.Fatalf("foreign lock removed, value now %q", got)
	}
}

func TestRedisLockerExpiry(t *testing.T) {
	l, mr := newLocker(t, 0)
	ctx := context.Background()
	if _, err := l.Acquire(ctx, "k"); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	mr.FastForward(6 * time.Second)
	release, err := l.Acquire(ctx, "k")
	if err != nil {
		t.Fatalf("acquire after expiry: %v", err)
	}
	release()
}

func TestRedisLockerCancelledContext(t *testing.T) {
	l, _ := newLocker(t, time.Minute)
	release, err := l.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want context.DeadlineExceeded", err)
	}
}
