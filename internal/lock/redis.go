// Package lock provides a Redis-backed slot lock so that several server
// instances sharing one database serialize resolutions of the same slot.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/venue-reservation/internal/booking"
)

// releaseScript deletes the lock only if it still carries our token, so a
// holder whose TTL expired cannot remove a lock taken by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements booking.Locker with SET NX PX.  The lock expires
// after TTL even if the holder crashes.
type RedisLocker struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
}

// NewRedisLocker returns a locker that waits at most wait for a key and
// holds it for at most ttl.
func NewRedisLocker(rdb *redis.Client, prefix string, ttl, wait time.Duration) *RedisLocker {
	if prefix == "" {
		prefix = "lock"
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{rdb: rdb, prefix: prefix, ttl: ttl, wait: wait, poll: 25 * time.Millisecond}
}

// Acquire implements booking.Locker.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	full := l.prefix + ":" + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.rdb.SetNX(ctx, full, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", full, err)
		}
		if ok {
			return l.releaser(full, token), nil
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("acquire %s: %w", full, booking.ErrSlotBusy)
		}
		t := time.NewTimer(l.poll)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, fmt.Errorf("acquire %s: %w", full, ctx.Err())
		case <-t.C:
		}
	}
}

func (l *RedisLocker) releaser(key, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, token) })
	}
}

func (l *RedisLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Printf("[LOCK] release %s failed: %v", key, err)
	}
}
