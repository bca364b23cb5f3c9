package booking

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SlotLockKey is the lock key for a date/time slot.  Preemption may move a
// reservation into any venue at the same date and time, so the whole slot
// is locked rather than a single venue.
func SlotLockKey(date, time string) string {
	return "slot:" + date + "|" + time
}

// LocalLocker serializes slots within one process.  Each key is guarded
// by a one-token channel; entries are dropped once no caller holds or
// waits for them.
type LocalLocker struct {
	wait time.Duration

	mu    sync.Mutex
	slots map[string]*localSlot
}

type localSlot struct {
	token chan struct{}
	refs  int
}

// NewLocalLocker returns a locker that waits at most wait for a slot.
// A non-positive wait means try once and fail immediately.
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{wait: wait, slots: make(map[string]*localSlot)}
}

// Acquire implements Locker.
func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &localSlot{token: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	if err := l.take(ctx, s); err != nil {
		l.unref(key, s)
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.token
			l.unref(key, s)
		})
	}, nil
}

func (l *LocalLocker) take(ctx context.Context, s *localSlot) error {
	select {
	case s.token <- struct{}{}:
		return nil
	default:
	}
	if l.wait <= 0 {
		return ErrSlotBusy
	}
	timer := time.NewTimer(l.wait)
	defer timer.Stop()
	select {
	case s.token <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrSlotBusy
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *LocalLocker) unref(key string, s *localSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
