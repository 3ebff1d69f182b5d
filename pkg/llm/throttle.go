package llm

import (
	"context"
	"sync"
	"time"
)

// DefaultThrottleInterval is the minimum spacing between outbound calls.
const DefaultThrottleInterval = 100 * time.Millisecond

// Throttle enforces a minimum interval between consecutive calls. It is
// shared process-wide across pipeline runs and safe for concurrent use.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func NewThrottle(interval time.Duration) *Throttle {
	if interval <= 0 {
		interval = DefaultThrottleInterval
	}
	return &Throttle{interval: interval}
}

// Wait blocks until the interval since the previous call has elapsed or the
// context is cancelled. The reserved slot is consumed even when a caller
// subsequently fails.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	now := time.Now()
	wait := t.interval - now.Sub(t.last)
	if wait < 0 {
		wait = 0
	}
	t.last = now.Add(wait)
	t.mu.Unlock()

	if wait == 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
