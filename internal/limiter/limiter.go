// Package limiter provides process-global rate limiting for outbound LLM
// calls, restyled from the teacher's Redis-backed Adaptive breaker into a
// single in-process min-interval limiter: a batch run is one process with no
// cross-restart state to persist, so the Redis dependency drops out here
// (it is kept for the circuit breaker instead, see internal/dispatcher).
package limiter

import (
	"context"
	"sync"
	"time"
)

// RPMLimiter enforces a minimum interval between successive Acquire
// completions so a wrapped RPM budget is never exceeded. Acquire sleeps the
// difference between now and lastTS+minInterval, then updates lastTS;
// serialized by a mutex so concurrent goroutines queue in arrival order.
type RPMLimiter struct {
	minInterval time.Duration

	mu     sync.Mutex
	lastTS time.Time
}

// New builds an RPMLimiter for the given requests-per-minute budget. rpm<=0
// disables the wait entirely (Acquire returns immediately).
func New(rpm int) *RPMLimiter {
	var interval time.Duration
	if rpm > 0 {
		interval = time.Minute / time.Duration(rpm)
	}
	return &RPMLimiter{minInterval: interval}
}

// Acquire blocks until it is safe to issue another request under the RPM
// budget, or ctx is canceled.
func (l *RPMLimiter) Acquire(ctx context.Context) error {
	if l.minInterval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := time.Now()
	wait := time.Duration(0)
	if !l.lastTS.IsZero() {
		next := l.lastTS.Add(l.minInterval)
		if now.Before(next) {
			wait = next.Sub(now)
		}
	}
	l.lastTS = now.Add(wait)
	l.mu.Unlock()

	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait is Acquire with errors swallowed, satisfying visual.Limiter and any
// other caller that only needs best-effort pacing ahead of a call it will
// make regardless (the surrounding context.Context still governs timeout).
func (l *RPMLimiter) Wait(ctx context.Context) {
	_ = l.Acquire(ctx)
}
