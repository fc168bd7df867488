package limiter

import (
	"context"
	"testing"
	"time"
)

func TestAcquireEnforcesMinInterval(t *testing.T) {
	l := New(600) // 100ms interval
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	start := time.Now()
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Fatalf("second acquire returned too soon: %v", elapsed)
	}
}

func TestAcquireZeroRPMNeverWaits(t *testing.T) {
	l := New(0)
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("acquire: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Fatalf("disabled limiter waited: %v", elapsed)
	}
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	l := New(60) // 1s interval
	ctx := context.Background()
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	cctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Acquire(cctx); err == nil {
		t.Fatalf("expected context deadline error, got nil")
	}
}
