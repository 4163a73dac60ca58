package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestWaitWithinBurst(t *testing.T) {
	l := New(5)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("burst of 5 took %v, want near zero", elapsed)
	}
}

func TestWaitCancelled(t *testing.T) {
	l := New(0.1)
	ctx, cancel := context.WithCancel(context.Background())

	// Drain the single burst token
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("expected error after cancel")
	}
}

func TestNewNonPositiveRate(t *testing.T) {
	l := New(0)
	if got := l.limiter.Limit(); got != 1 {
		t.Errorf("limit = %v, want 1", got)
	}
}
