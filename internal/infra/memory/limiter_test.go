package memory

import (
	"context"
	"testing"
	"time"
)

func TestLimiterBlocksAfterBurst(t *testing.T) {
	l := NewLimiter(3, time.Second)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if ok, _ := l.Allow(ctx, "u1"); !ok {
			t.Fatalf("request %d should pass", i)
		}
	}
	if ok, _ := l.Allow(ctx, "u1"); ok {
		t.Fatalf("fourth request should be limited")
	}
	if ok, _ := l.Allow(ctx, "u2"); !ok {
		t.Fatalf("other keys must have their own bucket")
	}

	now = now.Add(time.Second)
	if ok, _ := l.Allow(ctx, "u1"); !ok {
		t.Fatalf("bucket should refill after the window")
	}
}

func TestLimiterSweepDropsIdleVisitors(t *testing.T) {
	l := NewLimiter(1, time.Second)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	_, _ = l.Allow(context.Background(), "u1")
	now = now.Add(2 * time.Minute)
	l.Sweep()
	if len(l.visitors) != 0 {
		t.Fatalf("expected idle visitor swept, got %d", len(l.visitors))
	}
}
