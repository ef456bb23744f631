package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestLimiterFixedWindow(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	l := NewLimiter(newClient(mr), 2, time.Second)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "u1")
		if err != nil || !ok {
			t.Fatalf("request %d should pass, ok=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := l.Allow(ctx, "u1"); ok {
		t.Fatalf("third request in window should be limited")
	}

	now = now.Add(time.Second)
	if ok, _ := l.Allow(ctx, "u1"); !ok {
		t.Fatalf("next window should start fresh")
	}
}
