package memory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter is a per-key token bucket limiter kept in process.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	expiry   time.Duration
	now      func() time.Time
}

// NewLimiter allows maxRequests per window for each key.
func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	expiry := window * 3
	if expiry < time.Minute {
		expiry = time.Minute
	}
	return &Limiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(window / time.Duration(maxRequests)),
		burst:    maxRequests,
		expiry:   expiry,
		now:      time.Now,
	}
}

func (l *Limiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1), nil
}

// Sweep drops visitors idle for longer than three windows.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.expiry {
			delete(l.visitors, key)
		}
	}
}

// Run sweeps idle visitors every minute until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}
