package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window counter shared by every instance behind Redis.
//
//	INCR ratelimit:{key}:{window} ; PEXPIRE on first hit
type Limiter struct {
	client      *redis.Client
	maxRequests int64
	window      time.Duration
	now         func() time.Time
}

func NewLimiter(client *redis.Client, maxRequests int, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Second
	}
	return &Limiter{
		client:      client,
		maxRequests: int64(maxRequests),
		window:      window,
		now:         time.Now,
	}
}

func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	slot := l.now().UnixNano() / int64(l.window)
	redisKey := "ratelimit:" + key + ":" + strconv.FormatInt(slot, 10)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.PExpire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		// fail open on Redis errors; the caller logs err
		return true, err
	}
	return incr.Val() <= l.maxRequests, nil
}
