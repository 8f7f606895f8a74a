package repository

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter. It fails open: a broken limiter
// store must not take the auth endpoints down with it.
type RateLimiter interface {
	Allow(ctx context.Context, key string, requests int, window time.Duration) (bool, error)
}

type redisRateLimiter struct {
	client *redis.Client
}

func NewRedisRateLimiter(client *redis.Client) RateLimiter {
	return &redisRateLimiter{client: client}
}

func (r *redisRateLimiter) Allow(ctx context.Context, key string, requests int, window time.Duration) (bool, error) {
	// Hash the key for privacy
	hashed := fmt.Sprintf("rl:%x", sha256.Sum256([]byte(key)))

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, hashed)
	// NX: only the hit that creates the key sets the deadline. Later
	// hits must not push the window forward, or a retrying client
	// would stay blocked past the window.
	pipe.ExpireNX(ctx, hashed, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}

	return incr.Val() <= int64(requests), nil
}
