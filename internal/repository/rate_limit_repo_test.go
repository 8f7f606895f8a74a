package repository_test

import (
	"context"
	"crypto/sha256"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gatehouse/gatepass/internal/repository"
	"github.com/redis/go-redis/v9"
)

func setupLimiter(t *testing.T) (*miniredis.Miniredis, repository.RateLimiter) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	return srv, repository.NewRedisRateLimiter(client)
}

// storedKey mirrors the limiter's hashed key layout so the tests can
// inspect TTLs directly.
func storedKey(key string) string {
	return fmt.Sprintf("rl:%x", sha256.Sum256([]byte(key)))
}

func TestAllow_CountsPerKey(t *testing.T) {
	_, limiter := setupLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "auth:10.0.0.1", 3, time.Minute)
		if err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
		if !allowed {
			t.Fatalf("Request %d should be allowed", i+1)
		}
	}

	allowed, err := limiter.Allow(ctx, "auth:10.0.0.1", 3, time.Minute)
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if allowed {
		t.Fatal("Fourth request within the window should be denied")
	}

	// A different client is unaffected.
	allowed, err = limiter.Allow(ctx, "auth:10.0.0.2", 3, time.Minute)
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if !allowed {
		t.Fatal("A different key should not share the counter")
	}
}

func TestAllow_WindowIsFixed(t *testing.T) {
	srv, limiter := setupLimiter(t)
	ctx := context.Background()

	if _, err := limiter.Allow(ctx, "auth:10.0.0.1", 2, time.Minute); err != nil {
		t.Fatalf("Allow failed: %v", err)
	}

	srv.FastForward(30 * time.Second)
	remaining := srv.TTL(storedKey("auth:10.0.0.1"))
	if remaining <= 0 {
		t.Fatalf("Expected a live TTL, got %v", remaining)
	}

	// Further hits, allowed or denied, must not push the deadline out.
	for i := 0; i < 5; i++ {
		if _, err := limiter.Allow(ctx, "auth:10.0.0.1", 2, time.Minute); err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
	}
	if got := srv.TTL(storedKey("auth:10.0.0.1")); got > remaining {
		t.Fatalf("Window deadline moved from %v to %v", remaining, got)
	}

	// Once the window lapses the client is unblocked even though it
	// kept hammering while blocked.
	srv.FastForward(time.Minute)
	allowed, err := limiter.Allow(ctx, "auth:10.0.0.1", 2, time.Minute)
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if !allowed {
		t.Fatal("Request after the window lapsed should be allowed")
	}
}
