// Package ratelimit provides Redis-backed rate limiting for the file
// storage HTTP endpoints.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inda18plusplus/cnol-file-storage/internal/slotid"
)

// ErrRateLimited is returned when a limit is exceeded.
var ErrRateLimited = errors.New("ratelimit: rate limit exceeded")

// Limiter enforces per-remote-address and per-slot request limits using
// Redis INCR/EXPIRE counters. A nil *redis.Client (or any Redis error at
// check time) fails open: requests are allowed rather than the service
// degrading because its rate limiter's backing store is unavailable.
type Limiter struct {
	redis *redis.Client

	// AddrLimit bounds requests from a single remote address within
	// AddrWindow.
	AddrLimit  int
	AddrWindow time.Duration

	// SlotLimit bounds requests against a single slot within SlotWindow,
	// independent of requester — it catches a slot being hammered from
	// many addresses at once.
	SlotLimit  int
	SlotWindow time.Duration
}

// NewLimiter builds a Limiter with the given Redis client and default
// limits. client may be nil, in which case Allow always succeeds.
func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{
		redis:      client,
		AddrLimit:  120,
		AddrWindow: time.Minute,
		SlotLimit:  600,
		SlotWindow: time.Minute,
	}
}

// Allow checks both the per-address and per-slot limits for a request
// touching slot from remoteAddr. It returns ErrRateLimited if either is
// exceeded, and nil otherwise (including whenever Redis is unreachable).
func (l *Limiter) Allow(remoteAddr string, slot slotid.ID) error {
	if l == nil || l.redis == nil {
		return nil
	}

	ctx := context.Background()

	addrKey := fmt.Sprintf("ratelimit:file:addr:%s", remoteAddr)
	if exceeded := l.checkLimit(ctx, addrKey, l.AddrLimit, l.AddrWindow); exceeded {
		log.Printf("[RateLimit] remote %s exceeded per-address limit", remoteAddr)
		return ErrRateLimited
	}

	slotKey := fmt.Sprintf("ratelimit:file:slot:%d", slot)
	if exceeded := l.checkLimit(ctx, slotKey, l.SlotLimit, l.SlotWindow); exceeded {
		log.Printf("[RateLimit] slot %d exceeded per-slot limit (possible scraping)", slot)
		return ErrRateLimited
	}

	return nil
}

// checkLimit atomically increments key, setting its expiry on first use,
// and reports whether the resulting count exceeds limit. Any Redis error
// is treated as "not exceeded" to fail open.
func (l *Limiter) checkLimit(ctx context.Context, key string, limit int, window time.Duration) bool {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return false
	}

	if count == 1 {
		l.redis.Expire(ctx, key, window)
	}

	return int(count) > limit
}
