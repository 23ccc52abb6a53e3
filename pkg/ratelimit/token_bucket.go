// Package ratelimit provides the per-client admission limiter sitting in
// front of every API call.
//
// The limiter implements the classic token bucket algorithm: each client
// identity owns a bucket of `capacity` tokens that refills continuously at
// capacity tokens per minute. Every admitted request consumes one token;
// an empty bucket denies the request without consuming anything.
//
// Refill is computed lazily from elapsed wall-clock time at access, so there
// is no background timer and idle buckets cost nothing but memory. Buckets
// live in a sync.Map keyed by client identity, each guarded by its own
// mutex, so contention is per client rather than process-wide.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Decision is the result of an admission check.
type Decision struct {
	Allowed    bool
	Remaining  int64         // whole tokens left after this check
	Limit      int64         // configured bucket capacity
	RetryAfter time.Duration // advisory wait on denial, zero when allowed
}

// TokenBucketLimiter is a per-identity token bucket rate limiter.
type TokenBucketLimiter struct {
	capacity   float64
	refillRate float64 // tokens per second
	buckets    sync.Map // identity → *bucket
	now        func() time.Time
}

type bucket struct {
	mu       sync.Mutex
	tokens   float64
	lastSeen time.Time // last refill observation, also drives idle sweeps
}

// New creates a limiter allowing requestsPerMinute requests per client.
func New(requestsPerMinute int) (*TokenBucketLimiter, error) {
	if requestsPerMinute <= 0 {
		return nil, fmt.Errorf("invalid rate limit configuration: requests per minute must be positive, got %d", requestsPerMinute)
	}
	return &TokenBucketLimiter{
		capacity:   float64(requestsPerMinute),
		refillRate: float64(requestsPerMinute) / 60.0,
		now:        time.Now,
	}, nil
}

// Allow attempts to consume one token from identity's bucket.
// A never-seen identity gets a full bucket first.
func (l *TokenBucketLimiter) Allow(identity string) Decision {
	b := l.getOrCreateBucket(identity)
	now := l.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now, l.capacity, l.refillRate)

	if b.tokens < 1 {
		// Time until one whole token accumulates.
		wait := time.Duration((1 - b.tokens) / l.refillRate * float64(time.Second))
		return Decision{
			Allowed:    false,
			Remaining:  0,
			Limit:      int64(l.capacity),
			RetryAfter: wait,
		}
	}

	b.tokens--
	return Decision{
		Allowed:   true,
		Remaining: int64(b.tokens),
		Limit:     int64(l.capacity),
	}
}

// Remaining reports the whole tokens currently available to identity
// without consuming any. Used for response header hints.
func (l *TokenBucketLimiter) Remaining(identity string) int64 {
	b := l.getOrCreateBucket(identity)
	now := l.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now, l.capacity, l.refillRate)
	return int64(b.tokens)
}

// Sweep removes buckets that have not been touched for longer than maxIdle.
// An idle bucket is by definition full, so removal never changes the
// admission outcome for a client that later returns.
func (l *TokenBucketLimiter) Sweep(maxIdle time.Duration) int {
	cutoff := l.now().Add(-maxIdle)
	removed := 0
	l.buckets.Range(func(key, value interface{}) bool {
		b := value.(*bucket)
		b.mu.Lock()
		idle := b.lastSeen.Before(cutoff)
		b.mu.Unlock()
		if idle {
			l.buckets.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

func (l *TokenBucketLimiter) getOrCreateBucket(identity string) *bucket {
	if v, ok := l.buckets.Load(identity); ok {
		return v.(*bucket)
	}
	b := &bucket{tokens: l.capacity, lastSeen: l.now()}
	actual, _ := l.buckets.LoadOrStore(identity, b)
	return actual.(*bucket)
}

// refill credits tokens for the time elapsed since the last observation,
// capped at capacity. Caller holds b.mu.
func (b *bucket) refill(now time.Time, capacity, rate float64) {
	elapsed := now.Sub(b.lastSeen).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * rate
		if b.tokens > capacity {
			b.tokens = capacity
		}
	}
	b.lastSeen = now
}
