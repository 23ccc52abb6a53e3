// Package cache memoizes RAG answers keyed by the exact question string.
//
// The cache is a pure latency/cost optimization: a hit younger than the TTL
// returns the stored answer without recomputation, everything else falls
// through to the compute function. Keys are compared by plain string
// equality, with no normalization or fuzzy matching. Identical questions reach
// the same retrieval corpus with the same topK, so reusing the generated
// answer is sound.
//
// Concurrent misses for the same key may each run the compute function
// (no single-flight); the last writer wins. That duplicates work under a
// race but never corrupts the map or changes answer correctness.
package cache

import (
	"sync"
	"time"

	"github.com/MaxainNN/gpt/pkg/observability/logging"
	"github.com/MaxainNN/gpt/pkg/observability/metrics"
)

// Entry is one memoized answer.
type Entry struct {
	Question     string
	Answer       string
	Timestamp    time.Time // write time, drives TTL
	LastAccessAt time.Time // read/write time, drives LRU
	HitCount     int64
}

// QueryCache is a TTL- and size-bounded answer cache.
type QueryCache struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	maxEntries int
	ttl        time.Duration
	policy     EvictionPolicy
	now        func() time.Time
}

// QueryCacheOptions configures a QueryCache.
type QueryCacheOptions struct {
	MaxEntries     int           // default 500
	TTL            time.Duration // default 10 minutes
	EvictionPolicy EvictionPolicy
}

// NewQueryCache creates a cache with the given bounds.
func NewQueryCache(options QueryCacheOptions) *QueryCache {
	if options.MaxEntries <= 0 {
		options.MaxEntries = 500
	}
	if options.TTL <= 0 {
		options.TTL = 10 * time.Minute
	}
	if options.EvictionPolicy == nil {
		options.EvictionPolicy = &LRUPolicy{}
	}
	return &QueryCache{
		entries:    make(map[string]*Entry),
		maxEntries: options.MaxEntries,
		ttl:        options.TTL,
		policy:     options.EvictionPolicy,
		now:        time.Now,
	}
}

// GetOrCompute returns the cached answer for question if one exists and is
// younger than the TTL; otherwise it runs compute, stores the result under a
// fresh timestamp, and returns it. The second return value reports whether
// the answer came from the cache. Compute errors are returned unchanged and
// never cached.
func (c *QueryCache) GetOrCompute(question string, compute func() (string, error)) (string, bool, error) {
	now := c.now()

	c.mu.Lock()
	if e, ok := c.entries[question]; ok {
		if now.Sub(e.Timestamp) < c.ttl {
			e.LastAccessAt = now
			e.HitCount++
			c.mu.Unlock()
			metrics.RecordCacheLookup(true)
			logging.Debugf("Query cache hit (age=%s)", now.Sub(e.Timestamp).Round(time.Millisecond))
			return e.Answer, true, nil
		}
		// Expired entries are reclaimed at access.
		delete(c.entries, question)
	}
	c.mu.Unlock()

	metrics.RecordCacheLookup(false)

	// Compute outside the lock: the call may block on external I/O for
	// seconds, and duplicate computation under a racing miss is acceptable.
	answer, err := compute()
	if err != nil {
		return "", false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(question, answer, c.now())
	return answer, false, nil
}

// Len reports the number of resident entries, expired or not.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// store inserts or replaces the entry for question, evicting first when the
// insert would exceed capacity. Caller holds c.mu.
func (c *QueryCache) store(question, answer string, now time.Time) {
	if _, exists := c.entries[question]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOne(now)
	}
	c.entries[question] = &Entry{
		Question:     question,
		Answer:       answer,
		Timestamp:    now,
		LastAccessAt: now,
	}
}

// evictOne removes one entry: an expired one if any exists, otherwise the
// policy's victim. Caller holds c.mu.
func (c *QueryCache) evictOne(now time.Time) {
	for key, e := range c.entries {
		if now.Sub(e.Timestamp) >= c.ttl {
			delete(c.entries, key)
			return
		}
	}

	snapshot := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		snapshot = append(snapshot, *e)
	}
	if victim := c.policy.SelectVictim(snapshot); victim >= 0 {
		logging.Debugf("Query cache evicting entry (last access %s)", snapshot[victim].LastAccessAt)
		delete(c.entries, snapshot[victim].Question)
	}
}
