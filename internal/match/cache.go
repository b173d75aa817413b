package match

import (
	"context"
	"sync"
	"time"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
)

// ActivePatternSource supplies the active pattern set.
type ActivePatternSource interface {
	GetActivePatterns(ctx context.Context) ([]model.Pattern, error)
}

// Cache is a read-through cache over the active pattern set.
//
// Invalidation contract: the cache refreshes itself after the TTL
// elapses, and any component that writes to the pattern store (the
// feedback learner, manual seeding) must call Invalidate afterwards so
// the next read observes the write. Matching reads a consistent snapshot
// and never blocks pattern writers.
type Cache struct {
	fetchedAt time.Time
	source    ActivePatternSource
	patterns  []model.Pattern
	ttl       time.Duration
	mu        sync.RWMutex
}

// DefaultCacheTTL bounds staleness for writers that bypass Invalidate.
const DefaultCacheTTL = 5 * time.Minute

// NewCache creates a pattern cache over the given source. A non-positive
// ttl falls back to DefaultCacheTTL.
func NewCache(source ActivePatternSource, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		source: source,
		ttl:    ttl,
	}
}

// GetActivePatterns returns the cached active pattern set, reloading it
// from the source if the cache is cold or stale.
func (c *Cache) GetActivePatterns(ctx context.Context) ([]model.Pattern, error) {
	c.mu.RLock()
	if c.patterns != nil && time.Since(c.fetchedAt) < c.ttl {
		patterns := c.patterns
		c.mu.RUnlock()
		return patterns, nil
	}
	c.mu.RUnlock()

	patterns, err := c.source.GetActivePatterns(ctx)
	if err != nil {
		return nil, err
	}
	if patterns == nil {
		patterns = []model.Pattern{}
	}

	c.mu.Lock()
	c.patterns = patterns
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	return patterns, nil
}

// Invalidate drops the cached snapshot so the next read hits the source.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.patterns = nil
	c.mu.Unlock()
}
