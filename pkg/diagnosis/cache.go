package diagnosis

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wisbric/kubeowl/pkg/fault"
)

// Cache holds diagnosis results in memory for a TTL. Eviction is lazy: an
// expired entry behaves like a miss on the next read.
type Cache struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]cacheEntry
}

type cacheEntry struct {
	result     *Result
	insertedAt time.Time
}

// NewCache creates a Cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, m: make(map[string]cacheEntry)}
}

// Get returns the cached result for key, treating expired entries as absent.
func (c *Cache) Get(key string) (*Result, bool) {
	c.mu.RLock()
	entry, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Since(entry.insertedAt) > c.ttl {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.result, true
}

// Set stores a result under key.
func (c *Cache) Set(key string, result *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = cacheEntry{result: result, insertedAt: time.Now()}
}

// CacheKey derives the lookup key for a fault. The issue category falls back
// to a keyword inference over the description when the detector assigned
// none, so that textually similar faults share a diagnosis.
func CacheKey(f fault.Info) string {
	category := f.IssueCategory()
	if category == "" {
		category = inferCategory(f.Description)
	}
	return fmt.Sprintf("%s:%s:%s:%s", f.Type, f.ResourceKind, f.Context[fault.CtxOwnerKind], category)
}

// inferCategory guesses a coarse category from prose when no detector
// category exists.
func inferCategory(description string) string {
	lower := strings.ToLower(description)
	switch {
	case strings.Contains(lower, "oom") || strings.Contains(lower, "memory limit"):
		return "OOM"
	case strings.Contains(lower, "image") || strings.Contains(lower, "pull"):
		return "IMAGE"
	case strings.Contains(lower, "probe"):
		return "PROBE"
	case strings.Contains(lower, "schedul") || strings.Contains(lower, "pending"):
		return "SCHEDULING"
	case strings.Contains(lower, "volume") || strings.Contains(lower, "mount"):
		return "VOLUME"
	case strings.Contains(lower, "network") || strings.Contains(lower, "dns"):
		return "NETWORK"
	default:
		return "GENERAL"
	}
}
