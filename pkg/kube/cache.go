package kube

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wisbric/kubeowl/internal/telemetry"
)

// listCacheTTL is how long a cached resource list stays fresh.
const listCacheTTL = 5 * time.Minute

// ListCache caches JSON-encoded resource lists in Redis. Lookups that fail
// for any reason behave like misses; the accessor then reads the API
// directly.
type ListCache struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewListCache creates a ListCache. rdb may be nil; every lookup then misses.
func NewListCache(rdb *redis.Client, logger *slog.Logger) *ListCache {
	return &ListCache{rdb: rdb, logger: logger}
}

// Get decodes the cached value for key into dst. Returns false on miss,
// decode failure, or Redis error.
func (c *ListCache) Get(ctx context.Context, key string, dst any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("resource cache lookup failed", "key", key, "error", err)
		}
		telemetry.ResourceCacheHitsTotal.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn("resource cache decode failed", "key", key, "error", err)
		telemetry.ResourceCacheHitsTotal.WithLabelValues("miss").Inc()
		return false
	}
	telemetry.ResourceCacheHitsTotal.WithLabelValues("hit").Inc()
	return true
}

// Set stores the value under key with the list TTL. Failures are logged only.
func (c *ListCache) Set(ctx context.Context, key string, value any) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("resource cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, listCacheTTL).Err(); err != nil {
		c.logger.Warn("resource cache store failed", "key", key, "error", err)
	}
}
