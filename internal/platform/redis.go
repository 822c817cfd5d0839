package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis backs only the resource list cache (pkg/kube). Cache lookups sit on
// the hot path of every scan, so the client timeouts stay far below the 30s
// Kubernetes request budget: a slow cache degrades to a direct API read
// instead of delaying one.
const (
	redisDialTimeout  = 2 * time.Second
	redisReadTimeout  = 500 * time.Millisecond
	redisWriteTimeout = 500 * time.Millisecond
)

// NewRedisCache creates the Redis client for the resource list cache and
// verifies connectivity once at startup. Runtime failures after this point
// are absorbed by the cache layer, which treats them as misses.
func NewRedisCache(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	opts.ClientName = "kubeowl-list-cache"
	opts.DialTimeout = redisDialTimeout
	opts.ReadTimeout = redisReadTimeout
	opts.WriteTimeout = redisWriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}
