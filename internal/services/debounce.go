package services

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Debouncer coalesces repeated triggers within a window into a single
// downstream action. ShouldFire returns true for the first caller of a key
// within the window; later callers get false until the window expires.
type Debouncer interface {
	ShouldFire(ctx context.Context, key string, window time.Duration) (bool, error)
}

// MemoryDebouncer is the single-process fallback used when Redis is not
// configured.
type MemoryDebouncer struct {
	cache *gocache.Cache
}

// NewMemoryDebouncer creates an in-process debouncer.
func NewMemoryDebouncer() *MemoryDebouncer {
	return &MemoryDebouncer{cache: gocache.New(gocache.NoExpiration, time.Minute)}
}

// ShouldFire claims the key for the window. go-cache's Add is first-writer-
// wins, which gives the SetNX semantics the Redis path uses.
func (m *MemoryDebouncer) ShouldFire(_ context.Context, key string, window time.Duration) (bool, error) {
	err := m.cache.Add(key, struct{}{}, window)
	return err == nil, nil
}

// RedisDebouncer debounces across instances using Redis SetNX.
type RedisDebouncer struct {
	redis *RedisService
}

// NewRedisDebouncer wraps a RedisService as a Debouncer.
func NewRedisDebouncer(r *RedisService) *RedisDebouncer {
	return &RedisDebouncer{redis: r}
}

func (r *RedisDebouncer) ShouldFire(ctx context.Context, key string, window time.Duration) (bool, error) {
	return r.redis.Debounce(ctx, key, window)
}
