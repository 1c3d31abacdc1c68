package api

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chaoscope/chaoscope/pkg/health"
)

// ResultCache caches the latest evaluation result per repository.
type ResultCache interface {
	Get(ctx context.Context, repoKey string) (*health.EvaluationResult, bool)
	Set(ctx context.Context, repoKey string, result *health.EvaluationResult)
	Delete(ctx context.Context, repoKey string)
}

// MemoryCache is a thread-safe LRU cache for evaluation results.
type MemoryCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*health.EvaluationResult
	order   []string // oldest first
}

// NewMemoryCache creates a cache with the given maximum number of entries.
// If maxSize <= 0, it defaults to 128.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 128
	}
	return &MemoryCache{
		maxSize: maxSize,
		entries: make(map[string]*health.EvaluationResult),
	}
}

// NewMemoryCacheFromEnv creates a cache with size from RESULT_CACHE_SIZE env var.
func NewMemoryCacheFromEnv() *MemoryCache {
	size := 128
	if v := os.Getenv("RESULT_CACHE_SIZE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			size = parsed
		}
	}
	return NewMemoryCache(size)
}

// Get retrieves a result from the cache.
func (c *MemoryCache) Get(_ context.Context, repoKey string) (*health.EvaluationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, ok := c.entries[repoKey]
	if !ok {
		return nil, false
	}

	// Move to end (most recently used)
	c.moveToEnd(repoKey)
	return result, true
}

// Set adds a result to the cache, evicting the oldest if full.
func (c *MemoryCache) Set(_ context.Context, repoKey string, result *health.EvaluationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[repoKey]; ok {
		c.entries[repoKey] = result
		c.moveToEnd(repoKey)
		return
	}

	// Evict oldest if at capacity
	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[repoKey] = result
	c.order = append(c.order, repoKey)
}

// Delete removes a result from the cache.
func (c *MemoryCache) Delete(_ context.Context, repoKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[repoKey]; !ok {
		return
	}
	delete(c.entries, repoKey)
	for i, k := range c.order {
		if k == repoKey {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Len returns the number of cached results.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) moveToEnd(repoKey string) {
	for i, k := range c.order {
		if k == repoKey {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, repoKey)
			return
		}
	}
}

// DefaultCacheTTL is how long RedisCache keeps a result.
const DefaultCacheTTL = 30 * time.Minute

// RedisCache stores results in Redis as JSON under "<prefix>:result:<repo>".
// Redis errors are treated as misses.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed cache. A ttl <= 0 uses DefaultCacheTTL.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(repoKey string) string {
	return c.prefix + ":result:" + repoKey
}

// Get retrieves a cached result.
func (c *RedisCache) Get(ctx context.Context, repoKey string) (*health.EvaluationResult, bool) {
	data, err := c.client.Get(ctx, c.key(repoKey)).Bytes()
	if err != nil {
		return nil, false
	}
	var result health.EvaluationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

// Set stores a result with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, repoKey string, result *health.EvaluationResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(repoKey), data, c.ttl).Err()
}

// Delete removes a cached result.
func (c *RedisCache) Delete(ctx context.Context, repoKey string) {
	_ = c.client.Del(ctx, c.key(repoKey)).Err()
}
