package layers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

// Cache stores layer lists per model path.
type Cache interface {
	Get(ctx context.Context, modelPath string) ([]string, bool, error)
	Set(ctx context.Context, modelPath string, names []string) error
	Invalidate(ctx context.Context, modelPath string) error
	Backend() string
}

type cachedLayers struct {
	ModelPath string    `json:"modelPath"`
	Layers    []string  `json:"layers"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RedisCache shares layer lists between processes.
type RedisCache struct {
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration
}

// NewRedisCache creates a Redis-backed cache. prefix is prepended to every key.
func NewRedisCache(redisClient *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		redisClient: redisClient,
		keyPrefix:   prefix + "layers:",
		ttl:         ttl,
	}
}

// Get retrieves a cached layer list
func (c *RedisCache) Get(ctx context.Context, modelPath string) ([]string, bool, error) {
	data, err := c.redisClient.Get(ctx, c.keyPrefix+modelPath).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil // Cache miss
		}
		return nil, false, err
	}

	var entry cachedLayers
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, false, err
	}

	return entry.Layers, true, nil
}

// Set stores a layer list
func (c *RedisCache) Set(ctx context.Context, modelPath string, names []string) error {
	data, err := json.Marshal(cachedLayers{
		ModelPath: modelPath,
		Layers:    names,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return c.redisClient.Set(ctx, c.keyPrefix+modelPath, data, c.ttl).Err()
}

// Invalidate removes a model from cache
func (c *RedisCache) Invalidate(ctx context.Context, modelPath string) error {
	return c.redisClient.Del(ctx, c.keyPrefix+modelPath).Err()
}

// Backend names the cache implementation
func (c *RedisCache) Backend() string {
	return "redis"
}

// MemoryCache keeps the most recently used layer lists in process.
type MemoryCache struct {
	entries *lru.Cache[string, []string]
}

// NewMemoryCache creates an in-process cache holding up to size models.
func NewMemoryCache(size int) (*MemoryCache, error) {
	if size <= 0 {
		return nil, ErrInvalidCacheSize
	}

	entries, err := lru.New[string, []string](size)
	if err != nil {
		return nil, err
	}

	return &MemoryCache{entries: entries}, nil
}

// Get retrieves a cached layer list
func (c *MemoryCache) Get(_ context.Context, modelPath string) ([]string, bool, error) {
	names, ok := c.entries.Get(modelPath)
	return names, ok, nil
}

// Set stores a layer list
func (c *MemoryCache) Set(_ context.Context, modelPath string, names []string) error {
	c.entries.Add(modelPath, names)
	return nil
}

// Invalidate removes a model from cache
func (c *MemoryCache) Invalidate(_ context.Context, modelPath string) error {
	c.entries.Remove(modelPath)
	return nil
}

// Backend names the cache implementation
func (c *MemoryCache) Backend() string {
	return "memory"
}
