package layers

import (
	"context"
	"slices"

	"github.com/ethpandaops/modelcfg/pkg/observability"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// CachedEnumerator memoizes another enumerator. Cache failures fall through
// to the wrapped enumerator.
type CachedEnumerator struct {
	next  Enumerator
	cache Cache
	log   logrus.FieldLogger
}

// NewCachedEnumerator wraps next with cache.
func NewCachedEnumerator(log logrus.FieldLogger, next Enumerator, cache Cache) *CachedEnumerator {
	return &CachedEnumerator{
		next:  next,
		cache: cache,
		log:   log.WithField("component", "layers.cache"),
	}
}

// Enumerate returns the cached list for modelPath or computes and stores it.
func (c *CachedEnumerator) Enumerate(ctx context.Context, modelPath string) ([]string, error) {
	names, ok, err := c.cache.Get(ctx, modelPath)
	if err != nil {
		c.log.WithError(err).WithField("path", modelPath).Warn("Failed to read layer cache")
	}

	if ok {
		observability.RecordLayerCacheHit(c.cache.Backend())
		return slices.Clone(names), nil
	}

	observability.RecordLayerCacheMiss(c.cache.Backend())

	names, err = c.next.Enumerate(ctx, modelPath)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, modelPath, names); err != nil {
		c.log.WithError(err).WithField("path", modelPath).Warn("Failed to write layer cache")
	}

	return slices.Clone(names), nil
}

// Invalidate drops the cached list for modelPath.
func (c *CachedEnumerator) Invalidate(ctx context.Context, modelPath string) error {
	return c.cache.Invalidate(ctx, modelPath)
}

// NewDefaultEnumerator runs the configured tool behind a cache: Redis when
// redisClient is set, an in-process LRU otherwise.
func NewDefaultEnumerator(log logrus.FieldLogger, cfg *Config, redisClient *redis.Client, prefix string) (*CachedEnumerator, error) {
	var cache Cache
	if redisClient != nil {
		cache = NewRedisCache(redisClient, prefix, cfg.CacheTTL)
	} else {
		mem, err := NewMemoryCache(cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		cache = mem
	}

	return NewCachedEnumerator(log, NewToolEnumerator(log, cfg), cache), nil
}
