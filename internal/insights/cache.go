// internal/insights/cache.go
package insights

import (
	"context"
	stderrors "errors"
	"time"

	"hms-analytics/internal/common/errors"
	"hms-analytics/internal/common/logger"
	"hms-analytics/internal/common/metrics"
	"hms-analytics/internal/models"

	"github.com/redis/go-redis/v9"
)

// Cache is the key/value subset of database.RedisClient the cached store needs.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// CachedStore keeps the serialized collection in Redis in front of another Store.
// Redis failures are logged and bypassed; a corrupt entry is replaced on the next load.
type CachedStore struct {
	inner  Store
	cache  Cache
	key    string
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedStore(inner Store, cache Cache, key string, ttl time.Duration, log logger.Logger) *CachedStore {
	return &CachedStore{inner: inner, cache: cache, key: key, ttl: ttl, logger: log}
}

func (s *CachedStore) Name() string { return "cached-" + s.inner.Name() }

func (s *CachedStore) Load(ctx context.Context) ([]models.Insight, error) {
	raw, err := s.cache.Get(ctx, s.key)
	switch {
	case err == nil:
		collection, decodeErr := Decode([]byte(raw))
		if decodeErr == nil {
			metrics.CacheResults.WithLabelValues("hit").Inc()
			return collection, nil
		}
		metrics.CacheResults.WithLabelValues("corrupt").Inc()
		s.logger.Warn("discarding corrupt cache entry", map[string]interface{}{
			"key":   s.key,
			"error": decodeErr,
		})
	case stderrors.Is(err, redis.Nil):
		metrics.CacheResults.WithLabelValues("miss").Inc()
	default:
		metrics.CacheResults.WithLabelValues("error").Inc()
		s.logger.Warn("insight cache unavailable, loading from source", map[string]interface{}{
			"key":   s.key,
			"error": errors.NewCacheUnavailableError("get", err),
		})
	}

	collection, err := s.inner.Load(ctx)
	if err != nil {
		return nil, err
	}

	body, err := Encode(collection)
	if err != nil {
		return collection, nil
	}
	if err := s.cache.Set(ctx, s.key, body, s.ttl); err != nil {
		s.logger.Warn("failed to populate insight cache", map[string]interface{}{
			"key":   s.key,
			"error": errors.NewCacheUnavailableError("set", err),
		})
	}
	return collection, nil
}

// Invalidate drops the cached entry so the next Load reads through.
func (s *CachedStore) Invalidate(ctx context.Context) error {
	if err := s.cache.Del(ctx, s.key); err != nil {
		return errors.NewCacheUnavailableError("del", err)
	}
	return nil
}
