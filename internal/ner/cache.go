package ner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// redisClient is the subset of *redis.Client the cache uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// CacheStats represents cache performance statistics
type CacheStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Errors  int64   `json:"errors"`
	HitRate float64 `json:"hit_rate"`
}

// CachedProvider memoizes entity lists in Redis keyed by a hash of the text.
// Redis failures are logged and the wrapped provider answers instead.
type CachedProvider struct {
	inner  Provider
	client redisClient
	config CacheConfig
	logger *zap.Logger

	hits, misses, errors int64
}

// NewCachedProvider connects to Redis and wraps inner.
func NewCachedProvider(inner Provider, config CacheConfig, logger *zap.Logger) (*CachedProvider, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if config.MaxConnections > 0 {
		opts.PoolSize = config.MaxConnections
	}
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Entity cache initialized",
		zap.String("redis_url", maskRedisURL(config.RedisURL)),
		zap.Duration("default_ttl", config.DefaultTTL))

	return newCachedProvider(inner, client, config, logger), nil
}

func newCachedProvider(inner Provider, client redisClient, config CacheConfig, logger *zap.Logger) *CachedProvider {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "sentinel"
	}
	return &CachedProvider{inner: inner, client: client, config: config, logger: logger}
}

// Name reports the wrapped provider.
func (c *CachedProvider) Name() string {
	return c.inner.Name()
}

// ExtractEntities serves from cache when possible.
func (c *CachedProvider) ExtractEntities(ctx context.Context, text string) ([]Entity, error) {
	key := c.key(text)

	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == redis.Nil:
		atomic.AddInt64(&c.misses, 1)
	case err != nil:
		atomic.AddInt64(&c.errors, 1)
		c.logger.Warn("Entity cache lookup failed", zap.Error(err))
	default:
		var entities []Entity
		if err := json.Unmarshal([]byte(cached), &entities); err == nil {
			atomic.AddInt64(&c.hits, 1)
			c.logger.Debug("Entity cache hit", zap.String("key", key))
			return entities, nil
		}
		c.logger.Warn("Dropping corrupt entity cache entry", zap.String("key", key))
		c.client.Del(ctx, key)
		atomic.AddInt64(&c.misses, 1)
	}

	entities, err := c.inner.ExtractEntities(ctx, text)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(entities)
	if err != nil {
		return entities, nil
	}
	if err := c.client.Set(ctx, key, data, c.config.DefaultTTL).Err(); err != nil {
		atomic.AddInt64(&c.errors, 1)
		c.logger.Warn("Failed to cache entities", zap.Error(err))
	}
	return entities, nil
}

// Stats returns hit/miss counters.
func (c *CachedProvider) Stats() CacheStats {
	s := CacheStats{
		Hits:   atomic.LoadInt64(&c.hits),
		Misses: atomic.LoadInt64(&c.misses),
		Errors: atomic.LoadInt64(&c.errors),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total) * 100
	}
	return s
}

// Close closes Redis and the wrapped provider.
func (c *CachedProvider) Close() error {
	innerErr := c.inner.Close()
	if err := c.client.Close(); err != nil {
		return err
	}
	return innerErr
}

// key is scoped by provider so switching models doesn't serve stale results.
func (c *CachedProvider) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:ner:%s:%s", c.config.KeyPrefix, c.inner.Name(), hex.EncodeToString(sum[:]))
}

// maskRedisURL masks sensitive information in Redis URL for logging
func maskRedisURL(url string) string {
	if i := strings.LastIndex(url, "@"); i >= 0 {
		scheme := ""
		rest := url[:i]
		if j := strings.Index(rest, "://"); j >= 0 {
			scheme, rest = rest[:j+3], rest[j+3:]
		}
		if user, _, ok := strings.Cut(rest, ":"); ok {
			return scheme + user + ":***" + url[i:]
		}
		return scheme + "***" + url[i:]
	}
	return url
}
