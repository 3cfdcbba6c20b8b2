package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache errors
var (
	ErrCacheNotAvailable = fmt.Errorf("cache not available")
	ErrCacheNotFound     = fmt.Errorf("cache not found")
)

// CacheHelper provides common caching operations for repositories
type CacheHelper struct {
	client *redis.Client
	prefix string
}

// NewCacheHelper creates a new cache helper instance
func NewCacheHelper(client *redis.Client, prefix string) *CacheHelper {
	return &CacheHelper{
		client: client,
		prefix: prefix,
	}
}

// CacheConfig defines cache configuration for different data types
type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

var (
	// Long-lived cache for area configs, which change rarely
	AreaCacheConfig = CacheConfig{
		TTL:    30 * time.Minute,
		Prefix: "area:",
	}

	// Medium-lived cache for achievement snapshots
	AchievementCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "achievement:",
	}

	// Stats cache for expensive aggregate queries
	StatsCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "stats:",
	}
)

// GetCacheKey generates a cache key with prefix
func (c *CacheHelper) GetCacheKey(key string) string {
	return fmt.Sprintf("%s%s", c.prefix, key)
}

// Get retrieves and unmarshals data from cache
func (c *CacheHelper) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	cacheKey := c.GetCacheKey(key)
	data, err := c.client.Get(ctx, cacheKey).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}

	return nil
}

// Set marshals and stores data in cache
func (c *CacheHelper) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil // Graceful degradation when cache not available
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	cacheKey := c.GetCacheKey(key)
	return c.client.Set(ctx, cacheKey, data, ttl).Err()
}

// Delete removes data from cache using pipeline for multiple keys
func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil {
		return nil
	}

	if len(keys) == 0 {
		return nil
	}

	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = c.GetCacheKey(key)
	}

	if len(cacheKeys) > 1 {
		pipe := c.client.Pipeline()
		pipe.Del(ctx, cacheKeys...)
		_, err := pipe.Exec(ctx)
		return err
	}

	return c.client.Del(ctx, cacheKeys...).Err()
}

// InvalidatePattern removes all keys matching a pattern using SCAN instead of KEYS
func (c *CacheHelper) InvalidatePattern(ctx context.Context, pattern string) error {
	if c.client == nil {
		return nil
	}

	fullPattern := c.GetCacheKey(pattern)
	var cursor uint64
	var keys []string

	for {
		var scanKeys []string
		var err error
		scanKeys, cursor, err = c.client.Scan(ctx, cursor, fullPattern, 100).Result()
		if err != nil {
			slog.ErrorContext(ctx, "Cache scan pattern error",
				"error", err,
				"pattern", fullPattern)
			return fmt.Errorf("cache scan pattern error: %w", err)
		}
		keys = append(keys, scanKeys...)
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	const batchSize = 100
	for i := 0; i < len(keys); i += batchSize {
		end := i + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		pipe.Del(ctx, keys[i:end]...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		slog.ErrorContext(ctx, "Cache pipeline delete error",
			"error", err,
			"total_keys", len(keys))
		return fmt.Errorf("cache pipeline delete error: %w", err)
	}

	return nil
}

// CacheOrExecute implements cache-aside pattern with proper error handling
func (c *CacheHelper) CacheOrExecute(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetchFunc func() (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil // Found in cache
	}

	if err != ErrCacheNotFound && err != ErrCacheNotAvailable {
		slog.Info("Cache get error, proceeding to fetch", "error", err, "key", key)
	}

	value, err := fetchFunc()
	if err != nil {
		return fmt.Errorf("fetch function error: %w", err)
	}

	// Store in cache asynchronously to not block the response
	go func(parentCtx context.Context) {
		ctxWithTimeout, cancel := context.WithTimeout(parentCtx, 5*time.Second)
		defer cancel()
		if err := c.Set(ctxWithTimeout, key, value, ttl); err != nil {
			slog.Error("Cache set error", "error", err, "key", key)
		}
	}(ctx)

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal result error: %w", err)
	}

	return json.Unmarshal(data, dest)
}

// CacheManager manages multiple cache helpers
type CacheManager struct {
	Area        *CacheHelper
	Achievement *CacheHelper
	Stats       *CacheHelper
}

// NewCacheManager creates cache manager with all cache helpers
func NewCacheManager(client *redis.Client) *CacheManager {
	if client == nil {
		return &CacheManager{
			Area:        NewCacheHelper(nil, ""),
			Achievement: NewCacheHelper(nil, ""),
			Stats:       NewCacheHelper(nil, ""),
		}
	}

	return &CacheManager{
		Area:        NewCacheHelper(client, AreaCacheConfig.Prefix),
		Achievement: NewCacheHelper(client, AchievementCacheConfig.Prefix),
		Stats:       NewCacheHelper(client, StatsCacheConfig.Prefix),
	}
}

// HealthCheck verifies cache connectivity
func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.Area.client == nil {
		return ErrCacheNotAvailable
	}

	_, err := cm.Area.client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}

	return nil
}
