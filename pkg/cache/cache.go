// Package cache is a small JSON cache over Redis with a no-op fallback, so
// callers never branch on whether Redis is configured.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"go-storefront/pkg/metrics"
)

type Cache interface {
	// Get unmarshals the value at key into dest and reports a hit.
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type RedisCache struct {
	rdb *redis.Client
}

// NewRedis connects and pings. On error the caller should fall back to Noop.
func NewRedis(ctx context.Context, addr, password string, db int) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return &RedisCache{rdb: rdb}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) bool {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			metrics.CacheErrors.WithLabelValues("get").Inc()
		}
		metrics.CacheMisses.Inc()
		return false
	}

	if err := json.Unmarshal(val, dest); err != nil {
		metrics.CacheMisses.Inc()
		return false
	}

	metrics.CacheHits.Inc()
	return true
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		metrics.CacheErrors.WithLabelValues("set").Inc()
		return err
	}
	return nil
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		metrics.CacheErrors.WithLabelValues("del").Inc()
		return err
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

// Noop never hits and accepts every write.
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) bool { return false }

func (Noop) Set(context.Context, string, interface{}, time.Duration) error { return nil }

func (Noop) Del(context.Context, ...string) error { return nil }
