// Package cache provides an optional Redis-backed response cache. When
// Redis is not configured every operation is a no-op, so callers never
// branch on availability.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/recruitops/campaign-insight/internal/config"
)

// Cache wraps a Redis client with JSON serialization and a fixed TTL.
// A nil client disables caching entirely.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis per the config. When Redis is disabled, or the
// connection fails, the returned cache is a passthrough and the service
// runs uncached.
func New(ctx context.Context, cfg config.RedisConfig) *Cache {
	if !cfg.Enabled {
		return &Cache{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("redis unavailable at %s, caching disabled: %v", cfg.Addr, err)
		client.Close()
		return &Cache{}
	}

	log.Printf("connected to redis at %s (ttl %s)", cfg.Addr, cfg.TTL())
	return &Cache{client: client, ttl: cfg.TTL()}
}

// NewWithClient wraps an existing client, used by tests.
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON loads a cached value into dest. Returns false on miss, on a
// disabled cache, or on any Redis error (errors are logged, not returned:
// a broken cache must never fail a request).
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache get %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		log.Printf("cache decode %s: %v", key, err)
		return false
	}
	return true
}

// SetJSON stores a value under key for the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("cache encode %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("cache set %s: %v", key, err)
	}
}

// Invalidate removes a key, e.g. after a dataset reload.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		log.Printf("cache del %s: %v", key, err)
	}
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Key builds a namespaced cache key.
func Key(parts ...interface{}) string {
	key := "insight"
	for _, p := range parts {
		key += fmt.Sprintf(":%v", p)
	}
	return key
}
