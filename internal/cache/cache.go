// Package cache is a thin gateway in front of Redis with a default TTL.
// Values are stored as JSON strings; callers use GetJSON/SetJSON for
// struct payloads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/eventlyhq/evently/internal/observability"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type Cache struct {
	rdb  *redis.Client
	ttl  time.Duration
	prom *observability.Prom
}

func New(cfg Config, prom *observability.Prom) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Cache{rdb: rdb, ttl: cfg.TTL, prom: prom}
}

// Get returns the raw cached value and whether the key was present.
// Cache errors are returned but callers generally treat them as a miss.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.miss(key)
			return "", false, nil
		}

		c.miss(key)
		return "", false, err
	}

	c.hit(key)
	return val, true, nil
}

// Set stores val under key. A non-positive ttl falls back to the default.
func (c *Cache) Set(ctx context.Context, key, val string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}

	return c.rdb.Set(ctx, key, val, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	return c.rdb.Del(ctx, keys...).Err()
}

// GetJSON unmarshals a cached JSON value into out.
func (c *Cache) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, ok, err := c.Get(ctx, key)

	if err != nil || !ok {
		return false, err
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		// a corrupt entry behaves like a miss
		return false, err
	}

	return true, nil
}

// SetJSON marshals val and stores it with the default TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, val any) error {
	b, err := json.Marshal(val)

	if err != nil {
		return err
	}

	return c.Set(ctx, key, string(b), 0)
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}

func (c *Cache) hit(key string) {
	if c.prom != nil {
		c.prom.CacheHits.WithLabelValues(observability.CacheKeyClass(key)).Inc()
	}
}

func (c *Cache) miss(key string) {
	if c.prom != nil {
		c.prom.CacheMisses.WithLabelValues(observability.CacheKeyClass(key)).Inc()
	}
}
