package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const versionKey = "dashboard:version"

// Cache fronts the aggregate queries with a short-TTL Redis cache. A version
// counter bumped on change signals makes old entries unreachable instead of
// deleting them; concurrent misses for the same key collapse into one
// recomputation via singleflight.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache constructs a Cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Key builds a versioned cache key for a date window.
func (c *Cache) Key(ctx context.Context, from, to time.Time) string {
	version, err := c.client.Get(ctx, versionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		version = 0
	}
	return fmt.Sprintf("dashboard:v%d:%s:%s", version, from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// Fetch returns the cached overview for key, computing and storing it on a
// miss.
func (c *Cache) Fetch(ctx context.Context, key string, compute func(ctx context.Context) (Overview, error)) (Overview, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached Overview
		if err := json.Unmarshal(payload, &cached); err == nil {
			return cached, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return Overview{}, err
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		overview, err := compute(ctx)
		if err != nil {
			return Overview{}, err
		}
		data, err := json.Marshal(overview)
		if err != nil {
			return Overview{}, err
		}
		// A failed write just means the next read recomputes.
		_ = c.client.Set(ctx, key, data, c.ttl).Err()
		return overview, nil
	})
	if err != nil {
		return Overview{}, err
	}
	return result.(Overview), nil
}

// Bump invalidates every cached window by advancing the version counter.
func (c *Cache) Bump(ctx context.Context) error {
	return c.client.Incr(ctx, versionKey).Err()
}
