package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	cacheVersionKey = "products:version"
	cachePrefix     = "products"
)

// Cache is a versioned read-through cache for product reads. A nil client
// turns every read into a direct repository call.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Bump invalidates every cached read.
func (c *Cache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}

func (c *Cache) key(ctx context.Context, parts ...string) (string, error) {
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:%d", cachePrefix, strings.Join(parts, ":"), ver), nil
}

// fetch loads key from Redis or fills it with loader. Concurrent misses on
// the same key share one loader call. Redis failures fall back to loader.
func fetch[T any](ctx context.Context, c *Cache, loader func(context.Context) (T, error), parts ...string) (T, error) {
	if !c.enabled() {
		return loader(ctx)
	}
	key, err := c.key(ctx, parts...)
	if err != nil {
		return loader(ctx)
	}

	var out T
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil && json.Unmarshal(payload, &out) == nil {
		return out, nil
	}

	// Waiters share the fill; it ignores the first caller's cancellation.
	fillCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		value, err := loader(fillCtx)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(value); err == nil {
			_ = c.client.Set(fillCtx, key, raw, c.ttl).Err()
		}
		return value, nil
	})
	if err != nil {
		return out, err
	}
	return v.(T), nil
}

func keyAll() []string { return []string{"all"} }

func keyCount() []string { return []string{"count"} }

func keyCategory(categoryID string) []string { return []string{"category", categoryID} }

func keyProduct(id string) []string { return []string{"id", id} }

func keyPage(filter ListFilter) []string {
	return []string{"page", strconv.Itoa(filter.Skip), strconv.Itoa(filter.Limit)}
}
