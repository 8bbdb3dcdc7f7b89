package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/shopcart/internal/logging"
	"github.com/Skotchmaster/shopcart/internal/models"
)

const DefaultCacheTTL = time.Minute

// Cache is a read-through Redis layer in front of another catalog.
// Only found items are cached and Redis failures fall back to the backend.
type Cache struct {
	Next  Catalog
	Redis redis.Cmdable
	TTL   time.Duration
}

func NewCache(next Catalog, client redis.Cmdable, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{Next: next, Redis: client, TTL: ttl}
}

func CacheKey(itemType models.ItemType, itemID string) string {
	return fmt.Sprintf("catalog:%s:%s", itemType, itemID)
}

func (c *Cache) Lookup(ctx context.Context, itemType models.ItemType, itemID string) (*models.CatalogItem, error) {
	l := logging.FromContext(ctx).With("component", "catalog_cache")
	key := CacheKey(itemType, itemID)

	raw, err := c.Redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var item models.CatalogItem
		uErr := json.Unmarshal(raw, &item)
		if uErr == nil {
			return &item, nil
		}
		l.Warn("cache_decode_error", "key", key, "error", uErr)
	case !errors.Is(err, redis.Nil):
		l.Warn("cache_get_error", "key", key, "error", err)
	}

	item, err := c.Next.Lookup(ctx, itemType, itemID)
	if err != nil {
		return nil, err
	}

	if data, mErr := json.Marshal(item); mErr == nil {
		if sErr := c.Redis.Set(ctx, key, data, c.TTL).Err(); sErr != nil {
			l.Warn("cache_set_error", "key", key, "error", sErr)
		}
	}
	return item, nil
}

func (c *Cache) DecrementStock(ctx context.Context, itemType models.ItemType, itemID string, qty int) error {
	err := c.Next.DecrementStock(ctx, itemType, itemID, qty)

	key := CacheKey(itemType, itemID)
	if dErr := c.Redis.Del(ctx, key).Err(); dErr != nil {
		logging.FromContext(ctx).Warn("cache_invalidate_error", "key", key, "error", dErr)
	}
	return err
}
