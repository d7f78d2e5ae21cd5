// Package cache provides a read-through cache for public product lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the product is not cached.
var ErrMiss = errors.New("cache miss")

// KeyProduct holds the JSON of one active product: product:{id}.
const KeyProduct = "product:%s"

// ProductCache is a best-effort read-through cache of active products. Writers
// invalidate after they commit, but a reader that loaded a product before that
// commit may still Set the old row afterwards. Such an entry can show stale stock
// or price until it expires, so it must never feed checkout, which always reads
// locked rows from the database.
type ProductCache interface {
	Get(ctx context.Context, id string) (*models.Product, error)
	Set(ctx context.Context, product *models.Product) error
	Invalidate(ctx context.Context, ids ...string) error
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (*models.Product, error) { return nil, ErrMiss }
func (Nop) Set(context.Context, *models.Product) error          { return nil }
func (Nop) Invalidate(context.Context, ...string) error          { return nil }

// RedisProductCache stores products as JSON strings with a fixed TTL.
type RedisProductCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisProductCache(rdb redis.UniversalClient, ttl time.Duration) *RedisProductCache {
	return &RedisProductCache{rdb: rdb, ttl: ttl}
}

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func (c *RedisProductCache) Get(ctx context.Context, id string) (*models.Product, error) {
	raw, err := c.rdb.Get(ctx, fmt.Sprintf(KeyProduct, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read product %s from cache: %w", id, err)
	}
	var product models.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		return nil, fmt.Errorf("failed to decode cached product %s: %w", id, err)
	}
	return &product, nil
}

func (c *RedisProductCache) Set(ctx context.Context, product *models.Product) error {
	raw, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to encode product %s: %w", product.ID, err)
	}
	if err := c.rdb.Set(ctx, fmt.Sprintf(KeyProduct, product.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache product %s: %w", product.ID, err)
	}
	return nil
}

func (c *RedisProductCache) Invalidate(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf(KeyProduct, id)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate products: %w", err)
	}
	return nil
}
