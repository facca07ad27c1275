package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"glutenfree/internal/model"
)

const defaultCacheTTL = 30 * time.Minute

// RedisCache keeps recently looked-up products under "ean:<code>".
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func (c *RedisCache) key(ean string) string {
	return "ean:" + ean
}

// Get returns nil, nil on a miss.
func (c *RedisCache) Get(ctx context.Context, ean string) (*model.Product, error) {
	val, err := c.Client.Get(ctx, c.key(ean)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p model.Product
	if err := json.Unmarshal(val, &p); err != nil {
		// Stale or foreign value; drop it and treat as a miss.
		c.Client.Del(ctx, c.key(ean))
		return nil, nil
	}
	return &p, nil
}

func (c *RedisCache) Set(ctx context.Context, ean string, p *model.Product) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return c.Client.Set(ctx, c.key(ean), b, ttl).Err()
}
