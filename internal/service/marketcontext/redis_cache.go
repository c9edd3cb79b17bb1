package marketcontext

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/krobus00/execution-simulator/internal/entity"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*entity.MarketContext, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var mc entity.MarketContext
	if err := json.Unmarshal(raw, &mc); err != nil {
		return nil, false, err
	}

	return &mc, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value *entity.MarketContext, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, payload, ttl).Err()
}
