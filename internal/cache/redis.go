package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avdeenkov/farewatch/config"
	"github.com/avdeenkov/farewatch/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache holds assembled result sets keyed by the query fingerprint, so
// repeated submissions of the same filter skip the store round-trips.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(cfg config.RedisConfig, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		ttl:    ttl,
	}
}

func (c *RedisCache) GetOneway(ctx context.Context, key string) ([]domain.PricedFare, error) {
	data, err := c.client.Get(ctx, resultsKey("oneway", key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var rows []domain.PricedFare
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *RedisCache) SetOneway(ctx context.Context, key string, rows []domain.PricedFare) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, resultsKey("oneway", key), payload, c.ttl).Err()
}

func (c *RedisCache) GetRoundtrip(ctx context.Context, key string) ([]domain.FarePair, error) {
	data, err := c.client.Get(ctx, resultsKey("roundtrip", key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var rows []domain.FarePair
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *RedisCache) SetRoundtrip(ctx context.Context, key string, rows []domain.FarePair) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, resultsKey("roundtrip", key), payload, c.ttl).Err()
}

func resultsKey(mode, fingerprint string) string {
	return fmt.Sprintf("cache:fares:%s:%s", mode, fingerprint)
}
