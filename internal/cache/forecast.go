package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/config"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/forecast"
)

const forecastKeyPrefix = "forecast:result"

// ForecastCache memoizes fitted forecasts per item and horizon so repeated
// views of the same item do not refit or redraw its history.
type ForecastCache interface {
	GetForecast(ctx context.Context, itemID int64, horizon int) (*forecast.Result, bool, error)
	SetForecast(ctx context.Context, itemID int64, horizon int, result *forecast.Result) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, err := connectRedis(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{
		client: client,
		ttl:    ttlOrDefault(cfg.ForecastTTLSeconds, defaultForecastTTL),
	}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) GetForecast(ctx context.Context, itemID int64, horizon int) (*forecast.Result, bool, error) {
	payload, err := c.client.Get(ctx, buildForecastKey(itemID, horizon)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result forecast.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}

	return &result, true, nil
}

func (c *redisForecastCache) SetForecast(ctx context.Context, itemID int64, horizon int, result *forecast.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}

	if err := c.client.Set(ctx, buildForecastKey(itemID, horizon), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return unlinkPrefix(ctx, c.client, forecastKeyPrefix)
}

func (n *noopForecastCache) GetForecast(ctx context.Context, itemID int64, horizon int) (*forecast.Result, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetForecast(ctx context.Context, itemID int64, horizon int, result *forecast.Result) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildForecastKey(itemID int64, horizon int) string {
	return fmt.Sprintf("%s:%d:h%d", forecastKeyPrefix, itemID, horizon)
}
