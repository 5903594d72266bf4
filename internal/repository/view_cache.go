package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chat-analysis-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// ViewCache 缓存视图计算结果。dataKey 由数据指纹与计算参数摘要组成，任一变化后旧条目自然失效。
type ViewCache interface {
	Get(ctx context.Context, dataKey, view string) (*model.ViewResult, bool, error)
	Set(ctx context.Context, dataKey, view string, res *model.ViewResult) error
}

type redisViewCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewViewCache 创建一个基于 Redis 的 ViewCache 实例。
func NewViewCache(redisClient *redis.Client, ttl time.Duration) ViewCache {
	return &redisViewCache{redisClient: redisClient, ttl: ttl}
}

func viewKey(dataKey, view string) string {
	return fmt.Sprintf("view:%s:%s", dataKey, view)
}

// Get 读取缓存，未命中时返回 false。
func (c *redisViewCache) Get(ctx context.Context, dataKey, view string) (*model.ViewResult, bool, error) {
	data, err := c.redisClient.Get(ctx, viewKey(dataKey, view)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached view: %w", err)
	}
	var res model.ViewResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached view: %w", err)
	}
	return &res, true, nil
}

// Set 写入缓存。
func (c *redisViewCache) Set(ctx context.Context, dataKey, view string, res *model.ViewResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal view: %w", err)
	}
	if err := c.redisClient.Set(ctx, viewKey(dataKey, view), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache view: %w", err)
	}
	return nil
}
