package treecache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fekuna/marketplace-listing-service/internal/category"
	"github.com/fekuna/marketplace-listing-service/internal/model"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/cache"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKey = "categories:tree"

// Redis shares one snapshot across instances so an eviction on any instance is
// seen by all. Redis failures degrade to a cache miss.
type Redis struct {
	client *cache.RedisClient
	ttl    time.Duration
	logger logger.ZapLogger
}

func NewRedis(client *cache.RedisClient, ttl time.Duration, log logger.ZapLogger) *Redis {
	return &Redis{client: client, ttl: ttl, logger: log}
}

func (r *Redis) Get(ctx context.Context) (*category.Tree, bool) {
	val, err := r.client.Client.Get(ctx, redisKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("failed to read category tree cache", zap.Error(err))
		}
		return nil, false
	}

	var categories []model.Category
	if err := json.Unmarshal(val, &categories); err != nil {
		r.logger.Warn("corrupt category tree cache entry", zap.Error(err))
		return nil, false
	}
	return category.NewTree(categories), true
}

func (r *Redis) Set(ctx context.Context, tree *category.Tree) {
	data, err := json.Marshal(tree.Categories())
	if err != nil {
		r.logger.Error("failed to encode category tree", zap.Error(err))
		return
	}
	if err := r.client.Client.Set(ctx, redisKey, data, r.ttl).Err(); err != nil {
		r.logger.Warn("failed to write category tree cache", zap.Error(err))
	}
}

func (r *Redis) Invalidate(ctx context.Context) {
	if err := r.client.Client.Del(ctx, redisKey).Err(); err != nil {
		r.logger.Error("failed to evict category tree cache", zap.Error(err))
	}
}
