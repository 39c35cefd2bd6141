// Package cache serves previously computed decision results for
// identical requests, keyed by request digest. It layers a local LRU in
// front of an optional shared redis tier.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/decisionflow/decision"
)

const redisKeyPrefix = "decisionflow:result:"

// Config tunes the result cache tiers.
type Config struct {
	LocalMaxSize int           `json:"local_max_size" yaml:"local_max_size"`
	LocalTTL     time.Duration `json:"local_ttl" yaml:"local_ttl"`
	RedisTTL     time.Duration `json:"redis_ttl" yaml:"redis_ttl"`
}

// DefaultConfig returns cache defaults.
func DefaultConfig() Config {
	return Config{
		LocalMaxSize: 512,
		LocalTTL:     5 * time.Minute,
		RedisTTL:     time.Hour,
	}
}

// ResultCache implements decision.ResultCache. A nil redis client yields
// a purely local cache. Redis failures degrade to local-only: a shared
// tier outage never fails a decide call.
type ResultCache struct {
	config Config
	local  *lruCache
	redis  *redis.Client
	logger *zap.Logger
}

// New creates a result cache. rdb may be nil for local-only caching.
func New(config Config, rdb *redis.Client, logger *zap.Logger) *ResultCache {
	def := DefaultConfig()
	if config.LocalMaxSize <= 0 {
		config.LocalMaxSize = def.LocalMaxSize
	}
	if config.LocalTTL <= 0 {
		config.LocalTTL = def.LocalTTL
	}
	if config.RedisTTL <= 0 {
		config.RedisTTL = def.RedisTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultCache{
		config: config,
		local:  newLRUCache(config.LocalMaxSize, config.LocalTTL),
		redis:  rdb,
		logger: logger.With(zap.String("component", "result_cache")),
	}
}

// Get returns the cached result for a digest, checking local then redis.
// A redis hit is promoted into the local tier.
func (c *ResultCache) Get(ctx context.Context, digest string) (*decision.Result, bool) {
	if data, ok := c.local.Get(digest); ok {
		if result := unmarshalResult(data); result != nil {
			return result, true
		}
	}

	if c.redis == nil {
		return nil, false
	}

	data, err := c.redis.Get(ctx, redisKeyPrefix+digest).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("redis get failed", zap.Error(err))
		}
		return nil, false
	}
	result := unmarshalResult(data)
	if result == nil {
		return nil, false
	}
	c.local.Set(digest, data)
	return result, true
}

// Set stores a result in every configured tier.
func (c *ResultCache) Set(ctx context.Context, digest string, result *decision.Result) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("marshal result failed", zap.Error(err))
		return
	}

	c.local.Set(digest, data)

	if c.redis != nil {
		if err := c.redis.Set(ctx, redisKeyPrefix+digest, data, c.config.RedisTTL).Err(); err != nil {
			c.logger.Warn("redis set failed", zap.Error(err))
		}
	}
}

func unmarshalResult(data []byte) *decision.Result {
	var result decision.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return &result
}
