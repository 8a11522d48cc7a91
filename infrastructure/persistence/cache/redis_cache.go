package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"causaldiscovery/application/ports"
	"causaldiscovery/domain/causal"
	pkgerrors "causaldiscovery/pkg/errors"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisStore is the subset of the go-redis client the cache needs
type redisStore interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
}

// RedisPathCache stores path lists as JSON in Redis, shared across instances
type RedisPathCache struct {
	rdb    redisStore
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// RedisConfig configures the Redis tier
type RedisConfig struct {
	Addr      string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// NewRedisClient dials and pings Redis
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*goredis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewRedisPathCache wraps a connected client
func NewRedisPathCache(rdb redisStore, cfg RedisConfig, logger *zap.Logger) *RedisPathCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &RedisPathCache{
		rdb:    rdb,
		prefix: cfg.KeyPrefix,
		ttl:    cfg.TTL,
		logger: logger.With(zap.String("cache", "redis")),
	}
}

// Get returns the cached paths; redis.Nil is a miss
func (c *RedisPathCache) Get(ctx context.Context, key ports.CacheKey) ([]causal.Path, bool, error) {
	raw, err := c.rdb.Get(ctx, c.prefix+key.String()).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pkgerrors.NewCacheError("redis get", err)
	}

	var paths []causal.Path
	if err := json.Unmarshal(raw, &paths); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", zap.String("key", key.String()), zap.Error(err))
		return nil, false, nil
	}
	return paths, true, nil
}

// Set stores paths with the configured TTL
func (c *RedisPathCache) Set(ctx context.Context, key ports.CacheKey, paths []causal.Path) error {
	if paths == nil {
		paths = []causal.Path{}
	}
	raw, err := json.Marshal(paths)
	if err != nil {
		return pkgerrors.NewCacheError("encode paths", err)
	}
	if err := c.rdb.Set(ctx, c.prefix+key.String(), raw, c.ttl).Err(); err != nil {
		return pkgerrors.NewCacheError("redis set", err)
	}
	return nil
}
