package ratelimit

import (
	"context"
	"time"

	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

var _ middleware.RateLimiterStore = (*RedisLimiterStore)(nil)

const window = time.Minute

// Fixed one minute window shared by every server instance
type RedisLimiterStore struct {
	db         redis.UniversalClient
	limiterKey string
	perMinute  int64
	failOpen   bool
}

type RedisLimiterConfig struct {
	RedisClient redis.UniversalClient
	LimiterKey  string
	PerMinute   int64
	// Allow requests when redis cannot be reached
	FailOpen bool
}

func NewRedisLimitStore(config RedisLimiterConfig) *RedisLimiterStore {
	return &RedisLimiterStore{
		perMinute:  config.PerMinute,
		db:         config.RedisClient,
		limiterKey: config.LimiterKey,
		failOpen:   config.FailOpen,
	}
}

func (store *RedisLimiterStore) key(identifier string) string {
	return "formbridge-ratelimit-" + store.limiterKey + "-" + identifier
}

func (store *RedisLimiterStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := store.key(identifier)

	var count *redis.IntCmd
	_, err := store.db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return store.failOpen, err
	}

	return count.Val() <= store.perMinute, nil
}
