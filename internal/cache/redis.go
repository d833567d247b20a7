package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ensure RedisStore implements Store interface.
var _ Store = (*RedisStore)(nil)

type RedisStore struct {
	db     *redis.Client
	prefix string
}

type RedisStoreConfig struct {
	RedisClient *redis.Client
	Prefix      string
}

func NewRedisStore(config RedisStoreConfig) *RedisStore {
	return &RedisStore{
		db:     config.RedisClient,
		prefix: config.Prefix,
	}
}

func (s *RedisStore) key(key string) string {
	if s.prefix == "" {
		return key
	}

	return s.prefix + "-" + key
}

func (s *RedisStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	ctx, span := tracer.Start(ctx, "RedisStore.Get", trace.WithAttributes(
		attribute.String("key", key),
	))
	defer span.End()

	raw, err := s.db.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		span.AddEvent("miss")
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "cache miss")
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read from redis")
		return false, err
	}

	err = json.Unmarshal(raw, dest)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode cached value")
		return false, fmt.Errorf("failed to decode cached value %s: %w", key, err)
	}

	span.AddEvent("hit")
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "cache hit")
	return true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "RedisStore.Set", trace.WithAttributes(
		attribute.String("key", key),
		attribute.String("ttl", ttl.String()),
	))
	defer span.End()

	raw, err := json.Marshal(value)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode value")
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	err = s.db.Set(ctx, s.key(key), raw, ttl).Err()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write to redis")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "stored value")
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	ctx, span := tracer.Start(ctx, "RedisStore.Delete", trace.WithAttributes(
		attribute.StringSlice("keys", keys),
	))
	defer span.End()

	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, 0, len(keys))
	for _, key := range keys {
		prefixed = append(prefixed, s.key(key))
	}

	err := s.db.Del(ctx, prefixed...).Err()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete from redis")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "deleted keys")
	return nil
}
