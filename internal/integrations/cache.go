package integrations

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/formbridge/formbridge/internal/cache"
	"github.com/formbridge/formbridge/internal/logger"
)

// Lists a client keeps cached between requests
type Cacheable interface {
	~map[string]Item | ~[]string
}

type ItemsCache struct {
	store cache.Store
	ttl   time.Duration
	// Always refetch. Writes still happen.
	skip bool
	// Concurrent misses of one key share a single vendor call
	loads singleflight.Group
}

func NewItemsCache(store cache.Store, ttl time.Duration, skip bool) *ItemsCache {
	return &ItemsCache{store: store, ttl: ttl, skip: skip}
}

func (c *ItemsCache) Clear(ctx context.Context, keys ...string) error {
	return c.store.Delete(ctx, keys...)
}

// Reads key, calling load on a miss. Only non empty results are written back.
// A load error yields an empty result and no write.
func Cached[T Cacheable](
	ctx context.Context,
	c *ItemsCache,
	key string,
	load func(context.Context) (T, error),
) T {
	ctx, span := tracer.Start(ctx, "Cached", trace.WithAttributes(
		attribute.String("key", key),
	))
	defer span.End()

	var out T

	if !c.skip {
		found, err := c.store.Get(ctx, key, &out)
		if err != nil {
			// a broken cache degrades to a remote read
			logger.Logger.WarnContext(ctx, "failed to read cache", "key", key, "error", err)
			span.AddEvent("cache read failed")
		}
		if found && len(out) > 0 {
			span.AddEvent("hit")
			span.RecordError(nil)
			span.SetStatus(codes.Ok, "served from cache")
			return out
		}
	}

	loaded, err, shared := c.loads.Do(key, func() (any, error) {
		return load(ctx)
	})
	if shared {
		span.AddEvent("shared load")
	}
	if err != nil {
		logger.Logger.ErrorContext(ctx, "failed to load integration data", "key", key, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load integration data")
		var empty T
		return empty
	}

	out, _ = loaded.(T)
	if len(out) == 0 {
		span.AddEvent("empty result not cached")
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "nothing to cache")
		return out
	}

	if err := c.store.Set(ctx, key, out, c.ttl); err != nil {
		logger.Logger.WarnContext(ctx, "failed to write cache", "key", key, "error", err)
		span.AddEvent("cache write failed")
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "loaded from vendor")
	return out
}
