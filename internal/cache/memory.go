package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Ensure MemoryStore implements Store interface.
var _ Store = (*MemoryStore)(nil)

// Process local Store used when no redis is configured and in tests.
// Values are stored JSON encoded so callers see the same semantics as RedisStore.
// Expired entries are evicted in the background until Close.
type MemoryStore struct {
	items *ttlcache.Cache[string, []byte]
}

func NewMemoryStore() *MemoryStore {
	items := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go items.Start()

	return &MemoryStore{items: items}
}

// Stops background eviction
func (s *MemoryStore) Close() {
	s.items.Stop()
}

// Entries removed so far, expired or deleted
func (s *MemoryStore) Evictions() uint64 {
	return s.items.Metrics().Evictions
}

func (s *MemoryStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	_, span := tracer.Start(ctx, "MemoryStore.Get")
	defer span.End()

	item := s.items.Get(key)
	if item == nil {
		span.AddEvent("miss")
		return false, nil
	}

	if err := json.Unmarshal(item.Value(), dest); err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to decode cached value %s: %w", key, err)
	}

	span.AddEvent("hit")
	return true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	_, span := tracer.Start(ctx, "MemoryStore.Set")
	defer span.End()

	raw, err := json.Marshal(value)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	s.items.Set(key, raw, ttl)

	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	_, span := tracer.Start(ctx, "MemoryStore.Delete")
	defer span.End()

	for _, key := range keys {
		s.items.Delete(key)
	}

	return nil
}
