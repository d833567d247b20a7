package cache

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/formbridge/formbridge/internal/cache")

var ErrEncode = errors.New("failed to encode cache value")

// Time bounded key value store for integration item lists.
// Concurrent writers race, last one wins.
//
//go:generate mockgen -destination ./mock/mock.go -package mock . Store
type Store interface {
	// Decodes the cached value into dest. Reports false on a miss.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
