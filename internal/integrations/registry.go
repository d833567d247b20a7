package integrations

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

var ErrUnknownIntegration = errors.New("unknown integration")

type Registry struct {
	clients map[string]Client
	cache   *ItemsCache
}

func NewRegistry(itemsCache *ItemsCache, clients ...Client) *Registry {
	registry := &Registry{clients: make(map[string]Client, len(clients)), cache: itemsCache}
	for _, client := range clients {
		registry.clients[client.Type()] = client
	}

	return registry
}

func (r *Registry) Get(integration string) (Client, error) {
	client, ok := r.clients[integration]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIntegration, integration)
	}

	return client, nil
}

// Types of the configured clients, sorted
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.clients))
	for t := range r.clients {
		out = append(out, t)
	}
	slices.Sort(out)

	return out
}

// Drops every cached list of one integration
func (r *Registry) ClearCache(ctx context.Context, integration string) error {
	client, err := r.Get(integration)
	if err != nil {
		return err
	}

	return r.cache.Clear(ctx, client.CacheKeys()...)
}
