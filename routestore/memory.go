package routestore

import (
	"context"
	"sync"
)

// MemoryBackend keeps the table in process memory.
type MemoryBackend struct {
	mu     sync.RWMutex
	routes []Route
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend(seed ...Route) *MemoryBackend {
	return &MemoryBackend{routes: clone(seed)}
}

// Load returns a copy of the stored routes.
func (b *MemoryBackend) Load(_ context.Context) ([]Route, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return clone(b.routes), nil
}

// Save replaces the stored routes with a copy of routes.
func (b *MemoryBackend) Save(_ context.Context, routes []Route) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.routes = clone(routes)
	return nil
}

func clone(routes []Route) []Route {
	if len(routes) == 0 {
		return []Route{}
	}
	cp := make([]Route, len(routes))
	copy(cp, routes)
	return cp
}
