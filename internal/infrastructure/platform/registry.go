package platform

import (
	"fmt"

	"github.com/orderbridge/backend/internal/domain/sync"
)

// Registry holds the configured platform adapters keyed by platform code
type Registry struct {
	adapters map[sync.PlatformCode]sync.PlatformAdapter
}

// NewRegistry creates a registry from the given adapters
func NewRegistry(adapters ...sync.PlatformAdapter) *Registry {
	r := &Registry{
		adapters: make(map[sync.PlatformCode]sync.PlatformAdapter, len(adapters)),
	}
	for _, adapter := range adapters {
		r.adapters[adapter.PlatformCode()] = adapter
	}
	return r
}

// Adapter returns the adapter for the given platform code
func (r *Registry) Adapter(code sync.PlatformCode) (sync.PlatformAdapter, error) {
	adapter, ok := r.adapters[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", sync.ErrPlatformNotConfigured, code)
	}
	return adapter, nil
}

// Ensure Registry implements AdapterRegistry
var _ sync.AdapterRegistry = (*Registry)(nil)
