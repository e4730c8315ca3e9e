package sources

import (
	"sort"

	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/logger"
)

// Registry holds the known provider adapters by name.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a registry with every supported provider.
func NewRegistry(log *logger.Logger) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	r.Register(newApolloAdapter(log))
	r.Register(newCrunchbaseAdapter(log))
	r.Register(newClearbitAdapter(log))
	r.Register(newHunterAdapter(log))
	r.Register(newDemoAdapter(log, "demo1"))
	r.Register(newDemoAdapter(log, "demo2"))
	r.Register(newDemoAdapter(log, "demo3"))
	return r
}

// Register adds or replaces an adapter.
func (r *Registry) Register(adapter Adapter) {
	r.adapters[adapter.Name()] = adapter
}

// Get returns the adapter for a provider name.
func (r *Registry) Get(name string) (Adapter, error) {
	adapter, ok := r.adapters[name]
	if !ok {
		return nil, apperr.Validation("unknown provider: " + name)
	}
	return adapter, nil
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
