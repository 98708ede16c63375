package carrier

import (
	"fmt"
	"sync"
)

// Registry holds the closed set of enabled carrier adapters. Carriers are
// wired at startup from a compile-time factory list; there is no runtime
// class resolution. Iteration order is registration order, which the
// gateway relies on for deterministic merges.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	carriers map[string]Carrier
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{carriers: make(map[string]Carrier)}
}

// Register adds a carrier. Re-registering a name replaces the instance but
// keeps its original position.
func (r *Registry) Register(c Carrier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := c.Name()
	if _, ok := r.carriers[name]; !ok {
		r.order = append(r.order, name)
	}
	r.carriers[name] = c
}

// Get returns a carrier by name.
func (r *Registry) Get(name string) (Carrier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.carriers[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrCarrierNotFound, name)
}

// All returns the carriers in registration order.
func (r *Registry) All() []Carrier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Carrier, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.carriers[name])
	}
	return result
}

// Names returns the carrier names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Count returns the number of registered carriers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
