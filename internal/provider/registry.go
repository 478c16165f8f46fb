package provider

import (
	"fmt"

	"parsearena/internal/domain"
	"parsearena/internal/port"
)

// Registry is the static id-keyed set of provider adapters available to a
// deployment. It is constructed once at startup and read-only afterwards.
type Registry struct {
	providers map[domain.ProviderID]port.Provider
	order     []domain.ProviderID
}

// NewRegistry builds a registry from the given adapters. Registering the
// same id twice is a wiring bug and fails loudly.
func NewRegistry(adapters ...port.Provider) (*Registry, error) {
	r := &Registry{providers: make(map[domain.ProviderID]port.Provider, len(adapters))}
	for _, p := range adapters {
		id := p.ID()
		if _, dup := r.providers[id]; dup {
			return nil, fmt.Errorf("provider %q registered twice", id)
		}
		r.providers[id] = p
		r.order = append(r.order, id)
	}
	return r, nil
}

// Get returns the adapter for id.
func (r *Registry) Get(id domain.ProviderID) (port.Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

// IDs returns the registered provider ids in registration order.
func (r *Registry) IDs() []domain.ProviderID {
	out := make([]domain.ProviderID, len(r.order))
	copy(out, r.order)
	return out
}

// Resolve maps a selected provider list to adapters, rejecting unknown ids
// before anything is dispatched.
func (r *Registry) Resolve(ids []domain.ProviderID) ([]port.Provider, error) {
	out := make([]port.Provider, 0, len(ids))
	for _, id := range ids {
		p, ok := r.providers[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProvider, id)
		}
		out = append(out, p)
	}
	return out, nil
}
