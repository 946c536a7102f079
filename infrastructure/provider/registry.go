// Package provider holds the Git hosting implementations behind the
// domain.Host interface and a registry to construct them by name.
package provider

import (
	"fmt"

	"github.com/tagdelta/tagdelta/domain"
)

// Factory is a constructor that creates a Host from a credential and an
// optional enterprise base URL.
type Factory func(token, baseURL string) (domain.Host, error)

// Registry manages all registered hosting-service implementations.
type Registry struct {
	hosts map[string]Factory
}

// NewRegistry creates an empty host registry.
func NewRegistry() *Registry {
	return &Registry{
		hosts: make(map[string]Factory),
	}
}

// Register adds a host factory under the given name (e.g. "github").
func (r *Registry) Register(name string, factory Factory) {
	r.hosts[name] = factory
}

// Get returns a configured host instance for the given name.
func (r *Registry) Get(name, token, baseURL string) (domain.Host, error) {
	factory, ok := r.hosts[name]
	if !ok {
		return nil, fmt.Errorf("unknown host type: %q", name)
	}
	return factory(token, baseURL)
}

// Names returns the list of registered host names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.hosts))
	for name := range r.hosts {
		names = append(names, name)
	}
	return names
}
