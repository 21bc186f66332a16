// Package adapters wires voice provider factories by configured name.
package adapters

import (
	"strings"

	"github.com/smallbiznis/collecta/internal/voice/domain"
)

type Registry struct {
	factories map[string]domain.ProviderFactory
}

func NewRegistry(factories ...domain.ProviderFactory) *Registry {
	registry := &Registry{factories: make(map[string]domain.ProviderFactory, len(factories))}
	for _, factory := range factories {
		registry.factories[strings.ToLower(factory.Name())] = factory
	}
	return registry
}

// New builds the provider registered under name.
func (r *Registry) New(name string) (domain.Provider, error) {
	factory, ok := r.factories[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return factory.NewProvider()
}
