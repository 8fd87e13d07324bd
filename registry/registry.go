// Package registry provides a reference in-memory implementation of the
// container lookup a stack deserializes against, plus loaders for the
// on-disk container formats: JSON definition documents and INI instance
// profiles.
package registry

import (
	"sync"

	settings "github.com/goliatone/go-settings-stack"
)

// Registry is an ordered in-memory container store satisfying
// settings.ContainerLookup. Lookup returns the first match in insertion
// order.
type Registry struct {
	mu         sync.RWMutex
	containers []settings.Container
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{}
}

// Add registers a container. Duplicate ids are allowed; earlier entries win
// lookups.
func (r *Registry) Add(container settings.Container) {
	if container == nil {
		return
	}
	r.mu.Lock()
	r.containers = append(r.containers, container)
	r.mu.Unlock()
}

// Len returns the number of registered containers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.containers)
}

// FindContainer returns the first container matching the query, or nil.
func (r *Registry) FindContainer(query settings.ContainerQuery) settings.Container {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, container := range r.containers {
		if query.Matches(container) {
			return container
		}
	}
	return nil
}

// FindContainers returns every container registered under id.
func (r *Registry) FindContainers(id string) []settings.Container {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []settings.Container
	for _, container := range r.containers {
		if container.ID() == id {
			out = append(out, container)
		}
	}
	return out
}
