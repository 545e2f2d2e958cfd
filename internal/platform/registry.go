package platform

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Func is a single adapter operation. Args carry the operation-specific
// members of the invocation envelope; the result is the operation's JSON
// object.
type Func func(ctx context.Context, cfg *Config, args map[string]interface{}) (map[string]interface{}, error)

// Adapter is a locally loaded platform module: a named set of operation
// functions addressed by a slug string.
type Adapter interface {
	Slug() string
	Lookup(operation string) (Func, bool)
}

// Registry maps adapter slugs to their implementations. Slugs are registered
// at startup; platform records referencing unknown slugs are rejected at save
// time rather than at call time.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under its slug
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Slug()] = a
}

// Get returns the adapter registered under slug
func (r *Registry) Get(slug string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[slug]
	return a, ok
}

// Slugs returns the registered adapter slugs
func (r *Registry) Slugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slugs := make([]string, 0, len(r.adapters))
	for slug := range r.adapters {
		slugs = append(slugs, slug)
	}
	return slugs
}

// ValidateOperations checks every configured operation string eagerly: a
// non-URL string must name a registered adapter slug that exports the
// operation. Returns the first problem found.
func (r *Registry) ValidateOperations(operations map[string]string) error {
	for name, impl := range operations {
		if impl == "" || IsEndpointURL(impl) {
			continue
		}
		adapter, ok := r.Get(impl)
		if !ok {
			return fmt.Errorf("unknown adapter slug %q for operation %s", impl, name)
		}
		if _, ok := adapter.Lookup(name); !ok {
			return fmt.Errorf("adapter %q does not implement operation %s", impl, name)
		}
	}
	return nil
}

// IsEndpointURL reports whether an operation implementation string addresses
// a remote HTTP adapter rather than a local module slug.
func IsEndpointURL(impl string) bool {
	return strings.HasPrefix(impl, "http://") || strings.HasPrefix(impl, "https://")
}
