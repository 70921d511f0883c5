package cfgkind

import (
	"fmt"
	"sync"
)

// Registry holds the known kinds keyed by name and extension.
type Registry struct {
	mu    sync.RWMutex
	kinds []*Kind
	byExt map[string]*Kind
}

// NewRegistry creates a registry populated with kinds. It panics on an
// invalid or duplicate kind.
func NewRegistry(kinds ...*Kind) *Registry {
	r := &Registry{byExt: make(map[string]*Kind)}
	for _, k := range kinds {
		if err := r.Register(k); err != nil {
			panic(err)
		}
	}

	return r
}

// Register adds a kind.
func (r *Registry) Register(k *Kind) error {
	if k == nil || k.Name == "" || k.Ext == "" {
		return ErrInvalidKind
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byExt[k.Ext]; exists {
		return fmt.Errorf("%w: extension %s", ErrDuplicateKind, k.Ext)
	}

	for _, existing := range r.kinds {
		if existing.Name == k.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateKind, k.Name)
		}
	}

	r.kinds = append(r.kinds, k)
	r.byExt[k.Ext] = k

	return nil
}

// ForPath returns the kind whose extension path carries.
func (r *Registry) ForPath(path string) (*Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, k := range r.kinds {
		if k.Matches(path) {
			return k, true
		}
	}

	return nil, false
}

// Lookup returns the kind registered under name.
func (r *Registry) Lookup(name Name) (*Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, k := range r.kinds {
		if k.Name == name {
			return k, true
		}
	}

	return nil, false
}

// All returns the kinds in registration order.
func (r *Registry) All() []*Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Kind, len(r.kinds))
	copy(out, r.kinds)

	return out
}

// Patterns returns one recursive glob per kind.
func (r *Registry) Patterns() []string {
	kinds := r.All()

	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, k.Pattern())
	}

	return out
}

// IsConfig reports whether path belongs to a registered kind.
func (r *Registry) IsConfig(path string) bool {
	_, ok := r.ForPath(path)
	return ok
}

// IsArtifact reports whether any kind treats path as a base model or a product.
func (r *Registry) IsArtifact(path string) bool {
	for _, k := range r.All() {
		if k.BaseModels.Accepts(path) || k.Products.Accepts(path) {
			return true
		}
	}

	return false
}

//nolint:gochecknoglobals // Built-in kinds are shared read-mostly state
var defaultRegistry = NewRegistry(Standard(), EdgeCompile())

// Default returns the registry holding the built-in kinds.
func Default() *Registry {
	return defaultRegistry
}
