package component

import (
	"slices"

	"github.com/go-drift/shadowtree/pkg/errors"
)

// Registry maps component names to descriptors. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	byName map[string]Descriptor
}

// NewRegistry builds a registry from descriptors. Duplicate or empty names
// are rejected.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if d == nil {
			return nil, errors.New("component.NewRegistry", errors.KindInvalidArgument, "nil descriptor")
		}
		name := d.Name()
		if name == "" {
			return nil, errors.New("component.NewRegistry", errors.KindInvalidArgument, "descriptor with empty name")
		}
		if _, dup := r.byName[name]; dup {
			return nil, errors.New("component.NewRegistry", errors.KindInvalidArgument, "duplicate descriptor %q", name)
		}
		r.byName[name] = d
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error.
func MustRegistry(descriptors ...Descriptor) *Registry {
	r, err := NewRegistry(descriptors...)
	if err != nil {
		panic(err)
	}
	return r
}

// At returns the descriptor for name. Unknown names fail with an error
// matching errors.ErrComponentNotFound.
func (r *Registry) At(name string) (Descriptor, error) {
	if d, ok := r.byName[name]; ok {
		return d, nil
	}
	return nil, errors.New("component.Registry.At", errors.KindComponentNotFound, "%q", name)
}

// Names returns the registered component names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
