package attrskema

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Registry holds the structural capability of a backend and the primitive
// capabilities registered for it. Compile validates every primitive a schema
// references against it, so a missing capability fails at construction.
//
// A Registry is safe for concurrent use. Registering after codecs have been
// compiled does not affect those codecs.
type Registry struct {
	structure Structure

	mu    sync.RWMutex
	prims map[reflect.Type]Primitive
}

// NewRegistry returns a registry for the given structure and primitives.
// Registering two capabilities for the same type is an error.
func NewRegistry(structure Structure, prims ...Primitive) (*Registry, error) {
	if structure == nil {
		return nil, errors.New("attrskema: registry requires a Structure")
	}
	r := &Registry{structure: structure, prims: make(map[reflect.Type]Primitive, len(prims))}
	for _, p := range prims {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a primitive capability.
func (r *Registry) Register(p Primitive) error {
	if !p.valid() {
		return errors.New("attrskema: invalid primitive capability (use PrimitiveOf)")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.prims[p.goType]; dup {
		return fmt.Errorf("attrskema: primitive %s already registered", p.goType)
	}
	r.prims[p.goType] = p
	return nil
}

// Lookup returns the capability registered for t.
func (r *Registry) Lookup(t reflect.Type) (Primitive, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.prims[t]
	return p, ok
}

// Structure returns the structural capability.
func (r *Registry) Structure() Structure { return r.structure }

// Types lists registered primitive types, sorted by name.
func (r *Registry) Types() []reflect.Type {
	r.mu.RLock()
	out := make([]reflect.Type, 0, len(r.prims))
	for t := range r.prims {
		out = append(out, t)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
