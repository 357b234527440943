package ecs

import (
	"hash/fnv"
	"reflect"
)

// MaxComponentTypes bounds the number of distinct component types a single
// world can register. Each registered type claims one bit in the signature
// masks used for archetype lookup.
const MaxComponentTypes = 64

// ComponentTypeID is a stable identifier for a component type. It is derived
// from the type itself, so the same Go type yields the same ID in every world.
type ComponentTypeID uint64

// TypeID returns the ComponentTypeID for T.
func TypeID[T any]() ComponentTypeID {
	return typeIDOf(reflect.TypeFor[T]())
}

func typeIDOf(t reflect.Type) ComponentTypeID {
	h := fnv.New64a()
	h.Write([]byte(t.PkgPath()))
	h.Write([]byte("."))
	h.Write([]byte(t.String()))
	return ComponentTypeID(h.Sum64())
}

// ComponentMetadata describes one registered component type. Populated once at
// registration and immutable afterwards.
type ComponentMetadata struct {
	Type      reflect.Type
	ID        ComponentTypeID
	Bit       uint32
	Size      uintptr
	Alignment uintptr
}

// Registry maps component type IDs to their metadata. Every world owns one;
// chunks consult it to compute column layout.
type Registry struct {
	byID   map[ComponentTypeID]*ComponentMetadata
	byType map[reflect.Type]*ComponentMetadata
}

// NewRegistry returns an empty component registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[ComponentTypeID]*ComponentMetadata),
		byType: make(map[reflect.Type]*ComponentMetadata),
	}
}

// Register records metadata for T. Registration is idempotent: the first call
// stores size, alignment, and a bit index; later calls return the existing
// entry.
func Register[T any](r *Registry) (*ComponentMetadata, error) {
	return r.register(reflect.TypeFor[T]())
}

func (r *Registry) register(t reflect.Type) (*ComponentMetadata, error) {
	if meta, ok := r.byType[t]; ok {
		return meta, nil
	}
	if len(r.byID) >= MaxComponentTypes {
		return nil, ComponentLimitError{Type: t}
	}
	meta := &ComponentMetadata{
		Type:      t,
		ID:        typeIDOf(t),
		Bit:       uint32(len(r.byID)),
		Size:      t.Size(),
		Alignment: uintptr(t.Align()),
	}
	r.byID[meta.ID] = meta
	r.byType[t] = meta
	return meta, nil
}

// Metadata returns the metadata for a registered type ID, or nil. Callers that
// require the type to exist (chunk layout) treat nil as fatal
// misconfiguration, not a retryable error.
func (r *Registry) Metadata(id ComponentTypeID) *ComponentMetadata {
	return r.byID[id]
}

// Count returns the number of registered component types.
func (r *Registry) Count() int {
	return len(r.byID)
}
