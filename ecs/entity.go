package ecs

import (
	"reflect"
	"unsafe"
)

// Add attaches a component value to an entity, migrating it to the archetype
// for its current signature plus T. Fails with ComponentExistsError when the
// entity already holds T; the existing value is left unchanged.
func Add[T any](w *World, e Entity, value T) error {
	if err := w.Validate(e); err != nil {
		return err
	}
	meta, err := w.registry.register(reflect.TypeFor[T]())
	if err != nil {
		return err
	}

	rec := &w.records[e.Index]
	var sig Signature
	if rec.archetype != nil {
		sig = rec.archetype.Signature()
		if sig.contains(meta.ID) {
			return ComponentExistsError{Type: meta.Type}
		}
	}

	dst := w.getOrCreateArchetype(sig.with(meta))
	w.moveEntity(e, dst)

	// Migration leaves the new column slot undefined; assign it now.
	ptr := rec.chunk.componentPtr(meta.ID, rec.slot)
	if ptr != nil {
		*(*T)(ptr) = value
	}
	return nil
}

// Remove detaches T from an entity, migrating it to the archetype for its
// current signature minus T. Fails with ComponentNotFoundError when the entity
// does not hold T.
func Remove[T any](w *World, e Entity) error {
	if err := w.Validate(e); err != nil {
		return err
	}
	meta, err := w.registry.register(reflect.TypeFor[T]())
	if err != nil {
		return err
	}

	rec := &w.records[e.Index]
	if rec.archetype == nil || !rec.archetype.Signature().contains(meta.ID) {
		return ComponentNotFoundError{Type: meta.Type}
	}

	dst := w.getOrCreateArchetype(rec.archetype.Signature().without(meta))
	w.moveEntity(e, dst)
	return nil
}

// Get returns a pointer with mutation rights into chunk storage. The pointer
// is valid until the next structural mutation of that entity.
func Get[T any](w *World, e Entity) (*T, error) {
	if err := w.Validate(e); err != nil {
		return nil, err
	}
	rec := &w.records[e.Index]
	if rec.chunk == nil {
		return nil, ComponentNotFoundError{Type: reflect.TypeFor[T]()}
	}
	ptr := rec.chunk.componentPtr(TypeID[T](), rec.slot)
	if ptr == nil {
		return nil, ComponentNotFoundError{Type: reflect.TypeFor[T]()}
	}
	return (*T)(ptr), nil
}

// Has reports whether a live entity holds T. Pure and failure-free.
func Has[T any](w *World, e Entity) bool {
	if !w.IsAlive(e) {
		return false
	}
	rec := &w.records[e.Index]
	if rec.archetype == nil {
		return false
	}
	return rec.archetype.Signature().contains(TypeID[T]())
}

// copyComponent copies size bytes of component data between chunk slots.
func copyComponent(dst, src unsafe.Pointer, size uintptr) {
	copy(unsafe.Slice((*byte)(dst), size), unsafe.Slice((*byte)(src), size))
}
