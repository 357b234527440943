package ecs

import (
	"slices"

	"github.com/TheBitDrifter/mask"
)

// Signature is a sorted, deduplicated set of component type IDs. It identifies
// exactly one archetype. The mask mirrors the ID set over registry bit indices
// and is the archetype-map key.
type Signature struct {
	ids []ComponentTypeID
	m   mask.Mask
}

func newSignature(metas ...*ComponentMetadata) Signature {
	var sig Signature
	for _, meta := range metas {
		sig = sig.with(meta)
	}
	return sig
}

// with returns a copy of the signature including meta. Adding a type already
// present is a no-op.
func (s Signature) with(meta *ComponentMetadata) Signature {
	if s.contains(meta.ID) {
		return s
	}
	ids := make([]ComponentTypeID, len(s.ids), len(s.ids)+1)
	copy(ids, s.ids)
	ids = append(ids, meta.ID)
	slices.Sort(ids)

	m := s.m
	m.Mark(meta.Bit)
	return Signature{ids: ids, m: m}
}

// without returns a copy of the signature excluding meta.
func (s Signature) without(meta *ComponentMetadata) Signature {
	i, found := slices.BinarySearch(s.ids, meta.ID)
	if !found {
		return s
	}
	ids := make([]ComponentTypeID, 0, len(s.ids)-1)
	ids = append(ids, s.ids[:i]...)
	ids = append(ids, s.ids[i+1:]...)

	m := s.m
	m.Unmark(meta.Bit)
	return Signature{ids: ids, m: m}
}

func (s Signature) contains(id ComponentTypeID) bool {
	_, found := slices.BinarySearch(s.ids, id)
	return found
}

// containsAny reports whether the signature holds any of the given ids.
func (s Signature) containsAny(ids []ComponentTypeID) bool {
	for _, id := range ids {
		if s.contains(id) {
			return true
		}
	}
	return false
}

// TypeIDs returns the signature's type IDs in sorted order. The returned slice
// must not be mutated.
func (s Signature) TypeIDs() []ComponentTypeID {
	return s.ids
}

// Mask returns the signature's bit mask over registry bit indices.
func (s Signature) Mask() mask.Mask {
	return s.m
}

// Count returns the number of component types in the signature.
func (s Signature) Count() int {
	return len(s.ids)
}

// Empty reports whether the signature has no component types.
func (s Signature) Empty() bool {
	return len(s.ids) == 0
}
