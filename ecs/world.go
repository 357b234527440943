package ecs

import (
	"iter"

	"github.com/TheBitDrifter/mask"
)

// Entity is an index/version handle. The index names a permanent slot; the
// version invalidates stale copies of the handle after the slot is recycled.
type Entity struct {
	Index   uint32
	Version uint32
}

// WorldOptions configures a world. MaxEntities bounds the number of entity
// slots; zero means unbounded growth.
type WorldOptions struct {
	MaxEntities uint32
}

// entityRecord locates an entity inside archetype storage. A back-reference,
// never an ownership edge; the archetype is nil while the entity has never
// held a component.
type entityRecord struct {
	archetype *Archetype
	chunk     *Chunk
	slot      uint32
}

// World owns the signature-to-archetype map, the per-slot version/alive/free
// tables for entity identity, and the record table locating each entity in
// chunk storage.
//
// The world provides no internal synchronization: concurrent structural
// mutation is the caller's responsibility.
type World struct {
	opts     WorldOptions
	registry *Registry

	versions   []uint32
	alive      []bool
	freeList   []uint32
	aliveCount uint32

	records []entityRecord

	archetypes       map[mask.Mask]*Archetype
	archetypeList    []*Archetype
	archetypeVersion uint32
}

// NewWorld creates an unbounded world with its own component registry.
func NewWorld() *World {
	return NewWorldWith(WorldOptions{})
}

// NewWorldWith creates a world with the given options.
func NewWorldWith(opts WorldOptions) *World {
	return &World{
		opts:       opts,
		registry:   NewRegistry(),
		archetypes: make(map[mask.Mask]*Archetype),
	}
}

// Registry returns the world's component registry.
func (w *World) Registry() *Registry {
	return w.registry
}

// CreateEntity returns a new entity handle, reusing a previously destroyed
// slot when one is available. Fails with EntityLimitError when a bounded world
// is out of fresh slots.
func (w *World) CreateEntity() (Entity, error) {
	if n := len(w.freeList); n > 0 {
		idx := w.freeList[n-1]
		w.freeList = w.freeList[:n-1]
		// Version was already incremented on destroy.
		w.alive[idx] = true
		w.aliveCount++
		return Entity{Index: idx, Version: w.versions[idx]}, nil
	}

	if w.opts.MaxEntities != 0 && w.Capacity() >= w.opts.MaxEntities {
		return Entity{}, EntityLimitError{Max: w.opts.MaxEntities}
	}

	idx := uint32(len(w.versions))
	w.versions = append(w.versions, 1)
	w.alive = append(w.alive, true)
	w.records = append(w.records, entityRecord{})
	w.aliveCount++
	return Entity{Index: idx, Version: 1}, nil
}

// DestroyEntity removes the entity from its chunk, invalidates outstanding
// handles by bumping the slot version, and recycles the slot.
func (w *World) DestroyEntity(e Entity) error {
	if int(e.Index) >= len(w.versions) {
		return InvalidEntityError{Entity: e}
	}
	if !w.alive[e.Index] || w.versions[e.Index] != e.Version {
		return AlreadyDestroyedError{Entity: e}
	}

	rec := &w.records[e.Index]
	if rec.chunk != nil {
		moved, swapped := rec.chunk.RemoveEntity(rec.slot)
		if swapped {
			w.records[moved].slot = rec.slot
		}
		*rec = entityRecord{}
	}

	w.alive[e.Index] = false
	w.aliveCount--
	w.versions[e.Index]++ // wrap-around is acceptable; mismatch still invalidates
	w.freeList = append(w.freeList, e.Index)
	return nil
}

// IsAlive reports whether the exact handle refers to a live entity. A stale
// version is treated identically to an out-of-range index.
func (w *World) IsAlive(e Entity) bool {
	if int(e.Index) >= len(w.versions) {
		return false
	}
	return w.alive[e.Index] && w.versions[e.Index] == e.Version
}

// Validate returns InvalidEntityError when the handle is not alive. It never
// mutates state.
func (w *World) Validate(e Entity) error {
	if !w.IsAlive(e) {
		return InvalidEntityError{Entity: e}
	}
	return nil
}

// AliveCount returns the number of live entities.
func (w *World) AliveCount() uint32 {
	return w.aliveCount
}

// Capacity returns the number of entity slots ever allocated.
func (w *World) Capacity() uint32 {
	return uint32(len(w.versions))
}

// getOrCreateArchetype resolves the archetype for a signature, creating it on
// first use. At most one archetype exists per distinct signature.
func (w *World) getOrCreateArchetype(sig Signature) *Archetype {
	if a, ok := w.archetypes[sig.Mask()]; ok {
		return a
	}
	a := newArchetype(w.registry, sig)
	w.archetypes[sig.Mask()] = a
	w.archetypeList = append(w.archetypeList, a)
	w.archetypeVersion++
	return a
}

// moveEntity migrates an entity into dst: allocate the destination slot, copy
// every component present in both signatures, then remove the old slot. The
// record is updated before removal so the swap repair cannot disturb the
// relocated entity.
func (w *World) moveEntity(e Entity, dst *Archetype) {
	rec := &w.records[e.Index]
	oldArch := rec.archetype
	oldChunk := rec.chunk
	oldSlot := rec.slot

	newChunk := dst.AvailableChunk()
	newSlot, ok := newChunk.AddEntity(e.Index)
	if !ok {
		// AvailableChunk guarantees capacity; a full chunk here means the
		// layout bookkeeping is corrupt.
		panic("ecs: available chunk rejected entity")
	}

	rec.archetype = dst
	rec.chunk = newChunk
	rec.slot = newSlot

	if oldArch == nil || oldChunk == nil {
		return
	}

	dstSig := dst.Signature()
	for _, id := range oldArch.Signature().TypeIDs() {
		if !dstSig.contains(id) {
			continue // unique to the old signature: dropped
		}
		src := oldChunk.componentPtr(id, oldSlot)
		dstPtr := newChunk.componentPtr(id, newSlot)
		if src == nil || dstPtr == nil {
			continue
		}
		copyComponent(dstPtr, src, w.registry.Metadata(id).Size)
	}

	moved, swapped := oldChunk.RemoveEntity(oldSlot)
	if swapped {
		w.records[moved].slot = oldSlot
	}
}

// archetypesMatching yields archetypes whose signature contains every bit of
// include and none of the excluded type IDs. Exclusions match on IDs rather
// than mask bits so they hold regardless of registration order.
func (w *World) archetypesMatching(include mask.Mask, exclude []ComponentTypeID) iter.Seq[*Archetype] {
	return func(yield func(*Archetype) bool) {
		for _, a := range w.archetypeList {
			sig := a.Signature()
			if !sig.Mask().ContainsAll(include) || sig.containsAny(exclude) {
				continue
			}
			if !yield(a) {
				return
			}
		}
	}
}
