package ecs

import (
	"slices"

	"github.com/TheBitDrifter/mask"
	iter_util "github.com/TheBitDrifter/util/iter"
)

// viewCore holds the archetype-matching state shared by every view arity. The
// matched archetype list is cached and refreshed when new archetypes appear.
type viewCore struct {
	world      *World
	include    mask.Mask
	exclude    []ComponentTypeID
	archetypes []*Archetype
	seen       uint32
	primed     bool
}

func newViewCore(w *World, include []*ComponentMetadata, excludes []ComponentTypeID) viewCore {
	var inc mask.Mask
	for _, meta := range include {
		inc.Mark(meta.Bit)
	}
	// Exclusions are kept as raw type IDs: a type excluded before its first
	// registration still filters once entities start holding it.
	return viewCore{world: w, include: inc, exclude: slices.Clone(excludes)}
}

// refresh rematerializes the matched archetype list when the world has grown a
// new archetype since the last call.
func (v *viewCore) refresh() {
	if v.primed && v.seen == v.world.archetypeVersion {
		return
	}
	v.archetypes = iter_util.Collect(v.world.archetypesMatching(v.include, v.exclude))
	v.seen = v.world.archetypeVersion
	v.primed = true
}

func (v *viewCore) entityCount() int {
	v.refresh()
	total := 0
	for _, a := range v.archetypes {
		total += a.EntityCount()
	}
	return total
}

func (v *viewCore) chunkCount() int {
	v.refresh()
	total := 0
	for _, a := range v.archetypes {
		total += len(a.Chunks())
	}
	return total
}

// nonEmptyChunks returns every matched chunk holding at least one live entity.
func (v *viewCore) nonEmptyChunks() []*Chunk {
	v.refresh()
	var chunks []*Chunk
	for _, a := range v.archetypes {
		for _, c := range a.Chunks() {
			if c.Count() > 0 {
				chunks = append(chunks, c)
			}
		}
	}
	return chunks
}

func mustRegister[T any](r *Registry) *ComponentMetadata {
	meta, err := Register[T](r)
	if err != nil {
		panic(err)
	}
	return meta
}
