package ecs

// Archetype groups every entity sharing one component signature. It owns an
// open-ended list of chunks; chunks are created lazily and never destroyed or
// compacted, even when empty.
type Archetype struct {
	signature Signature
	registry  *Registry
	chunks    []*Chunk
}

func newArchetype(reg *Registry, sig Signature) *Archetype {
	return &Archetype{signature: sig, registry: reg}
}

// Signature returns the archetype's component signature.
func (a *Archetype) Signature() Signature {
	return a.signature
}

// Chunks returns the archetype's chunk list. The slice must not be mutated.
func (a *Archetype) Chunks() []*Chunk {
	return a.chunks
}

// AvailableChunk returns a chunk with free capacity, creating one when every
// existing chunk is full. The linear scan is O(chunks) per insertion, which is
// acceptable because chunk counts stay small relative to chunk capacity.
func (a *Archetype) AvailableChunk() *Chunk {
	for _, chunk := range a.chunks {
		if !chunk.IsFull() {
			return chunk
		}
	}
	chunk := newChunk(a.registry, a.signature)
	a.chunks = append(a.chunks, chunk)
	return chunk
}

// EntityCount returns the number of live entities across all chunks.
func (a *Archetype) EntityCount() int {
	total := 0
	for _, chunk := range a.chunks {
		total += int(chunk.Count())
	}
	return total
}
