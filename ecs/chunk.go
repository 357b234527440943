package ecs

import (
	"fmt"
	"unsafe"
)

const (
	// ChunkSize is the fixed byte size of one chunk's storage block.
	ChunkSize = 64 * 1024

	// chunkAlignment aligns the block base and every column boundary for
	// SIMD-friendly access.
	chunkAlignment = 64

	// chunkMetadataReserve is held back from ChunkSize when computing
	// capacity.
	chunkMetadataReserve = 256

	entityIndexSize = uintptr(unsafe.Sizeof(uint32(0)))
)

// columnInfo records where one component type's column lives inside a chunk.
// Computed once at construction; the single source of truth for the layout.
type columnInfo struct {
	typeID ComponentTypeID
	offset uintptr
	size   uintptr
}

// Chunk is a fixed-capacity, 64-byte-aligned block holding one archetype's
// entities in structure-of-arrays form: an entity-index column followed by one
// column per component type. Slots [0, count) are live and densely packed.
type Chunk struct {
	buf           []byte
	base          unsafe.Pointer
	columns       []columnInfo
	entityIndices []uint32
	count         uint32
	capacity      uint32
}

// newChunk builds a chunk for the given signature. Every type in the signature
// must be registered; an unregistered type is a programming error and panics.
func newChunk(reg *Registry, sig Signature) *Chunk {
	c := &Chunk{}
	c.calculateLayout(reg, sig)

	c.buf = make([]byte, ChunkSize+chunkAlignment)
	addr := uintptr(unsafe.Pointer(&c.buf[0]))
	shift := (chunkAlignment - addr%chunkAlignment) % chunkAlignment
	c.base = unsafe.Pointer(&c.buf[shift])

	if c.capacity > 0 {
		c.entityIndices = unsafe.Slice((*uint32)(c.base), c.capacity)
	}
	return c
}

func (c *Chunk) calculateLayout(reg *Registry, sig Signature) {
	typeIDs := sig.TypeIDs()

	perEntity := entityIndexSize
	c.columns = make([]columnInfo, 0, len(typeIDs))
	for _, id := range typeIDs {
		meta := reg.Metadata(id)
		if meta == nil {
			panic(fmt.Sprintf("ecs: component type %#x not registered", uint64(id)))
		}
		c.columns = append(c.columns, columnInfo{typeID: id, size: meta.Size})
		perEntity += meta.Size
	}

	// Even an empty signature holds entities (just the index column).
	capacity := uintptr(ChunkSize-chunkMetadataReserve) / perEntity

	// Column boundaries round up to the alignment, so the aligned layout can
	// exceed the raw byte budget; shrink until it fits.
	for capacity > 0 {
		offset := alignUp(capacity * entityIndexSize)
		for i := range c.columns {
			c.columns[i].offset = offset
			offset = alignUp(offset + c.columns[i].size*capacity)
		}
		if offset <= ChunkSize {
			break
		}
		capacity--
	}
	c.capacity = uint32(capacity)
}

func alignUp(n uintptr) uintptr {
	return (n + chunkAlignment - 1) &^ (chunkAlignment - 1)
}

// AddEntity appends an entity index at the next free slot. Reports false when
// the chunk is full.
func (c *Chunk) AddEntity(entityIndex uint32) (uint32, bool) {
	if c.IsFull() {
		return 0, false
	}
	slot := c.count
	c.entityIndices[slot] = entityIndex
	c.count++
	return slot, true
}

// RemoveEntity removes the entity at slot by swapping in the last occupied
// slot's data across every column, keeping storage compact. It returns the
// entity index that was moved into slot so the caller can repair that entity's
// record; swapped is false when the removed slot was the last one.
func (c *Chunk) RemoveEntity(slot uint32) (moved uint32, swapped bool) {
	if slot >= c.count {
		return 0, false
	}
	last := c.count - 1
	if slot != last {
		moved = c.entityIndices[last]
		c.entityIndices[slot] = moved
		for _, col := range c.columns {
			data := unsafe.Add(c.base, col.offset)
			dst := unsafe.Slice((*byte)(unsafe.Add(data, uintptr(slot)*col.size)), col.size)
			src := unsafe.Slice((*byte)(unsafe.Add(data, uintptr(last)*col.size)), col.size)
			copy(dst, src)
		}
		swapped = true
	}
	c.count--
	return moved, swapped
}

// Count returns the number of live entities in the chunk.
func (c *Chunk) Count() uint32 { return c.count }

// Capacity returns the maximum number of entities the chunk can hold.
func (c *Chunk) Capacity() uint32 { return c.capacity }

// IsFull reports whether the chunk has no free slots.
func (c *Chunk) IsFull() bool { return c.count >= c.capacity }

// EntityIndexAt returns the entity index stored at a live slot, or 0 when the
// slot is out of range.
func (c *Chunk) EntityIndexAt(slot uint32) uint32 {
	if slot >= c.count {
		return 0
	}
	return c.entityIndices[slot]
}

// columnBase returns the base pointer of the column for id, or nil when the
// chunk's archetype lacks that component. Linear search; archetypes hold few
// component types.
func (c *Chunk) columnBase(id ComponentTypeID) (unsafe.Pointer, uintptr) {
	for _, col := range c.columns {
		if col.typeID == id {
			return unsafe.Add(c.base, col.offset), col.size
		}
	}
	return nil, 0
}

// componentPtr returns a pointer to the component value for id at a live slot,
// or nil.
func (c *Chunk) componentPtr(id ComponentTypeID, slot uint32) unsafe.Pointer {
	if slot >= c.count {
		return nil
	}
	base, size := c.columnBase(id)
	if base == nil {
		return nil
	}
	return unsafe.Add(base, uintptr(slot)*size)
}

// Column returns the live portion of the chunk's column for T as a slice. The
// slice is valid until the next structural mutation touching the chunk.
func Column[T any](c *Chunk) []T {
	base, _ := c.columnBase(TypeID[T]())
	if base == nil || c.count == 0 {
		return nil
	}
	return unsafe.Slice((*T)(base), c.count)
}
