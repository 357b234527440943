package ecs

// View1 iterates every entity holding component A. Construction registers A;
// iteration is chunk-granular and skips chunks with no live entities.
type View1[A any] struct {
	core viewCore
}

// Query1 builds a view over entities holding A. Optional exclusions (by
// TypeID) drop archetypes containing any excluded type.
func Query1[A any](w *World, excludes ...ComponentTypeID) *View1[A] {
	metaA := mustRegister[A](w.registry)
	return &View1[A]{core: newViewCore(w, []*ComponentMetadata{metaA}, excludes)}
}

// EntityCount returns the number of matching entities.
func (v *View1[A]) EntityCount() int { return v.core.entityCount() }

// ChunkCount returns the number of chunks across matching archetypes.
func (v *View1[A]) ChunkCount() int { return v.core.chunkCount() }

// Empty reports whether the view matches no entities.
func (v *View1[A]) Empty() bool { return v.core.entityCount() == 0 }

// ForEach calls fn once per matching entity, sequentially.
func (v *View1[A]) ForEach(fn func(*A)) {
	for _, c := range v.core.nonEmptyChunks() {
		as := Column[A](c)
		for i := range as {
			fn(&as[i])
		}
	}
}

// ForEachChunk calls fn once per non-empty chunk with that chunk's live
// column.
func (v *View1[A]) ForEachChunk(fn func(as []A)) {
	for _, c := range v.core.nonEmptyChunks() {
		fn(Column[A](c))
	}
}

// View2 iterates every entity holding components A and B.
type View2[A, B any] struct {
	core viewCore
}

// Query2 builds a view over entities holding both A and B.
func Query2[A, B any](w *World, excludes ...ComponentTypeID) *View2[A, B] {
	metaA := mustRegister[A](w.registry)
	metaB := mustRegister[B](w.registry)
	return &View2[A, B]{core: newViewCore(w, []*ComponentMetadata{metaA, metaB}, excludes)}
}

func (v *View2[A, B]) EntityCount() int { return v.core.entityCount() }
func (v *View2[A, B]) ChunkCount() int  { return v.core.chunkCount() }
func (v *View2[A, B]) Empty() bool      { return v.core.entityCount() == 0 }

func (v *View2[A, B]) ForEach(fn func(*A, *B)) {
	for _, c := range v.core.nonEmptyChunks() {
		as := Column[A](c)
		bs := Column[B](c)
		for i := range as {
			fn(&as[i], &bs[i])
		}
	}
}

func (v *View2[A, B]) ForEachChunk(fn func(as []A, bs []B)) {
	for _, c := range v.core.nonEmptyChunks() {
		fn(Column[A](c), Column[B](c))
	}
}

// View3 iterates every entity holding components A, B, and C.
type View3[A, B, C any] struct {
	core viewCore
}

// Query3 builds a view over entities holding A, B, and C.
func Query3[A, B, C any](w *World, excludes ...ComponentTypeID) *View3[A, B, C] {
	metaA := mustRegister[A](w.registry)
	metaB := mustRegister[B](w.registry)
	metaC := mustRegister[C](w.registry)
	return &View3[A, B, C]{core: newViewCore(w, []*ComponentMetadata{metaA, metaB, metaC}, excludes)}
}

func (v *View3[A, B, C]) EntityCount() int { return v.core.entityCount() }
func (v *View3[A, B, C]) ChunkCount() int  { return v.core.chunkCount() }
func (v *View3[A, B, C]) Empty() bool      { return v.core.entityCount() == 0 }

func (v *View3[A, B, C]) ForEach(fn func(*A, *B, *C)) {
	for _, c := range v.core.nonEmptyChunks() {
		as := Column[A](c)
		bs := Column[B](c)
		cs := Column[C](c)
		for i := range as {
			fn(&as[i], &bs[i], &cs[i])
		}
	}
}

func (v *View3[A, B, C]) ForEachChunk(fn func(as []A, bs []B, cs []C)) {
	for _, c := range v.core.nonEmptyChunks() {
		fn(Column[A](c), Column[B](c), Column[C](c))
	}
}
