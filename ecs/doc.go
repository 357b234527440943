/*
Package ecs provides an archetype-based entity/component store with a chunked,
structure-of-arrays memory layout.

Entities sharing the same set of component types are grouped into archetypes.
Each archetype stores its entities in fixed-size, cache-aligned chunks: one
contiguous column per component type plus an entity-index column. Moving a
component set between archetypes migrates the entity's data between chunks
while keeping every column densely packed.

Core Concepts:

  - Entity: an index/version handle identifying one stored object.
  - Registry: per-world component metadata (size, alignment, bit index).
  - Signature: sorted set of component type IDs identifying one archetype.
  - Chunk: a 64 KiB, 64-byte-aligned SoA block of one archetype's entities.
  - View: a query over archetypes whose signature contains a required set of
    components (and optionally excludes others).

Basic Usage:

	world := ecs.NewWorld()

	e, _ := world.CreateEntity()
	ecs.Add(world, e, Position{X: 1})
	ecs.Add(world, e, Velocity{X: 2})

	view := ecs.Query2[Position, Velocity](world)
	view.ForEach(func(pos *Position, vel *Velocity) {
		pos.X += vel.X
	})

Views can be fanned out across a jobs.Scheduler, one job per chunk:

	ecs.MakeParallel2(view, sched).Execute(func(pos *Position, vel *Velocity) {
		pos.X += vel.X
	})

The World performs no internal synchronization for structural mutation
(CreateEntity, DestroyEntity, Add, Remove); callers must serialize structural
changes. Parallel views are safe because distinct chunks never alias.
*/
package ecs
