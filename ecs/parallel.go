package ecs

import (
	"runtime"
	"sync/atomic"

	"github.com/srinathupadhyayula/athivegam/jobs"
)

const (
	parallelQueryJobName = "ecs.parallel_query"
	parallelChunkJobName = "ecs.parallel_query_chunk"
)

// Parallel views fan a view's chunks out as scheduler jobs, one job per
// non-empty chunk. Column slices are resolved before submission so jobs never
// touch query or archetype bookkeeping. Completion is an atomic counter polled
// with thread yields. A nil or stopped scheduler falls back to the sequential
// path.
//
// Parallel views do not consult the hazard tracker: distinct chunks never
// alias, and it is the caller's responsibility that the per-entity mutation
// does not reach across chunks.

// ParallelView1 executes a View1 across a scheduler.
type ParallelView1[A any] struct {
	view  *View1[A]
	sched *jobs.Scheduler
}

// MakeParallel1 wraps a view for parallel execution on sched.
func MakeParallel1[A any](v *View1[A], sched *jobs.Scheduler) ParallelView1[A] {
	return ParallelView1[A]{view: v, sched: sched}
}

// Execute calls fn once per matching entity, chunks running in parallel.
func (p ParallelView1[A]) Execute(fn func(*A)) {
	if !parallelReady(p.sched) {
		p.view.ForEach(fn)
		return
	}
	chunks := p.view.core.nonEmptyChunks()
	if len(chunks) == 0 {
		return
	}
	var done atomic.Int64
	for _, c := range chunks {
		as := Column[A](c)
		p.sched.Submit(jobs.Desc{Name: parallelQueryJobName}, func() {
			for i := range as {
				fn(&as[i])
			}
			done.Add(1)
		})
	}
	waitForChunks(&done, int64(len(chunks)))
}

// ExecuteChunks calls fn once per non-empty chunk with the whole live column.
func (p ParallelView1[A]) ExecuteChunks(fn func(chunk int, as []A)) {
	if !parallelReady(p.sched) {
		i := 0
		p.view.ForEachChunk(func(as []A) {
			fn(i, as)
			i++
		})
		return
	}
	chunks := p.view.core.nonEmptyChunks()
	if len(chunks) == 0 {
		return
	}
	var done atomic.Int64
	for i, c := range chunks {
		as := Column[A](c)
		p.sched.Submit(jobs.Desc{Name: parallelChunkJobName}, func() {
			fn(i, as)
			done.Add(1)
		})
	}
	waitForChunks(&done, int64(len(chunks)))
}

// ParallelView2 executes a View2 across a scheduler.
type ParallelView2[A, B any] struct {
	view  *View2[A, B]
	sched *jobs.Scheduler
}

// MakeParallel2 wraps a view for parallel execution on sched.
func MakeParallel2[A, B any](v *View2[A, B], sched *jobs.Scheduler) ParallelView2[A, B] {
	return ParallelView2[A, B]{view: v, sched: sched}
}

func (p ParallelView2[A, B]) Execute(fn func(*A, *B)) {
	if !parallelReady(p.sched) {
		p.view.ForEach(fn)
		return
	}
	chunks := p.view.core.nonEmptyChunks()
	if len(chunks) == 0 {
		return
	}
	var done atomic.Int64
	for _, c := range chunks {
		as := Column[A](c)
		bs := Column[B](c)
		p.sched.Submit(jobs.Desc{Name: parallelQueryJobName}, func() {
			for i := range as {
				fn(&as[i], &bs[i])
			}
			done.Add(1)
		})
	}
	waitForChunks(&done, int64(len(chunks)))
}

func (p ParallelView2[A, B]) ExecuteChunks(fn func(chunk int, as []A, bs []B)) {
	if !parallelReady(p.sched) {
		i := 0
		p.view.ForEachChunk(func(as []A, bs []B) {
			fn(i, as, bs)
			i++
		})
		return
	}
	chunks := p.view.core.nonEmptyChunks()
	if len(chunks) == 0 {
		return
	}
	var done atomic.Int64
	for i, c := range chunks {
		as := Column[A](c)
		bs := Column[B](c)
		p.sched.Submit(jobs.Desc{Name: parallelChunkJobName}, func() {
			fn(i, as, bs)
			done.Add(1)
		})
	}
	waitForChunks(&done, int64(len(chunks)))
}

// ParallelView3 executes a View3 across a scheduler.
type ParallelView3[A, B, C any] struct {
	view  *View3[A, B, C]
	sched *jobs.Scheduler
}

// MakeParallel3 wraps a view for parallel execution on sched.
func MakeParallel3[A, B, C any](v *View3[A, B, C], sched *jobs.Scheduler) ParallelView3[A, B, C] {
	return ParallelView3[A, B, C]{view: v, sched: sched}
}

func (p ParallelView3[A, B, C]) Execute(fn func(*A, *B, *C)) {
	if !parallelReady(p.sched) {
		p.view.ForEach(fn)
		return
	}
	chunks := p.view.core.nonEmptyChunks()
	if len(chunks) == 0 {
		return
	}
	var done atomic.Int64
	for _, c := range chunks {
		as := Column[A](c)
		bs := Column[B](c)
		cs := Column[C](c)
		p.sched.Submit(jobs.Desc{Name: parallelQueryJobName}, func() {
			for i := range as {
				fn(&as[i], &bs[i], &cs[i])
			}
			done.Add(1)
		})
	}
	waitForChunks(&done, int64(len(chunks)))
}

func (p ParallelView3[A, B, C]) ExecuteChunks(fn func(chunk int, as []A, bs []B, cs []C)) {
	if !parallelReady(p.sched) {
		i := 0
		p.view.ForEachChunk(func(as []A, bs []B, cs []C) {
			fn(i, as, bs, cs)
			i++
		})
		return
	}
	chunks := p.view.core.nonEmptyChunks()
	if len(chunks) == 0 {
		return
	}
	var done atomic.Int64
	for i, c := range chunks {
		as := Column[A](c)
		bs := Column[B](c)
		cs := Column[C](c)
		p.sched.Submit(jobs.Desc{Name: parallelChunkJobName}, func() {
			fn(i, as, bs, cs)
			done.Add(1)
		})
	}
	waitForChunks(&done, int64(len(chunks)))
}

func parallelReady(s *jobs.Scheduler) bool {
	return s != nil && s.Running()
}

func waitForChunks(done *atomic.Int64, total int64) {
	for done.Load() < total {
		runtime.Gosched()
	}
}
