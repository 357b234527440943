package jobs

import (
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// idleSpins bounds how many yield rounds an idle worker spends before parking
// on the shared condition variable.
const idleSpins = 4

// Scheduler runs jobs across a fixed pool of workers. Create one with
// NewScheduler and release it with Shutdown; a scheduler is not reusable after
// Shutdown.
type Scheduler struct {
	logger  zerolog.Logger
	tracker *HazardTracker
	workers []*worker
	wg      sync.WaitGroup

	mu     sync.Mutex // guards cond and queued
	cond   *sync.Cond
	queued int

	running    atomic.Bool
	nextHandle atomic.Uint64
	rr         atomic.Uint32

	pendingMu sync.Mutex
	pending   map[Handle]*job

	deferredMu sync.Mutex
	deferred   []*job

	jobsSubmitted atomic.Uint64
	jobsExecuted  atomic.Uint64
	jobsStolen    atomic.Uint64
	jobsDeferred  atomic.Uint64
	jobsFailed    atomic.Uint64

	workerCount int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithWorkerCount overrides the worker pool size.
func WithWorkerCount(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithLogger sets the diagnostic logger. Logging never affects control flow.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// NewScheduler builds the worker pool and starts its workers. The pool is
// sized to the logical core count (minimum 4 when detection fails). Every
// worker record is constructed before any worker goroutine starts, so a fast
// starter can never index a partially populated worker list.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:  zerolog.Nop(),
		tracker: NewHazardTracker(),
		pending: make(map[Handle]*job),
	}
	s.cond = sync.NewCond(&s.mu)
	for _, opt := range opts {
		opt(s)
	}

	if s.workerCount == 0 {
		n := runtime.NumCPU()
		if n <= 0 {
			n = 4
		}
		s.workerCount = n
	}

	for i := 0; i < s.workerCount; i++ {
		s.workers = append(s.workers, &worker{id: i})
	}
	s.running.Store(true)
	for _, w := range s.workers {
		s.wg.Add(1)
		go s.runWorker(w)
	}

	s.logger.Debug().Int("workers", s.workerCount).Msg("scheduler started")
	return s
}

// Running reports whether the scheduler's workers are accepting queued work.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// WorkerCount returns the size of the worker pool.
func (s *Scheduler) WorkerCount() int {
	return len(s.workers)
}

// Stats returns a snapshot of the scheduler's counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		JobsSubmitted: s.jobsSubmitted.Load(),
		JobsExecuted:  s.jobsExecuted.Load(),
		JobsStolen:    s.jobsStolen.Load(),
		JobsDeferred:  s.jobsDeferred.Load(),
		JobsFailed:    s.jobsFailed.Load(),
	}
}

// Submit queues fn for execution and returns its handle. MainThread affinity
// pins the job to worker 0; otherwise the target rotates round-robin. On a
// stopped scheduler the job runs synchronously before Submit returns.
func (s *Scheduler) Submit(desc Desc, fn func()) Handle {
	h := Handle(s.nextHandle.Add(1))
	j := &job{desc: desc, fn: fn, handle: h}
	s.jobsSubmitted.Add(1)

	if !s.running.Load() {
		s.runInline(j)
		return h
	}

	s.pendingMu.Lock()
	s.pending[h] = j
	s.pendingMu.Unlock()

	s.targetWorker(desc.Affinity).pushBack(j)
	s.wake()
	return h
}

// Wait spins with thread yields until the job reaches a terminal status. An
// unknown or already-released handle returns immediately. Job failures are
// not reported here; they are observable only via Stats.
func (s *Scheduler) Wait(h Handle) {
	if h == InvalidHandle {
		return
	}
	s.pendingMu.Lock()
	j := s.pending[h]
	s.pendingMu.Unlock()
	if j == nil {
		return
	}
	for {
		if st := j.getStatus(); st == StatusCompleted || st == StatusCancelled {
			return
		}
		runtime.Gosched()
	}
}

// ParallelFor runs fn(i) for every i in [begin, end), splitting the range into
// grain-sized jobs. Ranges that fit a single grain, and all ranges on a
// stopped scheduler, execute inline.
func (s *Scheduler) ParallelFor(begin, end, grain int, fn func(int)) {
	if begin >= end {
		return
	}
	if grain <= 0 {
		grain = 1
	}
	if !s.running.Load() || end-begin <= grain {
		for i := begin; i < end; i++ {
			fn(i)
		}
		return
	}

	var remaining atomic.Int64
	remaining.Store(int64((end - begin + grain - 1) / grain))

	for lo := begin; lo < end; lo += grain {
		hi := min(lo+grain, end)
		s.Submit(Desc{Name: "jobs.parallel_for"}, func() {
			for i := lo; i < hi; i++ {
				fn(i)
			}
			remaining.Add(-1)
		})
	}
	for remaining.Load() > 0 {
		runtime.Gosched()
	}
}

// Shutdown stops the workers and joins them. Workers drain jobs already in
// their queues before exiting. Idempotent.
func (s *Scheduler) Shutdown() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Debug().Msg("scheduler stopped")
}

func (s *Scheduler) targetWorker(a Affinity) *worker {
	if a == MainThread {
		return s.workers[0]
	}
	idx := s.rr.Add(1)
	return s.workers[int(idx)%len(s.workers)]
}

func (s *Scheduler) wake() {
	s.mu.Lock()
	s.queued++
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *Scheduler) consumed() {
	s.mu.Lock()
	if s.queued > 0 {
		s.queued--
	}
	s.mu.Unlock()
}

func (s *Scheduler) hasQueued() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queued > 0
}

func (s *Scheduler) runWorker(w *worker) {
	defer s.wg.Done()
	for {
		j := w.popFront()
		if j == nil {
			if j = s.steal(w); j != nil {
				s.jobsStolen.Add(1)
			}
		}
		if j != nil {
			s.consumed()
			s.executeJob(j)
			continue
		}
		if !s.running.Load() {
			return
		}
		s.idle()
	}
}

// steal takes from the back of one randomly chosen other worker's queue:
// LIFO relative to the victim's own front-popping, so the thief avoids
// contending with the owner and takes the coldest work.
func (s *Scheduler) steal(thief *worker) *job {
	n := len(s.workers)
	if n < 2 {
		return nil
	}
	victim := s.workers[rand.IntN(n)]
	if victim == thief {
		return nil
	}
	return victim.stealBack()
}

// idle briefly yield-spins, then parks on the shared condition variable until
// a submission or shutdown wakes it.
func (s *Scheduler) idle() {
	for i := 0; i < idleSpins; i++ {
		runtime.Gosched()
		if s.hasQueued() {
			return
		}
	}
	s.mu.Lock()
	for s.queued == 0 && s.running.Load() {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

// executeJob gates the job through the hazard tracker, runs the body with
// panic containment, and re-dispatches any deferred jobs once held resources
// are released.
func (s *Scheduler) executeJob(j *job) {
	gated := len(j.desc.Reads) > 0 || len(j.desc.Writes) > 0
	if gated && !s.acquireOrDefer(j) {
		return
	}

	j.setStatus(StatusRunning)
	s.runBody(j)
	j.setStatus(StatusCompleted)
	s.jobsExecuted.Add(1)

	s.pendingMu.Lock()
	delete(s.pending, j.handle)
	s.pendingMu.Unlock()

	if gated {
		s.tracker.ReleaseResources(j.desc.Reads, j.desc.Writes)
		s.redispatchDeferred()
	}
}

// acquireOrDefer attempts to take the job's declared resources in one atomic
// check-and-acquire. On conflict the job lands on the deferred queue; the
// re-check under the deferred lock closes the window where a release between
// the failed attempt and the enqueue could strand the job.
func (s *Scheduler) acquireOrDefer(j *job) bool {
	if s.tracker.TryAcquire(j.desc.Reads, j.desc.Writes) {
		return true
	}
	s.deferredMu.Lock()
	if s.tracker.TryAcquire(j.desc.Reads, j.desc.Writes) {
		s.deferredMu.Unlock()
		return true
	}
	s.deferred = append(s.deferred, j)
	s.deferredMu.Unlock()
	s.jobsDeferred.Add(1)
	return false
}

// redispatchDeferred re-queues every deferred job for another attempt.
func (s *Scheduler) redispatchDeferred() {
	s.deferredMu.Lock()
	if len(s.deferred) == 0 {
		s.deferredMu.Unlock()
		return
	}
	jobs := s.deferred
	s.deferred = nil
	s.deferredMu.Unlock()

	for _, j := range jobs {
		if !s.running.Load() {
			// The target worker may already have exited; run the job here
			// rather than stranding it on a dead queue.
			s.executeJob(j)
			continue
		}
		s.targetWorker(j.desc.Affinity).pushBack(j)
		s.wake()
	}
}

// runBody executes the job function. A panic is recovered, logged, and
// counted as a failure; the job still completes and nothing reaches the
// waiter.
func (s *Scheduler) runBody(j *job) {
	defer func() {
		if r := recover(); r != nil {
			s.jobsFailed.Add(1)
			s.logger.Error().Str("job", j.desc.Name).Interface("panic", r).Msg("job panicked")
		}
	}()
	j.fn()
}

// runInline executes a job synchronously on the submitting goroutine; used
// when the scheduler is stopped.
func (s *Scheduler) runInline(j *job) {
	j.setStatus(StatusRunning)
	s.runBody(j)
	j.setStatus(StatusCompleted)
	s.jobsExecuted.Add(1)
}
