package jobs

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestScheduler(t *testing.T, workers int) *Scheduler {
	t.Helper()
	s := NewScheduler(WithWorkerCount(workers))
	t.Cleanup(s.Shutdown)
	return s
}

func TestSchedulerWorkerCount(t *testing.T) {
	s := newTestScheduler(t, 3)
	assert.Equal(t, 3, s.WorkerCount())
	assert.True(t, s.Running())

	defaulted := NewScheduler()
	defer defaulted.Shutdown()
	assert.Greater(t, defaulted.WorkerCount(), 0)
}

func TestSubmitAndWait(t *testing.T) {
	s := newTestScheduler(t, 2)

	var ran atomic.Bool
	h := s.Submit(Desc{Name: "test.flag"}, func() {
		ran.Store(true)
	})
	require.NotEqual(t, InvalidHandle, h)

	s.Wait(h)
	assert.True(t, ran.Load())
}

func TestWaitUnknownHandle(t *testing.T) {
	s := newTestScheduler(t, 2)

	// Must return, not hang.
	s.Wait(InvalidHandle)
	s.Wait(Handle(999999))
}

func TestEveryJobRunsExactlyOnce(t *testing.T) {
	s := newTestScheduler(t, 4)

	const n = 100
	var counts [n]atomic.Int32
	handles := make([]Handle, n)
	for i := 0; i < n; i++ {
		i := i
		// Distinct write keys so hazard gating never serializes them.
		handles[i] = s.Submit(Desc{
			Name:   "test.once",
			Writes: []ResourceKey{ResourceKey(i + 1)},
		}, func() {
			counts[i].Add(1)
		})
	}
	for _, h := range handles {
		s.Wait(h)
	}

	for i := range counts {
		require.Equal(t, int32(1), counts[i].Load(), "job %d run count", i)
	}
}

func TestStatsConservation(t *testing.T) {
	s := newTestScheduler(t, 4)

	const n = 200
	handles := make([]Handle, n)
	for i := 0; i < n; i++ {
		handles[i] = s.Submit(Desc{Name: "test.noop"}, func() {})
	}
	for _, h := range handles {
		s.Wait(h)
	}

	stats := s.Stats()
	assert.Equal(t, uint64(n), stats.JobsSubmitted)
	assert.Equal(t, uint64(n), stats.JobsExecuted)
	assert.Zero(t, stats.JobsFailed)
}

func TestWriteWriteExclusion(t *testing.T) {
	s := newTestScheduler(t, 4)

	type interval struct {
		start, end time.Time
	}
	var mu sync.Mutex
	var intervals []interval

	body := func() {
		start := time.Now()
		time.Sleep(5 * time.Millisecond)
		end := time.Now()
		mu.Lock()
		intervals = append(intervals, interval{start, end})
		mu.Unlock()
	}

	const key = ResourceKey(7)
	handles := []Handle{
		s.Submit(Desc{Name: "test.writer", Writes: []ResourceKey{key}}, body),
		s.Submit(Desc{Name: "test.writer", Writes: []ResourceKey{key}}, body),
		s.Submit(Desc{Name: "test.writer", Writes: []ResourceKey{key}}, body),
	}
	for _, h := range handles {
		s.Wait(h)
	}

	require.Len(t, intervals, 3)
	for i := range intervals {
		for j := i + 1; j < len(intervals); j++ {
			a, b := intervals[i], intervals[j]
			overlap := a.start.Before(b.end) && b.start.Before(a.end)
			assert.False(t, overlap, "writers %d and %d overlapped", i, j)
		}
	}
}

func TestReadersRunConcurrently(t *testing.T) {
	s := newTestScheduler(t, 4)

	const key = ResourceKey(3)
	var concurrent atomic.Int32
	var peak atomic.Int32

	body := func() {
		cur := concurrent.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		concurrent.Add(-1)
	}

	handles := make([]Handle, 4)
	for i := range handles {
		handles[i] = s.Submit(Desc{Name: "test.reader", Reads: []ResourceKey{key}}, body)
	}
	for _, h := range handles {
		s.Wait(h)
	}

	// Readers sharing a key are not serialized against each other. With four
	// workers and a 10ms body, at least two overlap in practice.
	assert.GreaterOrEqual(t, peak.Load(), int32(2))
}

func TestDeferredJobEventuallyRuns(t *testing.T) {
	s := newTestScheduler(t, 2)

	const key = ResourceKey(11)
	started := make(chan struct{})
	release := make(chan struct{})
	var order []int
	var mu sync.Mutex

	// Resources are acquired before the body runs, so once the holder
	// signals, the contender is guaranteed to conflict.
	first := s.Submit(Desc{Name: "test.holder", Writes: []ResourceKey{key}}, func() {
		close(started)
		<-release
		mu.Lock()
		order = append(order, 1)
		mu.Unlock()
	})
	<-started

	second := s.Submit(Desc{Name: "test.contender", Writes: []ResourceKey{key}}, func() {
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
	})

	// The contender must land on the deferred queue before the holder is
	// let go, or the test would not exercise the redispatch path.
	require.Eventually(t, func() bool {
		return s.Stats().JobsDeferred >= 1
	}, 5*time.Second, time.Millisecond)

	close(release)
	s.Wait(first)
	s.Wait(second)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1, 2}, order)
}

func TestDeferredJobRunsAcrossShutdown(t *testing.T) {
	s := NewScheduler(WithWorkerCount(2))

	const key = ResourceKey(13)
	started := make(chan struct{})
	release := make(chan struct{})
	var holderRan, contenderRan atomic.Bool

	holder := s.Submit(Desc{Name: "test.holder", Writes: []ResourceKey{key}}, func() {
		close(started)
		<-release
		holderRan.Store(true)
	})
	<-started

	contender := s.Submit(Desc{Name: "test.contender", Writes: []ResourceKey{key}}, func() {
		contenderRan.Store(true)
	})
	require.Eventually(t, func() bool {
		return s.Stats().JobsDeferred >= 1
	}, 5*time.Second, time.Millisecond)

	// Begin shutdown while the holder still owns the key, then release it
	// once the pool has stopped accepting queued work. The redispatch must
	// not strand the contender on a dead worker queue.
	done := make(chan struct{})
	go func() {
		s.Shutdown()
		close(done)
	}()
	require.Eventually(t, func() bool {
		return !s.Running()
	}, 5*time.Second, time.Millisecond)

	close(release)
	<-done

	s.Wait(holder)
	s.Wait(contender)
	require.True(t, holderRan.Load())
	require.True(t, contenderRan.Load())
	assert.Equal(t, uint64(2), s.Stats().JobsExecuted)
}

func TestMainThreadAffinity(t *testing.T) {
	s := newTestScheduler(t, 4)

	var ran atomic.Int32
	handles := make([]Handle, 8)
	for i := range handles {
		handles[i] = s.Submit(Desc{Name: "test.pinned", Affinity: MainThread}, func() {
			ran.Add(1)
		})
	}
	for _, h := range handles {
		s.Wait(h)
	}
	assert.Equal(t, int32(8), ran.Load())
}

func TestPanicIsContained(t *testing.T) {
	s := newTestScheduler(t, 2)

	h := s.Submit(Desc{Name: "test.panics"}, func() {
		panic("boom")
	})
	s.Wait(h)

	assert.Equal(t, uint64(1), s.Stats().JobsFailed)

	// The pool survives and keeps executing.
	var ran atomic.Bool
	after := s.Submit(Desc{Name: "test.after"}, func() { ran.Store(true) })
	s.Wait(after)
	assert.True(t, ran.Load())
}

func TestParallelFor(t *testing.T) {
	tests := []struct {
		name              string
		begin, end, grain int
	}{
		{name: "empty range", begin: 5, end: 5, grain: 8},
		{name: "inverted range", begin: 10, end: 5, grain: 8},
		{name: "single grain", begin: 0, end: 4, grain: 8},
		{name: "even split", begin: 0, end: 64, grain: 16},
		{name: "ragged split", begin: 0, end: 100, grain: 7},
		{name: "zero grain", begin: 0, end: 50, grain: 0},
		{name: "large", begin: 0, end: 10000, grain: 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScheduler(t, 4)

			size := tt.end - tt.begin
			if size < 0 {
				size = 0
			}
			data := make([]atomic.Int32, size)
			s.ParallelFor(tt.begin, tt.end, tt.grain, func(i int) {
				data[i-tt.begin].Add(1)
			})

			for i := range data {
				require.Equal(t, int32(1), data[i].Load(), "index %d", tt.begin+i)
			}
		})
	}
}

func TestConcurrentSubmitters(t *testing.T) {
	s := newTestScheduler(t, 4)

	const submitters = 8
	const perSubmitter = 100
	var total atomic.Int64

	var g errgroup.Group
	for i := 0; i < submitters; i++ {
		g.Go(func() error {
			handles := make([]Handle, perSubmitter)
			for j := 0; j < perSubmitter; j++ {
				handles[j] = s.Submit(Desc{Name: "test.concurrent"}, func() {
					total.Add(1)
				})
			}
			for _, h := range handles {
				s.Wait(h)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(submitters*perSubmitter), total.Load())
	assert.Equal(t, uint64(submitters*perSubmitter), s.Stats().JobsExecuted)
}

func TestShutdownIdempotent(t *testing.T) {
	s := NewScheduler(WithWorkerCount(2))
	s.Shutdown()
	s.Shutdown()
	assert.False(t, s.Running())
}

func TestSubmitAfterShutdownRunsInline(t *testing.T) {
	s := NewScheduler(WithWorkerCount(2))
	s.Shutdown()

	var ran bool
	h := s.Submit(Desc{Name: "test.inline"}, func() { ran = true })

	// Inline execution finishes before Submit returns.
	assert.True(t, ran)
	s.Wait(h)
	assert.Equal(t, uint64(1), s.Stats().JobsExecuted)
}

func TestShutdownDrainsQueuedJobs(t *testing.T) {
	s := NewScheduler(WithWorkerCount(2))

	var ran atomic.Int32
	const n = 50
	for i := 0; i < n; i++ {
		s.Submit(Desc{Name: "test.drain"}, func() {
			ran.Add(1)
		})
	}
	s.Shutdown()

	assert.Equal(t, int32(n), ran.Load())
}

func TestPriorityFieldsAccepted(t *testing.T) {
	s := newTestScheduler(t, 2)

	var ran atomic.Int32
	priorities := []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical}
	handles := make([]Handle, len(priorities))
	for i, p := range priorities {
		handles[i] = s.Submit(Desc{Name: "test.priority", Priority: p}, func() {
			ran.Add(1)
		})
	}
	for _, h := range handles {
		s.Wait(h)
	}
	assert.Equal(t, int32(len(priorities)), ran.Load())
}

func TestHandlesAreUnique(t *testing.T) {
	s := newTestScheduler(t, 2)

	seen := make(map[Handle]bool)
	var mu sync.Mutex
	var g errgroup.Group
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			for j := 0; j < 250; j++ {
				h := s.Submit(Desc{Name: "test.handle"}, func() {})
				mu.Lock()
				require.False(t, seen[h], "handle %d issued twice", h)
				seen[h] = true
				mu.Unlock()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, seen, 1000)
}

func TestWorkDistribution(t *testing.T) {
	if runtime.NumCPU() < 2 {
		t.Skip("needs multiple cores")
	}
	s := newTestScheduler(t, 4)

	// Many small sleeps cannot all finish on one worker in time; this
	// exercises round-robin dispatch and stealing under real contention.
	const n = 64
	handles := make([]Handle, n)
	start := time.Now()
	for i := 0; i < n; i++ {
		handles[i] = s.Submit(Desc{Name: "test.spread"}, func() {
			time.Sleep(2 * time.Millisecond)
		})
	}
	for _, h := range handles {
		s.Wait(h)
	}
	elapsed := time.Since(start)

	serial := time.Duration(n) * 2 * time.Millisecond
	assert.Less(t, elapsed, serial, "jobs appear to have run serially")
}
