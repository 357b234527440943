/*
Package jobs provides a work-stealing job scheduler with hazard-based
resource-conflict detection.

A fixed pool of workers each owns a private double-ended queue. Submit places
a job on one worker's queue; workers pop from the front of their own queue and
steal from the back of a random other worker's queue when idle. Jobs that
declare read/write resource sets pass through a HazardTracker before running:
a job whose declared resources conflict with resources currently held by a
running job is deferred and re-dispatched once the conflict clears.

Basic Usage:

	sched := jobs.NewScheduler()
	defer sched.Shutdown()

	h := sched.Submit(jobs.Desc{Name: "update"}, func() {
		// work
	})
	sched.Wait(h)

	sched.ParallelFor(0, len(data), 256, func(i int) {
		data[i] *= 2
	})

There is no ordering guarantee between jobs on different workers, and a stolen
job may run out of submission order relative to its siblings. Wait spins with
thread yields rather than blocking; job panics are recovered, logged, and
counted in Stats, never propagated to the waiter.
*/
package jobs
