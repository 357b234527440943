package jobs

import "sync/atomic"

// Handle identifies a submitted job. Handles are monotonically increasing and
// never reused within one scheduler.
type Handle uint64

// InvalidHandle is the zero handle; Wait on it returns immediately.
const InvalidHandle Handle = 0

// Priority orders jobs of differing urgency.
type Priority uint32

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// Affinity restricts which worker may run a job.
type Affinity uint8

const (
	// AnyWorker lets the scheduler pick a worker round-robin.
	AnyWorker Affinity = iota
	// MainThread pins the job to worker 0.
	MainThread
)

// ResourceKey is an opaque 64-bit value identifying a hazard-tracked
// resource. Keys are caller-defined; they are not derived from component
// types.
type ResourceKey uint64

// Desc describes a job at submission.
type Desc struct {
	Name     string
	Priority Priority
	Affinity Affinity
	Reads    []ResourceKey
	Writes   []ResourceKey
}

// Status is a job's lifecycle state: Pending until a worker picks it up,
// Running while the body executes, then Completed. Cancelled is declared for
// parity with the lifecycle model but no code path currently produces it.
type Status int32

const (
	StatusPending Status = iota
	StatusRunning
	StatusCompleted
	StatusCancelled
)

// Stats is a snapshot of scheduler counters.
type Stats struct {
	JobsSubmitted uint64
	JobsExecuted  uint64
	JobsStolen    uint64
	JobsDeferred  uint64
	JobsFailed    uint64
}

type job struct {
	desc   Desc
	fn     func()
	handle Handle
	status atomic.Int32
}

func (j *job) setStatus(s Status) {
	j.status.Store(int32(s))
}

func (j *job) getStatus() Status {
	return Status(j.status.Load())
}
