package jobs

import "sync"

// resourceAccess tracks one resource's state: either N >= 0 readers and not
// writing, or zero readers and writing.
type resourceAccess struct {
	readers uint32
	writing bool
}

// HazardTracker grants or defers job execution based on declared read/write
// resource overlap. Entries exist only for resources held by running jobs, so
// the map stays bounded by concurrently-active resources.
type HazardTracker struct {
	mu        sync.Mutex
	resources map[ResourceKey]*resourceAccess
}

// NewHazardTracker returns an empty tracker.
func NewHazardTracker() *HazardTracker {
	return &HazardTracker{resources: make(map[ResourceKey]*resourceAccess)}
}

// CanExecute reports whether a job declaring these reads and writes could run
// now without conflicting with currently held resources.
func (t *HazardTracker) CanExecute(reads, writes []ResourceKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canExecuteLocked(reads, writes)
}

func (t *HazardTracker) canExecuteLocked(reads, writes []ResourceKey) bool {
	for _, key := range writes {
		if acc, ok := t.resources[key]; ok {
			if acc.readers > 0 || acc.writing {
				return false
			}
		}
	}
	for _, key := range reads {
		if acc, ok := t.resources[key]; ok && acc.writing {
			return false
		}
	}
	return true
}

// AcquireResources records the reads and writes as held. The caller must have
// confirmed CanExecute; no conflict checking happens here.
func (t *HazardTracker) AcquireResources(reads, writes []ResourceKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.acquireLocked(reads, writes)
}

func (t *HazardTracker) acquireLocked(reads, writes []ResourceKey) {
	for _, key := range reads {
		acc, ok := t.resources[key]
		if !ok {
			acc = &resourceAccess{}
			t.resources[key] = acc
		}
		acc.readers++
	}
	for _, key := range writes {
		acc, ok := t.resources[key]
		if !ok {
			acc = &resourceAccess{}
			t.resources[key] = acc
		}
		acc.writing = true
	}
}

// TryAcquire checks for conflicts and acquires in one critical section. Two
// racing jobs with overlapping writes can never both succeed, which a separate
// CanExecute-then-AcquireResources sequence cannot guarantee.
func (t *HazardTracker) TryAcquire(reads, writes []ResourceKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.canExecuteLocked(reads, writes) {
		return false
	}
	t.acquireLocked(reads, writes)
	return true
}

// ReleaseResources undoes AcquireResources, dropping a resource's entry
// entirely once it is unused.
func (t *HazardTracker) ReleaseResources(reads, writes []ResourceKey) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, key := range reads {
		if acc, ok := t.resources[key]; ok {
			if acc.readers > 0 {
				acc.readers--
			}
			if acc.readers == 0 && !acc.writing {
				delete(t.resources, key)
			}
		}
	}
	for _, key := range writes {
		if acc, ok := t.resources[key]; ok {
			acc.writing = false
			if acc.readers == 0 {
				delete(t.resources, key)
			}
		}
	}
}

// activeResources returns the number of currently tracked resources.
func (t *HazardTracker) activeResources() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.resources)
}
