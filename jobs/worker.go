package jobs

import "sync"

// worker owns one private double-ended job queue. The owning goroutine pops
// from the front (submission order, cache-friendly); thieves take from the
// back to avoid contending with the owner.
type worker struct {
	id    int
	mu    sync.Mutex
	deque []*job
}

func (w *worker) pushBack(j *job) {
	w.mu.Lock()
	w.deque = append(w.deque, j)
	w.mu.Unlock()
}

func (w *worker) popFront() *job {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.deque) == 0 {
		return nil
	}
	j := w.deque[0]
	w.deque[0] = nil
	w.deque = w.deque[1:]
	return j
}

func (w *worker) stealBack() *job {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.deque)
	if n == 0 {
		return nil
	}
	j := w.deque[n-1]
	w.deque[n-1] = nil
	w.deque = w.deque[:n-1]
	return j
}
