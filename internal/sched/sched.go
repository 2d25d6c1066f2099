// Package sched provides cancellable single-fire delayed callbacks.
//
// Each scheduled callback gets an opaque handle. Cancelling a handle after
// its callback started (or after a prior cancel) is a no-op, so the session
// can always cancel its current handle without tracking whether it fired.
package sched

import (
	"sync"
	"time"
)

// Handle identifies one scheduled callback. The zero Handle is never issued
// and is safe to cancel.
type Handle uint64

// Scheduler owns a set of pending timers. Stop cancels them all; a stopped
// scheduler silently drops new work, which is the cancellation contract the
// session relies on during teardown.
type Scheduler struct {
	mu      sync.Mutex
	seq     uint64
	pending map[Handle]*time.Timer
	stopped bool
}

func New() *Scheduler {
	return &Scheduler{pending: make(map[Handle]*time.Timer)}
}

// After runs fn once after d. fn runs on its own goroutine; callers that
// need serialization enqueue a message from fn rather than mutating state.
func (s *Scheduler) After(d time.Duration, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0
	}
	s.seq++
	h := Handle(s.seq)
	s.pending[h] = time.AfterFunc(d, func() {
		s.mu.Lock()
		_, live := s.pending[h]
		delete(s.pending, h)
		s.mu.Unlock()
		if live {
			fn()
		}
	})
	return h
}

// Cancel stops a pending callback. It reports whether the callback was
// still pending; cancelling a fired, cancelled, or zero handle returns
// false and does nothing.
func (s *Scheduler) Cancel(h Handle) bool {
	if h == 0 {
		return false
	}
	s.mu.Lock()
	t, ok := s.pending[h]
	delete(s.pending, h)
	s.mu.Unlock()
	if ok {
		t.Stop()
	}
	return ok
}

// Stop cancels everything pending and rejects future After calls.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for h, t := range s.pending {
		t.Stop()
		delete(s.pending, h)
	}
}
