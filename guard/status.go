package guard

import "sync/atomic"

// status is the per-resource concurrency state shared by every handle that
// references the resource: an in-flight visitor count and a killed latch.
//
// The latch is monotonic: once set it is never cleared. Both fields use
// sequentially consistent atomics, which gives the two orderings the
// protocol relies on: a check-in's increment is ordered before its read of
// the latch, and a kill's latch write is ordered before its read of the
// count. At least one side of any race therefore observes the other.
type status struct {
	visitors atomic.Int64
	killed   atomic.Bool
}

// checkIn registers a visitor and returns the token whose release is the
// only path that decrements the count.
func (s *status) checkIn() *visitorToken {
	s.visitors.Add(1)
	return &visitorToken{status: s}
}

// visitorToken brackets one in-flight borrow. Callers release it in a defer
// so the check-out runs on every exit path, including panic unwinding.
type visitorToken struct {
	status   *status
	released bool
}

func (t *visitorToken) release() {
	if t.released {
		return
	}
	t.released = true
	t.status.visitors.Add(-1)
}
