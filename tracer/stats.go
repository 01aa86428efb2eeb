package tracer

import "sync/atomic"

// Stats is the process-wide set of atomic counters: initialized once
// (NewStats), updated lock-free from any worker thread during rendering,
// and read only after the render completes (Snapshot). No mutex is needed
// because every field is a dedicated atomic counter, not a composite value
// requiring a consistent read across fields mid-render.
type Stats struct {
	RaysShot    atomic.Int64
	NodesTested atomic.Int64
	LeavesHit   atomic.Int64
	Degenerate  atomic.Int64 // numerical-degenerate-condition count
	StackLimit  atomic.Int64 // traversal resource exhaustion count
}

// NewStats returns a zeroed counter set.
func NewStats() *Stats { return &Stats{} }

// Snapshot is a point-in-time, non-atomic copy of Stats suitable for
// logging or reporting once a render has finished.
type Snapshot struct {
	RaysShot    int64
	NodesTested int64
	LeavesHit   int64
	Degenerate  int64
	StackLimit  int64
}

// Snapshot reads every counter. Intended to be called after workers have
// drained and the render has completed, though it is safe to call
// concurrently with further updates — it just may not observe them all
// atomically as a set.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		RaysShot:    s.RaysShot.Load(),
		NodesTested: s.NodesTested.Load(),
		LeavesHit:   s.LeavesHit.Load(),
		Degenerate:  s.Degenerate.Load(),
		StackLimit:  s.StackLimit.Load(),
	}
}
