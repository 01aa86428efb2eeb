package raystream

// ScratchStack is a per-worker-thread bump arena of nested scoped frames,
// reused across ray batches: the tracer asks for a frame at a given
// assembly-nesting depth, writes into it, recurses, and never needs to free
// anything explicitly — the next call at the same depth just overwrites
// the previous frame's backing storage. Push/pop of sub-frames is strictly
// balanced, the allocator never shrinks mid-traversal, and every per-thread
// allocation is reused across blocks, without requiring an unsafe
// byte-level arena: depth doubles as the stack pointer, and Go slice
// capacity reuse gives the "never shrinks" property for free.
type ScratchStack[T any] struct {
	frames [][]T
}

// NewScratchStack constructs an empty arena. Call one per worker thread and
// reuse it for every block that thread renders.
func NewScratchStack[T any]() *ScratchStack[T] {
	return &ScratchStack[T]{}
}

// Frame returns a frame of exactly n elements of T at the given recursion
// depth, growing (but never shrinking) the backing storage for that depth
// as needed. The contents are NOT zeroed between calls — callers
// (tracer.Tracer) write every element of the frame they later read.
func (s *ScratchStack[T]) Frame(depth, n int) []T {
	for len(s.frames) <= depth {
		s.frames = append(s.frames, nil)
	}
	if cap(s.frames[depth]) < n {
		s.frames[depth] = make([]T, n)
	}
	return s.frames[depth][:n]
}

// Depth reports how many distinct recursion levels this arena has ever
// grown to serve, for statistics/testing only.
func (s *ScratchStack[T]) Depth() int {
	return len(s.frames)
}
