package raystream

// StablePartition reorders rays[0:len(rays)] in place so that every ray for
// which keep returns true ends up in rays[:mid], and every other ray in
// rays[mid:], preserving the relative order within each group. This is the
// partition driven at every BVH node (rays that still have pending work
// move left; rays that missed, finished, or are done migrate right), kept
// stable so that, for a fixed input array, traversal output does not
// depend on batch size or internal scheduling.
//
// keep is evaluated exactly once per ray. Both callers in this codebase
// pass side-effecting predicates (one pops a per-ray bit-stack entry, the
// other writes a resolved intersection), so evaluating twice per ray — once
// to build each group — would silently corrupt that state; classifying
// into a side buffer first and then copying by class keeps every
// evaluation single-shot.
//
// scratch must have capacity >= len(rays); callers own a reusable buffer so
// no allocation happens on the traversal hot path.
func StablePartition(rays []Ray, scratch []Ray, keep func(*Ray) bool) (mid int) {
	n := len(rays)
	buf := scratch[:n]

	// Single pass: kept rays are appended to buf from the front, in order;
	// rejected rays are appended to buf from the back, which leaves them in
	// reverse order, so that tail is reversed in place below before the two
	// halves are copied back over rays.
	write, tail := 0, n
	for i := 0; i < n; i++ {
		if keep(&rays[i]) {
			buf[write] = rays[i]
			write++
		} else {
			tail--
			buf[tail] = rays[i]
		}
	}
	mid = write

	for lo, hi := tail, n-1; lo < hi; lo, hi = lo+1, hi-1 {
		buf[lo], buf[hi] = buf[hi], buf[lo]
	}

	copy(rays, buf)
	return mid
}
