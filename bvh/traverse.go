package bvh

import (
	"math"
	"sort"

	"github.com/staticagent/psychopath/bbox"
	"github.com/staticagent/psychopath/raystream"
)

// Dispatch is called once per leaf visited with a stable hit, active range
// over rays[lo:hi). The BVH package has no notion of what a leaf payload
// means (an instance index, an object index) — that belongs to the caller
// (scene/tracer), keeping this package free of a dependency on either.
type Dispatch func(payload int32, rays []raystream.Ray, lo, hi int)

type frame struct {
	node        int32
	lo, hi      int
	needsBitPop bool
}

// Traverse drives the partition-based, per-ray-bit-stack descent: a shared
// stack of (node, ray-range) frames, rays partitioned in place at every
// frame, and a per-ray bit (raystream.Ray's TravStack) recording which
// not-yet-visited siblings at ancestor levels a ray is still pending at.
//
// rays[lo:hi] and scratch[lo:hi] are the active working range; scratch
// must have the same length as rays (stable partitioning needs a same-size
// buffer). rays outside [lo:hi) are untouched.
func Traverse(tree *BVH, rays []raystream.Ray, lo, hi int, scratch []raystream.Ray, dispatch Dispatch) {
	if len(tree.Nodes) == 0 || hi <= lo {
		return
	}

	stack := []frame{{node: 0, lo: lo, hi: hi, needsBitPop: false}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		sub := rays[f.lo:f.hi]
		subScratch := scratch[f.lo:f.hi]
		mid := raystream.StablePartition(sub, subScratch, func(r *raystream.Ray) bool {
			if r.IsDone() {
				return false
			}
			if !f.needsBitPop {
				return true
			}
			remaining, bit := raystream.PopBit(r.TravStack)
			r.TravStack = remaining
			return bit
		})
		f.hi = f.lo + mid
		if f.lo == f.hi {
			continue
		}

		node := &tree.Nodes[f.node]
		if node.IsLeaf {
			// A leaf reached with no parent test above it (the degenerate
			// single-primitive tree, where the leaf is the root) still
			// needs its own bound tested; for any other leaf this repeats
			// a test the parent already made, which is harmless.
			leafMid := raystream.StablePartition(rays[f.lo:f.hi], scratch[f.lo:f.hi], func(r *raystream.Ray) bool {
				b := node.ChildBounds[0].Sample(r.Time, bbox.Lerp)
				_, _, hit := b.IntersectRay(r.Origin, r.InvDir, r.Sign, r.MaxT)
				return hit
			})
			if leafMid > 0 {
				dispatch(node.LeafPayload, rays, f.lo, f.lo+leafMid)
			}
			continue
		}

		childCount := int(node.ChildCount)
		order := childOrderByFirstRay(node, rays[f.lo:f.hi])

		anyHit := false
		for i := f.lo; i < f.hi; i++ {
			ray := &rays[i]

			var b4 bbox.BBox4
			for c := 0; c < childCount; c++ {
				b4.Set(c, node.ChildBounds[c].Sample(ray.Time, bbox.Lerp))
			}
			for c := childCount; c < 4; c++ {
				b4.Set(c, bbox.Empty())
			}

			mask, _ := b4.IntersectRay4(ray.Origin, ray.InvDir, ray.Sign, ray.MaxT)
			if mask != 0 {
				anyHit = true
			}

			// Push one bit per sorted child position, nearest-last so the
			// nearest sibling's bit sits on top (popped first).
			for k := childCount - 1; k >= 0; k-- {
				childPos := order[k]
				hit := (mask>>uint(childPos))&1 != 0
				ray.TravStack = raystream.PushBit(ray.TravStack, hit)
			}
		}

		if !anyHit {
			// No child frame will be pushed to pop the bits pushed above,
			// so drop them here to keep every ray's bit-stack balanced.
			for i := f.lo; i < f.hi; i++ {
				rays[i].TravStack >>= uint(childCount)
			}
			continue
		}

		for k := childCount - 1; k >= 0; k-- {
			childPos := order[k]
			stack = append(stack, frame{
				node:        node.childIndex(f.node, childPos),
				lo:          f.lo,
				hi:          f.hi,
				needsBitPop: true,
			})
		}
	}
}

// childOrderByFirstRay picks the near-to-far child visiting order using
// the first active ray's per-child near-t, determined once per node by
// the first ray's near-t ordering.
func childOrderByFirstRay(node *Node, rays []raystream.Ray) [MaxWidth]int {
	var order [MaxWidth]int
	for i := range order {
		order[i] = i
	}
	if len(rays) == 0 {
		return order
	}

	childCount := int(node.ChildCount)
	ray := &rays[0]
	var nearT [MaxWidth]float32
	for c := 0; c < childCount; c++ {
		b := node.ChildBounds[c].Sample(ray.Time, bbox.Lerp)
		near, _, hit := b.IntersectRay(ray.Origin, ray.InvDir, ray.Sign, ray.MaxT)
		if hit {
			nearT[c] = near
		} else {
			nearT[c] = float32(math.Inf(1))
		}
	}

	sortable := order[:childCount]
	sort.Slice(sortable, func(i, j int) bool { return nearT[sortable[i]] < nearT[sortable[j]] })
	return order
}
