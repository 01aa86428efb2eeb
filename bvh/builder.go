package bvh

import (
	"sort"

	"github.com/staticagent/psychopath/bbox"
	"github.com/staticagent/psychopath/tsample"
	"github.com/staticagent/psychopath/vmath"
)

// Primitive is one item submitted to Build: a time-sampled world-space
// bound and an opaque payload (an instance or object index) recovered at
// the leaf that ends up holding it.
type Primitive struct {
	Bounds  tsample.TimeSampled[bbox.BBox]
	Payload int32
}

// BVH is a flat, pre-order array of Nodes. A freshly Built tree has
// ChildCount == 2 at every inner node ("BVH2"); Widen fuses pairs of binary
// levels to raise fan-out up to MaxWidth ("BVH4"). Both shapes share the
// same Node representation and the same Traverse.
type BVH struct {
	Nodes []Node

	// OwnBounds[i] is node i's own time-sampled extent — the bound its
	// parent copies into its own ChildBounds entry. Root has no parent, so
	// OwnBounds[0] is how a caller (e.g. an Assembly asking for its
	// instance-BVH's world extent) recovers the whole tree's bound.
	OwnBounds []tsample.TimeSampled[bbox.BBox]
}

type primCentroid struct {
	prim   Primitive
	center vmath.Vec3
}

// Build constructs a binary BVH over prims via recursive top-down median
// split on time-0.5 centroid. A surface-area-heuristic split was
// considered and rejected as a starting point; see DESIGN.md.
//
// Build returns an empty tree for zero primitives; Traverse on an empty
// tree is then a no-op.
func Build(prims []Primitive) *BVH {
	t := &BVH{}
	if len(prims) == 0 {
		return t
	}

	bag := make([]primCentroid, len(prims))
	for i, p := range prims {
		bb := p.Bounds.Sample(0.5, bbox.Lerp)
		bag[i] = primCentroid{prim: p, center: bb.Center()}
	}

	t.build(bag, -1)
	return t
}

func (t *BVH) build(bag []primCentroid, parent int32) (int32, tsample.TimeSampled[bbox.BBox]) {
	me := int32(len(t.Nodes))
	t.Nodes = append(t.Nodes, Node{ParentIndex: parent})
	t.OwnBounds = append(t.OwnBounds, tsample.TimeSampled[bbox.BBox]{})

	if len(bag) == 1 {
		own := bag[0].prim.Bounds
		t.Nodes[me].IsLeaf = true
		t.Nodes[me].LeafPayload = bag[0].prim.Payload
		t.Nodes[me].ChildBounds[0] = own
		t.OwnBounds[me] = own
		return me, own
	}

	axis, mid := splitAxisAndMid(bag)
	splitIdx := partitionByCentroid(bag, axis, mid)

	_, leftBound := t.build(bag[:splitIdx], me)
	rightIdx, rightBound := t.build(bag[splitIdx:], me)

	own := unionTimeSampled(leftBound, rightBound)

	t.Nodes[me].ChildCount = 2
	t.Nodes[me].ExplicitChildren[0] = rightIdx
	t.Nodes[me].ChildBounds[0] = leftBound
	t.Nodes[me].ChildBounds[1] = rightBound
	t.OwnBounds[me] = own

	return me, own
}

// splitAxisAndMid finds the centroid extent's largest axis and its
// midpoint, per split_primitives.
func splitAxisAndMid(bag []primCentroid) (axis int, mid float32) {
	min := bag[0].center
	max := bag[0].center
	for _, pc := range bag[1:] {
		for d := 0; d < 3; d++ {
			if pc.center[d] < min[d] {
				min[d] = pc.center[d]
			}
			if pc.center[d] > max[d] {
				max[d] = pc.center[d]
			}
		}
	}

	axis = 0
	if (max[1] - min[1]) > (max[0] - min[0]) {
		axis = 1
	}
	if (max[2] - min[2]) > (max[axis] - min[axis]) {
		axis = 2
	}
	mid = 0.5 * (min[axis] + max[axis])
	return axis, mid
}

// partitionByCentroid reorders bag in place so entries with center[axis] <
// mid come first, returning the split index. Falls back to a first-axis
// median split when the centroid partition is degenerate (every primitive
// lands on one side), so recursion always terminates.
func partitionByCentroid(bag []primCentroid, axis int, mid float32) int {
	i, j := 0, len(bag)
	for i < j {
		if bag[i].center[axis] < mid {
			i++
		} else {
			j--
			bag[i], bag[j] = bag[j], bag[i]
		}
	}

	if i == 0 || i == len(bag) {
		sort.Slice(bag, func(a, b int) bool { return bag[a].center[0] < bag[b].center[0] })
		i = len(bag) / 2
		if i == 0 {
			i = 1
		}
	}
	return i
}

// unionTimeSampled merges two children's time-sampled bounds into their
// parent's own bound. Equal sample counts merge sample-for-sample;
// mismatched counts collapse to a single sample unioning every sample from
// both.
func unionTimeSampled(a, b tsample.TimeSampled[bbox.BBox]) tsample.TimeSampled[bbox.BBox] {
	if a.Count() == b.Count() {
		n := a.Count()
		out := make([]bbox.BBox, n)
		for i := 0; i < n; i++ {
			out[i] = a.At(i).Merge(b.At(i))
		}
		return tsample.NewMotion(out)
	}

	u := bbox.Empty()
	for i := 0; i < a.Count(); i++ {
		u = u.Merge(a.At(i))
	}
	for i := 0; i < b.Count(); i++ {
		u = u.Merge(b.At(i))
	}
	return tsample.New(u)
}
