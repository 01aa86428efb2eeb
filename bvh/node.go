// Package bvh implements the motion-blur-aware bounding volume hierarchy:
// median-centroid build, a flat pre-order node array with an implicit
// first-child layout, and the stream-partitioning, per-ray-bit-stack
// traversal that walks many rays through it at once, in either a
// width-2 or width-4 node fan-out.
package bvh

import (
	"github.com/staticagent/psychopath/bbox"
	"github.com/staticagent/psychopath/tsample"
)

// MaxWidth is the largest fan-out a node can carry (the BVH4 case).
const MaxWidth = 4

// Node is one entry of the flat, pre-order BVH array. A leaf carries an
// opaque payload index in LeafPayload and its own time-sampled bound in
// ChildBounds[0]. An inner node carries ChildCount (2..MaxWidth) children:
// the first child's node index is implicit (always the node's own index + 1
// in pre-order — see Node.childIndex); the remaining ChildCount-1 are explicit.
// Each child's time-sampled bound is copied inline into ChildBounds so a
// traversal step can test all of a node's children without chasing
// pointers into their own array slots — the parallel-slabs layout that
// makes per-axis SIMD-style box tests possible.
type Node struct {
	IsLeaf           bool
	ParentIndex      int32
	ChildCount       int32
	ExplicitChildren [MaxWidth - 1]int32
	ChildBounds      [MaxWidth]tsample.TimeSampled[bbox.BBox]
	LeafPayload      int32
}

// childIndex resolves the node-array index of this node's child at sorted
// position pos (0..ChildCount-1), given self is this node's own index.
func (n *Node) childIndex(self int32, pos int) int32 {
	if pos == 0 {
		return self + 1
	}
	return n.ExplicitChildren[pos-1]
}
