package bvh

import "github.com/staticagent/psychopath/bbox"

// Widen collapses a binary BVH into one with up to width-way fan-out per
// inner node, fusing consecutive inner-node binary children together.
// Widen(src, 2) is
// effectively a deep copy of src (every node already has ChildCount 2);
// Widen(src, 4) is the BVH4 shape.
//
// Each inner node greedily opens the not-yet-opened child with the
// largest own bounding surface area until it holds width children or runs
// out of inner children to open, a simple surface-area-driven collapse in
// place of a from-scratch SAH rebuild.
func Widen(src *BVH, width int) *BVH {
	if width < 2 {
		width = 2
	}
	if width > MaxWidth {
		width = MaxWidth
	}

	dst := &BVH{}
	if len(src.Nodes) == 0 {
		return dst
	}
	dst.widenFrom(src, 0, -1, width)
	return dst
}

func (dst *BVH) widenFrom(src *BVH, srcIdx, parent int32, width int) int32 {
	me := int32(len(dst.Nodes))
	dst.Nodes = append(dst.Nodes, Node{ParentIndex: parent})
	dst.OwnBounds = append(dst.OwnBounds, src.OwnBounds[srcIdx])

	srcNode := &src.Nodes[srcIdx]
	if srcNode.IsLeaf {
		dst.Nodes[me].IsLeaf = true
		dst.Nodes[me].LeafPayload = srcNode.LeafPayload
		dst.Nodes[me].ChildBounds[0] = srcNode.ChildBounds[0]
		return me
	}

	children := gatherChildren(src, srcIdx, width)
	dst.Nodes[me].ChildCount = int32(len(children))

	// Child 0 must land at me+1 (the implicit-first-child invariant), so it
	// has to be recursed into before any sibling.
	dst.widenFrom(src, children[0], me, width)
	dst.Nodes[me].ChildBounds[0] = src.OwnBounds[children[0]]

	for i := 1; i < len(children); i++ {
		idx := dst.widenFrom(src, children[i], me, width)
		dst.Nodes[me].ExplicitChildren[i-1] = idx
		dst.Nodes[me].ChildBounds[i] = src.OwnBounds[children[i]]
	}

	return me
}

// gatherChildren starts from srcIdx's two binary children and repeatedly
// replaces the largest not-yet-opened inner child with its own two
// children until width grandchildren are collected or every gathered
// child is a leaf.
func gatherChildren(src *BVH, srcIdx int32, width int) []int32 {
	node := &src.Nodes[srcIdx]
	children := []int32{node.childIndex(srcIdx, 0), node.childIndex(srcIdx, 1)}

	for len(children) < width {
		bestPos := -1
		bestArea := float32(-1)
		for i, c := range children {
			if src.Nodes[c].IsLeaf {
				continue
			}
			area := src.OwnBounds[c].Sample(0.5, bbox.Lerp).SurfaceArea()
			if area > bestArea {
				bestArea = area
				bestPos = i
			}
		}
		if bestPos < 0 {
			break
		}

		opened := children[bestPos]
		openedNode := &src.Nodes[opened]
		c0 := openedNode.childIndex(opened, 0)
		c1 := openedNode.childIndex(opened, 1)

		next := make([]int32, 0, len(children)+1)
		next = append(next, children[:bestPos]...)
		next = append(next, c0, c1)
		next = append(next, children[bestPos+1:]...)
		children = next
	}
	return children
}
