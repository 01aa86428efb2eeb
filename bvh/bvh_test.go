package bvh_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staticagent/psychopath/bbox"
	"github.com/staticagent/psychopath/bvh"
	"github.com/staticagent/psychopath/raystream"
	"github.com/staticagent/psychopath/tsample"
	"github.com/staticagent/psychopath/vmath"
)

func boxAt(center vmath.Vec3, half float32) bbox.BBox {
	return bbox.BBox{
		Min: vmath.Vec3{center[0] - half, center[1] - half, center[2] - half},
		Max: vmath.Vec3{center[0] + half, center[1] + half, center[2] + half},
	}
}

func TestBuildSinglePrimitiveIsLeaf(t *testing.T) {
	prims := []bvh.Primitive{
		{Bounds: tsample.New(boxAt(vmath.Vec3{0, 0, 0}, 1)), Payload: 42},
	}
	tree := bvh.Build(prims)
	require.Len(t, tree.Nodes, 1)
	assert.True(t, tree.Nodes[0].IsLeaf)
	assert.Equal(t, int32(42), tree.Nodes[0].LeafPayload)
}

func TestBuildEmptyIsNoop(t *testing.T) {
	tree := bvh.Build(nil)
	assert.Empty(t, tree.Nodes)

	rays := []raystream.Ray{raystream.NewRay(vmath.Vec3{0, 0, -10}, vmath.Vec3{0, 0, 1}, 0, 1000, 0)}
	scratch := make([]raystream.Ray, 1)
	hits := 0
	bvh.Traverse(tree, rays, 0, 1, scratch, func(payload int32, rays []raystream.Ray, lo, hi int) {
		hits++
	})
	assert.Equal(t, 0, hits)
}

func TestBuildTwoPrimitivesBinarySplit(t *testing.T) {
	prims := []bvh.Primitive{
		{Bounds: tsample.New(boxAt(vmath.Vec3{-5, 0, 0}, 1)), Payload: 0},
		{Bounds: tsample.New(boxAt(vmath.Vec3{5, 0, 0}, 1)), Payload: 1},
	}
	tree := bvh.Build(prims)
	require.Len(t, tree.Nodes, 3)
	assert.False(t, tree.Nodes[0].IsLeaf)
	assert.Equal(t, int32(2), tree.Nodes[0].ChildCount)
	assert.True(t, tree.Nodes[1].IsLeaf)
	assert.True(t, tree.Nodes[2].IsLeaf)
}

func TestTraverseHitsOnlyLeftInstance(t *testing.T) {
	// Mirrors spec.md's two-instance scenario: boxes at x=-2 and x=+2, a
	// ray travelling +z from (-2, 0, -10) should hit only the left one.
	prims := []bvh.Primitive{
		{Bounds: tsample.New(boxAt(vmath.Vec3{-2, 0, 0}, 1)), Payload: 100},
		{Bounds: tsample.New(boxAt(vmath.Vec3{2, 0, 0}, 1)), Payload: 200},
	}
	tree := bvh.Build(prims)

	rays := []raystream.Ray{raystream.NewRay(vmath.Vec3{-2, 0, -10}, vmath.Vec3{0, 0, 1}, 0, 1000, 0)}
	scratch := make([]raystream.Ray, 1)

	var visited []int32
	bvh.Traverse(tree, rays, 0, 1, scratch, func(payload int32, rays []raystream.Ray, lo, hi int) {
		visited = append(visited, payload)
	})

	assert.Equal(t, []int32{100}, visited)
}

func TestTraverseMotionBlurredTimeSample(t *testing.T) {
	// A box that moves from x=[-1,1] at t=0 to x=[9,11] at t=1. A ray fired
	// at t=0 should hit the box in its t=0 position and miss its t=1
	// position, and vice-versa.
	moving := tsample.NewMotion([]bbox.BBox{
		boxAt(vmath.Vec3{0, 0, 0}, 1),
		boxAt(vmath.Vec3{10, 0, 0}, 1),
	})
	prims := []bvh.Primitive{{Bounds: moving, Payload: 7}}
	tree := bvh.Build(prims)

	rayAtStart := raystream.NewRay(vmath.Vec3{0, 0, -10}, vmath.Vec3{0, 0, 1}, 0, 1000, 0)
	rayAtEnd := raystream.NewRay(vmath.Vec3{0, 0, -10}, vmath.Vec3{0, 0, 1}, 1, 1000, 1)

	rays := []raystream.Ray{rayAtStart, rayAtEnd}
	scratch := make([]raystream.Ray, 2)

	var hitIDs []uint32
	bvh.Traverse(tree, rays, 0, 2, scratch, func(payload int32, rays []raystream.Ray, lo, hi int) {
		for i := lo; i < hi; i++ {
			hitIDs = append(hitIDs, rays[i].ID())
		}
	})

	assert.Equal(t, []uint32{0}, hitIDs, "only the ray sampled at t=0 should be routed to the leaf")
}

func TestWidenPreservesLeafPayloads(t *testing.T) {
	prims := []bvh.Primitive{
		{Bounds: tsample.New(boxAt(vmath.Vec3{-3, 0, 0}, 1)), Payload: 1},
		{Bounds: tsample.New(boxAt(vmath.Vec3{-1, 0, 0}, 1)), Payload: 2},
		{Bounds: tsample.New(boxAt(vmath.Vec3{1, 0, 0}, 1)), Payload: 3},
		{Bounds: tsample.New(boxAt(vmath.Vec3{3, 0, 0}, 1)), Payload: 4},
	}
	bin := bvh.Build(prims)
	wide := bvh.Widen(bin, 4)

	leafPayloads := func(tree *bvh.BVH) []int32 {
		var out []int32
		for _, n := range tree.Nodes {
			if n.IsLeaf {
				out = append(out, n.LeafPayload)
			}
		}
		return out
	}

	binPayloads := leafPayloads(bin)
	widePayloads := leafPayloads(wide)
	assert.ElementsMatch(t, binPayloads, widePayloads)
	assert.Equal(t, int32(4), wide.Nodes[0].ChildCount)
}

func TestWidenFlatteningStillFindsHits(t *testing.T) {
	prims := []bvh.Primitive{
		{Bounds: tsample.New(boxAt(vmath.Vec3{-6, 0, 0}, 1)), Payload: 1},
		{Bounds: tsample.New(boxAt(vmath.Vec3{-2, 0, 0}, 1)), Payload: 2},
		{Bounds: tsample.New(boxAt(vmath.Vec3{2, 0, 0}, 1)), Payload: 3},
		{Bounds: tsample.New(boxAt(vmath.Vec3{6, 0, 0}, 1)), Payload: 4},
	}
	bin := bvh.Build(prims)
	wide := bvh.Widen(bin, 4)

	rays := []raystream.Ray{raystream.NewRay(vmath.Vec3{2, 0, -10}, vmath.Vec3{0, 0, 1}, 0, 1000, 0)}
	scratch := make([]raystream.Ray, 1)

	var visited []int32
	bvh.Traverse(wide, rays, 0, 1, scratch, func(payload int32, rays []raystream.Ray, lo, hi int) {
		visited = append(visited, payload)
	})

	assert.Equal(t, []int32{3}, visited)
}
