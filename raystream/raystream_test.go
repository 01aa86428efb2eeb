package raystream_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staticagent/psychopath/raystream"
	"github.com/staticagent/psychopath/vmath"
)

func TestRayIDAndFlagsPacking(t *testing.T) {
	r := raystream.NewRay(vmath.Vec3{0, 0, 0}, vmath.Vec3{0, 0, 1}, 0, 1000, 12345)
	assert.Equal(t, uint32(12345), r.ID())
	assert.False(t, r.IsDone())
	assert.False(t, r.IsOcclusion())

	r.SetDone(true)
	assert.True(t, r.IsDone())
	assert.Equal(t, uint32(12345), r.ID(), "setting done must not disturb the id")

	r.SetOcclusion(true)
	assert.True(t, r.IsOcclusion())
	assert.True(t, r.IsDone())
	assert.Equal(t, uint32(12345), r.ID())

	r.SetDone(false)
	assert.False(t, r.IsDone())
	assert.True(t, r.IsOcclusion())
}

func TestRayDegenerate(t *testing.T) {
	zero := raystream.NewRay(vmath.Vec3{0, 0, 0}, vmath.Vec3{0, 0, 0}, 0, 1, 0)
	assert.True(t, zero.IsDegenerate())

	ok := raystream.NewRay(vmath.Vec3{0, 0, 0}, vmath.Vec3{1, 0, 0}, 0, 1, 0)
	assert.False(t, ok.IsDegenerate())
}

func TestRayWidth(t *testing.T) {
	r := raystream.Ray{
		OriginWidth: [2]float32{0.1, 0.1},
		WidthDelta:  [2]float32{0.5, 0.2},
		WidthFloor:  [2]float32{0.01, 0.01},
	}
	w0 := r.Width(0)
	w1 := r.Width(1)
	assert.Greater(t, w1, w0)
}

func TestBitStackPushPopRoundTrip(t *testing.T) {
	var stack uint64
	stack = raystream.PushBits(stack, 0b101, 3)
	stack = raystream.PushBit(stack, true)

	require.True(t, raystream.PeekBit(stack))
	stack, popped := raystream.PopBit(stack)
	assert.True(t, popped)

	stack2, val := raystream.PopBits(stack, 3)
	assert.Equal(t, uint32(0b101), val)
	assert.Equal(t, uint64(0), stack2)
}

func TestStablePartitionPreservesOrder(t *testing.T) {
	rays := make([]raystream.Ray, 6)
	for i := range rays {
		rays[i] = raystream.NewRay(vmath.Vec3{}, vmath.Vec3{0, 0, 1}, 0, 1, uint32(i))
	}
	// Mark even ids as "done" so odd ids (1,3,5) should be kept, in order.
	rays[0].SetDone(true)
	rays[2].SetDone(true)
	rays[4].SetDone(true)

	scratch := make([]raystream.Ray, len(rays))
	mid := raystream.StablePartition(rays, scratch, func(r *raystream.Ray) bool {
		return !r.IsDone()
	})

	require.Equal(t, 3, mid)
	assert.Equal(t, []uint32{1, 3, 5}, []uint32{rays[0].ID(), rays[1].ID(), rays[2].ID()})
	assert.Equal(t, []uint32{0, 2, 4}, []uint32{rays[3].ID(), rays[4].ID(), rays[5].ID()})
}
