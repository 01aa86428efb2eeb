package bbox_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staticagent/psychopath/bbox"
	"github.com/staticagent/psychopath/vmath"
)

func unitBox() bbox.BBox {
	return bbox.BBox{Min: vmath.Vec3{-1, -1, -1}, Max: vmath.Vec3{1, 1, 1}}
}

func TestIntersectRay_SingleAxisAligned(t *testing.T) {
	b := unitBox()
	origin := vmath.Vec3{0, -8, 0}
	dir := vmath.Vec3{0, 1, 0}
	invDir := vmath.Vec3{1 / dir[0], 1 / dir[1], 1 / dir[2]}
	sign := bbox.ComputeDirSign(dir)

	near, far, hit := b.IntersectRay(origin, invDir, sign, 100)
	require.True(t, hit)
	assert.InDelta(t, 7.0, near, 1e-5)
	assert.InDelta(t, 9.0, far, 1e-5)
}

func TestIntersectRay_OriginInsideBox(t *testing.T) {
	b := unitBox()
	origin := vmath.Vec3{0, 0, 0}
	dir := vmath.Vec3{0, 1, 0}
	invDir := vmath.Vec3{1 / dir[0], 1 / dir[1], 1 / dir[2]}
	sign := bbox.ComputeDirSign(dir)

	near, far, hit := b.IntersectRay(origin, invDir, sign, 100)
	require.True(t, hit)
	assert.InDelta(t, 0.0, near, 1e-5)
	assert.InDelta(t, 1.0, far, 1e-5)
}

func TestIntersectRay_FlatBox(t *testing.T) {
	b := bbox.BBox{Min: vmath.Vec3{1, -1, -1}, Max: vmath.Vec3{1, 1, 1}}
	origin := vmath.Vec3{-4, 0, 0}
	dir := vmath.Vec3{1, 0, 0}
	invDir := vmath.Vec3{1 / dir[0], 1 / dir[1], 1 / dir[2]}
	sign := bbox.ComputeDirSign(dir)

	near, far, hit := b.IntersectRay(origin, invDir, sign, 100)
	require.True(t, hit)
	assert.InDelta(t, 5.0, near, 1e-5)
	assert.InDelta(t, 5.0, far, 1e-5)
}

func TestIntersectRay_Miss(t *testing.T) {
	b := unitBox()
	origin := vmath.Vec3{5, 5, 5}
	dir := vmath.Vec3{0, 0, 1}
	invDir := vmath.Vec3{1 / dir[0], 1 / dir[1], 1 / dir[2]}
	sign := bbox.ComputeDirSign(dir)

	_, _, hit := b.IntersectRay(origin, invDir, sign, 1000)
	assert.False(t, hit)
}

func TestMerge_Associative(t *testing.T) {
	a := bbox.FromPoints(vmath.Vec3{0, 0, 0}, vmath.Vec3{1, 1, 1})
	b := bbox.FromPoints(vmath.Vec3{-1, 2, 0}, vmath.Vec3{3, 3, 3})
	c := bbox.FromPoints(vmath.Vec3{-5, -5, -5}, vmath.Vec3{0.5, 0.5, 0.5})

	left := a.Merge(b.Merge(c))
	right := (a.Merge(b)).Merge(c)

	assert.Equal(t, left.Min, right.Min)
	assert.Equal(t, left.Max, right.Max)
}

func TestMergeEmpty_Identity(t *testing.T) {
	empty := bbox.Empty()
	a := bbox.FromPoints(vmath.Vec3{1, 2, 3}, vmath.Vec3{4, 5, 6})
	merged := empty.Merge(a)
	assert.Equal(t, a.Min, merged.Min)
	assert.Equal(t, a.Max, merged.Max)
}

func TestLongestAxisAndSurfaceArea(t *testing.T) {
	b := bbox.BBox{Min: vmath.Vec3{0, 0, 0}, Max: vmath.Vec3{1, 2, 4}}
	assert.Equal(t, 2, b.LongestAxis())
	assert.InDelta(t, float32(2*(1*2+1*4+2*4)), b.SurfaceArea(), 1e-4)
}

func TestBBox4MatchesScalar(t *testing.T) {
	boxes := []bbox.BBox{
		unitBox(),
		{Min: vmath.Vec3{5, 5, 5}, Max: vmath.Vec3{6, 6, 6}},
		{Min: vmath.Vec3{-3, -3, -3}, Max: vmath.Vec3{-2, -2, -2}},
		bbox.Empty(),
	}
	var b4 bbox.BBox4
	for i, b := range boxes {
		b4.Set(i, b)
	}

	origin := vmath.Vec3{0, -8, 0}
	dir := vmath.Vec3{0, 1, 0}
	invDir := vmath.Vec3{1 / dir[0], 1 / dir[1], 1 / dir[2]}
	sign := bbox.ComputeDirSign(dir)

	mask, near := b4.IntersectRay4(origin, invDir, sign, 100)

	for i, b := range boxes {
		wantNear, _, wantHit := b.IntersectRay(origin, invDir, sign, 100)
		gotHit := mask&(1<<uint(i)) != 0
		assert.Equal(t, wantHit, gotHit, "lane %d", i)
		if wantHit {
			assert.InDelta(t, wantNear, near[i], 1e-4, "lane %d", i)
		}
	}
}
