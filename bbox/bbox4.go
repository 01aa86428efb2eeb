package bbox

import (
	"math"

	"github.com/staticagent/psychopath/vmath"
)

// BBox4 stores four BBoxes with their components interleaved into parallel
// slabs (MinX[0..4], MaxX[0..4], MinY[0..4], ...) so a single pass over each
// axis tests all four children at once. Go has no portable SIMD intrinsic,
// so "SIMD" here means data laid out for auto-vectorization of the inner
// per-axis loops, the same cache-friendly struct-of-arrays shape flat BVH
// node layouts use for bulk tests even where the host language can't force
// vector instructions explicitly.
type BBox4 struct {
	MinX, MaxX [4]float32
	MinY, MaxY [4]float32
	MinZ, MaxZ [4]float32
}

// EmptyBBox4 returns a BBox4 with all four lanes set to the empty box.
func EmptyBBox4() BBox4 {
	var b4 BBox4
	e := Empty()
	for i := 0; i < 4; i++ {
		b4.Set(i, e)
	}
	return b4
}

// Set stores box b into lane i (0..3).
func (b4 *BBox4) Set(i int, b BBox) {
	b4.MinX[i], b4.MaxX[i] = b.Min[0], b.Max[0]
	b4.MinY[i], b4.MaxY[i] = b.Min[1], b.Max[1]
	b4.MinZ[i], b4.MaxZ[i] = b.Min[2], b.Max[2]
}

// Get extracts lane i (0..3) back into a BBox.
func (b4 BBox4) Get(i int) BBox {
	return BBox{
		Min: vmath.Vec3{b4.MinX[i], b4.MinY[i], b4.MinZ[i]},
		Max: vmath.Vec3{b4.MaxX[i], b4.MaxY[i], b4.MaxZ[i]},
	}
}

// IntersectRay4 tests all four lanes against one ray and returns a 4-bit hit
// mask (bit i set if lane i is hit) plus each lane's near-t, following the
// same branch-free slab formula as BBox.IntersectRay but unrolled over the
// four lanes so the per-axis min/max comparisons run as four independent,
// vectorizable streams.
func (b4 BBox4) IntersectRay4(origin, invDir vmath.Vec3, sign DirSign, maxT float32) (mask uint8, tNear [4]float32) {
	var tmin, tmax [4]float32

	minX, maxX := b4.laneBounds(0, sign[0])
	for i := 0; i < 4; i++ {
		tmin[i], tmax[i] = float32(math.Inf(-1)), float32(math.Inf(1))
		if txmin := (minX[i] - origin[0]) * invDir[0]; txmin > tmin[i] {
			tmin[i] = txmin
		}
		if txmax := (maxX[i] - origin[0]) * invDir[0]; txmax < tmax[i] {
			tmax[i] = txmax
		}
	}

	minY, maxY := b4.laneBounds(1, sign[1])
	for i := 0; i < 4; i++ {
		tymin := (minY[i] - origin[1]) * invDir[1]
		tymax := (maxY[i] - origin[1]) * invDir[1]
		if tymin > tmin[i] {
			tmin[i] = tymin
		}
		if tymax < tmax[i] {
			tmax[i] = tymax
		}
	}

	minZ, maxZ := b4.laneBounds(2, sign[2])
	for i := 0; i < 4; i++ {
		tzmin := (minZ[i] - origin[2]) * invDir[2]
		tzmax := (maxZ[i] - origin[2]) * invDir[2]
		if tzmin > tmin[i] {
			tmin[i] = tzmin
		}
		if tzmax < tmax[i] {
			tmax[i] = tzmax
		}
	}

	for i := 0; i < 4; i++ {
		if tmin[i] <= tmax[i] && tmin[i] <= maxT && tmax[i] >= 0 {
			mask |= 1 << uint(i)
			near := tmin[i]
			if near < 0 {
				near = 0
			}
			tNear[i] = near
		}
	}
	return mask, tNear
}

// laneBounds returns, for the given axis, the "near" and "far" slab arrays
// selected by the ray's direction sign on that axis (mirroring the scalar
// bounds[sign]/bounds[1-sign] indexing trick of BBox.IntersectRay).
func (b4 BBox4) laneBounds(axis, sign int) (near, far [4]float32) {
	var minArr, maxArr [4]float32
	switch axis {
	case 0:
		minArr, maxArr = b4.MinX, b4.MaxX
	case 1:
		minArr, maxArr = b4.MinY, b4.MaxY
	default:
		minArr, maxArr = b4.MinZ, b4.MaxZ
	}
	if sign == 0 {
		return minArr, maxArr
	}
	return maxArr, minArr
}
