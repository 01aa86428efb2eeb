// Package bbox implements the time-sampled axis-aligned bounding box: the
// leaf-level bounded volume every BVH node and patch control net reduces to,
// and its SIMD-oriented width-4 counterpart used by the BVH4 node layout.
package bbox

import (
	"math"

	"github.com/staticagent/psychopath/vmath"
)

// BBox is a pair of points describing an axis-aligned box. The zero value is
// not a valid empty box — use Empty() — because Go's zero Vec3 is the
// origin, not +/-infinity.
type BBox struct {
	Min, Max vmath.Vec3
}

// Empty returns a degenerate box (min = +inf, max = -inf) such that merging
// it with any other box or point yields that box or point unchanged.
func Empty() BBox {
	inf := float32(math.Inf(1))
	return BBox{
		Min: vmath.Vec3{inf, inf, inf},
		Max: vmath.Vec3{-inf, -inf, -inf},
	}
}

// FromPoints builds a box that exactly bounds the given points.
func FromPoints(pts ...vmath.Vec3) BBox {
	b := Empty()
	for _, p := range pts {
		b = b.MergePoint(p)
	}
	return b
}

// Merge returns the smallest box containing both b and other.
func (b BBox) Merge(other BBox) BBox {
	return BBox{
		Min: vmath.Vec3{
			minf(b.Min[0], other.Min[0]),
			minf(b.Min[1], other.Min[1]),
			minf(b.Min[2], other.Min[2]),
		},
		Max: vmath.Vec3{
			maxf(b.Max[0], other.Max[0]),
			maxf(b.Max[1], other.Max[1]),
			maxf(b.Max[2], other.Max[2]),
		},
	}
}

// MergePoint returns the smallest box containing b and the point p.
func (b BBox) MergePoint(p vmath.Vec3) BBox {
	return BBox{
		Min: vmath.Vec3{minf(b.Min[0], p[0]), minf(b.Min[1], p[1]), minf(b.Min[2], p[2])},
		Max: vmath.Vec3{maxf(b.Max[0], p[0]), maxf(b.Max[1], p[1]), maxf(b.Max[2], p[2])},
	}
}

// Center returns the midpoint of the box.
func (b BBox) Center() vmath.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Diagonal returns max - min.
func (b BBox) Diagonal() vmath.Vec3 {
	return b.Max.Sub(b.Min)
}

// DiagonalLength returns the length of the box's diagonal.
func (b BBox) DiagonalLength() float32 {
	return b.Diagonal().Len()
}

// LongestAxis returns 0, 1, or 2 for x, y, z, the axis of greatest extent.
func (b BBox) LongestAxis() int {
	d := b.Diagonal()
	axis := 0
	if d[1] > d[axis] {
		axis = 1
	}
	if d[2] > d[axis] {
		axis = 2
	}
	return axis
}

// SurfaceArea returns the box's total surface area, the usual cost proxy
// for surface-area-heuristic splitting; exposed as a conventional BBox
// operation even though the builder in this package splits on centroid
// median rather than SAH.
func (b BBox) SurfaceArea() float32 {
	d := b.Diagonal()
	if d[0] < 0 || d[1] < 0 || d[2] < 0 {
		return 0
	}
	return 2 * (d[0]*d[1] + d[0]*d[2] + d[1]*d[2])
}

// Transform applies an affine matrix to the box by transforming its eight
// corners and re-bounding them. Used when an instance's local bound must be
// expressed in a parent's space.
func (b BBox) Transform(xform vmath.Matrix44) BBox {
	out := Empty()
	for i := 0; i < 8; i++ {
		corner := vmath.Vec3{
			pick(i&1 != 0, b.Min[0], b.Max[0]),
			pick(i&2 != 0, b.Min[1], b.Max[1]),
			pick(i&4 != 0, b.Min[2], b.Max[2]),
		}
		out = out.MergePoint(xform.TransformPoint(corner))
	}
	return out
}

// Inflate pads the box by amount on every axis in both directions. Used to
// grow a patch's control-net bound by its displacement tolerance before it
// is handed to the BVH builder.
func (b BBox) Inflate(amount float32) BBox {
	pad := vmath.Vec3{amount, amount, amount}
	return BBox{Min: b.Min.Sub(pad), Max: b.Max.Add(pad)}
}

func pick(cond bool, a, b float32) float32 {
	if cond {
		return b
	}
	return a
}

// DirSign holds, per axis, whether the ray's direction component is
// negative (1) or non-negative (0). Precomputing this (and the inverse
// direction) once per ray lets IntersectRay run branch-free in its inner
// loop.
type DirSign [3]int

// ComputeDirSign derives a DirSign from a ray direction.
func ComputeDirSign(dir vmath.Vec3) DirSign {
	var s DirSign
	for i := 0; i < 3; i++ {
		if dir[i] < 0 {
			s[i] = 1
		}
	}
	return s
}

// IntersectRay tests the closed segment [0, maxT] of a ray (given by origin
// and precomputed inverse direction / sign) against the box. It returns the
// near and far parametric distances, clipped to [0, maxT], and whether the
// ray hits at all. Flat or degenerate axes (min == max, or a ray parallel to
// an axis) still register a hit when the ray origin lies within the slab,
// because +/-Inf arithmetic on a zero-width slab naturally produces
// [-Inf, +Inf] or an empty interval as appropriate. An origin lying exactly
// on a face of a slab the ray runs parallel to gives a NaN bound (0 * Inf);
// every comparison below skips a NaN, so that axis leaves the interval as is.
func (b BBox) IntersectRay(origin, invDir vmath.Vec3, sign DirSign, maxT float32) (tNear, tFar float32, hit bool) {
	bounds := [2]vmath.Vec3{b.Min, b.Max}

	tmin := float32(math.Inf(-1))
	tmax := float32(math.Inf(1))
	if txmin := (bounds[sign[0]][0] - origin[0]) * invDir[0]; txmin > tmin {
		tmin = txmin
	}
	if txmax := (bounds[1-sign[0]][0] - origin[0]) * invDir[0]; txmax < tmax {
		tmax = txmax
	}
	tymin := (bounds[sign[1]][1] - origin[1]) * invDir[1]
	tymax := (bounds[1-sign[1]][1] - origin[1]) * invDir[1]

	if tymin > tmin {
		tmin = tymin
	}
	if tymax < tmax {
		tmax = tymax
	}

	tzmin := (bounds[sign[2]][2] - origin[2]) * invDir[2]
	tzmax := (bounds[1-sign[2]][2] - origin[2]) * invDir[2]
	if tzmin > tmin {
		tmin = tzmin
	}
	if tzmax < tmax {
		tmax = tzmax
	}

	if tmin <= tmax && tmin <= maxT && tmax >= 0 {
		near := tmin
		if near < 0 {
			near = 0
		}
		far := tmax
		if far > maxT {
			far = maxT
		}
		return near, far, true
	}
	return 0, 0, false
}

// Lerp linearly interpolates two boxes component-wise, used as the
// tsample.Lerp[BBox] rule for TimeSampled[BBox].
func Lerp(a, b BBox, alpha float32) BBox {
	return BBox{
		Min: vmath.Lerp3(a.Min, b.Min, alpha),
		Max: vmath.Lerp3(a.Max, b.Max, alpha),
	}
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
