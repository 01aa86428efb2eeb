// Package raystream holds the glue types the rest of the core is built
// around: the world-space Ray and its per-ray differential/traversal state,
// the Intersection record a hit is written into, the depth-indexed scratch
// arena the tracer keeps its per-depth ray buffers in, and the stable
// partition both the BVH traversal and the patch splitter use to separate
// "still active" rays from "done" ones in place, through a caller-owned
// scratch buffer rather than a fresh allocation.
package raystream

import (
	"math"

	"github.com/staticagent/psychopath/bbox"
	"github.com/staticagent/psychopath/vmath"
)

// Ray flag bit positions within IDFlags, matching the C++ id_and_flags
// packing: top two bits are flags, the remaining 30 are the ray id.
const (
	occlusionBit = uint32(1) << 30
	doneBit      = uint32(1) << 31
	idMask       = ^uint32(0) >> 2
)

// Ray is a world-space directed ray carried through BVH and patch
// traversal. Most fields are written once by the camera / integrator and
// read-only afterward; MaxT, IDFlags (done bit) and TravStack are mutated
// in place during traversal.
type Ray struct {
	Origin vmath.Vec3
	Dir    vmath.Vec3
	InvDir vmath.Vec3
	Sign   bbox.DirSign

	MaxT float32
	Time float32

	// Differential footprint:
	// width(t) = |(OriginWidth - WidthFloor) + WidthDelta*t| + WidthFloor,
	// so never below WidthFloor, tracked per axis (x, y of the ray's
	// local differential frame). This is the ray-width formulation the
	// tracer and patch splitter use to decide when to stop subdividing.
	OriginWidth [2]float32
	WidthDelta  [2]float32
	WidthFloor  [2]float32

	IDFlags   uint32
	TravStack uint64 // bit-stack of pending BVH siblings, see BitStack64
}

// NewRay builds a ray and precomputes its acceleration data (inverse
// direction, direction sign). Degenerate directions (zero length, NaN) are
// left for the caller to detect via IsDegenerate — constructing a Ray never
// panics.
func NewRay(origin, dir vmath.Vec3, time, maxT float32, id uint32) Ray {
	r := Ray{Origin: origin, Dir: dir, Time: time, MaxT: maxT}
	r.SetID(id)
	r.UpdateAccel()
	return r
}

// UpdateAccel recomputes the inverse direction and sign fields from Dir.
// Must be called once after Dir is set or changed (e.g. when transforming a
// ray into instance-local space) and before any BBox intersection test.
func (r *Ray) UpdateAccel() {
	r.InvDir = vmath.Vec3{1.0 / r.Dir[0], 1.0 / r.Dir[1], 1.0 / r.Dir[2]}
	r.Sign = bbox.ComputeDirSign(r.Dir)
}

// IsDegenerate reports a NaN/Inf origin or direction, or a zero-length
// direction.
func (r Ray) IsDegenerate() bool {
	for i := 0; i < 3; i++ {
		if isBad(r.Origin[i]) || isBad(r.Dir[i]) {
			return true
		}
	}
	return r.Dir.Len() == 0
}

func isBad(f float32) bool {
	return math.IsNaN(float64(f)) || math.IsInf(float64(f), 0)
}

// IsOcclusion reports whether this is a shadow/occlusion ray, which
// terminates on the first hit rather than the closest.
func (r Ray) IsOcclusion() bool { return r.IDFlags&occlusionBit != 0 }

// SetOcclusion sets or clears the occlusion flag.
func (r *Ray) SetOcclusion(v bool) {
	if v {
		r.IDFlags |= occlusionBit
	} else {
		r.IDFlags &^= occlusionBit
	}
}

// IsDone reports whether the ray has finished traversal (occluded,
// degenerate, or already resolved to a leaf hit).
func (r Ray) IsDone() bool { return r.IDFlags&doneBit != 0 }

// SetDone sets or clears the done flag.
func (r *Ray) SetDone(v bool) {
	if v {
		r.IDFlags |= doneBit
	} else {
		r.IDFlags &^= doneBit
	}
}

// ID returns the packed 30-bit ray id, used to index the Intersection
// output slice regardless of how the stream gets partitioned and reordered.
func (r Ray) ID() uint32 { return r.IDFlags & idMask }

// SetID stores a 30-bit ray id, preserving the flag bits.
func (r *Ray) SetID(id uint32) {
	r.IDFlags = (r.IDFlags &^ idMask) | (id & idMask)
}

// Width returns the ray's footprint at parametric distance t.
func (r Ray) Width(t float32) float32 {
	x := absf((r.OriginWidth[0]-r.WidthFloor[0])+r.WidthDelta[0]*t) + r.WidthFloor[0]
	y := absf((r.OriginWidth[1]-r.WidthFloor[1])+r.WidthDelta[1]*t) + r.WidthFloor[1]
	return minf(x, y)
}

// MinWidth estimates the minimum footprint over [tNear, tFar], used by the
// patch splitter to decide when a sub-patch is small enough to dice.
func (r Ray) MinWidth(tNear, tFar float32) float32 {
	return minf(r.widthRangeMinAxis(0, tNear, tFar), r.widthRangeMinAxis(1, tNear, tFar))
}

func (r Ray) widthRangeMinAxis(axis int, tNear, tFar float32) float32 {
	ow, wd, wf := r.OriginWidth[axis], r.WidthDelta[axis], r.WidthFloor[axis]
	if wd == 0 {
		return absf(ow-wf) + wf
	}
	tFlip := (ow - wf) / wd
	if tNear < tFlip && tFar > tFlip {
		return wf
	}
	a := absf((ow-wf)+wd*tNear) + wf
	b := absf((ow-wf)+wd*tFar) + wf
	return minf(a, b)
}

func absf(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
