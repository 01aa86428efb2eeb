package patch

import (
	"github.com/staticagent/psychopath/bbox"
	"github.com/staticagent/psychopath/raystream"
	"github.com/staticagent/psychopath/tsample"
	"github.com/staticagent/psychopath/vmath"
)

const maxSplitStackSize = 64

type rayRange struct{ lo, hi int }

type uvRange struct{ uMin, uMax, vMin, vMax float32 }

// SpaceAt resolves a ray's shutter time to the transform chain its
// intersection record should be expressed in, interpolating between the
// enclosing instance's sampled transforms at that time. Top-level geometry
// with no enclosing assembly instance passes a nil SpaceAt.
type SpaceAt func(time float32) vmath.Matrix44

// IntersectStream drives the recursive split-then-test traversal of a
// time-sampled patch net: rays with pending work are stably partitioned
// against progressively finer subdivisions of net until each either misses,
// resolves against a leaf-sized patch, or the split recursion bottoms out at
// cfg.MaxSplitDepth. rays[lo:hi] and intersections share ray IDs as the
// index into intersections.
//
// partitionScratch is indexed in parallel with rays, so it must have length
// >= hi; callers own the buffer so no allocation happens on the traversal
// hot path.
func IntersectStream(
	net tsample.TimeSampled[Net],
	rays []raystream.Ray,
	lo, hi int,
	intersections []raystream.Intersection,
	partitionScratch []raystream.Ray,
	space SpaceAt,
	elementID raystream.ElementID,
	shaderName string,
	cfg Config,
) {
	tsc := net.Count()
	if tsc == 0 || hi <= lo {
		return
	}

	maxDepth := cfg.MaxSplitDepth
	if maxDepth <= 0 || maxDepth > maxSplitStackSize {
		maxDepth = maxSplitStackSize
	}

	var rayStack [maxSplitStackSize]rayRange
	var uvStack [maxSplitStackSize]uvRange
	var patchStack [maxSplitStackSize][]Net

	stackI := 0
	rayStack[0] = rayRange{lo, hi}
	uvStack[0] = uvRange{0, 1, 0, 1}

	root := make([]Net, tsc)
	for i := 0; i < tsc; i++ {
		root[i] = net.At(i)
	}
	patchStack[0] = root

	bboxes := make([]bbox.BBox, tsc)

	for stackI >= 0 {
		curPatches := patchStack[stackI]

		bboxes[0] = curPatches[0].Bound()
		maxDim := longestAxisLen(bboxes[0].Diagonal())
		for i := 1; i < tsc; i++ {
			bboxes[i] = curPatches[i].Bound()
			d := longestAxisLen(bboxes[i].Diagonal())
			if d > maxDim {
				maxDim = d
			}
		}
		bboxSamples := tsample.NewMotion(bboxes[:tsc])

		rr := rayStack[stackI]
		uv := uvStack[stackI]
		depth := stackI

		sub := rays[rr.lo:rr.hi]
		subScratch := partitionScratch[rr.lo:rr.hi]
		// resolveLeafOrDescend reports true for rays that are done,
		// missed, or just resolved as a leaf hit, and false only for
		// rays that still need finer subdivision. Those still-descending
		// rays are exactly the ones that must remain the active range
		// carried into both split halves, so the kept ("true") group of
		// the partition is the negation of resolveLeafOrDescend's result.
		mid := raystream.StablePartition(sub, subScratch, func(ray *raystream.Ray) bool {
			return !resolveLeafOrDescend(ray, intersections, bboxSamples, maxDim, uv, net, space, elementID, shaderName, cfg, depth, maxDepth)
		})
		rr.hi = rr.lo + mid
		rayStack[stackI] = rr

		if rr.lo == rr.hi {
			stackI--
			continue
		}

		ulen := curPatches[0].ULength()
		vlen := curPatches[0].VLength()

		nextPatches := make([]Net, tsc)
		var thisUV, nextUV uvRange
		if splitOnU(ulen, vlen) {
			for i := 0; i < tsc; i++ {
				l, r := curPatches[i].SplitU()
				curPatches[i] = l
				nextPatches[i] = r
			}
			mid := (uv.uMin + uv.uMax) * 0.5
			thisUV = uvRange{uv.uMin, mid, uv.vMin, uv.vMax}
			nextUV = uvRange{mid, uv.uMax, uv.vMin, uv.vMax}
		} else {
			for i := 0; i < tsc; i++ {
				t, b := curPatches[i].SplitV()
				curPatches[i] = t
				nextPatches[i] = b
			}
			mid := (uv.vMin + uv.vMax) * 0.5
			thisUV = uvRange{uv.uMin, uv.uMax, uv.vMin, mid}
			nextUV = uvRange{uv.uMin, uv.uMax, mid, uv.vMax}
		}
		patchStack[stackI] = curPatches
		uvStack[stackI] = thisUV

		patchStack[stackI+1] = nextPatches
		uvStack[stackI+1] = nextUV
		rayStack[stackI+1] = rr
		stackI++
	}
}

// splitOnU reports whether a patch's longer edge is u (strictly) or the two
// are tied: ties split on u (spec.md:94 — "equal u/v lengths split on u").
func splitOnU(ulen, vlen float32) bool {
	return ulen >= vlen
}

func resolveLeafOrDescend(
	ray *raystream.Ray,
	intersections []raystream.Intersection,
	bboxSamples tsample.TimeSampled[bbox.BBox],
	maxDim float32,
	uv uvRange,
	net tsample.TimeSampled[Net],
	space SpaceAt,
	elementID raystream.ElementID,
	shaderName string,
	cfg Config,
	depth, maxDepth int,
) bool {
	if ray.IsDone() {
		return true
	}

	b := bboxSamples.Sample(ray.Time, bbox.Lerp)
	tNear, tFar, hit := b.IntersectRay(ray.Origin, ray.InvDir, ray.Sign, ray.MaxT)
	if !hit {
		return true
	}

	width := ray.MinWidth(tNear, tFar) * cfg.DiceRate
	if width < cfg.MinMicropolySize {
		width = cfg.MinMicropolySize
	}

	if maxDim > width && depth < maxDepth-1 {
		// Not yet fine enough; descend one more split level.
		return false
	}

	tt := (tNear + tFar) * 0.5
	if tt <= 0 || tt >= ray.MaxT {
		return true
	}

	inter := &intersections[ray.ID()]
	inter.Hit = true
	inter.ElementID = elementID
	inter.ShaderName = shaderName

	if ray.IsOcclusion() {
		ray.SetDone(true)
		return true
	}

	ipatch := net.Sample(ray.Time, InterpolateNet)

	ray.MaxT = tt

	u := (uv.uMin + uv.uMax) * 0.5
	v := (uv.vMin + uv.vMax) * 0.5
	offset := maxDim * 1.74

	inter.T = tt
	if space != nil {
		inter.Space = space(ray.Time)
	} else {
		inter.Space = vmath.Identity()
	}
	inter.P = ray.Origin.Add(ray.Dir.Mul(tt))
	inter.U = u
	inter.V = v

	dg := ipatch.DifferentialGeometry(u, v)
	inter.N = dg.N
	inter.Dpdu = dg.Dpdu
	inter.Dpdv = dg.Dpdv
	inter.Dndu = dg.Dndu
	inter.Dndv = dg.Dndv

	inter.Backfacing = dg.N.Dot(ray.Dir.Normalize()) > 0
	inter.Offset = dg.N.Mul(offset)

	return true
}
