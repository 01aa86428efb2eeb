// Package tracer implements the ray-stream tracer: the control core that
// drives a batch of world-space rays down the top-level instance BVH,
// recurses per-instance into nested assemblies (transforming the active
// ray range into instance-local space first), and dispatches bottomed-out
// leaves to the patch splitter or an analytic primitive intersector,
// collecting one Intersection per ray.
//
// The instance-local recursion and its "restore world-space state" step
// build on bvh.Traverse for the per-assembly descent itself.
package tracer

import (
	"github.com/staticagent/psychopath/bvh"
	"github.com/staticagent/psychopath/patch"
	"github.com/staticagent/psychopath/raystream"
	"github.com/staticagent/psychopath/scene"
	"github.com/staticagent/psychopath/vmath"
)

// Tracer owns one worker thread's scratch state: nothing here is safe to
// share across goroutines. Each worker owns one Tracer instance and one
// scratch stack, and runs to completion on its block without coordination
// with other workers. All scratch buffers are
// arenas keyed by assembly-nesting depth and reused across every Trace
// call the Tracer ever makes, matching raystream.ScratchStack's
// never-shrinks, LIFO-scoped discipline.
type Tracer struct {
	stats *Stats

	// travScratch backs bvh.Traverse's required same-length partition
	// buffer at each nesting depth.
	travScratch *raystream.ScratchStack[raystream.Ray]

	// localScratch holds the instance-local copy of an active ray range
	// while a nested assembly is traversed, one frame per depth.
	localScratch *raystream.ScratchStack[raystream.Ray]

	// patchScratch backs patch.IntersectStream's partition buffer, one
	// frame per depth (patch recursion never nests across assembly
	// levels — each leaf dispatch fully resolves before the next).
	patchScratch *raystream.ScratchStack[raystream.Ray]

	// slotScratch maps a ray id back to its position within the current
	// depth's local ray range, so that MaxT/Done can be propagated back
	// into the caller's range after a nested traversal scrambles order.
	// Sized to totalRays and re-keyed per dispatch call; safe across
	// recursion because depth d+1's frame is a distinct backing array
	// from depth d's, and traversal is single-threaded per batch.
	slotScratch *raystream.ScratchStack[int32]

	totalRays int
}

// New returns a Tracer ready to trace batches against any Scene, sharing
// the given Stats counters with however many sibling Tracers a render
// spawns (Stats is atomic; everything else on Tracer is worker-private).
func New(stats *Stats) *Tracer {
	if stats == nil {
		stats = NewStats()
	}
	return &Tracer{
		stats:        stats,
		travScratch:  raystream.NewScratchStack[raystream.Ray](),
		localScratch: raystream.NewScratchStack[raystream.Ray](),
		patchScratch: raystream.NewScratchStack[raystream.Ray](),
		slotScratch:  raystream.NewScratchStack[int32](),
	}
}

// Stats returns the counters this Tracer reports into.
func (tr *Tracer) Stats() *Stats { return tr.stats }

var identitySpace patch.SpaceAt = func(float32) vmath.Matrix44 { return vmath.Identity() }

// Trace synchronously traces rays[i] against top, writing the result into
// intersections[rays[i].ID()] for every i. top must already be finalized
// (scene.Assembly.Finalize). This is the tracer's single entry point;
// rays is mutated in place (partitioned, bit-stacks consumed, MaxT
// shrunk, Done flags set).
//
// Ray ids are assumed dense over [0, len(rays)): intersections is
// addressed by a ray's id, so it and rays must agree on length. Callers
// that assign sparse or non-contiguous ids must size intersections (and
// this call's internal bookkeeping) to cover the largest id in use.
func (tr *Tracer) Trace(top *scene.Assembly, rays []raystream.Ray, intersections []raystream.Intersection) {
	if top == nil || !top.Finalized() || len(rays) == 0 {
		return
	}

	tr.totalRays = len(rays)
	for i := range rays {
		if rays[i].IsDegenerate() {
			rays[i].SetDone(true)
			tr.stats.Degenerate.Add(1)
			continue
		}
		tr.stats.RaysShot.Add(1)
	}

	tr.traverse(top, rays, 0, len(rays), intersections, identitySpace, raystream.ElementID{}, 0)
}

// traverse drives one assembly's BVH over rays[lo:hi], dispatching leaves
// (instances) to dispatchInstance. space composes every ancestor
// instance's time-sampled transform into a single local-to-world function
// of ray time; elementID is the packed instance-path prefix accumulated so
// far.
func (tr *Tracer) traverse(
	a *scene.Assembly,
	rays []raystream.Ray,
	lo, hi int,
	intersections []raystream.Intersection,
	space patch.SpaceAt,
	elementID raystream.ElementID,
	depth int,
) {
	accel := a.Accel()
	if accel == nil || len(accel.Nodes) == 0 || hi <= lo {
		return
	}

	scratch := tr.travScratch.Frame(depth, len(rays))

	dispatch := func(payload int32, rs []raystream.Ray, dlo, dhi int) {
		tr.stats.LeavesHit.Add(1)
		tr.dispatchInstance(a, payload, rs, dlo, dhi, intersections, space, elementID, depth)
	}
	bvh.Traverse(accel, rays, lo, hi, scratch, dispatch)
}

// dispatchInstance implements the instance-leaf step of traversal:
// transform rays[lo:hi] into the instance's local space using its
// time-interpolated (possibly per-ray, for transform motion blur)
// transform, recurse into whatever the instance names (an analytic
// primitive, a patch, or a sub-Assembly), then restore world-space state
// by propagating the resulting MaxT/Done back into the caller's range.
//
// The ray's direction is transformed by the inverse transform's linear
// part WITHOUT normalizing, so that the ray parameter t means the same
// distance-along-the-ray in both local and world space; no t-rescaling is
// needed when results flow back up, only MaxT/Done.
func (tr *Tracer) dispatchInstance(
	a *scene.Assembly,
	payload int32,
	rays []raystream.Ray,
	lo, hi int,
	intersections []raystream.Intersection,
	parentSpace patch.SpaceAt,
	parentID raystream.ElementID,
	depth int,
) {
	n := hi - lo
	if n <= 0 {
		return
	}

	inst := &a.Instances[payload]
	obj := &a.Objects[inst.ObjectIndex]
	elementID := parentID.PushIndex(uint32(payload), a.ElementIDBits())

	local := tr.localScratch.Frame(depth, n)
	slot := tr.slotScratch.Frame(depth, tr.totalRays)

	for k := 0; k < n; k++ {
		r := rays[lo+k]
		slot[r.ID()] = int32(k)

		xform := a.InstanceTransformAt(r.Time, int(payload))
		inv := xform.Inverse()
		r.Origin = inv.TransformPoint(r.Origin)
		r.Dir = inv.TransformDirection(r.Dir)
		r.UpdateAccel()
		local[k] = r
	}

	composedSpace := func(t float32) vmath.Matrix44 {
		return parentSpace(t).Mul(a.InstanceTransformAt(t, int(payload)))
	}

	switch obj.Kind {
	case scene.Sphere, scene.SphereLight:
		intersectSphereStream(obj.Radius, local, 0, n, intersections, composedSpace, elementID, inst.ShaderName, obj.Emission, obj.Kind == scene.SphereLight)

	case scene.RectangleLight:
		intersectRectangleStream(obj.RectHalfExtents, local, 0, n, intersections, composedSpace, elementID, inst.ShaderName, obj.Emission)

	case scene.BilinearPatch, scene.BicubicPatch:
		patchScratch := tr.patchScratch.Frame(depth, n)
		patch.IntersectStream(obj.Patch, local, 0, n, intersections, patchScratch, composedSpace, elementID, inst.ShaderName, obj.PatchConfig)

	case scene.AssemblyRef:
		tr.traverse(obj.SubAssembly, local, 0, n, intersections, composedSpace, elementID, depth+1)

	case scene.SubdivisionSurface:
		// Catmull-Clark dicing is out of scope (scene.Object.LocalBounds
		// reports an empty bound for this kind), so this case is
		// unreachable in practice; kept to make the dispatch switch
		// exhaustive over the closed Object kind set.
	}

	for k := 0; k < n; k++ {
		j := slot[local[k].ID()]
		dst := &rays[lo+int(j)]
		dst.MaxT = local[k].MaxT
		dst.SetDone(local[k].IsDone())
	}
}
