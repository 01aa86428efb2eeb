package raystream

import "github.com/staticagent/psychopath/vmath"

// ElementID packs a path through the assembly tree (a sequence of instance
// indices from the scene root down to the hit primitive) into a single
// 64-bit value. Packing avoids a heap-allocated path slice per
// intersection.
type ElementID struct {
	bits uint64
	pos  uint8 // bits used so far
}

// PushIndex appends a sub_id value using the given bit width, returning the
// updated id. Call once per assembly level on the way down the tree.
func (e ElementID) PushIndex(subID uint32, bitLength uint8) ElementID {
	e.bits = (e.bits << bitLength) | (uint64(subID) & ((1 << bitLength) - 1))
	e.pos += bitLength
	return e
}

// Raw returns the packed bits, useful as a map key or stat bucket.
func (e ElementID) Raw() uint64 { return e.bits }

// Intersection is the record a ray's hit is written into: everything a
// shader or integrator needs to evaluate shading and spawn secondary rays.
type Intersection struct {
	Hit bool
	T   float32

	// Surface point and parametric coordinates.
	P    vmath.Vec3
	U, V float32

	// Normal and its partial derivatives.
	N, Dndu, Dndv vmath.Vec3

	// Surface tangents.
	Dpdu, Dpdv vmath.Vec3

	Backfacing bool

	// Offset vector used to push shadow-ray origins safely off the
	// surface, scaled from the local geometric error bound rather than a
	// flat epsilon.
	Offset vmath.Vec3

	ElementID ElementID

	// World-to-hit-local transform in effect at the time of intersection
	// (the composed, time-interpolated instance transform chain).
	Space vmath.Matrix44

	Closure Closure

	// ShaderName is the name the hit instance resolved at scene-build time
	// (scene.Instance.ShaderName), empty if the instance named none. The
	// integrator looks this up in its own shader table; the core only
	// carries the name through, never the shader itself.
	ShaderName string
}

// Reset clears the intersection back to a clean "no hit" state, so the
// backing array backing a batch's intersection slice can be reused across
// traces without a fresh allocation.
func (in *Intersection) Reset() {
	*in = Intersection{}
}
