package scene

import (
	"github.com/staticagent/psychopath/bbox"
	"github.com/staticagent/psychopath/patch"
	"github.com/staticagent/psychopath/tsample"
	"github.com/staticagent/psychopath/vmath"
)

// ObjectKind tags the closed set of primitive kinds an Assembly can hold:
// Sphere, BilinearPatch, BicubicPatch, SubdivisionSurface, RectangleLight,
// SphereLight, and AssemblyRef, dispatched per-variant rather than through
// open-ended dynamic dispatch. AssemblyRef folds what could otherwise be a
// separate object-vs-assembly instance split into one discriminant: an
// Instance always names an Object, and AssemblyRef is simply the Object
// variant whose geometry is "recurse into this sub-Assembly" rather than a
// local primitive.
type ObjectKind uint8

const (
	Sphere ObjectKind = iota
	BilinearPatch
	BicubicPatch
	SubdivisionSurface
	RectangleLight
	SphereLight
	AssemblyRef
)

// Object is a tagged-union primitive: every field below is populated or
// left zero depending on Kind, a closed variant set rather than an
// interface with one implementation per kind.
type Object struct {
	Kind ObjectKind

	// Sphere, SphereLight: time-sampled radius.
	Radius tsample.TimeSampled[float32]

	// BilinearPatch, BicubicPatch: the control net's time samples and the
	// dicing/split tuning that applies to it.
	Patch       tsample.TimeSampled[patch.Net]
	PatchConfig patch.Config

	// RectangleLight: half-extents of the rectangle in its local XY plane.
	RectHalfExtents vmath.Vec2

	// RectangleLight, SphereLight: outgoing radiance. Full shading-model
	// detail is out of scope; this is enough for LightIndex's
	// power-weighting and for a shader hook to read.
	Emission vmath.Vec3

	// AssemblyRef: the sub-assembly this instance recurses into. Acyclic by
	// construction — an Assembly only ever refers to sub-Assemblies it was
	// handed at AddAssembly time, built bottom-up before its own Finalize.
	SubAssembly *Assembly
}

// NewSphere builds a static (non-moving) sphere object.
func NewSphere(radius float32) Object {
	return Object{Kind: Sphere, Radius: tsample.New(radius)}
}

// NewSphereLight builds a sphere light object.
func NewSphereLight(radius float32, emission vmath.Vec3) Object {
	return Object{Kind: SphereLight, Radius: tsample.New(radius), Emission: emission}
}

// NewRectangleLight builds a rectangle light lying in its local XY plane.
func NewRectangleLight(halfExtents vmath.Vec2, emission vmath.Vec3) Object {
	return Object{Kind: RectangleLight, RectHalfExtents: halfExtents, Emission: emission}
}

// NewBilinearPatchObject wraps a time-sampled bilinear control net.
func NewBilinearPatchObject(net tsample.TimeSampled[patch.Net], cfg patch.Config) Object {
	return Object{Kind: BilinearPatch, Patch: net, PatchConfig: cfg}
}

// NewBicubicPatchObject wraps a time-sampled bicubic control net.
func NewBicubicPatchObject(net tsample.TimeSampled[patch.Net], cfg patch.Config) Object {
	return Object{Kind: BicubicPatch, Patch: net, PatchConfig: cfg}
}

// NewAssemblyRefObject embeds a sub-assembly as an object, the AssemblyRef
// variant above.
func NewAssemblyRefObject(sub *Assembly) Object {
	return Object{Kind: AssemblyRef, SubAssembly: sub}
}

// IsLight reports whether this object variant emits light, the predicate
// Assembly.Finalize uses to populate LightIndex.
func (o *Object) IsLight() bool {
	return o.Kind == RectangleLight || o.Kind == SphereLight
}

// EstimatedPower is a coarse emitted-power estimate (area times mean
// channel radiance) used only to weight LightIndex sampling, not a
// radiometrically exact integral — full light transport detail is out of
// scope here.
func (o *Object) EstimatedPower() float32 {
	if !o.IsLight() {
		return 0
	}
	lum := (o.Emission[0] + o.Emission[1] + o.Emission[2]) / 3
	if lum < 0 {
		lum = 0
	}
	switch o.Kind {
	case RectangleLight:
		area := 4 * o.RectHalfExtents[0] * o.RectHalfExtents[1]
		return lum * area
	case SphereLight:
		r := o.Radius.Sample(0.5, tsample.Lerp[float32](lerpFloat))
		return lum * 4 * float32(3.14159265) * r * r
	}
	return 0
}

func lerpFloat(a, b float32, alpha float32) float32 {
	return a + (b-a)*alpha
}

// LocalBounds returns this object's time-sampled bound in its own local
// space, before any instance transform is applied, the per-variant
// counterpart to the world-space bound an instance exposes.
func (o *Object) LocalBounds() tsample.TimeSampled[bbox.BBox] {
	switch o.Kind {
	case Sphere, SphereLight:
		n := o.Radius.Count()
		out := make([]bbox.BBox, n)
		for i := 0; i < n; i++ {
			r := o.Radius.At(i)
			out[i] = bbox.BBox{Min: vmath.Vec3{-r, -r, -r}, Max: vmath.Vec3{r, r, r}}
		}
		if n == 1 {
			return tsample.New(out[0])
		}
		return tsample.NewMotion(out)

	case RectangleLight:
		hx, hy := o.RectHalfExtents[0], o.RectHalfExtents[1]
		return tsample.New(bbox.BBox{
			Min: vmath.Vec3{-hx, -hy, 0},
			Max: vmath.Vec3{hx, hy, 0},
		}.Inflate(1e-5))

	case BilinearPatch, BicubicPatch:
		return patch.BoundWithTolerance(o.Patch, o.PatchConfig)

	case SubdivisionSurface:
		// Catmull-Clark subdivision dicing is not part of this core (only
		// bilinear/bicubic control nets are implemented); a
		// subdivision-surface object reports an empty bound so it never
		// contributes a false hit while still satisfying the closed
		// dispatch switch.
		return tsample.New(bbox.Empty())

	case AssemblyRef:
		return tsample.New(o.SubAssembly.rootBounds())

	default:
		return tsample.New(bbox.Empty())
	}
}
