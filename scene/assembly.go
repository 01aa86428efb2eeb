package scene

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/staticagent/psychopath/bbox"
	"github.com/staticagent/psychopath/bvh"
	"github.com/staticagent/psychopath/tsample"
	"github.com/staticagent/psychopath/vmath"
)

// Assembly is a scene graph node: a table of Objects (including nested
// sub-Assemblies via the AssemblyRef variant), a table of Instances
// placing them with a time-sampled transform chain, and — once Finalize
// has run — the BVH over those instances and the light-sampling index.
// Mutable during scene construction (AddObject, AddAssembly,
// InstanceObject, InstanceAssembly), finalized exactly once, then
// read-only for tracing.
type Assembly struct {
	Objects    []Object
	Instances  []Instance
	Transforms []vmath.Matrix44

	shaderNames map[string]struct{}

	accel     *bvh.BVH
	lights    LightIndex
	finalized bool
}

// NewAssembly returns an empty, mutable Assembly.
func NewAssembly() *Assembly {
	return &Assembly{}
}

// AddObject appends a primitive and returns its index for later
// instancing.
func (a *Assembly) AddObject(o Object) int32 {
	if a.finalized {
		panic("scene: AddObject on a finalized Assembly")
	}
	a.Objects = append(a.Objects, o)
	return int32(len(a.Objects) - 1)
}

// RegisterShaderName adds name to this Assembly's shader-name table, the
// lookup spec.md:189 describes as "resolved in the owning Assembly": an
// instance's ShaderName is only valid if some call to RegisterShaderName
// put it here first. Idempotent; registering the same name twice is a
// no-op.
func (a *Assembly) RegisterShaderName(name string) {
	if a.finalized {
		panic("scene: RegisterShaderName on a finalized Assembly")
	}
	if a.shaderNames == nil {
		a.shaderNames = make(map[string]struct{})
	}
	a.shaderNames[name] = struct{}{}
}

// SetInstanceShader names the shader a previously-added instance resolves
// to. The name itself isn't checked against the shader-name table until
// Finalize, so RegisterShaderName and SetInstanceShader may be called in
// either order during scene construction.
func (a *Assembly) SetInstanceShader(instanceIndex int32, name string) error {
	if instanceIndex < 0 || int(instanceIndex) >= len(a.Instances) {
		return newBuildError("SetInstanceShader", "object index out of range")
	}
	a.Instances[instanceIndex].ShaderName = name
	return nil
}

// AddAssembly embeds sub as an AssemblyRef object and returns its index.
// sub must already be finalized: Assemblies form a tree built bottom-up,
// never a cycle.
func (a *Assembly) AddAssembly(sub *Assembly) int32 {
	return a.AddObject(NewAssemblyRefObject(sub))
}

// InstanceObject places an existing object into the scene with the given
// time-sampled transform chain (nil/empty means static identity).
func (a *Assembly) InstanceObject(objectIndex int32, transforms []vmath.Matrix44) (int32, error) {
	if objectIndex < 0 || int(objectIndex) >= len(a.Objects) {
		return -1, newBuildError("InstanceObject", "object index out of range")
	}
	return a.addInstance(objectIndex, transforms), nil
}

// InstanceAssembly is the common case of AddAssembly followed by
// InstanceObject in one step.
func (a *Assembly) InstanceAssembly(sub *Assembly, transforms []vmath.Matrix44) int32 {
	return a.addInstance(a.AddAssembly(sub), transforms)
}

func (a *Assembly) addInstance(objectIndex int32, transforms []vmath.Matrix44) int32 {
	start := int32(len(a.Transforms))
	a.Transforms = append(a.Transforms, transforms...)
	a.Instances = append(a.Instances, Instance{
		ObjectIndex:    objectIndex,
		TransformIndex: start,
		TransformCount: int32(len(transforms)),
	})
	return int32(len(a.Instances) - 1)
}

// Finalize builds the instance BVH and the light index, then freezes the
// Assembly against further mutation. Calling it more than once is a no-op.
func (a *Assembly) Finalize() error {
	if a.finalized {
		return nil
	}

	for i, inst := range a.Instances {
		if int(inst.ObjectIndex) >= len(a.Objects) {
			return newBuildError("Finalize", "instance references a missing object")
		}
		obj := &a.Objects[inst.ObjectIndex]
		if obj.Kind == AssemblyRef {
			if obj.SubAssembly == nil {
				return newBuildError("Finalize", "AssemblyRef object has a nil sub-assembly")
			}
			if !obj.SubAssembly.finalized {
				return newBuildError("Finalize", "sub-assembly must be finalized before its parent")
			}
		}
		if inst.ShaderName != "" {
			if _, ok := a.shaderNames[inst.ShaderName]; !ok {
				return newBuildErrorPath("Finalize", fmt.Sprintf("instance[%d] shader %q", i, inst.ShaderName), ErrDanglingShader)
			}
		}
	}

	prims := make([]bvh.Primitive, len(a.Instances))
	for i, inst := range a.Instances {
		prims[i] = bvh.Primitive{Bounds: a.instanceBoundsSamples(inst), Payload: int32(i)}
	}
	a.accel = bvh.Build(prims)
	a.lights = buildLightIndex(a)
	a.finalized = true
	return nil
}

// Accel returns the built instance BVH; nil before Finalize.
func (a *Assembly) Accel() *bvh.BVH { return a.accel }

// Lights returns the finalized light index; empty before Finalize.
func (a *Assembly) Lights() LightIndex { return a.lights }

// Finalized reports whether Finalize has run.
func (a *Assembly) Finalized() bool { return a.finalized }

// rootBounds is the whole instance tree's own time-0.5 world bound, used
// when this Assembly is embedded as an AssemblyRef object inside a parent
// Assembly's Finalize.
func (a *Assembly) rootBounds() bbox.BBox {
	if a.accel == nil || len(a.accel.OwnBounds) == 0 {
		return bbox.Empty()
	}
	return a.accel.OwnBounds[0].Sample(0.5, bbox.Lerp)
}

// InstanceTransformAt evaluates one instance's time-sampled transform
// chain at shutter time t, collapsing TransformCount == 0 to identity.
// This is what the tracer uses to move a ray batch into an instance's
// local space before recursing into its object or sub-assembly.
func (a *Assembly) InstanceTransformAt(t float32, instanceIndex int) vmath.Matrix44 {
	inst := a.Instances[instanceIndex]
	xforms := transformSamples(a.Transforms[inst.TransformIndex : inst.TransformIndex+inst.TransformCount])
	return xforms.Sample(t, vmath.Lerp)
}

// InstanceBoundsAt evaluates one instance's world-space bound at shutter
// time t: an object instance time-interpolates its transform chain, then
// its object's local bounds, then transforms the result through; an
// assembly instance does the same using the sub-assembly's own root
// bound in place of a local geometric bound.
func (a *Assembly) InstanceBoundsAt(t float32, instanceIndex int) bbox.BBox {
	return a.instanceBoundsSamples(a.Instances[instanceIndex]).Sample(t, bbox.Lerp)
}

// instanceBoundsSamples computes one instance's full time-sampled
// world-space bound for BVH construction: local bounds and the transform
// chain are independently time-sampled sequences, so they're resampled
// together onto a shared set of N = max(their counts) evenly spaced
// times before each local bound is pushed through its matching transform.
func (a *Assembly) instanceBoundsSamples(inst Instance) tsample.TimeSampled[bbox.BBox] {
	obj := &a.Objects[inst.ObjectIndex]
	local := obj.LocalBounds()
	xforms := transformSamples(a.Transforms[inst.TransformIndex : inst.TransformIndex+inst.TransformCount])
	return combinedBoundsSamples(local, xforms)
}

func transformSamples(xforms []vmath.Matrix44) tsample.TimeSampled[vmath.Matrix44] {
	switch len(xforms) {
	case 0:
		return tsample.New(vmath.Identity())
	case 1:
		return tsample.New(xforms[0])
	default:
		return tsample.NewMotion(xforms)
	}
}

func combinedBoundsSamples(local tsample.TimeSampled[bbox.BBox], xforms tsample.TimeSampled[vmath.Matrix44]) tsample.TimeSampled[bbox.BBox] {
	n := local.Count()
	if xforms.Count() > n {
		n = xforms.Count()
	}

	out := make([]bbox.BBox, n)
	for i := 0; i < n; i++ {
		var t float32
		if n > 1 {
			t = float32(i) / float32(n-1)
		}
		out[i] = local.Sample(t, bbox.Lerp).Transform(xforms.Sample(t, vmath.Lerp))
	}
	if n == 1 {
		return tsample.New(out[0])
	}
	return tsample.NewMotion(out)
}

// ElementIDBits is the number of bits needed to pack any instance index of
// this assembly into a raystream.ElementID path segment: the bit width of
// the largest valid index.
func (a *Assembly) ElementIDBits() uint8 {
	n := len(a.Instances)
	if n <= 1 {
		return 1
	}
	var bits uint8
	for v := uint32(n - 1); v > 0; v >>= 1 {
		bits++
	}
	return bits
}

// lightInstances returns the indices of every instance whose object emits
// light, used by buildLightIndex. lo.Filter stands in for the hand-rolled
// loop a filter-by-predicate otherwise needs.
func (a *Assembly) lightInstances() []int32 {
	all := make([]int32, len(a.Instances))
	for i := range all {
		all[i] = int32(i)
	}
	return lo.Filter(all, func(idx int32, _ int) bool {
		return a.Objects[a.Instances[idx].ObjectIndex].IsLight()
	})
}
