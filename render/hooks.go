// Package render implements the outer rendering pipeline that orbits the
// acceleration core: a film accumulation buffer, a concurrent pixel-block
// queue, and the Scene.Render entry point that wires a sample generator,
// camera, surface shader, and light sampler around tracer.Tracer.
//
// None of this is acceleration-structure work, so it is kept intentionally
// thin: enough to exercise every hook a renderer needs, not a full
// integrator.
package render

import (
	"github.com/staticagent/psychopath/raystream"
	"github.com/staticagent/psychopath/vmath"
)

// SampleGenerator yields, for a given (pixelX, pixelY, sampleIndex), a
// deterministic stream of sample values in [0,1). The integrator
// (Scene.Render, here) maps them
// into film-plane position, lens coordinate, time, and closure sampling
// parameters; the core never calls this directly.
type SampleGenerator interface {
	// Sample returns the dim'th sample dimension for this pixel/index
	// pair, dim counting 0 (film x), 1 (film y), 2 (lens u), 3 (lens v),
	// 4 (time), 5+ (shading/light sampling dimensions as needed).
	Sample(pixelX, pixelY, sampleIndex, dim int) float32
}

// Camera generates a world-space ray for a screen-space sample. The
// returned ray's differential triple (OriginWidth, WidthDelta, WidthFloor)
// is the one the patch splitter actually uses, so Camera is responsible for
// filling it in — the core itself never fabricates a ray footprint.
type Camera interface {
	GenerateRay(screenX, screenY, lensU, lensV, time float32) raystream.Ray
}

// SurfaceShader evaluates a surface closure at a hit: reads the geometric
// fields of Intersection, writes Closure. Resolved by name at scene-build
// time; this package's scope stops at the interface shape, not a full
// shading-model implementation.
type SurfaceShader interface {
	Shade(hit *raystream.Intersection)
}

// LightQuery is the input to LightSampler.Sample: a shading point and the
// two random dimensions a light sampler sample event expects.
type LightQuery struct {
	P    vmath.Vec3
	N    vmath.Vec3
	Time float32
	U, V float32
}

// LightSampler samples one light (or the scene's light index) for a given
// shading query, returning outgoing radiance, the pdf the sample was
// drawn with, and the direction toward the light — enough for the tracer
// to form a shadow ray. This is invoked only after a primary hit; a
// full light-tree importance-sampling algorithm is out of scope here.
type LightSampler interface {
	Sample(q *LightQuery) (radiance vmath.Vec3, pdf float32, toLight vmath.Vec3)
}
