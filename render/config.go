package render

import "github.com/staticagent/psychopath/patch"

// Config gathers every render-time tuning knob the embedding application
// supplies. Scene-file parsing and CLI/config-file loading are out of
// scope, so Config is a plain struct built directly by the caller — there
// is no Load/Parse in this package.
type Config struct {
	// Patch holds dice-rate / min-micropoly-size / split-depth knobs; see
	// patch.DefaultConfig. Scene.Render does not read it:
	// patch.IntersectStream is handed each patch object's own
	// scene.Object.PatchConfig.
	Patch patch.Config

	// BVHWidth names a BVH2 or BVH4 node fan-out (bvh.Widen's width
	// argument). Scene.Render does not read it, and Assembly.Finalize
	// always builds a binary (BVH2) instance BVH.
	BVHWidth int

	// ThreadCount is the number of worker goroutines Scene.Render starts
	// when its own threadCount argument is zero or negative. Zero here too
	// means runtime.GOMAXPROCS(0).
	ThreadCount int

	// BlockSize is the edge length in pixels of one film block, the unit
	// the render loop splits the film into and schedules across workers.
	BlockSize int

	// SamplesPerPixel is the sample count every pixel gets.
	// MaxSamplesPerPixel and VarianceTarget are adaptive-sampling knobs
	// that Scene.Render does not read: it performs no adaptive refinement
	// and always traces exactly SamplesPerPixel samples per pixel.
	SamplesPerPixel    int
	MaxSamplesPerPixel int
	VarianceTarget     float32

	// Seed is the global per-frame seed tracer.PerRayRNG mixes with a
	// ray's id and pixel coordinate.
	Seed uint64
}

// DefaultConfig returns reasonable defaults: BVH4, 16x16 blocks, 16 spp
// with no adaptive refinement, and patch.DefaultConfig's dicing knobs.
func DefaultConfig() Config {
	return Config{
		Patch:              patch.DefaultConfig(),
		BVHWidth:           4,
		ThreadCount:        0,
		BlockSize:          16,
		SamplesPerPixel:    16,
		MaxSamplesPerPixel: 16,
		VarianceTarget:     0,
		Seed:               7919,
	}
}
