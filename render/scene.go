package render

import (
	"log"
	"runtime"
	"sync"

	"github.com/staticagent/psychopath/raystream"
	"github.com/staticagent/psychopath/scene"
	"github.com/staticagent/psychopath/tracer"
	"github.com/staticagent/psychopath/vmath"
)

// Scene is the render-time wiring around the core: a finalized root
// scene.Assembly plus its external collaborators (sample generator,
// camera, shaders, light sampler). Building a Scene's Assembly tree
// (scene-file parsing, instancing) happens entirely outside this package.
type Scene struct {
	Root    *scene.Assembly
	Samples SampleGenerator
	Cam     Camera
	Shaders map[string]SurfaceShader
	Lights  LightSampler
	Config  Config

	// Logger, if non-nil, receives progress/diagnostic lines (finalize,
	// block-queue size, final stats) during Render. No core
	// package logs; this is the one render-time hook for it, matching
	// the rest of the pack's error-value-not-log-framework convention.
	Logger *log.Logger
}

// NewScene wraps an already-built (but not necessarily finalized) root
// assembly with its render-time collaborators.
func NewScene(root *scene.Assembly, samples SampleGenerator, cam Camera, shaders map[string]SurfaceShader, lights LightSampler, cfg Config) *Scene {
	return &Scene{Root: root, Samples: samples, Cam: cam, Shaders: shaders, Lights: lights, Config: cfg}
}

// Render drives the full pipeline. It finalizes Root if needed, tiles film
// into blocks via BlockQueue, and spawns threadCount worker goroutines that
// each own one tracer.Tracer and one BlockAccumulator, pulling blocks until
// the queue drains: each worker owns one Tracer instance and one scratch
// stack, and runs to completion on its block without coordination with
// other workers.
func (s *Scene) Render(film *Film, threadCount int) (*tracer.Stats, error) {
	if !s.Root.Finalized() {
		if s.Logger != nil {
			s.Logger.Printf("render: finalizing root assembly")
		}
		if err := s.Root.Finalize(); err != nil {
			return nil, err
		}
	}

	if threadCount <= 0 {
		threadCount = s.Config.ThreadCount
	}
	if threadCount <= 0 {
		threadCount = runtime.GOMAXPROCS(0)
	}

	queue := NewBlockQueue(film.Width, film.Height, s.Config.BlockSize)
	stats := tracer.NewStats()

	if s.Logger != nil {
		s.Logger.Printf("render: %d blocks across %d threads", queue.Len(), threadCount)
	}

	var wg sync.WaitGroup
	wg.Add(threadCount)
	for w := 0; w < threadCount; w++ {
		go func() {
			defer wg.Done()
			s.worker(queue, film, stats)
		}()
	}
	wg.Wait()

	if s.Logger != nil {
		snap := stats.Snapshot()
		s.Logger.Printf("render: done, %d rays shot, %d degenerate", snap.RaysShot, snap.Degenerate)
	}

	return stats, nil
}

// worker is the body of one render thread: pull blocks until the queue
// closes, render each fully into a private accumulator, flush once.
func (s *Scene) worker(queue *BlockQueue, film *Film, stats *tracer.Stats) {
	tr := tracer.New(stats)
	acc := NewBlockAccumulator(Block{})

	for block := range queue.Blocks() {
		acc.Reset(block)
		s.renderBlock(tr, block, acc)
		film.Flush(acc)
	}
}

// renderBlock traces every pixel sample in block as one ray-stream batch
// (the core processes many rays together, so a whole block's primary
// rays are generated and traced in one Tracer.Trace call rather than
// pixel-by-pixel), shades hits, and optionally casts one shadow ray per
// hit toward a sampled light.
func (s *Scene) renderBlock(tr *tracer.Tracer, block Block, acc *BlockAccumulator) {
	spp := s.Config.SamplesPerPixel
	if spp <= 0 {
		spp = 1
	}

	type pixelRef struct{ x, y, sample int }

	n := block.W * block.H * spp
	if n == 0 {
		return
	}

	rays := make([]raystream.Ray, 0, n)
	refs := make([]pixelRef, 0, n)

	for py := 0; py < block.H; py++ {
		for px := 0; px < block.W; px++ {
			fx, fy := block.X+px, block.Y+py
			for si := 0; si < spp; si++ {
				rng := tracer.PerRayRNG(uint32(len(rays)), int32(fx), int32(fy), s.Config.Seed)
				var sx, sy, lu, lv, t float32
				if s.Samples != nil {
					sx = s.Samples.Sample(fx, fy, si, 0)
					sy = s.Samples.Sample(fx, fy, si, 1)
					lu = s.Samples.Sample(fx, fy, si, 2)
					lv = s.Samples.Sample(fx, fy, si, 3)
					t = s.Samples.Sample(fx, fy, si, 4)
				} else {
					sx, sy, lu, lv, t = rng.Float32(), rng.Float32(), rng.Float32(), rng.Float32(), rng.Float32()
				}

				screenX := float32(fx) + sx
				screenY := float32(fy) + sy

				var ray raystream.Ray
				if s.Cam != nil {
					ray = s.Cam.GenerateRay(screenX, screenY, lu, lv, t)
				}
				ray.SetID(uint32(len(rays)))
				ray.UpdateAccel()

				rays = append(rays, ray)
				refs = append(refs, pixelRef{x: px, y: py, sample: si})
			}
		}
	}

	intersections := make([]raystream.Intersection, len(rays))
	tr.Trace(s.Root, rays, intersections)

	for i, hit := range intersections {
		if !hit.Hit {
			continue
		}

		shaded := hit
		if s.Shaders != nil {
			// hit.ShaderName is the name scene.Instance resolved against its
			// owning Assembly's shader-name table at Finalize; an instance
			// that named none resolves to "", the caller's default slot.
			if sh, ok := s.Shaders[hit.ShaderName]; ok {
				sh.Shade(&shaded)
			}
		}

		radiance := s.directLighting(tr, &shaded)
		ref := refs[i]
		acc.AddSample(ref.x, ref.y, radiance)
	}
}

// directLighting forms one shadow ray toward a sampled light, invoked
// after a primary hit, and returns the surface's emitted-plus-direct-lit
// radiance. Indirect bounces and MIS weighting are integrator policy,
// out of scope here.
func (s *Scene) directLighting(tr *tracer.Tracer, hit *raystream.Intersection) vmath.Vec3 {
	emitted := vmath.Vec3{}
	if hit.Closure.Kind == raystream.ClosureEmit {
		emitted = hit.Closure.Color
	}

	if s.Lights == nil {
		return emitted
	}

	q := LightQuery{P: hit.P, N: hit.N, Time: 0}
	radiance, pdf, toLight := s.Lights.Sample(&q)
	if pdf <= 0 {
		return emitted
	}

	shadowRay := raystream.NewRay(hit.P.Add(hit.Offset), toLight, 0, 1e30, 0)
	shadowRay.SetOcclusion(true)
	rays := []raystream.Ray{shadowRay}
	shadowHits := make([]raystream.Intersection, 1)
	tr.Trace(s.Root, rays, shadowHits)

	if shadowHits[0].Hit {
		return emitted
	}

	ndotl := hit.N.Dot(toLight.Normalize())
	if ndotl < 0 {
		ndotl = -ndotl
	}
	direct := radiance.Mul(ndotl / pdf)
	return emitted.Add(direct)
}
