package render

import (
	"math"
	"sync"

	"github.com/staticagent/psychopath/vmath"
)

// Film is the accumulation buffer written by every render worker, with a
// fine-grained lock acquired only when flushing a block. Each worker
// accumulates an entire block's samples into private (unlocked) storage —
// see Block — and calls Flush exactly once per block, which is the only
// operation that touches Film's shared arrays.
//
// It keeps a running pixel sum, a sample count per pixel, and a
// "variance" running-sum (compensated difference-from-running-mean, in
// perceptual/gamma space via hcol) per pixel, locked per-row so concurrent
// block flushes on different rows never contend.
type Film struct {
	Width, Height int

	rowLocks []sync.Mutex
	pixels   []vmath.Vec3 // running sum of samples, row-major
	accum    []uint32     // sample count per pixel
	varP     []vmath.Vec3 // "variance" running state, previous
	varF     []vmath.Vec3 // "variance" running state, final accumulator
}

// NewFilm allocates a zeroed film of the given resolution.
func NewFilm(width, height int) *Film {
	n := width * height
	return &Film{
		Width: width, Height: height,
		rowLocks: make([]sync.Mutex, height),
		pixels:   make([]vmath.Vec3, n),
		accum:    make([]uint32, n),
		varP:     make([]vmath.Vec3, n),
		varF:     make([]vmath.Vec3, n),
	}
}

// Block is the scheduling unit of the render loop: a rectangular pixel
// region one worker owns exclusively for the duration of its render, accumulating
// samples into private buffers before a single Flush call copies the
// result into the shared Film.
type Block struct {
	X, Y, W, H int
}

// BlockAccumulator is the private, lock-free per-block sample buffer a
// worker writes into while rendering its Block; see Film.Flush.
type BlockAccumulator struct {
	Block  Block
	Pixels []vmath.Vec3
	Counts []uint32
}

// NewBlockAccumulator allocates a zeroed accumulator sized to b.
func NewBlockAccumulator(b Block) *BlockAccumulator {
	n := b.W * b.H
	return &BlockAccumulator{Block: b, Pixels: make([]vmath.Vec3, n), Counts: make([]uint32, n)}
}

// Reset zeroes an accumulator for reuse against a new block without
// reallocating its backing slices when possible, resizing only if the new
// block is larger than any previously seen.
func (ba *BlockAccumulator) Reset(b Block) {
	ba.Block = b
	n := b.W * b.H
	if cap(ba.Pixels) < n {
		ba.Pixels = make([]vmath.Vec3, n)
		ba.Counts = make([]uint32, n)
		return
	}
	ba.Pixels = ba.Pixels[:n]
	ba.Counts = ba.Counts[:n]
	for i := range ba.Pixels {
		ba.Pixels[i] = vmath.Vec3{}
		ba.Counts[i] = 0
	}
}

// AddSample accumulates one radiance sample at the block-local pixel
// (x, y), skipping NaN/Inf samples so a single bad ray can't poison a
// pixel's running mean.
func (ba *BlockAccumulator) AddSample(x, y int, radiance vmath.Vec3) {
	if isBadColor(radiance) {
		return
	}
	i := y*ba.Block.W + x
	ba.Pixels[i] = ba.Pixels[i].Add(radiance)
	ba.Counts[i]++
}

func isBadColor(c vmath.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(float64(c[i])) || math.IsInf(float64(c[i]), 0) {
			return true
		}
	}
	return false
}

// Flush merges one finished block's private accumulator into the shared
// Film, locking only the rows the block covers, one at a time, so two
// workers flushing disjoint row ranges never block each other.
func (f *Film) Flush(ba *BlockAccumulator) {
	b := ba.Block
	for row := 0; row < b.H; row++ {
		fy := b.Y + row
		if fy < 0 || fy >= f.Height {
			continue
		}
		f.rowLocks[fy].Lock()
		for col := 0; col < b.W; col++ {
			fx := b.X + col
			if fx < 0 || fx >= f.Width {
				continue
			}
			li := row*b.W + col
			if ba.Counts[li] == 0 {
				continue
			}
			fi := fy*f.Width + fx
			f.mergePixel(fi, ba.Pixels[li], ba.Counts[li])
		}
		f.rowLocks[fy].Unlock()
	}
}

// mergePixel folds k new samples summing to sum into pixel index fi,
// updating the running-mean variance estimate the same way it would be
// updated per individual sample, applied once per merged batch here since
// Flush already has the batch sum. This is algebraically equivalent for
// the running total and count, and a close approximation for the variance
// running-sum (exact sample order within a block does not affect the
// final image, only the intermediate variance estimate used for adaptive
// sampling).
func (f *Film) mergePixel(fi int, sum vmath.Vec3, k uint32) {
	f.pixels[fi] = f.pixels[fi].Add(sum)
	f.accum[fi] += k

	total := f.accum[fi]
	if total == 0 {
		return
	}
	avg := hcol(f.pixels[fi].Mul(1.0 / float32(total)))
	if total > k {
		f.varF[fi] = f.varF[fi].Add(diffColor(f.varP[fi], avg).Mul(float32(total - 1)))
	}
	f.varP[fi] = avg
}

// Variance estimates pixel (x,y)'s noise: the accumulated
// difference-from-mean sum divided by (samples - 1), luminance-averaged.
func (f *Film) Variance(x, y int) float32 {
	i := y*f.Width + x
	n := f.accum[i]
	if n < 2 {
		return math.MaxFloat32
	}
	v := f.varF[i].Mul(1.0 / float32(n-1))
	return (v[0] + v[1] + v[2]) / 3
}

// Pixel returns the mean accumulated radiance at (x, y).
func (f *Film) Pixel(x, y int) vmath.Vec3 {
	i := y*f.Width + x
	n := f.accum[i]
	if n == 0 {
		return vmath.Vec3{}
	}
	return f.pixels[i].Mul(1.0 / float32(n))
}

// hcol maps linear radiance toward the eye's brightness sensitivity
// (an approximate gamma curve).
func hcol(c vmath.Vec3) vmath.Vec3 {
	return vmath.Vec3{gammaf(c[0]), gammaf(c[1]), gammaf(c[2])}
}

func gammaf(v float32) float32 {
	if v < 0 {
		v = 0
	}
	return float32(math.Pow(float64(v), 1.0/2.2))
}

func diffColor(a, b vmath.Vec3) vmath.Vec3 {
	return vmath.Vec3{absf(a[0] - b[0]), absf(a[1] - b[1]), absf(a[2] - b[2])}
}

func absf(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
