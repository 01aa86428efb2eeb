package render_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staticagent/psychopath/render"
	"github.com/staticagent/psychopath/vmath"
)

func TestBlockAccumulatorSkipsNaNSamples(t *testing.T) {
	acc := render.NewBlockAccumulator(render.Block{W: 2, H: 2})
	acc.AddSample(0, 0, vmath.Vec3{1, 1, 1})
	acc.AddSample(0, 0, vmath.Vec3{float32(math.NaN()), 0, 0})

	assert.Equal(t, vmath.Vec3{1, 1, 1}, acc.Pixels[0])
	assert.Equal(t, uint32(1), acc.Counts[0])
}

func TestFlushMergesIntoFilm(t *testing.T) {
	film := render.NewFilm(4, 4)
	acc := render.NewBlockAccumulator(render.Block{X: 1, Y: 1, W: 2, H: 2})
	acc.AddSample(0, 0, vmath.Vec3{1, 0, 0})
	acc.AddSample(0, 0, vmath.Vec3{1, 0, 0})
	acc.AddSample(1, 1, vmath.Vec3{0, 1, 0})

	film.Flush(acc)

	px := film.Pixel(1, 1)
	assert.InDelta(t, 1, px[0], 1e-5)
	assert.InDelta(t, 0, px[1], 1e-5)

	px2 := film.Pixel(2, 2)
	assert.Equal(t, vmath.Vec3{0, 1, 0}, px2)

	// An untouched pixel stays zero.
	assert.Equal(t, vmath.Vec3{}, film.Pixel(0, 0))
}

func TestFlushIgnoresSamplesOutsideFilmBounds(t *testing.T) {
	film := render.NewFilm(2, 2)
	acc := render.NewBlockAccumulator(render.Block{X: -1, Y: -1, W: 2, H: 2})
	acc.AddSample(0, 0, vmath.Vec3{5, 5, 5})

	require.NotPanics(t, func() { film.Flush(acc) })
	assert.Equal(t, vmath.Vec3{}, film.Pixel(0, 0))
}

func TestVarianceIsMaxedOutBeforeTwoSamples(t *testing.T) {
	film := render.NewFilm(1, 1)
	acc := render.NewBlockAccumulator(render.Block{W: 1, H: 1})
	acc.AddSample(0, 0, vmath.Vec3{1, 1, 1})
	film.Flush(acc)

	assert.Equal(t, float32(math.MaxFloat32), film.Variance(0, 0))
}

func TestVarianceShrinksWithConsistentSamples(t *testing.T) {
	film := render.NewFilm(1, 1)
	for i := 0; i < 3; i++ {
		acc := render.NewBlockAccumulator(render.Block{W: 1, H: 1})
		acc.AddSample(0, 0, vmath.Vec3{0.5, 0.5, 0.5})
		film.Flush(acc)
	}

	assert.Less(t, film.Variance(0, 0), float32(math.MaxFloat32))
}

func TestBlockAccumulatorResetReusesBackingSlice(t *testing.T) {
	acc := render.NewBlockAccumulator(render.Block{W: 4, H: 4})
	acc.AddSample(0, 0, vmath.Vec3{1, 1, 1})
	before := acc.Pixels

	acc.Reset(render.Block{W: 2, H: 2})

	assert.Equal(t, 4, len(acc.Pixels))
	assert.Equal(t, vmath.Vec3{}, acc.Pixels[0])
	assert.Same(t, &before[0], &acc.Pixels[0], "Reset should reuse the backing array when capacity allows")
}
