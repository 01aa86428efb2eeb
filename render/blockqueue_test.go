package render_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staticagent/psychopath/render"
)

func TestBlockQueueTilesExactMultiple(t *testing.T) {
	q := render.NewBlockQueue(4, 4, 2)

	var blocks []render.Block
	for b := range q.Blocks() {
		blocks = append(blocks, b)
	}
	require.Len(t, blocks, 4)

	total := 0
	for _, b := range blocks {
		total += b.W * b.H
	}
	assert.Equal(t, 16, total)
}

func TestBlockQueueHandlesRaggedEdges(t *testing.T) {
	q := render.NewBlockQueue(5, 3, 2)

	covered := make([][]bool, 3)
	for i := range covered {
		covered[i] = make([]bool, 5)
	}

	for b := range q.Blocks() {
		for y := b.Y; y < b.Y+b.H; y++ {
			for x := b.X; x < b.X+b.W; x++ {
				require.False(t, covered[y][x], "pixel (%d,%d) covered twice", x, y)
				covered[y][x] = true
			}
		}
	}

	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			assert.True(t, covered[y][x], "pixel (%d,%d) never covered", x, y)
		}
	}
}

func TestBlockQueueDrainsThenCloses(t *testing.T) {
	q := render.NewBlockQueue(1, 1, 16)

	_, ok := <-q.Blocks()
	require.True(t, ok)

	_, ok = <-q.Blocks()
	assert.False(t, ok, "channel should be closed once drained")
}
