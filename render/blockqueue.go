package render

import "github.com/samber/lo"

// BlockQueue is the concurrent FIFO handing pixel blocks to worker
// goroutines: workers block only on the block queue (empty means wait,
// drained and closed means exit). A buffered Go channel is exactly that
// queue — no condition variable or custom scheduler is needed, which is
// why this package reaches for stdlib channels rather than a third-party
// worker-pool package (see DESIGN.md).
type BlockQueue struct {
	blocks chan Block
}

// NewBlockQueue tiles a width x height film into blockSize x blockSize
// Blocks (the final row/column may be smaller) and returns a queue
// pre-loaded with all of them, already closed for further sends — workers
// simply range over Blocks until the channel drains.
//
// lo.Map/lo.Flatten stand in for the nested-loop tiling a hand-rolled
// version would use (see scene.Assembly.lightInstances for the same
// pattern elsewhere in this codebase).
func NewBlockQueue(width, height, blockSize int) *BlockQueue {
	if blockSize <= 0 {
		blockSize = 16
	}

	rows := (height + blockSize - 1) / blockSize
	rowIndices := make([]int, rows)
	for i := range rowIndices {
		rowIndices[i] = i
	}

	rowsOfBlocks := lo.Map(rowIndices, func(ry int, _ int) []Block {
		y := ry * blockSize
		h := blockSize
		if y+h > height {
			h = height - y
		}

		cols := (width + blockSize - 1) / blockSize
		colIndices := make([]int, cols)
		for i := range colIndices {
			colIndices[i] = i
		}
		return lo.Map(colIndices, func(rx int, _ int) Block {
			x := rx * blockSize
			w := blockSize
			if x+w > width {
				w = width - x
			}
			return Block{X: x, Y: y, W: w, H: h}
		})
	})

	all := lo.Flatten(rowsOfBlocks)

	q := &BlockQueue{blocks: make(chan Block, len(all))}
	for _, b := range all {
		q.blocks <- b
	}
	close(q.blocks)
	return q
}

// Blocks returns the receive-only channel workers range over.
func (q *BlockQueue) Blocks() <-chan Block { return q.blocks }

// Len reports how many blocks are still queued and not yet received by a
// worker. Called before any worker starts (as Scene.Render does for its
// progress log line), that is every block the queue was loaded with.
func (q *BlockQueue) Len() int { return len(q.blocks) }
