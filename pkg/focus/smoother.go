package focus

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ScoreBufferSize is the number of recent raw scores averaged into the published score.
const ScoreBufferSize = 5

// ScoreBuffer is a FIFO of the most recent raw scores. The zero value is empty and ready to use.
type ScoreBuffer struct {
	scores []float64
}

// Push records a raw score, evicting the oldest beyond ScoreBufferSize, and returns the
// rounded mean of the buffer.
func (b *ScoreBuffer) Push(raw int) int {
	b.scores = append(b.scores, float64(raw))
	if len(b.scores) > ScoreBufferSize {
		b.scores = append(b.scores[:0], b.scores[len(b.scores)-ScoreBufferSize:]...)
	}
	return clampScore(int(math.Round(stat.Mean(b.scores, nil))))
}

func (b *ScoreBuffer) Len() int {
	return len(b.scores)
}

// Scores returns a copy of the buffered raw scores, oldest first.
func (b *ScoreBuffer) Scores() []int {
	out := make([]int, len(b.scores))
	for i, s := range b.scores {
		out[i] = int(s)
	}
	return out
}

func (b *ScoreBuffer) Reset() {
	b.scores = b.scores[:0]
}
