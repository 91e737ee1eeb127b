package analysis

import (
	"math"

	"github.com/benediktms/chesstty/internal/models"
)

// Accuracy maps one side's average centipawn loss to a 0-100 score
// with an exponential decay: a flawless game scores 100, heavy average
// loss decays toward 0. Returns nil when the side played no reviewed
// moves.
func Accuracy(positions []models.PositionReview, side models.Side) *float64 {
	var total float64
	count := 0
	for _, p := range positions {
		if models.IsWhitePly(p.Ply) != (side == models.White) {
			continue
		}
		total += models.CappedCPLoss(p.CPLoss)
		count++
	}
	if count == 0 {
		return nil
	}
	avg := total / float64(count)
	acc := 103.1668*math.Exp(-0.006*avg) - 3.1668
	acc = math.Max(0, math.Min(100, acc))
	return &acc
}
