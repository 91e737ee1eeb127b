package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/benediktms/chesstty/internal/analysis"
)

func TestTension_StartPositionIsCalm(t *testing.T) {
	pos := position(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")

	m := analysis.Tension(pos)
	assert.Equal(t, 0, m.MutuallyAttackedPairs)
	assert.Equal(t, 0, m.ContestedSquares)
	assert.Equal(t, 0, m.ChecksAvailable)
	assert.Equal(t, 0, m.CapturesAvailable)
	assert.Equal(t, 0, m.ForcingMoves)
	assert.InDelta(t, 0.0, m.VolatilityScore, 0.001)
}

func TestTension_CentralPawnStandoff(t *testing.T) {
	// After 1.e4 e5 2.d4 d5 both centers hang against each other.
	pos := position(t, "rnbqkbnr/ppp2ppp/8/3pp3/3PP3/8/PPP2PPP/RNBQKBNR w KQkq - 0 3")

	m := analysis.Tension(pos)
	assert.GreaterOrEqual(t, m.MutuallyAttackedPairs, 2)
	assert.GreaterOrEqual(t, m.CapturesAvailable, 2)
	assert.Greater(t, m.ContestedSquares, 0)
	assert.Greater(t, m.VolatilityScore, 0.0)
}

func TestTension_CheckAvailable(t *testing.T) {
	// White queen can give check along the e-file.
	pos := position(t, "4k3/8/8/8/8/8/8/Q3K3 w - - 0 1")

	m := analysis.Tension(pos)
	assert.Greater(t, m.ChecksAvailable, 0)
	assert.Equal(t, m.ChecksAvailable+m.CapturesAvailable, m.ForcingMoves)
}

func TestTension_MoreForcingMeansMoreVolatile(t *testing.T) {
	calm := analysis.Tension(position(t, "4k3/8/8/8/8/8/8/4K3 w - - 0 1"))
	sharp := analysis.Tension(position(t, "rnbqkbnr/ppp2ppp/8/3pp3/3PP3/8/PPP2PPP/RNBQKBNR w KQkq - 0 3"))
	assert.Greater(t, sharp.VolatilityScore, calm.VolatilityScore)
}
