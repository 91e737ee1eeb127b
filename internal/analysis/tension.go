package analysis

import (
	nchess "github.com/corentings/chess/v2"

	"github.com/benediktms/chesstty/internal/models"
)

// Tension measures how volatile a position is: mutual attacks,
// contested squares, defended targets and the forcing moves available
// to the side to move.
func Tension(pos *nchess.Position) models.TensionMetrics {
	b := newBoardView(pos)
	var m models.TensionMetrics

	whiteAttacks := b.attackedSquares(nchess.White)
	blackAttacks := b.attackedSquares(nchess.Black)

	for sq := range whiteAttacks {
		if _, ok := blackAttacks[sq]; ok {
			m.ContestedSquares++
		}
	}

	whiteUnderAttack := 0
	blackUnderAttack := 0
	for sq, p := range b.pieces {
		if p.Color() == nchess.White {
			if _, ok := blackAttacks[sq]; ok {
				whiteUnderAttack++
				if _, defended := whiteAttacks[sq]; defended {
					m.AttackedButDefended++
				}
			}
		} else {
			if _, ok := whiteAttacks[sq]; ok {
				blackUnderAttack++
				if _, defended := blackAttacks[sq]; defended {
					m.AttackedButDefended++
				}
			}
		}
	}
	m.MutuallyAttackedPairs = minInt(whiteUnderAttack, blackUnderAttack)

	for _, mv := range pos.ValidMoves() {
		if mv.HasTag(nchess.Check) {
			m.ChecksAvailable++
		}
		if mv.HasTag(nchess.Capture) || mv.HasTag(nchess.EnPassant) {
			m.CapturesAvailable++
		}
	}
	m.ForcingMoves = m.ChecksAvailable + m.CapturesAvailable

	mutualTerm := 0.30 * minFloat(float64(m.MutuallyAttackedPairs)/5.0, 1.0)
	forcingTerm := 0.25 * minFloat(float64(m.ForcingMoves)/15.0, 1.0)
	contestedTerm := 0.25 * minFloat(float64(m.ContestedSquares)/30.0, 1.0)
	defendedTerm := 0.20 * minFloat(float64(m.AttackedButDefended)/8.0, 1.0)
	m.VolatilityScore = clamp01(mutualTerm + forcingTerm + contestedTerm + defendedTerm)
	return m
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
