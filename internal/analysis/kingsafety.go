package analysis

import (
	nchess "github.com/corentings/chess/v2"

	"github.com/benediktms/chesstty/internal/models"
)

var attackWeights = map[nchess.PieceType]int{
	nchess.Queen:  4,
	nchess.Rook:   3,
	nchess.Bishop: 2,
	nchess.Knight: 2,
	nchess.Pawn:   1,
	nchess.King:   1,
}

// KingSafety measures both kings' exposure in a position.
func KingSafety(pos *nchess.Position) models.PositionKingSafety {
	b := newBoardView(pos)
	return models.PositionKingSafety{
		White: kingSafetyFor(b, nchess.White),
		Black: kingSafetyFor(b, nchess.Black),
	}
}

func kingSafetyFor(b *boardView, color nchess.Color) models.KingSafetyMetrics {
	side := models.White
	if color == nchess.Black {
		side = models.Black
	}
	m := models.KingSafetyMetrics{Color: side, PawnShieldMax: 3}

	kingSq, ok := b.kingSquare(color)
	if !ok {
		// No king on the board (analysis of fragments); maximally exposed.
		m.OpenFilesNearKing = 3
		m.ExposureScore = 1.0
		return m
	}

	kingFile := int(kingSq.File())
	kingRank := int(kingSq.Rank())

	// King zone: the king square plus its neighbors.
	zone := []nchess.Square{kingSq}
	for _, step := range kingSteps {
		if sq, inside := squareAt(kingFile+step[0], kingRank+step[1]); inside {
			zone = append(zone, sq)
		}
	}
	m.KingZoneSize = len(zone)

	// Pawn shield: own pawns on the adjacent files, one or two ranks in
	// front of the back rank.
	shieldRanks := [2]int{1, 2}
	if color == nchess.Black {
		shieldRanks = [2]int{6, 5}
	}
	for df := -1; df <= 1; df++ {
		file := kingFile + df
		if file < 0 || file > 7 {
			continue
		}
		for _, rank := range shieldRanks {
			sq, _ := squareAt(file, rank)
			if p, occupied := b.piece(sq); occupied && p.Color() == color && p.Type() == nchess.Pawn {
				m.PawnShieldCount++
				break
			}
		}
	}

	// Open files: adjacent files with no own pawn anywhere.
	for df := -1; df <= 1; df++ {
		file := kingFile + df
		if file < 0 || file > 7 {
			continue
		}
		open := true
		for rank := 0; rank < 8; rank++ {
			sq, _ := squareAt(file, rank)
			if p, occupied := b.piece(sq); occupied && p.Color() == color && p.Type() == nchess.Pawn {
				open = false
				break
			}
		}
		if open {
			m.OpenFilesNearKing++
		}
	}

	// Unique enemy pieces attacking anywhere in the zone, with weights.
	enemy := color.Other()
	attackers := make(map[nchess.Square]nchess.PieceType)
	attackedZone := 0
	for _, zoneSq := range zone {
		squares := b.attackersOf(zoneSq, enemy)
		if len(squares) > 0 {
			attackedZone++
		}
		for _, sq := range squares {
			p, _ := b.piece(sq)
			attackers[sq] = p.Type()
		}
	}
	m.AttackedKingZoneSquares = attackedZone
	m.AttackerCount = len(attackers)
	for _, pt := range attackers {
		m.AttackWeight += attackWeights[pt]
	}

	shieldTerm := 0.25 * float64(3-m.PawnShieldCount) / 3.0
	openTerm := 0.20 * float64(m.OpenFilesNearKing) / 3.0
	weightTerm := 0.30 * minFloat(float64(m.AttackWeight)/20.0, 1.0)
	zoneTerm := 0.25 * float64(m.AttackedKingZoneSquares) / float64(m.KingZoneSize)
	m.ExposureScore = clamp01(shieldTerm + openTerm + weightTerm + zoneTerm)
	return m
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
