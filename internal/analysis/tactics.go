package analysis

import (
	"fmt"

	nchess "github.com/corentings/chess/v2"

	"github.com/benediktms/chesstty/internal/models"
)

// Tactics scans a position for motifs available to the given side:
// forks, pins, skewers, hanging enemy pieces and a back-rank weakness
// of the opponent.
func Tactics(pos *nchess.Position, perspective nchess.Color) models.TacticalSummary {
	b := newBoardView(pos)
	var summary models.TacticalSummary

	add := func(tag models.TacticalTag) {
		summary.Tags = append(summary.Tags, tag)
		switch tag.Kind {
		case models.TagFork:
			summary.ForkCount++
		case models.TagPin:
			summary.PinCount++
		case models.TagSkewer:
			summary.SkewerCount++
		case models.TagDiscoveredAttack:
			summary.DiscoveredCount++
		case models.TagHangingPiece:
			summary.HangingPieceCount++
		case models.TagBackRankWeakness:
			summary.HasBackRankWeakness = true
		}
	}

	detectForks(b, perspective, add)
	detectPinsAndSkewers(b, perspective, add)
	detectHangingPieces(b, perspective, add)
	detectBackRankWeakness(b, perspective, add)
	return summary
}

// detectForks finds pieces attacking two or more enemy pieces where at
// least one target outranks the attacker or is the king.
func detectForks(b *boardView, color nchess.Color, add func(models.TacticalTag)) {
	for sq, p := range b.pieces {
		if p.Color() != color {
			continue
		}
		var victims []nchess.Square
		for _, att := range b.attacksFrom(sq) {
			if target, ok := b.piece(att); ok && target.Color() != color {
				victims = append(victims, att)
			}
		}
		if len(victims) < 2 {
			continue
		}
		attackerValue := pieceValues[p.Type()]
		worthwhile := false
		for _, v := range victims {
			target, _ := b.piece(v)
			if target.Type() == nchess.King || pieceValues[target.Type()] > attackerValue {
				worthwhile = true
				break
			}
		}
		if !worthwhile {
			continue
		}
		add(models.TacticalTag{
			Kind:       models.TagFork,
			Attacker:   sq.String(),
			Victims:    squareNames(victims),
			Confidence: 0.9,
			Note:       fmt.Sprintf("%s on %s attacks %d pieces", pieceName(p.Type()), sq, len(victims)),
			Evidence:   models.TacticalEvidence{ThreatenedPieces: squareNames(victims)},
		})
	}
}

// detectPinsAndSkewers walks slider rays looking for two enemy pieces
// in line. Front shielding a more valuable back piece (or the king) is
// a pin; front more valuable than back is a skewer.
func detectPinsAndSkewers(b *boardView, color nchess.Color, add func(models.TacticalTag)) {
	for sq, p := range b.pieces {
		if p.Color() != color {
			continue
		}
		var rays [][2]int
		switch p.Type() {
		case nchess.Bishop:
			rays = bishopRays[:]
		case nchess.Rook:
			rays = rookRays[:]
		case nchess.Queen:
			rays = append(append([][2]int{}, bishopRays[:]...), rookRays[:]...)
		default:
			continue
		}

		for _, ray := range rays {
			front, back, ok := firstTwoOnRay(b, sq, ray, color)
			if !ok {
				continue
			}
			frontPiece, _ := b.piece(front)
			backPiece, _ := b.piece(back)
			frontValue := pieceValues[frontPiece.Type()]
			backValue := pieceValues[backPiece.Type()]

			line := models.TacticalLine{From: sq.String(), Through: []string{front.String()}, To: back.String()}
			switch {
			case backPiece.Type() == nchess.King || backValue > frontValue:
				add(models.TacticalTag{
					Kind:         models.TagPin,
					Attacker:     sq.String(),
					Victims:      []string{front.String()},
					TargetSquare: back.String(),
					Confidence:   0.85,
					Note:         fmt.Sprintf("%s on %s pins %s against %s", pieceName(p.Type()), sq, front, back),
					Evidence:     models.TacticalEvidence{Lines: []models.TacticalLine{line}},
				})
			case frontValue > backValue:
				add(models.TacticalTag{
					Kind:         models.TagSkewer,
					Attacker:     sq.String(),
					Victims:      []string{front.String(), back.String()},
					TargetSquare: back.String(),
					Confidence:   0.85,
					Note:         fmt.Sprintf("%s on %s skewers %s and %s", pieceName(p.Type()), sq, front, back),
					Evidence:     models.TacticalEvidence{Lines: []models.TacticalLine{line}},
				})
			}
		}
	}
}

// firstTwoOnRay returns the first two enemy pieces along a ray. Any
// own piece in between breaks the line.
func firstTwoOnRay(b *boardView, from nchess.Square, ray [2]int, color nchess.Color) (front, back nchess.Square, ok bool) {
	f, r := int(from.File())+ray[0], int(from.Rank())+ray[1]
	var found []nchess.Square
	for {
		sq, inside := squareAt(f, r)
		if !inside {
			return 0, 0, false
		}
		if p, occupied := b.piece(sq); occupied {
			if p.Color() == color {
				return 0, 0, false
			}
			found = append(found, sq)
			if len(found) == 2 {
				return found[0], found[1], true
			}
		}
		f += ray[0]
		r += ray[1]
	}
}

// detectHangingPieces finds enemy minor and major pieces that are
// attacked and have no defender at all.
func detectHangingPieces(b *boardView, color nchess.Color, add func(models.TacticalTag)) {
	enemy := color.Other()
	for sq, p := range b.pieces {
		if p.Color() != enemy {
			continue
		}
		switch p.Type() {
		case nchess.Knight, nchess.Bishop, nchess.Rook, nchess.Queen:
		default:
			continue
		}
		attackers := b.attackersOf(sq, color)
		if len(attackers) == 0 {
			continue
		}
		if len(b.attackersOf(sq, enemy)) > 0 {
			continue
		}
		add(models.TacticalTag{
			Kind:         models.TagHangingPiece,
			TargetSquare: sq.String(),
			Victims:      []string{sq.String()},
			Confidence:   0.8,
			Note:         fmt.Sprintf("undefended %s on %s", pieceName(p.Type()), sq),
			Evidence:     models.TacticalEvidence{ThreatenedPieces: []string{sq.String()}, DefendedBy: nil},
		})
	}
}

// detectBackRankWeakness checks whether the opponent's king is boxed in
// on its back rank while heavy pieces can reach it.
func detectBackRankWeakness(b *boardView, color nchess.Color, add func(models.TacticalTag)) {
	enemy := color.Other()
	kingSq, ok := b.kingSquare(enemy)
	if !ok {
		return
	}
	backRank := 0
	if enemy == nchess.Black {
		backRank = 7
	}
	if int(kingSq.Rank()) != backRank {
		return
	}

	// Every off-rank escape square must be blocked by the king's own
	// pieces.
	escapes := 0
	blocked := 0
	for _, step := range kingSteps {
		sq, inside := squareAt(int(kingSq.File())+step[0], int(kingSq.Rank())+step[1])
		if !inside || int(sq.Rank()) == backRank {
			continue
		}
		escapes++
		if p, occupied := b.piece(sq); occupied && p.Color() == enemy {
			blocked++
		}
	}
	if escapes == 0 || blocked != escapes {
		return
	}

	hasHeavy := false
	for _, p := range b.pieces {
		if p.Color() == color && (p.Type() == nchess.Rook || p.Type() == nchess.Queen) {
			hasHeavy = true
			break
		}
	}
	if !hasHeavy {
		return
	}

	reaches := false
	for att := range b.attackedSquares(color) {
		if int(att.Rank()) == backRank {
			reaches = true
			break
		}
	}
	if !reaches {
		return
	}

	add(models.TacticalTag{
		Kind:         models.TagBackRankWeakness,
		TargetSquare: kingSq.String(),
		Confidence:   0.7,
		Note:         fmt.Sprintf("king on %s has no escape from the back rank", kingSq),
	})
}

func squareNames(squares []nchess.Square) []string {
	out := make([]string, len(squares))
	for i, sq := range squares {
		out[i] = sq.String()
	}
	return out
}

func pieceName(pt nchess.PieceType) string {
	switch pt {
	case nchess.King:
		return "king"
	case nchess.Queen:
		return "queen"
	case nchess.Rook:
		return "rook"
	case nchess.Bishop:
		return "bishop"
	case nchess.Knight:
		return "knight"
	case nchess.Pawn:
		return "pawn"
	default:
		return "piece"
	}
}
