package analysis

import (
	nchess "github.com/corentings/chess/v2"

	"github.com/benediktms/chesstty/internal/models"
)

// PipelineVersion tags stored analyses so a future pipeline change can
// invalidate old rows.
const PipelineVersion = 1

// Advanced runs the board-analysis pipeline over a completed review:
// per-ply tactics, king safety and tension, critical-position marking,
// and both players' psychological profiles.
func Advanced(game models.FinishedGame, review models.GameReview, deepDepth int, computedAt int64) models.AdvancedGameAnalysis {
	out := models.AdvancedGameAnalysis{
		GameID:          game.ID,
		PipelineVersion: PipelineVersion,
		ShallowDepth:    review.AnalysisDepth,
		DeepDepth:       deepDepth,
		ComputedAt:      computedAt,
	}

	for i, p := range review.Positions {
		fenBefore := game.StartFEN
		if i > 0 {
			fenBefore = review.Positions[i-1].FEN
		}
		mover := nchess.White
		if !models.IsWhitePly(p.Ply) {
			mover = nchess.Black
		}

		adv := models.AdvancedPositionAnalysis{Ply: p.Ply}
		if posBefore := positionFromFEN(fenBefore); posBefore != nil {
			adv.TacticsBefore = Tactics(posBefore, mover)
		}
		if posAfter := positionFromFEN(p.FEN); posAfter != nil {
			adv.TacticsAfter = Tactics(posAfter, mover)
			adv.KingSafety = KingSafety(posAfter)
			adv.Tension = Tension(posAfter)
		}

		var prev *models.PositionReview
		if i > 0 {
			prev = &review.Positions[i-1]
		}
		if IsCritical(p, prev, adv) {
			adv.IsCritical = true
			depth := deepDepth
			adv.DeepDepth = &depth
			out.CriticalPositionsCount++
		}
		out.Positions = append(out.Positions, adv)
	}

	out.WhitePsychology = Psychology(review.Positions, models.White)
	out.BlackPsychology = Psychology(review.Positions, models.Black)
	return out
}

func positionFromFEN(fen string) *nchess.Position {
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil
	}
	return nchess.NewGame(opt).Position()
}
