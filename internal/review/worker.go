package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	nchess "github.com/corentings/chess/v2"

	"github.com/benediktms/chesstty/internal/analysis"
	"github.com/benediktms/chesstty/internal/logger"
	"github.com/benediktms/chesstty/internal/models"
)

// runReview analyzes one archived game ply by ply. Evaluations are
// stored normalized to white's perspective; each analyzed ply is
// persisted before the next search starts, so cancellation never
// loses work.
func (m *Manager) runReview(ctx context.Context, evaluator Evaluator, gameID string) error {
	log := logger.FromContext(ctx)

	game, err := m.games.Get(ctx, gameID)
	if err != nil {
		return fmt.Errorf("load game: %w", err)
	}

	rev, err := m.reviews.Get(ctx, gameID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("load review: %w", err)
	}
	if rev == nil {
		rev = &models.GameReview{
			GameID:        gameID,
			AnalysisDepth: m.depth,
			CreatedAt:     time.Now().Unix(),
		}
	}

	total := len(game.Moves)
	startPly := rev.AnalyzedPlies + 1
	if startPly > 1 {
		log.Info("resuming review at ply %d/%d", startPly, total)
	}

	now := time.Now().Unix()
	rev.TotalPlies = total
	rev.Winner = string(game.Result)
	if rev.StartedAt == nil {
		rev.StartedAt = &now
	}
	rev.Status = models.ReviewStatus{Kind: models.ReviewAnalyzing, CurrentPly: startPly, TotalPlies: total}
	headerOnly := *rev
	headerOnly.Positions = nil
	if err := m.reviews.Save(ctx, headerOnly); err != nil {
		return fmt.Errorf("save review header: %w", err)
	}

	for ply := startPly; ply <= total; ply++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		move := game.Moves[ply-1]
		fenBefore := game.StartFEN
		if ply > 1 {
			fenBefore = game.Moves[ply-2].FENAfter
		}

		p, err := m.analyzePly(ctx, evaluator, ply, fenBefore, move)
		if err != nil {
			return fmt.Errorf("ply %d: %w", ply, err)
		}
		if err := m.reviews.SavePosition(ctx, gameID, p, ply); err != nil {
			return fmt.Errorf("save ply %d: %w", ply, err)
		}
		rev.Positions = append(rev.Positions, p)
		rev.AnalyzedPlies = ply
	}

	rev.WhiteAccuracy = analysis.Accuracy(rev.Positions, models.White)
	rev.BlackAccuracy = analysis.Accuracy(rev.Positions, models.Black)
	completed := time.Now().Unix()
	rev.CompletedAt = &completed
	rev.Status = models.ReviewStatus{Kind: models.ReviewComplete}
	if err := m.reviews.Save(ctx, *rev); err != nil {
		return fmt.Errorf("save completed review: %w", err)
	}

	adv := analysis.Advanced(*game, *rev, m.depth, time.Now().Unix())
	if err := m.advanced.Save(ctx, adv); err != nil {
		return fmt.Errorf("save advanced analysis: %w", err)
	}
	log.Info("review complete: %d plies, %d critical positions", total, adv.CriticalPositionsCount)
	return nil
}

// analyzePly runs the two searches for one half-move: best line from
// the pre-move position, then the played line's reply position.
func (m *Manager) analyzePly(ctx context.Context, evaluator Evaluator, ply int, fenBefore string, move models.StoredMove) (models.PositionReview, error) {
	best, err := evaluator.Evaluate(ctx, fenBefore, m.depth)
	if err != nil {
		return models.PositionReview{}, fmt.Errorf("evaluate before: %w", err)
	}

	playedEval, err := m.evaluateAfter(ctx, evaluator, move.FENAfter)
	if err != nil {
		return models.PositionReview{}, err
	}

	// Scores come back from the side to move: the mover before, the
	// opponent after. Mover perspective of the played line is the
	// negated after score.
	cpLoss := best.Score.ToCP() - playedEval.Negate().ToCP()
	if cpLoss < 0 {
		cpLoss = 0
	}

	forced := false
	var bestSAN string
	if pos := positionFromFEN(fenBefore); pos != nil {
		forced = len(pos.ValidMoves()) == 1
		if mv, err := (nchess.UCINotation{}).Decode(pos, best.BestMoveUCI); err == nil {
			bestSAN = nchess.AlgebraicNotation{}.Encode(pos, mv)
		}
	}

	whiteMove := models.IsWhitePly(ply)
	p := models.PositionReview{
		Ply:            ply,
		FEN:            move.FENAfter,
		PlayedSAN:      move.SAN,
		BestMoveSAN:    bestSAN,
		BestMoveUCI:    best.BestMoveUCI,
		Classification: analysis.Classify(cpLoss, forced),
		CPLoss:         cpLoss,
		PV:             best.PV,
		Depth:          m.depth,
		ClockMs:        move.ClockMs,
	}
	if whiteMove {
		p.EvalBefore = best.Score
		p.EvalAfter = playedEval.Negate()
	} else {
		p.EvalBefore = best.Score.Negate()
		p.EvalAfter = playedEval
	}
	p.EvalBest = p.EvalBefore
	return p, nil
}

// evaluateAfter scores the position reached by the played move, from
// its side-to-move's perspective. Terminal positions skip the search:
// a delivered mate is Mate(0) for the mated side, stalemate is a dead
// draw.
func (m *Manager) evaluateAfter(ctx context.Context, evaluator Evaluator, fenAfter string) (models.Score, error) {
	if pos := positionFromFEN(fenAfter); pos != nil {
		switch pos.Status() {
		case nchess.Checkmate:
			return models.Mate(0), nil
		case nchess.Stalemate:
			return models.Centipawns(0), nil
		}
	}
	eval, err := evaluator.Evaluate(ctx, fenAfter, m.depth)
	if err != nil {
		return models.Score{}, fmt.Errorf("evaluate after: %w", err)
	}
	return eval.Score, nil
}

func positionFromFEN(fen string) *nchess.Position {
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil
	}
	return nchess.NewGame(opt).Position()
}
