package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/benediktms/chesstty/internal/logger"
	"github.com/benediktms/chesstty/internal/models"
	"github.com/benediktms/chesstty/internal/repository"
)

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates the game-review store.
func NewReviewRepository(db *sql.DB) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

// Save upserts the review header and replaces the per-ply rows it
// carries. Existing analyzed plies not present in r are kept, so a
// header-only save during resume loses nothing.
func (r *reviewRepository) Save(ctx context.Context, rev models.GameReview) error {
	log := logger.FromContext(ctx).WithPrefix("review_repo")
	log.Debug("saving review: game_id=%s status=%s analyzed=%d/%d",
		rev.GameID, rev.Status.Kind, rev.AnalyzedPlies, rev.TotalPlies)

	return tx(ctx, r.db, func(t *sql.Tx) error {
		if err := saveReviewHeader(ctx, t, rev); err != nil {
			return err
		}
		for _, p := range rev.Positions {
			if err := savePositionRow(ctx, t, rev.GameID, p); err != nil {
				return err
			}
		}
		return nil
	})
}

// SavePosition persists one analyzed ply and bumps the header's
// progress in the same transaction.
func (r *reviewRepository) SavePosition(ctx context.Context, gameID string, p models.PositionReview, analyzedPlies int) error {
	log := logger.FromContext(ctx).WithPrefix("review_repo")
	log.Debug("saving review position: game_id=%s ply=%d", gameID, p.Ply)

	return tx(ctx, r.db, func(t *sql.Tx) error {
		if err := savePositionRow(ctx, t, gameID, p); err != nil {
			return err
		}
		_, err := t.ExecContext(ctx, `
UPDATE game_reviews
SET analyzed_plies = ?, status_current_ply = ?
WHERE game_id = ?
`, analyzedPlies, p.Ply, gameID)
		return err
	})
}

func saveReviewHeader(ctx context.Context, t *sql.Tx, rev models.GameReview) error {
	var currentPly, totalPlies any
	if rev.Status.Kind == models.ReviewAnalyzing {
		currentPly = rev.Status.CurrentPly
		totalPlies = rev.Status.TotalPlies
	}
	var statusErr any
	if rev.Status.Error != "" {
		statusErr = rev.Status.Error
	}
	_, err := t.ExecContext(ctx, `
INSERT INTO game_reviews (game_id, status, status_current_ply, status_total_plies, status_error,
    white_accuracy, black_accuracy, analysis_depth, analyzed_plies, total_plies,
    created_at, started_at, completed_at, winner)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(game_id) DO UPDATE SET
    status = excluded.status,
    status_current_ply = excluded.status_current_ply,
    status_total_plies = excluded.status_total_plies,
    status_error = excluded.status_error,
    white_accuracy = excluded.white_accuracy,
    black_accuracy = excluded.black_accuracy,
    analysis_depth = excluded.analysis_depth,
    analyzed_plies = excluded.analyzed_plies,
    total_plies = excluded.total_plies,
    started_at = excluded.started_at,
    completed_at = excluded.completed_at,
    winner = excluded.winner
`, rev.GameID, string(rev.Status.Kind), currentPly, totalPlies, statusErr,
		rev.WhiteAccuracy, rev.BlackAccuracy, rev.AnalysisDepth, rev.AnalyzedPlies, rev.TotalPlies,
		rev.CreatedAt, rev.StartedAt, rev.CompletedAt, rev.Winner)
	return err
}

func savePositionRow(ctx context.Context, t *sql.Tx, gameID string, p models.PositionReview) error {
	pv, err := json.Marshal(p.PV)
	if err != nil {
		return err
	}
	_, err = t.ExecContext(ctx, `
INSERT OR REPLACE INTO position_reviews (game_id, ply, fen, played_san, best_move_san, best_move_uci,
    eval_before_type, eval_before_value, eval_after_type, eval_after_value, eval_best_type, eval_best_value,
    classification, cp_loss, pv, depth, clock_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, gameID, p.Ply, p.FEN, p.PlayedSAN, p.BestMoveSAN, p.BestMoveUCI,
		string(p.EvalBefore.Type), p.EvalBefore.Value,
		string(p.EvalAfter.Type), p.EvalAfter.Value,
		string(p.EvalBest.Type), p.EvalBest.Value,
		string(p.Classification), p.CPLoss, string(pv), p.Depth, p.ClockMs)
	return err
}

func (r *reviewRepository) Get(ctx context.Context, gameID string) (*models.GameReview, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")
	log.Debug("getting review: game_id=%s", gameID)

	var rev models.GameReview
	var status string
	var currentPly, totalPlies sql.NullInt64
	var statusErr, winner sql.NullString
	err := r.db.QueryRowContext(ctx, `
SELECT game_id, status, status_current_ply, status_total_plies, status_error,
       white_accuracy, black_accuracy, analysis_depth, analyzed_plies, total_plies,
       created_at, started_at, completed_at, winner
FROM game_reviews
WHERE game_id = ?
`, gameID).Scan(&rev.GameID, &status, &currentPly, &totalPlies, &statusErr,
		&rev.WhiteAccuracy, &rev.BlackAccuracy, &rev.AnalysisDepth, &rev.AnalyzedPlies, &rev.TotalPlies,
		&rev.CreatedAt, &rev.StartedAt, &rev.CompletedAt, &winner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("review not found: game_id=%s", gameID)
		} else {
			log.Error("failed to get review: %v", err)
		}
		return nil, err
	}
	rev.Status.Kind = models.ReviewStatusKind(status)
	if currentPly.Valid {
		rev.Status.CurrentPly = int(currentPly.Int64)
	}
	if totalPlies.Valid {
		rev.Status.TotalPlies = int(totalPlies.Int64)
	}
	if statusErr.Valid {
		rev.Status.Error = statusErr.String
	}
	if winner.Valid {
		rev.Winner = winner.String
	}

	positions, err := r.positionsForGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	rev.Positions = positions
	return &rev, nil
}

func (r *reviewRepository) positionsForGame(ctx context.Context, gameID string) ([]models.PositionReview, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT ply, fen, played_san, best_move_san, best_move_uci,
       eval_before_type, eval_before_value, eval_after_type, eval_after_value, eval_best_type, eval_best_value,
       classification, cp_loss, pv, depth, clock_ms
FROM position_reviews
WHERE game_id = ?
ORDER BY ply ASC
`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PositionReview
	for rows.Next() {
		var p models.PositionReview
		var beforeType, afterType, bestType, classification, pv string
		var clockMs sql.NullInt64
		if err := rows.Scan(&p.Ply, &p.FEN, &p.PlayedSAN, &p.BestMoveSAN, &p.BestMoveUCI,
			&beforeType, &p.EvalBefore.Value, &afterType, &p.EvalAfter.Value, &bestType, &p.EvalBest.Value,
			&classification, &p.CPLoss, &pv, &p.Depth, &clockMs); err != nil {
			return nil, err
		}
		p.EvalBefore.Type = models.ScoreType(beforeType)
		p.EvalAfter.Type = models.ScoreType(afterType)
		p.EvalBest.Type = models.ScoreType(bestType)
		p.Classification = models.MoveClassification(classification)
		if err := json.Unmarshal([]byte(pv), &p.PV); err != nil {
			return nil, err
		}
		if clockMs.Valid {
			v := clockMs.Int64
			p.ClockMs = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *reviewRepository) Delete(ctx context.Context, gameID string) error {
	log := logger.FromContext(ctx).WithPrefix("review_repo")
	log.Debug("deleting review: game_id=%s", gameID)

	_, err := r.db.ExecContext(ctx, `DELETE FROM game_reviews WHERE game_id = ?`, gameID)
	if err != nil {
		log.Error("failed to delete review: %v", err)
	}
	return err
}

// ListUnfinished returns game ids whose reviews were queued or
// analyzing, used to recover work after a restart.
func (r *reviewRepository) ListUnfinished(ctx context.Context) ([]string, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT game_id
FROM game_reviews
WHERE status IN ('queued', 'analyzing')
ORDER BY created_at ASC
`)
	if err != nil {
		log.Error("failed to list unfinished reviews: %v", err)
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	log.Debug("found %d unfinished reviews", len(ids))
	return ids, rows.Err()
}
