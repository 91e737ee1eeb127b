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

type advancedRepository struct {
	db *sql.DB
}

// NewAdvancedRepository creates the advanced-analysis store. Per-ply
// analyses and psychology profiles are stored as JSON documents; the
// server never queries inside them.
func NewAdvancedRepository(db *sql.DB) repository.AdvancedRepository {
	return &advancedRepository{db: db}
}

func (r *advancedRepository) Save(ctx context.Context, a models.AdvancedGameAnalysis) error {
	log := logger.FromContext(ctx).WithPrefix("advanced_repo")
	log.Debug("saving advanced analysis: game_id=%s positions=%d", a.GameID, len(a.Positions))

	return tx(ctx, r.db, func(t *sql.Tx) error {
		if _, err := t.ExecContext(ctx, `
INSERT OR REPLACE INTO advanced_analyses (game_id, pipeline_version, shallow_depth, deep_depth, critical_positions_count, computed_at)
VALUES (?, ?, ?, ?, ?, ?)
`, a.GameID, a.PipelineVersion, a.ShallowDepth, a.DeepDepth, a.CriticalPositionsCount, a.ComputedAt); err != nil {
			return err
		}

		if _, err := t.ExecContext(ctx, `DELETE FROM position_analyses WHERE game_id = ?`, a.GameID); err != nil {
			return err
		}
		for _, p := range a.Positions {
			doc, err := json.Marshal(p)
			if err != nil {
				return err
			}
			if _, err := t.ExecContext(ctx, `
INSERT INTO position_analyses (game_id, ply, analysis, is_critical)
VALUES (?, ?, ?, ?)
`, a.GameID, p.Ply, string(doc), boolToInt(p.IsCritical)); err != nil {
				return err
			}
		}

		for _, profile := range []models.PsychologicalProfile{a.WhitePsychology, a.BlackPsychology} {
			doc, err := json.Marshal(profile)
			if err != nil {
				return err
			}
			if _, err := t.ExecContext(ctx, `
INSERT OR REPLACE INTO psychological_profiles (game_id, color, profile)
VALUES (?, ?, ?)
`, a.GameID, string(profile.Color), string(doc)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *advancedRepository) Get(ctx context.Context, gameID string) (*models.AdvancedGameAnalysis, error) {
	log := logger.FromContext(ctx).WithPrefix("advanced_repo")
	log.Debug("getting advanced analysis: game_id=%s", gameID)

	var a models.AdvancedGameAnalysis
	var deepDepth sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
SELECT game_id, pipeline_version, shallow_depth, deep_depth, critical_positions_count, computed_at
FROM advanced_analyses
WHERE game_id = ?
`, gameID).Scan(&a.GameID, &a.PipelineVersion, &a.ShallowDepth, &deepDepth, &a.CriticalPositionsCount, &a.ComputedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("advanced analysis not found: game_id=%s", gameID)
		} else {
			log.Error("failed to get advanced analysis: %v", err)
		}
		return nil, err
	}
	if deepDepth.Valid {
		a.DeepDepth = int(deepDepth.Int64)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT analysis FROM position_analyses WHERE game_id = ? ORDER BY ply ASC
`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var p models.AdvancedPositionAnalysis
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, err
		}
		a.Positions = append(a.Positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	profiles, err := r.db.QueryContext(ctx, `
SELECT color, profile FROM psychological_profiles WHERE game_id = ?
`, gameID)
	if err != nil {
		return nil, err
	}
	defer profiles.Close()
	for profiles.Next() {
		var color, doc string
		if err := profiles.Scan(&color, &doc); err != nil {
			return nil, err
		}
		var p models.PsychologicalProfile
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, err
		}
		if models.Side(color) == models.White {
			a.WhitePsychology = p
		} else {
			a.BlackPsychology = p
		}
	}
	return &a, profiles.Err()
}

func (r *advancedRepository) Delete(ctx context.Context, gameID string) error {
	log := logger.FromContext(ctx).WithPrefix("advanced_repo")
	log.Debug("deleting advanced analysis: game_id=%s", gameID)

	_, err := r.db.ExecContext(ctx, `DELETE FROM advanced_analyses WHERE game_id = ?`, gameID)
	if err != nil {
		log.Error("failed to delete advanced analysis: %v", err)
	}
	return err
}
