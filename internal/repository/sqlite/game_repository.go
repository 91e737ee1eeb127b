package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/benediktms/chesstty/internal/logger"
	"github.com/benediktms/chesstty/internal/models"
	"github.com/benediktms/chesstty/internal/repository"
)

type gameRepository struct {
	db *sql.DB
}

// NewGameRepository creates the finished-game store.
func NewGameRepository(db *sql.DB) repository.GameRepository {
	return &gameRepository{db: db}
}

// Save writes the game row and its moves in one transaction, so a
// half-written game never surfaces.
func (r *gameRepository) Save(ctx context.Context, g models.FinishedGame) error {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("saving finished game: id=%s moves=%d", g.ID, len(g.Moves))

	return tx(ctx, r.db, func(t *sql.Tx) error {
		var humanSide *string
		if g.HumanSide != nil {
			v := string(*g.HumanSide)
			humanSide = &v
		}
		if _, err := t.ExecContext(ctx, `
INSERT OR REPLACE INTO finished_games (id, start_fen, result, reason, mode, human_side, skill_level, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, g.ID, g.StartFEN, string(g.Result), g.Reason, string(g.Mode), humanSide, g.SkillLevel, g.CreatedAt); err != nil {
			return err
		}
		if _, err := t.ExecContext(ctx, `DELETE FROM stored_moves WHERE game_id = ?`, g.ID); err != nil {
			return err
		}
		for _, mv := range g.Moves {
			if _, err := t.ExecContext(ctx, `
INSERT INTO stored_moves (game_id, ply, san, uci, fen_after, clock_ms)
VALUES (?, ?, ?, ?, ?, ?)
`, g.ID, mv.Ply, mv.SAN, mv.UCI, mv.FENAfter, mv.ClockMs); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *gameRepository) Get(ctx context.Context, id string) (*models.FinishedGame, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("getting finished game: id=%s", id)

	var g models.FinishedGame
	var result, mode string
	var humanSide sql.NullString
	err := r.db.QueryRowContext(ctx, `
SELECT id, start_fen, result, reason, mode, human_side, skill_level, created_at
FROM finished_games
WHERE id = ?
`, id).Scan(&g.ID, &g.StartFEN, &result, &g.Reason, &mode, &humanSide, &g.SkillLevel, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("finished game not found: id=%s", id)
		} else {
			log.Error("failed to get finished game: %v", err)
		}
		return nil, err
	}
	g.Result = models.GameResult(result)
	g.Mode = models.GameMode(mode)
	if humanSide.Valid {
		side := models.Side(humanSide.String)
		g.HumanSide = &side
	}

	moves, err := r.movesForGame(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Moves = moves
	return &g, nil
}

func (r *gameRepository) movesForGame(ctx context.Context, gameID string) ([]models.StoredMove, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT ply, san, uci, fen_after, clock_ms
FROM stored_moves
WHERE game_id = ?
ORDER BY ply ASC
`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var moves []models.StoredMove
	for rows.Next() {
		var mv models.StoredMove
		var clockMs sql.NullInt64
		if err := rows.Scan(&mv.Ply, &mv.SAN, &mv.UCI, &mv.FENAfter, &clockMs); err != nil {
			return nil, err
		}
		if clockMs.Valid {
			v := clockMs.Int64
			mv.ClockMs = &v
		}
		moves = append(moves, mv)
	}
	return moves, rows.Err()
}

func (r *gameRepository) List(ctx context.Context, filter repository.GameFilter) ([]models.FinishedGame, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("listing finished games: mode=%s result=%s limit=%d offset=%d",
		filter.Mode, filter.Result, filter.Limit, filter.Offset)

	query := sqlBuilder.Select(
		"id", "start_fen", "result", "reason", "mode", "human_side", "skill_level", "created_at",
	).From("finished_games")

	if filter.Mode != "" {
		query = query.Where(squirrel.Eq{"mode": string(filter.Mode)})
	}
	if filter.Result != "" {
		query = query.Where(squirrel.Eq{"result": string(filter.Result)})
	}
	query = query.OrderBy("created_at DESC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query = query.Limit(uint64(limit)).Offset(uint64(offset))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list finished games: %v", err)
		return nil, err
	}
	defer rows.Close()

	var games []models.FinishedGame
	for rows.Next() {
		var g models.FinishedGame
		var result, mode string
		var humanSide sql.NullString
		if err := rows.Scan(&g.ID, &g.StartFEN, &result, &g.Reason, &mode, &humanSide, &g.SkillLevel, &g.CreatedAt); err != nil {
			log.Error("failed to scan finished game row: %v", err)
			return nil, err
		}
		g.Result = models.GameResult(result)
		g.Mode = models.GameMode(mode)
		if humanSide.Valid {
			side := models.Side(humanSide.String)
			g.HumanSide = &side
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Listings include the full move lists; games are short.
	for i := range games {
		moves, err := r.movesForGame(ctx, games[i].ID)
		if err != nil {
			return nil, err
		}
		games[i].Moves = moves
	}
	log.Debug("found %d finished games", len(games))
	return games, nil
}

func (r *gameRepository) Count(ctx context.Context, filter repository.GameFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")

	query := sqlBuilder.Select("COUNT(*)").From("finished_games")
	if filter.Mode != "" {
		query = query.Where(squirrel.Eq{"mode": string(filter.Mode)})
	}
	if filter.Result != "" {
		query = query.Where(squirrel.Eq{"result": string(filter.Result)})
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}
	var n int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		log.Error("failed to count finished games: %v", err)
		return 0, err
	}
	return n, nil
}

func (r *gameRepository) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("deleting finished game: id=%s", id)

	res, err := r.db.ExecContext(ctx, `DELETE FROM finished_games WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete finished game: %v", err)
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("finished game %s: %w", id, sql.ErrNoRows)
	}
	return nil
}
