package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benediktms/chesstty/internal/logger"
	"github.com/benediktms/chesstty/internal/models"
	"github.com/benediktms/chesstty/internal/repository"
)

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates the suspended-session store.
func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Save(ctx context.Context, s models.SuspendedSession) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("saving suspended session: id=%s", s.ID)

	var humanSide *string
	if s.HumanSide != nil {
		v := string(*s.HumanSide)
		humanSide = &v
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO suspended_sessions (id, fen, side_to_move, move_count, mode, human_side, skill_level, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    fen = excluded.fen,
    side_to_move = excluded.side_to_move,
    move_count = excluded.move_count,
    mode = excluded.mode,
    human_side = excluded.human_side,
    skill_level = excluded.skill_level
`, s.ID, s.FEN, string(s.SideToMove), s.MoveCount, string(s.Mode), humanSide, s.SkillLevel, s.CreatedAt)
	if err != nil {
		log.Error("failed to save suspended session: %v", err)
	}
	return err
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*models.SuspendedSession, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("getting suspended session: id=%s", id)

	row := r.db.QueryRowContext(ctx, `
SELECT id, fen, side_to_move, move_count, mode, human_side, skill_level, created_at
FROM suspended_sessions
WHERE id = ?
`, id)
	s, err := scanSuspended(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("suspended session not found: id=%s", id)
		} else {
			log.Error("failed to get suspended session: %v", err)
		}
		return nil, err
	}
	return s, nil
}

func (r *sessionRepository) List(ctx context.Context) ([]models.SuspendedSession, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT id, fen, side_to_move, move_count, mode, human_side, skill_level, created_at
FROM suspended_sessions
ORDER BY created_at DESC
`)
	if err != nil {
		log.Error("failed to list suspended sessions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.SuspendedSession
	for rows.Next() {
		s, err := scanSuspended(rows)
		if err != nil {
			log.Error("failed to scan suspended session row: %v", err)
			return nil, err
		}
		out = append(out, *s)
	}
	log.Debug("found %d suspended sessions", len(out))
	return out, rows.Err()
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("deleting suspended session: id=%s", id)

	res, err := r.db.ExecContext(ctx, `DELETE FROM suspended_sessions WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete suspended session: %v", err)
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("suspended session %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSuspended(row rowScanner) (*models.SuspendedSession, error) {
	var s models.SuspendedSession
	var sideToMove, mode string
	var humanSide sql.NullString
	if err := row.Scan(&s.ID, &s.FEN, &sideToMove, &s.MoveCount, &mode, &humanSide, &s.SkillLevel, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.SideToMove = models.Side(sideToMove)
	s.Mode = models.GameMode(mode)
	if humanSide.Valid {
		side := models.Side(humanSide.String)
		s.HumanSide = &side
	}
	return &s, nil
}
