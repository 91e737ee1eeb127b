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

// ErrDefaultPosition rejects deletion of seeded default positions.
var ErrDefaultPosition = errors.New("default positions cannot be deleted")

// defaultPositions are seeded once on startup. Ids are stable so
// re-seeding is idempotent.
var defaultPositions = []models.SavedPosition{
	{ID: "default-start", Name: "Standard start", FEN: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", IsDefault: true},
	{ID: "default-italian", Name: "Italian Game", FEN: "r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3", IsDefault: true},
	{ID: "default-sicilian", Name: "Sicilian Defense", FEN: "rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2", IsDefault: true},
	{ID: "default-ruy-lopez", Name: "Ruy Lopez", FEN: "r1bqkbnr/pppp1ppp/2n5/1B2p3/4P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3", IsDefault: true},
	{ID: "default-kq-endgame", Name: "King and Queen endgame", FEN: "8/8/8/4k3/8/8/4K3/4Q3 w - - 0 1", IsDefault: true},
	{ID: "default-kr-endgame", Name: "King and Rook endgame", FEN: "8/8/8/4k3/8/8/4K3/4R3 w - - 0 1", IsDefault: true},
}

type positionRepository struct {
	db *sql.DB
}

// NewPositionRepository creates the saved-position store.
func NewPositionRepository(db *sql.DB) repository.PositionRepository {
	return &positionRepository{db: db}
}

func (r *positionRepository) Save(ctx context.Context, p models.SavedPosition) error {
	log := logger.FromContext(ctx).WithPrefix("position_repo")
	log.Debug("saving position: id=%s name=%s", p.ID, p.Name)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO saved_positions (id, name, fen, is_default, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    fen = excluded.fen
`, p.ID, p.Name, p.FEN, boolToInt(p.IsDefault), p.CreatedAt)
	if err != nil {
		log.Error("failed to save position: %v", err)
	}
	return err
}

func (r *positionRepository) Get(ctx context.Context, id string) (*models.SavedPosition, error) {
	log := logger.FromContext(ctx).WithPrefix("position_repo")

	var p models.SavedPosition
	var isDefault int
	err := r.db.QueryRowContext(ctx, `
SELECT id, name, fen, is_default, created_at
FROM saved_positions
WHERE id = ?
`, id).Scan(&p.ID, &p.Name, &p.FEN, &isDefault, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("position not found: id=%s", id)
		} else {
			log.Error("failed to get position: %v", err)
		}
		return nil, err
	}
	p.IsDefault = isDefault != 0
	return &p, nil
}

func (r *positionRepository) List(ctx context.Context) ([]models.SavedPosition, error) {
	log := logger.FromContext(ctx).WithPrefix("position_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, fen, is_default, created_at
FROM saved_positions
ORDER BY is_default DESC, created_at DESC
`)
	if err != nil {
		log.Error("failed to list positions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.SavedPosition
	for rows.Next() {
		var p models.SavedPosition
		var isDefault int
		if err := rows.Scan(&p.ID, &p.Name, &p.FEN, &isDefault, &p.CreatedAt); err != nil {
			log.Error("failed to scan position row: %v", err)
			return nil, err
		}
		p.IsDefault = isDefault != 0
		out = append(out, p)
	}
	log.Debug("found %d positions", len(out))
	return out, rows.Err()
}

func (r *positionRepository) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).WithPrefix("position_repo")
	log.Debug("deleting position: id=%s", id)

	p, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.IsDefault {
		return ErrDefaultPosition
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM saved_positions WHERE id = ? AND is_default = 0`, id)
	if err != nil {
		log.Error("failed to delete position: %v", err)
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("position %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// SeedDefaults inserts the built-in positions, leaving user edits to
// existing rows alone.
func (r *positionRepository) SeedDefaults(ctx context.Context) error {
	log := logger.FromContext(ctx).WithPrefix("position_repo")
	return tx(ctx, r.db, func(t *sql.Tx) error {
		for _, p := range defaultPositions {
			if _, err := t.ExecContext(ctx, `
INSERT OR IGNORE INTO saved_positions (id, name, fen, is_default, created_at)
VALUES (?, ?, ?, 1, strftime('%s', 'now'))
`, p.ID, p.Name, p.FEN); err != nil {
				log.Error("failed to seed position %s: %v", p.ID, err)
				return err
			}
		}
		log.Debug("default positions seeded")
		return nil
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
