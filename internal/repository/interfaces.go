package repository

import (
	"context"

	"github.com/benediktms/chesstty/internal/models"
)

// SessionRepository stores suspended sessions.
type SessionRepository interface {
	Save(ctx context.Context, s models.SuspendedSession) error
	Get(ctx context.Context, id string) (*models.SuspendedSession, error)
	List(ctx context.Context) ([]models.SuspendedSession, error)
	Delete(ctx context.Context, id string) error
}

// PositionRepository stores named FEN positions.
type PositionRepository interface {
	Save(ctx context.Context, p models.SavedPosition) error
	Get(ctx context.Context, id string) (*models.SavedPosition, error)
	List(ctx context.Context) ([]models.SavedPosition, error)
	Delete(ctx context.Context, id string) error
	SeedDefaults(ctx context.Context) error
}

// GameFilter narrows finished-game listings.
type GameFilter struct {
	Mode   models.GameMode
	Result models.GameResult
	Limit  int
	Offset int
}

// GameRepository stores archived games with their move lists.
type GameRepository interface {
	Save(ctx context.Context, g models.FinishedGame) error
	Get(ctx context.Context, id string) (*models.FinishedGame, error)
	List(ctx context.Context, filter GameFilter) ([]models.FinishedGame, error)
	Count(ctx context.Context, filter GameFilter) (int, error)
	Delete(ctx context.Context, id string) error
}

// ReviewRepository stores post-game reviews. Save persists the whole
// review; SavePosition appends a single analyzed ply so an interrupted
// review can resume where it stopped.
type ReviewRepository interface {
	Save(ctx context.Context, r models.GameReview) error
	SavePosition(ctx context.Context, gameID string, p models.PositionReview, analyzedPlies int) error
	Get(ctx context.Context, gameID string) (*models.GameReview, error)
	Delete(ctx context.Context, gameID string) error
	ListUnfinished(ctx context.Context) ([]string, error)
}

// AdvancedRepository stores second-pass analyses and psychological
// profiles.
type AdvancedRepository interface {
	Save(ctx context.Context, a models.AdvancedGameAnalysis) error
	Get(ctx context.Context, gameID string) (*models.AdvancedGameAnalysis, error)
	Delete(ctx context.Context, gameID string) error
}
