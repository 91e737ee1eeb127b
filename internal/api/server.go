package api

import (
	"github.com/benediktms/chesstty/internal/repository"
	"github.com/benediktms/chesstty/internal/review"
	"github.com/benediktms/chesstty/internal/session"
)

// Server holds the HTTP layer's dependencies. Handlers stay thin: they
// decode, delegate to the session or review managers, and encode.
type Server struct {
	Sessions  *session.Manager
	Reviews   *review.Manager
	Games     repository.GameRepository
	Positions repository.PositionRepository
}
