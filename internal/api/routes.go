package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/api/health", s.handleHealth)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Get("/", s.handleListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleCloseSession)
			r.Get("/events", s.handleSessionEvents)
			r.Post("/moves", s.handleMakeMove)
			r.Get("/legal-moves", s.handleLegalMoves)
			r.Post("/undo", s.handleUndo)
			r.Post("/redo", s.handleRedo)
			r.Post("/reset", s.handleReset)
			r.Post("/pause", s.handlePause)
			r.Post("/resume", s.handleResume)
			r.Post("/engine", s.handleSetEngine)
			r.Delete("/engine", s.handleStopEngine)
			r.Post("/skill", s.handleSetSkill)
			r.Post("/timer", s.handleSetTimer)
			r.Delete("/timer", s.handleClearTimer)
			r.Post("/suspend", s.handleSuspendSession)
		})
	})

	r.Route("/api/suspended", func(r chi.Router) {
		r.Get("/", s.handleListSuspended)
		r.Post("/{id}/resume", s.handleResumeSuspended)
	})

	r.Route("/api/games", func(r chi.Router) {
		r.Get("/", s.handleListGames)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetGame)
			r.Delete("/", s.handleDeleteGame)
			r.Post("/review", s.handleEnqueueReview)
			r.Get("/review", s.handleGetReview)
			r.Get("/review/status", s.handleReviewStatus)
			r.Delete("/review", s.handleDeleteReview)
			r.Get("/analysis", s.handleAdvancedAnalysis)
		})
	})

	r.Route("/api/positions", func(r chi.Router) {
		r.Get("/", s.handleListPositions)
		r.Post("/", s.handleSavePosition)
		r.Delete("/{id}", s.handleDeletePosition)
	})

	return r
}
