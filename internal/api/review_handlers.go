package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/benediktms/chesstty/internal/models"
)

// handleEnqueueReview requests analysis of a finished game. A game
// whose review already completed answers 200 with the cached status
// instead of queueing new work.
func (s *Server) handleEnqueueReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Reviews.Enqueue(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	status, err := s.Reviews.Status(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	code := http.StatusAccepted
	if status.Kind == models.ReviewComplete {
		code = http.StatusOK
	}
	respondJSON(w, code, status)
}

func (s *Server) handleReviewStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.Reviews.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	rev, err := s.Reviews.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rev)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := s.Reviews.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdvancedAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := s.Reviews.Advanced(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}
