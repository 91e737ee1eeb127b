package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/benediktms/chesstty/internal/errors"
	"github.com/benediktms/chesstty/internal/models"
	"github.com/benediktms/chesstty/internal/repository"
)

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.GameFilter{
		Mode:   models.GameMode(q.Get("mode")),
		Result: models.GameResult(q.Get("result")),
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		filter.Offset = v
	}

	games, err := s.Games.List(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	total, err := s.Games.Count(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if games == nil {
		games = []models.FinishedGame{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"games": games, "total": total})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	game, err := s.Games.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, game)
}

// handleDeleteGame removes an archived game. Games with a review in
// the queue are protected until the review finishes.
func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.Reviews.IsEnqueued(id) {
		handleError(w, r, errors.NewConflictError("game has a review in progress"))
		return
	}
	if err := s.Games.Delete(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
