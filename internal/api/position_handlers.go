package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	nchess "github.com/corentings/chess/v2"

	"github.com/benediktms/chesstty/internal/errors"
	"github.com/benediktms/chesstty/internal/models"
)

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.Positions.List(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	if positions == nil {
		positions = []models.SavedPosition{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"positions": positions})
}

type savePositionRequest struct {
	Name string `json:"name"`
	FEN  string `json:"fen"`
}

func (s *Server) handleSavePosition(w http.ResponseWriter, r *http.Request) {
	var req savePositionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		handleError(w, r, errors.NewValidationError("name", "must not be empty"))
		return
	}
	if _, err := nchess.FEN(req.FEN); err != nil {
		handleError(w, r, errors.NewValidationError("fen", err.Error()))
		return
	}

	p := models.SavedPosition{
		ID:        uuid.NewString(),
		Name:      req.Name,
		FEN:       req.FEN,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.Positions.Save(r.Context(), p); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleDeletePosition(w http.ResponseWriter, r *http.Request) {
	if err := s.Positions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
