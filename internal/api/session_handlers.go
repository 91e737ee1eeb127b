package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/benediktms/chesstty/internal/logger"
	"github.com/benediktms/chesstty/internal/models"
	"github.com/benediktms/chesstty/internal/session"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createSessionRequest struct {
	FEN       string               `json:"fen,omitempty"`
	Mode      models.GameMode      `json:"mode,omitempty"`
	HumanSide models.Side          `json:"human_side,omitempty"`
	Engine    *models.EngineConfig `json:"engine,omitempty"`
	Timer     *models.TimerConfig  `json:"timer,omitempty"`
}

type sessionResponse struct {
	SessionID string                 `json:"session_id"`
	Snapshot  models.SessionSnapshot `json:"snapshot"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, err)
			return
		}
	}

	id, snap, err := s.Sessions.Create(r.Context(), session.CreateConfig{
		FEN:       req.FEN,
		Mode:      req.Mode,
		HumanSide: req.HumanSide,
		Engine:    req.Engine,
		Timer:     req.Timer,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, sessionResponse{SessionID: id, Snapshot: snap})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"sessions": s.Sessions.List(r.Context())})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Sessions.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type makeMoveRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

func (s *Server) handleMakeMove(w http.ResponseWriter, r *http.Request) {
	var req makeMoveRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	snap, err := s.sessionCommand(r, chi.URLParam(r, "id"), func(reply chan session.SnapshotReply) session.Command {
		return session.MakeMove{From: req.From, To: req.To, Promotion: req.Promotion, Reply: reply}
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleLegalMoves(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	reply := make(chan session.LegalMovesReply, 1)
	if err := s.Sessions.Send(r.Context(), id, session.GetLegalMoves{From: r.URL.Query().Get("from"), Reply: reply}); err != nil {
		handleError(w, r, err)
		return
	}
	select {
	case rep := <-reply:
		if rep.Err != nil {
			handleError(w, r, rep.Err)
			return
		}
		moves := rep.Moves
		if moves == nil {
			moves = []models.LegalMove{}
		}
		respondJSON(w, http.StatusOK, map[string]any{"moves": moves})
	case <-r.Context().Done():
		handleError(w, r, r.Context().Err())
	}
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.simpleCommand(w, r, func(reply chan session.SnapshotReply) session.Command {
		return session.Undo{Reply: reply}
	})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.simpleCommand(w, r, func(reply chan session.SnapshotReply) session.Command {
		return session.Redo{Reply: reply}
	})
}

type resetRequest struct {
	FEN string `json:"fen,omitempty"`
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, err)
			return
		}
	}
	s.simpleCommand(w, r, func(reply chan session.SnapshotReply) session.Command {
		return session.Reset{FEN: req.FEN, Reply: reply}
	})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.simpleCommand(w, r, func(reply chan session.SnapshotReply) session.Command {
		return session.Pause{Reply: reply}
	})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.simpleCommand(w, r, func(reply chan session.SnapshotReply) session.Command {
		return session.Resume{Reply: reply}
	})
}

func (s *Server) handleSetEngine(w http.ResponseWriter, r *http.Request) {
	var req models.EngineConfig
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	s.simpleCommand(w, r, func(reply chan session.SnapshotReply) session.Command {
		return session.SetEngine{Config: req, Reply: reply}
	})
}

func (s *Server) handleStopEngine(w http.ResponseWriter, r *http.Request) {
	s.simpleCommand(w, r, func(reply chan session.SnapshotReply) session.Command {
		return session.StopEngine{Reply: reply}
	})
}

type setSkillRequest struct {
	Level int `json:"level"`
}

func (s *Server) handleSetSkill(w http.ResponseWriter, r *http.Request) {
	var req setSkillRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	s.simpleCommand(w, r, func(reply chan session.SnapshotReply) session.Command {
		return session.SetSkill{Level: req.Level, Reply: reply}
	})
}

func (s *Server) handleSetTimer(w http.ResponseWriter, r *http.Request) {
	var req models.TimerConfig
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	s.simpleCommand(w, r, func(reply chan session.SnapshotReply) session.Command {
		return session.SetTimer{Config: &req, Reply: reply}
	})
}

func (s *Server) handleClearTimer(w http.ResponseWriter, r *http.Request) {
	s.simpleCommand(w, r, func(reply chan session.SnapshotReply) session.Command {
		return session.SetTimer{Config: nil, Reply: reply}
	})
}

func (s *Server) handleSuspendSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.Sessions.Suspend(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"suspended_id": id})
}

func (s *Server) handleListSuspended(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Sessions.ListSuspended(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	if rows == nil {
		rows = []models.SuspendedSession{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"suspended": rows})
}

func (s *Server) handleResumeSuspended(w http.ResponseWriter, r *http.Request) {
	id, snap, err := s.Sessions.ResumeSuspended(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{SessionID: id, Snapshot: snap})
}

// handleSessionEvents streams session events as server-sent events
// until the client disconnects.
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	snap, events, cancel, err := s.Sessions.Subscribe(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	defer cancel()

	flusher, ok := w.(http.Flusher)
	if !ok {
		handleError(w, r, fmt.Errorf("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeEvent := func(ev session.Event) bool {
		payload, err := json.Marshal(ev)
		if err != nil {
			log.Error("failed to encode session event: %v", err)
			return false
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, payload); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	// Initial state so the subscriber starts in sync.
	if !writeEvent(session.Event{Kind: session.EventStateChanged, Snapshot: &snap}) {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !writeEvent(ev) {
				return
			}
		}
	}
}

func (s *Server) simpleCommand(w http.ResponseWriter, r *http.Request, build func(chan session.SnapshotReply) session.Command) {
	snap, err := s.sessionCommand(r, chi.URLParam(r, "id"), build)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}
