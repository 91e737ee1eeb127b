package api

import (
	"encoding/json"
	"net/http"

	"github.com/benediktms/chesstty/internal/errors"
	"github.com/benediktms/chesstty/internal/models"
	"github.com/benediktms/chesstty/internal/session"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.NewBadRequestError("request body required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.NewBadRequestError("invalid JSON: " + err.Error())
	}
	return nil
}

// sessionCommand sends one command to a session and waits for its
// snapshot reply.
func (s *Server) sessionCommand(r *http.Request, id string, build func(chan session.SnapshotReply) session.Command) (models.SessionSnapshot, error) {
	reply := make(chan session.SnapshotReply, 1)
	if err := s.Sessions.Send(r.Context(), id, build(reply)); err != nil {
		return models.SessionSnapshot{}, err
	}
	select {
	case rep := <-reply:
		return rep.Snapshot, rep.Err
	case <-r.Context().Done():
		return models.SessionSnapshot{}, r.Context().Err()
	}
}
