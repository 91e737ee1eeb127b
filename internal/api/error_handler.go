package api

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/benediktms/chesstty/internal/errors"
	"github.com/benediktms/chesstty/internal/logger"
	"github.com/benediktms/chesstty/internal/repository/sqlite"
	"github.com/benediktms/chesstty/internal/review"
	"github.com/benediktms/chesstty/internal/session"
)

// handleError centralizes error handling for HTTP responses.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	appErr := toAppError(err)
	if appErr.Status >= 500 {
		log.Error("server error: %v", appErr)
	} else {
		log.Warn("client error: %v", appErr)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}

// toAppError maps domain sentinel errors onto the HTTP taxonomy.
func toAppError(err error) *errors.AppError {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case stderrors.Is(err, session.ErrSessionNotFound),
		stderrors.Is(err, review.ErrGameNotFound),
		stderrors.Is(err, sql.ErrNoRows):
		return &errors.AppError{Code: errors.ErrCodeNotFound, Message: err.Error(), Status: 404}

	case stderrors.Is(err, session.ErrIllegalMove),
		stderrors.Is(err, session.ErrInvalidFEN),
		stderrors.Is(err, session.ErrBadSquare),
		stderrors.Is(err, session.ErrSkillOutOfRange),
		stderrors.Is(err, session.ErrNoEngine):
		return &errors.AppError{Code: errors.ErrCodeValidation, Message: err.Error(), Status: 400}

	case stderrors.Is(err, session.ErrGameEnded),
		stderrors.Is(err, session.ErrNotPaused),
		stderrors.Is(err, session.ErrAlreadyPaused),
		stderrors.Is(err, review.ErrReviewInProgress),
		stderrors.Is(err, sqlite.ErrDefaultPosition):
		return &errors.AppError{Code: errors.ErrCodeConflict, Message: err.Error(), Status: 409}

	case stderrors.Is(err, review.ErrQueueFull):
		return &errors.AppError{Code: errors.ErrCodeConflict, Message: err.Error(), Status: 503}

	default:
		return errors.NewInternalError(err)
	}
}
