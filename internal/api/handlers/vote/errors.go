package vote

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"Agora/internal/api/handlers"
	"Agora/internal/core/comments"
	"Agora/internal/core/session"
	"Agora/internal/core/votes"
)

// handleServiceError converts service errors to XRPC error responses
func handleServiceError(w http.ResponseWriter, err error) {
	var valErr *votes.ValidationError
	switch {
	case errors.Is(err, session.ErrNoSession):
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
	case errors.Is(err, votes.ErrVoteNotFound):
		handlers.WriteError(w, http.StatusNotFound, "VoteNotFound", "No vote found for this subject")
	case errors.Is(err, votes.ErrSubjectNotFound):
		handlers.WriteError(w, http.StatusNotFound, "SubjectNotFound", "The comment was not found")
	case errors.Is(err, votes.ErrInvalidDirection):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Vote direction must be 'up' or 'down'")
	case errors.Is(err, votes.ErrInvalidSubject), errors.Is(err, comments.ErrInvalidKind):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidSubject", "The subject reference is invalid or malformed")
	case errors.As(err, &valErr):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", valErr.Message)
	case errors.Is(err, votes.ErrVoteAlreadyExists):
		handlers.WriteError(w, http.StatusConflict, "AlreadyExists", "Vote already exists")
	default:
		zap.L().Error("vote handler error", zap.Error(err))
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}
