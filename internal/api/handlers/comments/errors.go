package comments

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"Agora/internal/api/handlers"
	"Agora/internal/core/comments"
	"Agora/internal/core/session"
	"Agora/internal/core/users"
)

// maxBodyBytes caps request bodies; 10000 graphemes fit comfortably.
const maxBodyBytes = 100 * 1024

// handleServiceError maps service-layer errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNoSession):
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")

	case errors.Is(err, comments.ErrNotAuthorized):
		handlers.WriteError(w, http.StatusForbidden, "NotAuthorized", err.Error())

	case comments.IsNotFound(err), errors.Is(err, users.ErrUserNotFound):
		handlers.WriteError(w, http.StatusNotFound, "NotFound", err.Error())

	case comments.IsValidationError(err), users.IsValidationError(err):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())

	case comments.IsConflict(err):
		handlers.WriteError(w, http.StatusConflict, "Conflict", err.Error())

	default:
		// Don't leak internal error details to clients
		zap.L().Error("unexpected error in comments handler", zap.Error(err))
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError",
			"An internal error occurred")
	}
}

// writeDecodeError reports a body that could not be decoded
func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, comments.ErrInvalidKind) {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidKind", "kind must be 'forum' or 'product'")
		return
	}
	handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
}
