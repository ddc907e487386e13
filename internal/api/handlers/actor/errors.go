package actor

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"Agora/internal/api/handlers"
	"Agora/internal/core/users"
)

// handleServiceError maps user and comment service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, users.ErrUserNotFound):
		handlers.WriteError(w, http.StatusNotFound, "ActorNotFound", "Actor not found")

	case users.IsValidationError(err):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())

	default:
		// Internal server error - don't leak details
		zap.L().Error("actor service error", zap.Error(err))
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}
