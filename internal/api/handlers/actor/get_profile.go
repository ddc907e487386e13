package actor

import (
	"net/http"
	"strings"

	"Agora/internal/api/handlers"
	"Agora/internal/core/users"
)

// GetProfileHandler serves public profiles
type GetProfileHandler struct {
	userService users.UserService
}

// NewGetProfileHandler creates a new profile handler
func NewGetProfileHandler(userService users.UserService) *GetProfileHandler {
	return &GetProfileHandler{userService: userService}
}

// HandleGetProfile returns a user's profile and stats
// GET /xrpc/agora.actor.getProfile?actor={id_or_handle}
func (h *GetProfileHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	actor := strings.TrimSpace(r.URL.Query().Get("actor"))
	if actor == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "actor is required")
		return
	}

	profile, err := h.userService.GetProfile(r.Context(), actor)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, profile)
}
