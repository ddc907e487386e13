package vote

import (
	"encoding/json"
	"net/http"

	"Agora/internal/api/handlers"
	"Agora/internal/core/session"
	"Agora/internal/core/votes"
)

// CastVoteHandler handles vote toggling
type CastVoteHandler struct {
	service votes.Service
}

// NewCastVoteHandler creates a new cast vote handler
func NewCastVoteHandler(service votes.Service) *CastVoteHandler {
	return &CastVoteHandler{service: service}
}

// HandleCast casts a vote or toggles an existing one
// POST /xrpc/agora.vote.cast
//
// Request body: { "kind": "forum", "subject": "<comment id>", "direction": "up" | "down" }
// Casting the same direction twice retracts the vote; the opposite direction replaces it.
func (h *CastVoteHandler) HandleCast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 16*1024)

	var req votes.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleDecodeError(w, err)
		return
	}

	if req.Subject == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "subject is required")
		return
	}
	if req.Direction == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "direction is required")
		return
	}

	sess := session.FromContext(r.Context())
	if sess == nil {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
		return
	}

	resp, err := h.service.Cast(r.Context(), sess, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, resp)
}
