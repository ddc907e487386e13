package vote

import (
	"encoding/json"
	"errors"
	"net/http"

	"Agora/internal/api/handlers"
	"Agora/internal/core/comments"
	"Agora/internal/core/session"
	"Agora/internal/core/votes"
)

// ClearVoteHandler handles explicit vote retraction
type ClearVoteHandler struct {
	service votes.Service
}

// NewClearVoteHandler creates a new clear vote handler
func NewClearVoteHandler(service votes.Service) *ClearVoteHandler {
	return &ClearVoteHandler{service: service}
}

// HandleClear removes the caller's vote on a comment
// POST /xrpc/agora.vote.clear
//
// Request body: { "kind": "forum", "subject": "<comment id>" }
func (h *ClearVoteHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 16*1024)

	var req votes.ClearVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleDecodeError(w, err)
		return
	}

	if req.Subject == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "subject is required")
		return
	}

	sess := session.FromContext(r.Context())
	if sess == nil {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
		return
	}

	if err := h.service.Clear(r.Context(), sess, req); err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, struct{}{})
}

func handleDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, comments.ErrInvalidKind) {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidSubject", "kind must be 'forum' or 'product'")
		return
	}
	handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
}
