package actor

import (
	"net/http"
	"strconv"
	"strings"

	"Agora/internal/api/handlers"
	"Agora/internal/core/comments"
	"Agora/internal/core/users"
)

// GetCommentsHandler handles actor comment retrieval
type GetCommentsHandler struct {
	commentService comments.Service
	userService    users.UserService
}

// NewGetCommentsHandler creates a new actor comments handler
func NewGetCommentsHandler(commentService comments.Service, userService users.UserService) *GetCommentsHandler {
	return &GetCommentsHandler{
		commentService: commentService,
		userService:    userService,
	}
}

// HandleGetComments retrieves comments by an actor (user)
// GET /xrpc/agora.actor.getComments?actor={id_or_handle}&limit=50
func (h *GetCommentsHandler) HandleGetComments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	actor := strings.TrimSpace(query.Get("actor"))
	if actor == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "actor is required")
		return
	}

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "limit must be an integer")
			return
		}
		limit = n
	}

	user, err := h.userService.ResolveActor(r.Context(), actor)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp, err := h.commentService.GetActorComments(r.Context(), &comments.GetActorCommentsRequest{
		ActorID: user.ID,
		Limit:   limit,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, resp)
}
