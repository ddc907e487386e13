package comments

import (
	"net/http"

	"Agora/internal/api/handlers"
	"Agora/internal/core/comments"
	"Agora/internal/core/session"
)

// GetThreadHandler serves the comment forest of one forum topic or product
type GetThreadHandler struct {
	service comments.Service
}

// NewGetThreadHandler creates a new handler for fetching threads
func NewGetThreadHandler(service comments.Service) *GetThreadHandler {
	return &GetThreadHandler{service: service}
}

// HandleGetThread returns the nested thread for a subject
// GET /xrpc/agora.comment.getThread?kind=forum&subject=<id>&sort=top
//
// Authentication is optional; with a session, each comment carries the viewer's vote.
func (h *GetThreadHandler) HandleGetThread(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	kind, err := comments.ParseKind(query.Get("kind"))
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidKind", "kind must be 'forum' or 'product'")
		return
	}
	subject := query.Get("subject")
	if subject == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "subject is required")
		return
	}

	req := &comments.GetThreadRequest{
		Kind:      kind,
		SubjectID: subject,
		Sort:      comments.ParseSort(query.Get("sort")),
	}
	if sess := session.FromContext(r.Context()); sess.Valid() {
		viewer := sess.UserID
		req.ViewerID = &viewer
	}

	resp, err := h.service.GetThread(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, resp)
}
