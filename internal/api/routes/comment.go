package routes

import (
	"github.com/go-chi/chi/v5"

	"Agora/internal/api/handlers/comments"
	"Agora/internal/api/middleware"
	commentsCore "Agora/internal/core/comments"
)

// RegisterCommentRoutes registers comment-related XRPC endpoints on the router.
// Thread reads are public; writes require authentication.
func RegisterCommentRoutes(r chi.Router, service commentsCore.Service, authMiddleware *middleware.AuthMiddleware) {
	getThreadHandler := comments.NewGetThreadHandler(service)
	createHandler := comments.NewCreateCommentHandler(service)
	updateHandler := comments.NewUpdateCommentHandler(service)
	deleteHandler := comments.NewDeleteCommentHandler(service)

	// agora.comment.getThread - optional auth adds the viewer's votes
	r.With(authMiddleware.OptionalAuth).Get(
		"/xrpc/agora.comment.getThread",
		getThreadHandler.HandleGetThread)

	r.With(authMiddleware.RequireAuth).Post(
		"/xrpc/agora.comment.create",
		createHandler.HandleCreate)

	r.With(authMiddleware.RequireAuth).Post(
		"/xrpc/agora.comment.update",
		updateHandler.HandleUpdate)

	r.With(authMiddleware.RequireAuth).Post(
		"/xrpc/agora.comment.delete",
		deleteHandler.HandleDelete)
}
