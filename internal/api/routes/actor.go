package routes

import (
	"github.com/go-chi/chi/v5"

	"Agora/internal/api/handlers/actor"
	"Agora/internal/core/comments"
	"Agora/internal/core/users"
)

// RegisterActorRoutes registers actor-related XRPC endpoints
func RegisterActorRoutes(r chi.Router, userService users.UserService, commentService comments.Service) {
	getCommentsHandler := actor.NewGetCommentsHandler(commentService, userService)
	getProfileHandler := actor.NewGetProfileHandler(userService)

	r.Get("/xrpc/agora.actor.getComments", getCommentsHandler.HandleGetComments)
	r.Get("/xrpc/agora.actor.getProfile", getProfileHandler.HandleGetProfile)
}
