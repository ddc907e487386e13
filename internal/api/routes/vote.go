package routes

import (
	"github.com/go-chi/chi/v5"

	"Agora/internal/api/handlers/vote"
	"Agora/internal/api/middleware"
	"Agora/internal/core/votes"
)

// RegisterVoteRoutes registers vote-related XRPC endpoints on the router
func RegisterVoteRoutes(r chi.Router, service votes.Service, authMiddleware *middleware.AuthMiddleware) {
	castVoteHandler := vote.NewCastVoteHandler(service)
	clearVoteHandler := vote.NewClearVoteHandler(service)

	// agora.vote.cast - create, retract or flip a vote on a comment
	r.With(authMiddleware.RequireAuth).Post("/xrpc/agora.vote.cast", castVoteHandler.HandleCast)

	// agora.vote.clear - retract a vote
	r.With(authMiddleware.RequireAuth).Post("/xrpc/agora.vote.clear", clearVoteHandler.HandleClear)
}
