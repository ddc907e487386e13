package routes

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Agora/internal/api/handlers/stream"
	"Agora/internal/api/middleware"
)

// RegisterLiveRoutes registers the WebSocket change feed.
// Browsers cannot set headers on WebSocket upgrades, so auth is optional.
func RegisterLiveRoutes(r chi.Router, hub stream.Subscriber, allowedOrigins []string, authMiddleware *middleware.AuthMiddleware, logger *zap.Logger) {
	h := stream.NewHandler(hub, allowedOrigins, logger)
	r.With(authMiddleware.OptionalAuth).Get("/live/{kind}/{subject}", h.HandleStream)
}
