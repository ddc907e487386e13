// Package stream serves the live change feed of one comment thread over WebSocket.
//
// Frames are live.Event values encoded as JSON. They only announce that the
// thread changed; clients re-fetch agora.comment.getThread to see what changed.
package stream

import (
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"Agora/internal/api/handlers"
	"Agora/internal/core/comments"
	"Agora/internal/live"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512
)

// Subscriber hands out scoped subscriptions; *live.Hub implements it.
type Subscriber interface {
	Subscribe(topic string) (*live.Subscription, error)
}

// Handler upgrades requests and relays thread events to the socket
type Handler struct {
	hub        Subscriber
	logger     *zap.Logger
	upgrader   websocket.Upgrader
	pingPeriod time.Duration
}

// NewHandler creates a stream handler.
// allowedOrigins follows the CORS setting; "*" accepts any browser origin.
func NewHandler(hub Subscriber, allowedOrigins []string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		hub:        hub,
		logger:     logger.Named("stream"),
		pingPeriod: pingPeriod,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(allowedOrigins, "*") {
				return true
			}
			return slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// HandleStream streams change events for one thread
// GET /live/{kind}/{subject}
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	kind, err := comments.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidKind", "kind must be 'forum' or 'product'")
		return
	}
	subject := chi.URLParam(r, "subject")
	if subject == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "subject is required")
		return
	}

	sub, err := h.hub.Subscribe(live.Topic(kind.String(), subject))
	if err != nil {
		handlers.WriteError(w, http.StatusServiceUnavailable, "Unavailable", "Live updates are unavailable")
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			h.logger.Debug("failed to close websocket", zap.Error(closeErr))
		}
	}()

	log := h.logger.With(zap.String("topic", sub.Topic()))
	log.Debug("stream opened")

	done := make(chan struct{})
	go h.readLoop(conn, done)
	h.writeLoop(r, conn, sub, done, log)

	log.Debug("stream closed")
}

// readLoop discards client frames and closes done when the peer goes away.
// Control frames (pong, close) are only processed while reading.
func (h *Handler) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func (h *Handler) writeLoop(r *http.Request, conn *websocket.Conn, sub *live.Subscription, done <-chan struct{}, log *zap.Logger) {
	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return

		case <-r.Context().Done():
			h.writeClose(conn, websocket.CloseGoingAway)
			return

		case event, ok := <-sub.Events():
			if !ok {
				// hub shut down
				h.writeClose(conn, websocket.CloseGoingAway)
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				log.Debug("failed to write event", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug("failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

func (h *Handler) writeClose(conn *websocket.Conn, code int) {
	msg := websocket.FormatCloseMessage(code, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
