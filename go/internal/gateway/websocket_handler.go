package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler exposes the viewer transports over HTTP
type WebSocketHandler struct {
	connectionManager *ConnectionManager
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
	}
}

// HandleConnection upgrades GET /ws to a WebSocket viewer session
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	// Upgrade writes its own HTTP error response on failure
	if err := h.connectionManager.UpgradeConnection(w, r); err != nil {
		log.Warn().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleEvents serves GET /api/events as a server-sent event stream
func (h *WebSocketHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	h.connectionManager.ServeSSE(w, r)
}

// RegisterRoutes registers the realtime routes on r
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.HandleConnection)
	r.Get("/api/events", h.HandleEvents)
}
