// Package ws upgrades viewer connections and runs their websocket sessions.
package ws

import (
	"log"
	nethttp "net/http"

	"github.com/gorilla/websocket"

	"driftfield/server"
	"driftfield/server/internal/telemetry"
)

type HandlerConfig struct {
	Logger telemetry.Logger
}

type Handler struct {
	hub      *server.Hub
	logger   telemetry.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *server.Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		hub:      hub,
		logger:   logger,
		upgrader: upgrader,
	}
}

// Handle upgrades the request and serves the session until the connection
// drops. Viewers must join over HTTP first and present their id.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	viewerID := r.URL.Query().Get("id")
	if viewerID == "" {
		nethttp.Error(w, "missing id", nethttp.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for %s: %v", viewerID, err)
		return
	}

	h.Serve(viewerID, conn)
}
