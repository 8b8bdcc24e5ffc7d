package handler

import (
	"log/slog"
	"net/http"

	"notes-publisher/internal/websocket"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

// WebSocketHandler upgrades anonymous readers onto the note feed. The feed
// only carries ids and titles, so no credential is required.
type WebSocketHandler struct {
	manager  *websocket.Manager
	upgrader ws.Upgrader
	logger   *slog.Logger
}

func NewWebSocketHandler(manager *websocket.Manager, readBufferSize, writeBufferSize int, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		manager: manager,
		upgrader: ws.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade feed connection", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := websocket.NewClient(uuid.New().String(), conn, h.manager)

	if !h.manager.Connect(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
