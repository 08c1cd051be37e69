package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mattislub/Timed-Audio-Queue/logger"
)

var notifyUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// changedMessage is the only message the hub sends; it tells clients the
// recordings set changed and they should poll now rather than wait for
// the next tick.
var changedMessage = []byte(`{"event":"changed"}`)

// NotifyHub fans a change notification out to every connected client.
type NotifyHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewNotifyHub creates an empty hub.
func NewNotifyHub() *NotifyHub {
	return &NotifyHub{
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeWS upgrades the connection and keeps it registered until it closes.
// Clients never send meaningful data; the read loop exists to detect the
// close.
func (h *NotifyHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := notifyUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mu.Unlock()
	logger.Debug("notify client connected", logger.Int("clients", count))

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
			logger.Debug("notify client disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// BroadcastChanged notifies every client that the recordings set changed.
// Clients whose writes fail are dropped.
func (h *NotifyHub) BroadcastChanged() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, changedMessage); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}
