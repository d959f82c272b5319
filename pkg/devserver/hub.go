package devserver

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// hub fans encoded render frames out to websocket clients.
type hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
	last    []byte

	// writeMu serializes writes; a gorilla conn allows one writer at a time.
	writeMu sync.Mutex
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		logger:  logger,
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in dev
			},
		},
	}
}

// handle upgrades the connection, sends the latest pass and keeps the
// client registered until it disconnects.
func (h *hub) handle(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.logger.Warn("devserver: websocket upgrade failed", "error", err)
		return
	}

	h.writeMu.Lock()
	h.mu.Lock()
	h.clients[conn] = true
	last := h.last
	h.mu.Unlock()
	if last != nil {
		err = conn.WriteMessage(websocket.BinaryMessage, last)
	}
	h.writeMu.Unlock()

	if err == nil {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// broadcast sends data to every client and remembers it for new ones.
func (h *hub) broadcast(data []byte) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	h.mu.Lock()
	h.last = data
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		if err := client.WriteMessage(websocket.BinaryMessage, data); err != nil {
			h.mu.Lock()
			delete(h.clients, client)
			h.mu.Unlock()
			client.Close()
		}
	}
}

func (h *hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}
