// Package wsfeed pushes snapshots to browser clients over WebSocket.
package wsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"stockMonitor/internal/domain"
	"stockMonitor/internal/ports"
)

const sendBuffer = 16

// Hub tracks connected clients and fans each rendered snapshot out to them.
// A client that connects between cycles immediately receives the latest one.
type Hub struct {
	upgrader websocket.Upgrader
	logger   ports.Logger

	mu      sync.RWMutex
	clients map[*Client]bool
	latest  []byte
}

var _ ports.Presenter = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub(logger ports.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*Client]bool),
	}
}

// Render implements ports.Presenter by broadcasting the snapshot.
func (h *Hub) Render(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot: %w", ports.ErrInvalidRequest)
	}
	data, err := json.Marshal(NewSnapshotMessage(snap))
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	h.mu.Lock()
	h.latest = data
	h.mu.Unlock()

	h.broadcast(ctx, data)
	return nil
}

// broadcast queues data on every client. Slow clients drop the message
// rather than stall the polling loop.
func (h *Hub) broadcast(ctx context.Context, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn(ctx, "WebSocket client too slow, dropping snapshot", map[string]interface{}{"remote": c.remote})
		}
	}
}

// ServeHTTP upgrades the request and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "WebSocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	c := &Client{conn: conn, send: make(chan []byte, sendBuffer), hub: h, remote: r.RemoteAddr}

	h.mu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	if h.latest != nil {
		c.send <- h.latest
	}
	h.mu.Unlock()

	h.logger.Info(r.Context(), "WebSocket client connected", map[string]interface{}{"remote": c.remote, "clients": count})

	go c.writePump()
	go c.readPump()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// removeClient unregisters c and closes its send queue.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	h.logger.Debug(context.Background(), "WebSocket client disconnected", map[string]interface{}{"remote": c.remote})
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
