// Package ws holds the live-charts WebSocket connection registry.
package ws

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Event is one message on the live-charts stream.
type Event struct {
	Event   string `json:"event"`
	Message string `json:"message,omitempty"`
	Data    string `json:"data,omitempty"`
}

// Hub is a concurrency-safe registry of active connections. Broadcast is
// best-effort: a client whose send buffer is full is skipped, with no
// delivery guarantee and no backpressure.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	logger  *log.Logger
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		logger:  logger,
	}
}

func (h *Hub) Add(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("websocket client connected", "total_clients", total)
}

func (h *Hub) Remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		client.close()
	}
	total := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.logger.Info("websocket client disconnected", "total_clients", total)
	}
}

// Broadcast sends an event to every registered client, dropping it for
// clients that cannot keep up.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.Send(event)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close drops every client; used at shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		client.close()
	}
}
