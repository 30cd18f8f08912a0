package websocket

import (
	"log/slog"
	"sync"

	"github.com/shiftmate/mediaflow-service/internal/types"
)

// Hub maintains the set of connected owner dashboards and pushes flow events
// to them. One connection per owner; a reconnect replaces the old one.
type Hub struct {
	// Registered clients mapped by owner account ID
	clients map[string]*Client

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex to protect clients map
	mu sync.RWMutex

	// Channel to broadcast events
	broadcast chan *ownerMessage
}

type ownerMessage struct {
	OwnerID string
	Event   *types.Event
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *ownerMessage),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// If the owner already has a connection, close the old one
			if existing, exists := h.clients[client.ownerID]; exists {
				close(existing.send)
				slog.Info("Replaced existing WebSocket connection", slog.String("owner_id", client.ownerID))
			}
			h.clients[client.ownerID] = client
			h.mu.Unlock()
			slog.Info("WebSocket client connected", slog.String("owner_id", client.ownerID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ownerID]; ok {
				delete(h.clients, client.ownerID)
				close(client.send)
				slog.Info("WebSocket client disconnected", slog.String("owner_id", client.ownerID))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.sendToOwner(message.OwnerID, message.Event)
		}
	}
}

// RegisterClient registers a new client
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient unregisters a client
func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// BroadcastToOwner sends an event to the owner's connected dashboard
func (h *Hub) BroadcastToOwner(ownerID string, event *types.Event) {
	message := &ownerMessage{
		OwnerID: ownerID,
		Event:   event,
	}

	select {
	case h.broadcast <- message:
	default:
		slog.Warn("Broadcast channel is full, dropping message")
	}
}

func (h *Hub) sendToOwner(ownerID string, event *types.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, ok := h.clients[ownerID]; ok {
		err := client.SendEvent(event)
		if err != nil {
			slog.Error("Failed to send event to client",
				slog.String("owner_id", ownerID),
				slog.String("error", err.Error()))
			// Remove the client if sending fails
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}
}

// IsOwnerConnected checks if an owner's dashboard is currently connected
func (h *Hub) IsOwnerConnected(ownerID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, exists := h.clients[ownerID]
	return exists
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
