package websocket

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tripdesk/backend/internal/metrics"
	"github.com/tripdesk/backend/internal/types"
)

// Hub maintains the set of active dashboard clients and fans snapshots out
// to them, scoped per viewer
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Raw messages sent unchanged to every client
	broadcast chan []byte

	// Snapshots re-scoped for each client before sending
	snapshots chan *types.DashboardSnapshot

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Last snapshot, replayed to new clients
	latest *types.DashboardSnapshot

	// Mutex to protect clients map and latest
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 256),
		snapshots:  make(chan *types.DashboardSnapshot, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger.With().Str("component", "hub").Logger(),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	m := metrics.Get()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			latest := h.latest
			total := len(h.clients)
			h.mu.Unlock()
			m.RecordWebSocketConnect()

			h.logger.Info().
				Str("client_id", client.id).
				Str("user_id", client.viewer.UserID).
				Int("total_clients", total).
				Msg("client connected")

			if latest != nil {
				h.sendSnapshot(client, latest)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				m.RecordWebSocketDisconnect()
				h.logger.Info().
					Str("client_id", client.id).
					Int("total_clients", len(h.clients)).
					Msg("client disconnected")
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.broadcastRaw(message)

		case snap := <-h.snapshots:
			h.mu.Lock()
			h.latest = snap
			h.mu.Unlock()
			h.broadcastFiltered(snap)
		}
	}
}

// Broadcast sends a raw message to all connected clients
func (h *Hub) Broadcast(message []byte) {
	h.broadcast <- message
}

// BroadcastSnapshot sends a snapshot to every client, each receiving only
// what its viewer may see
func (h *Hub) BroadcastSnapshot(snap *types.DashboardSnapshot) {
	h.snapshots <- snap
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcastRaw sends a raw message to all clients without filtering
func (h *Hub) broadcastRaw(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		h.trySend(client, message)
	}
}

// broadcastFiltered sends each client its scoped view of the snapshot
func (h *Hub) broadcastFiltered(snap *types.DashboardSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		data, err := json.Marshal(FilterSnapshot(client.viewer, snap))
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to marshal filtered snapshot")
			continue
		}
		h.trySend(client, data)
	}
}

func (h *Hub) sendSnapshot(client *Client, snap *types.DashboardSnapshot) {
	data, err := json.Marshal(FilterSnapshot(client.viewer, snap))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal snapshot")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[client] {
		h.trySend(client, data)
	}
}

// trySend queues data for a client, dropping the client when its buffer is
// full. Callers hold h.mu.
func (h *Hub) trySend(client *Client, data []byte) {
	m := metrics.Get()

	select {
	case client.send <- data:
		m.RecordWebSocketMessage()
	default:
		close(client.send)
		delete(h.clients, client)
		m.RecordWebSocketError()
		m.RecordWebSocketDisconnect()
		h.logger.Warn().
			Str("client_id", client.id).
			Msg("client send buffer full, closing connection")
	}
}
