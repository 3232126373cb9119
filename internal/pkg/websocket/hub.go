package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event types pushed to connected clients
const (
	EventMessage = "message"
	EventStatus  = "status"
	EventBadge   = "badge"
)

// Event represents an update sent over WebSocket
type Event struct {
	// Type of event: "message", "status" or "badge"
	Type string `json:"type"`

	// Request thread this event belongs to, empty for badge events
	RequestID string `json:"requestId,omitempty"`

	// User a badge event is addressed to
	UserID string `json:"userId,omitempty"`

	// Event payload (chat message, request status, badge name)
	Payload interface{} `json:"payload"`

	// Timestamp when the event was emitted
	Timestamp time.Time `json:"timestamp"`
}

// Hub maintains the set of active clients and pushes thread and badge events
// to them. Clients are grouped by the request thread they watch.
type Hub struct {
	// Registered clients organized by request ID
	clients map[string]map[*Client]bool

	// Outbound events awaiting fan-out
	broadcast chan *Event

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for concurrent access to clients map
	mu sync.RWMutex

	// Logger for Hub operations
	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan *Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

// Run starts the hub, handling client registrations and event fan-out
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// BroadcastToThread pushes an event to every client watching a request thread
func (h *Hub) BroadcastToThread(event *Event) {
	event.Timestamp = time.Now()
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn().
			Str("requestID", event.RequestID).
			Str("type", event.Type).
			Msg("Dropped event, broadcast queue full")
	}
}

// BroadcastToUser pushes a badge event to every connection of one user
func (h *Hub) BroadcastToUser(event *Event) {
	h.BroadcastToThread(event)
}

// ClientCount returns the number of connected clients for a request thread
func (h *Hub) ClientCount(requestID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.clients[requestID]; ok {
		return len(clients)
	}
	return 0
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	requestID := client.requestID
	if _, ok := h.clients[requestID]; !ok {
		h.clients[requestID] = make(map[*Client]bool)
	}
	h.clients[requestID][client] = true

	h.logger.Info().
		Str("requestID", requestID).
		Str("userID", client.userID).
		Str("addr", client.conn.RemoteAddr().String()).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	requestID := client.requestID
	if _, ok := h.clients[requestID]; ok {
		if _, ok := h.clients[requestID][client]; ok {
			delete(h.clients[requestID], client)
			close(client.send)

			// If no more clients on this thread, clean up
			if len(h.clients[requestID]) == 0 {
				delete(h.clients, requestID)
			}

			h.logger.Info().
				Str("requestID", requestID).
				Str("userID", client.userID).
				Msg("Client unregistered")
		}
	}
}

// broadcastEvent delivers an event. Thread events go to the clients watching
// that request; badge events go to every connection owned by the target user.
func (h *Hub) broadcastEvent(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("type", event.Type).
			Msg("Failed to marshal event for broadcast")
		return
	}

	h.mu.RLock()
	var targets []*Client
	if event.Type == EventBadge {
		for _, clients := range h.clients {
			for client := range clients {
				if client.userID == event.UserID {
					targets = append(targets, client)
				}
			}
		}
	} else {
		for client := range h.clients[event.RequestID] {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		h.logger.Debug().
			Str("requestID", event.RequestID).
			Str("type", event.Type).
			Msg("No clients for broadcast")
		return
	}

	for _, client := range targets {
		select {
		case client.send <- data:
		default:
			// Client's send buffer is full, they might be slow or
			// disconnected; drop them
			h.unregisterClient(client)
		}
	}

	h.logger.Debug().
		Str("requestID", event.RequestID).
		Str("type", event.Type).
		Int("clientCount", len(targets)).
		Msg("Event broadcasted")
}
