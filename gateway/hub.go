package gateway

import (
	"errors"
	"sync"

	"github.com/rentyatra/rentyatra-api/metrics"
	"github.com/rentyatra/rentyatra-api/models"
	"github.com/rs/zerolog"
)

// ErrHubClosed is returned when a connection arrives after shutdown began
var ErrHubClosed = errors.New("gateway: hub closed")

// Hub tracks live connections and their room memberships. Emits never block:
// a member whose send buffer is full misses the event.
type Hub struct {
	log zerolog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	closed  bool
}

// NewHub creates an empty hub
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:     log.With().Str("component", "gateway").Logger(),
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	h.clients[c] = struct{}{}
	metrics.GatewayConnections.Inc()
	return nil
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

// removeLocked drops c from every room and closes its send channel, which
// tells the write pump to say goodbye. Caller holds h.mu.
func (h *Hub) removeLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)

	for room := range c.rooms {
		members := h.rooms[room]
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	c.rooms = nil

	close(c.send)
	metrics.GatewayConnections.Dec()
}

// Join adds c to room. Joining twice is a no-op.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

// Emit sends event to every member of room except the given client, which
// may be nil
func (h *Hub) Emit(room, event string, payload interface{}, except *Client) {
	data, err := encodeFrame(event, payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("failed to encode event")
		return
	}
	metrics.GatewayEvents.WithLabelValues(event).Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[room] {
		if c == except {
			continue
		}
		h.enqueue(c, event, data)
	}
}

// sendTo delivers an event to a single connection
func (h *Hub) sendTo(c *Client, event string, payload interface{}) {
	data, err := encodeFrame(event, payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("failed to encode event")
		return
	}
	metrics.GatewayEvents.WithLabelValues(event).Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[c]; ok {
		h.enqueue(c, event, data)
	}
}

// enqueue must be called with h.mu held, so the channel cannot be closed underneath
func (h *Hub) enqueue(c *Client, event string, data []byte) {
	select {
	case c.send <- data:
	default:
		metrics.GatewayDropped.WithLabelValues(event).Inc()
		h.log.Warn().
			Str("event", event).
			Str("user_id", c.UserID()).
			Msg("send buffer full, dropping event")
	}
}

// RoomSize returns the number of connections in room
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// ConnectionCount returns the number of registered connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
	h.log.Info().Msg("gateway hub closed")
}

// MessageCreated implements services.Notifier
func (h *Hub) MessageCreated(msg *models.Message) {
	h.Emit(ConversationRoom(msg.ConversationID), EventNewMessage, msg, nil)
}

// MessageNotification implements services.Notifier
func (h *Hub) MessageNotification(msg *models.Message, unreadCount int64) {
	h.Emit(UserRoom(msg.ReceiverID), EventMessageNotification, NotificationPayload{
		Message:     msg,
		UnreadCount: unreadCount,
	}, nil)
}

// MessageRead implements services.Notifier
func (h *Hub) MessageRead(msg *models.Message) {
	receipt := ReadReceiptPayload{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
	}
	if msg.ReadAt != nil {
		receipt.ReadAt = *msg.ReadAt
	}
	h.Emit(UserRoom(msg.SenderID), EventMessageRead, receipt, nil)
}
