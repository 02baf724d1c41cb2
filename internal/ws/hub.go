package ws

import (
	"log"
	"sync"
)

// Conn is the subset of *websocket.Conn the hub needs. Tests substitute
// in-memory fakes; production passes gorilla websocket connections.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Hub maintains the mapping from user identity to that user's currently
// open connections. A user may hold several connections at once (multiple
// devices or tabs). The registry is local to one server instance; users
// connected to two instances simply have two independent entries.
type Hub struct {
	mu          sync.Mutex
	connections map[string]map[Conn]struct{}
}

// NewHub creates an empty connection registry. One hub is created at
// server start and injected into whatever accepts live connections.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]map[Conn]struct{}),
	}
}

// Connect registers a new connection for the user and sends the
// acknowledgment event carrying the user id.
func (h *Hub) Connect(userID string, conn Conn) {
	h.mu.Lock()
	set, ok := h.connections[userID]
	if !ok {
		set = make(map[Conn]struct{})
		h.connections[userID] = set
	}
	set[conn] = struct{}{}
	total := len(set)
	h.mu.Unlock()

	log.Printf("WebSocket connected: user=%s connections=%d\n", userID, total)

	if err := conn.WriteJSON(NewEvent(EventConnected, map[string]interface{}{
		"message": "WebSocket connected",
		"user_id": userID,
	})); err != nil {
		h.Disconnect(userID, conn)
	}
}

// Disconnect removes the connection; the user's entry disappears entirely
// once its connection set becomes empty.
func (h *Hub) Disconnect(userID string, conn Conn) {
	h.mu.Lock()
	if set, ok := h.connections[userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.connections, userID)
		}
	}
	h.mu.Unlock()

	log.Printf("WebSocket disconnected: user=%s\n", userID)
}

// SendToUser delivers the event to every open connection of the user.
// Delivery is independent per connection: a broken connection is removed
// without affecting the user's other connections or other users.
func (h *Hub) SendToUser(userID string, event Event) {
	h.mu.Lock()
	conns := make([]Conn, 0, len(h.connections[userID]))
	for conn := range h.connections[userID] {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("WebSocket send error: user=%s err=%v\n", userID, err)
			h.Disconnect(userID, conn)
			_ = conn.Close()
		}
	}
}

// Broadcast fans the event out to the given users, or to all connected
// users when none are specified.
func (h *Hub) Broadcast(event Event, userIDs ...string) {
	if len(userIDs) == 0 {
		h.mu.Lock()
		for userID := range h.connections {
			userIDs = append(userIDs, userID)
		}
		h.mu.Unlock()
	}

	for _, userID := range userIDs {
		h.SendToUser(userID, event)
	}
}

// ConnectionCount reports how many open connections the user currently has.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections[userID])
}

// Shutdown closes every registered connection and empties the registry.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	conns := make([]Conn, 0)
	for _, set := range h.connections {
		for conn := range set {
			conns = append(conns, conn)
		}
	}
	h.connections = make(map[string]map[Conn]struct{})
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
	log.Println("Closed all websocket connections during shutdown.")
}
