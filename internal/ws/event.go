package ws

import "time"

// Event types pushed to clients
const (
	EventConnected      = "connected"
	EventNewMatch       = "new_match"
	EventMatchAccepted  = "match_accepted"
	EventMatchConfirmed = "match_confirmed"
	EventMatchRejected  = "match_rejected"
	EventNotification   = "notification"
	EventNewMessage     = "new_message"
	EventPong           = "pong"
)

// Event is the wire format for server→client pushes
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewEvent stamps an event with the current time in RFC3339 UTC
func NewEvent(eventType string, data interface{}) Event {
	return Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// InboundFrame is the client→server frame; only ping is meaningful,
// unknown types are accepted and ignored for forward compatibility.
type InboundFrame struct {
	Type string `json:"type"`
}
