package events

import (
	"time"

	"github.com/thenoetrevino/pizarra/internal/types"
)

// ProtocolVersion is stamped on every wire message
const ProtocolVersion = 1

// EventType indicates what kind of change occurred
type EventType string

const (
	EventSectionsChanged EventType = "sections_changed"
	EventTasksChanged    EventType = "tasks_changed"
	EventPing            EventType = "ping"
	EventPong            EventType = "pong"
)

// Event represents a confirmed board change notification
type Event struct {
	Type       EventType
	BoardID    types.BoardID // For filtering - which board was modified
	Origin     string        // Process that made the change, lets it skip its own echoes
	Timestamp  time.Time     // When the event occurred
	SequenceID int64         // Monotonically increasing sequence number for ordering
}

// SubscribeMessage is sent by clients to subscribe to specific board updates
type SubscribeMessage struct {
	BoardID types.BoardID // "" = all boards
}

// Message wraps events and control messages for wire protocol
type Message struct {
	Version   int
	Type      string            // "event", "subscribe", "ping", "pong"
	Event     *Event            `json:",omitempty"`
	Subscribe *SubscribeMessage `json:",omitempty"`
}

// Matches reports whether a subscription to board should receive the event
func (e Event) Matches(board types.BoardID) bool {
	return e.BoardID == "" || board == "" || e.BoardID == board
}
