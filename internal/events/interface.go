package events

import (
	"context"

	"github.com/thenoetrevino/pizarra/internal/types"
)

// EventPublisher defines the interface for sending and receiving events.
// This interface allows for loose coupling and easier testing by depending
// on behavior rather than concrete implementation.
type EventPublisher interface {
	// Connect establishes a connection to the change feed
	Connect(ctx context.Context) error

	// SendEvent queues an event for collaborators
	SendEvent(event Event) error

	// Listen starts listening for events from collaborators
	Listen(ctx context.Context) (<-chan Event, error)

	// Subscribe changes the subscription to a specific board
	Subscribe(board types.BoardID) error

	// Origin identifies events sent by this publisher
	Origin() string

	// Close closes the connection and stops all goroutines
	Close() error
}

// Compile-time verification that both transports implement EventPublisher
var (
	_ EventPublisher = (*Client)(nil)
	_ EventPublisher = (*RedisPublisher)(nil)
)
