package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thenoetrevino/pizarra/internal/types"
)

// mockRetryPublisher fails a configurable number of sends
type mockRetryPublisher struct {
	sendAttempts int
	failUntil    int // Fail until this attempt number (0-indexed)
	lastEvent    Event
}

func (m *mockRetryPublisher) SendEvent(event Event) error {
	m.lastEvent = event
	currentAttempt := m.sendAttempts
	m.sendAttempts++

	if currentAttempt < m.failUntil {
		return errors.New("simulated send failure")
	}
	return nil
}

// Unused interface methods
func (m *mockRetryPublisher) Connect(ctx context.Context) error                { return nil }
func (m *mockRetryPublisher) Listen(ctx context.Context) (<-chan Event, error) { return nil, nil }
func (m *mockRetryPublisher) Subscribe(board types.BoardID) error              { return nil }
func (m *mockRetryPublisher) Origin() string                                   { return "mock" }
func (m *mockRetryPublisher) Close() error                                     { return nil }

func TestPublishWithRetry_Success(t *testing.T) {
	mock := &mockRetryPublisher{}
	err := PublishWithRetry(mock, Event{Type: EventTasksChanged, BoardID: "b1"}, 3)

	assert.NoError(t, err)
	assert.Equal(t, 1, mock.sendAttempts)
	assert.Equal(t, "b1", string(mock.lastEvent.BoardID))
}

func TestPublishWithRetry_SuccessAfterRetries(t *testing.T) {
	mock := &mockRetryPublisher{failUntil: 2}
	err := PublishWithRetry(mock, Event{Type: EventTasksChanged}, 3)

	assert.NoError(t, err)
	assert.Equal(t, 3, mock.sendAttempts)
}

func TestPublishWithRetry_FailureAfterAllRetries(t *testing.T) {
	mock := &mockRetryPublisher{failUntil: 999}
	err := PublishWithRetry(mock, Event{Type: EventSectionsChanged}, 3)

	assert.Error(t, err)
	assert.Equal(t, 3, mock.sendAttempts)
}

func TestPublishWithRetry_NilClient(t *testing.T) {
	assert.NoError(t, PublishWithRetry(nil, Event{}, 3))
}
