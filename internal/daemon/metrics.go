package daemon

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/thenoetrevino/pizarra/internal/types"
)

// Metrics tracks daemon statistics using atomic operations for thread-safety
type Metrics struct {
	EventsSent       atomic.Int64
	EventsReceived   atomic.Int64
	EventsDropped    atomic.Int64
	ConnectedClients atomic.Int32
	StartTime        time.Time

	mu      sync.Mutex
	byBoard map[types.BoardID]int64
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime: time.Now(),
		byBoard:   make(map[types.BoardID]int64),
	}
}

func (m *Metrics) IncEventsSent() {
	m.EventsSent.Add(1)
}

func (m *Metrics) IncEventsReceived() {
	m.EventsReceived.Add(1)
}

func (m *Metrics) IncEventsDropped() {
	m.EventsDropped.Add(1)
}

// IncRelayed counts one broadcast for the board
func (m *Metrics) IncRelayed(board types.BoardID) {
	m.mu.Lock()
	m.byBoard[board]++
	m.mu.Unlock()
}

// SetConnectedClients sets the current connected clients count
func (m *Metrics) SetConnectedClients(count int32) {
	m.ConnectedClients.Store(count)
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	EventsSent       int64                   `json:"events_sent"`
	EventsReceived   int64                   `json:"events_received"`
	EventsDropped    int64                   `json:"events_dropped"`
	ConnectedClients int32                   `json:"connected_clients"`
	RelayedByBoard   map[types.BoardID]int64 `json:"relayed_by_board"`
	StartTime        time.Time               `json:"start_time"`
	Uptime           string                  `json:"uptime"`
}

// GetSnapshot returns a snapshot of current metrics
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	m.mu.Lock()
	byBoard := make(map[types.BoardID]int64, len(m.byBoard))
	for k, v := range m.byBoard {
		byBoard[k] = v
	}
	m.mu.Unlock()

	return MetricsSnapshot{
		EventsSent:       m.EventsSent.Load(),
		EventsReceived:   m.EventsReceived.Load(),
		EventsDropped:    m.EventsDropped.Load(),
		ConnectedClients: m.ConnectedClients.Load(),
		RelayedByBoard:   byBoard,
		StartTime:        m.StartTime,
		Uptime:           time.Since(m.StartTime).String(),
	}
}
