package testutil

import (
	"context"
	"sync"

	"github.com/thenoetrevino/pizarra/internal/events"
	"github.com/thenoetrevino/pizarra/internal/types"
)

// RecordingPublisher is an in-memory events.EventPublisher. It records sent
// events and lets tests inject events as if a collaborator had sent them.
type RecordingPublisher struct {
	mu sync.Mutex

	origin     string
	sent       []events.Event
	listeners  []chan events.Event
	closed     bool
	SendErr    error // Returned by SendEvent when set
	Subscribed []types.BoardID
}

// NewRecordingPublisher creates a publisher stamping origin on sent events
func NewRecordingPublisher(origin string) *RecordingPublisher {
	return &RecordingPublisher{origin: origin}
}

func (p *RecordingPublisher) Connect(ctx context.Context) error { return nil }

func (p *RecordingPublisher) Origin() string { return p.origin }

// SendEvent records the event for later verification.
func (p *RecordingPublisher) SendEvent(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SendErr != nil {
		return p.SendErr
	}
	if event.Origin == "" {
		event.Origin = p.origin
	}
	p.sent = append(p.sent, event)
	return nil
}

// Listen returns a channel fed by Inject until ctx ends
func (p *RecordingPublisher) Listen(ctx context.Context) (<-chan events.Event, error) {
	ch := make(chan events.Event, 16)
	p.mu.Lock()
	p.listeners = append(p.listeners, ch)
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, l := range p.listeners {
			if l == ch {
				p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
				close(ch)
				return
			}
		}
	}()
	return ch, nil
}

func (p *RecordingPublisher) Subscribe(board types.BoardID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Subscribed = append(p.Subscribed, board)
	return nil
}

// Inject delivers an event to every active listener
func (p *RecordingPublisher) Inject(event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, l := range p.listeners {
		l <- event
	}
}

// Listening reports how many listeners are attached
func (p *RecordingPublisher) Listening() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners)
}

// Events returns a copy of every recorded event
func (p *RecordingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Event, len(p.sent))
	copy(out, p.sent)
	return out
}

// EventsOfType returns the recorded events of one type
func (p *RecordingPublisher) EventsOfType(eventType events.EventType) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.sent {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Close detaches every listener
func (p *RecordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for _, l := range p.listeners {
		close(l)
	}
	p.listeners = nil
	return nil
}

var _ events.EventPublisher = (*RecordingPublisher)(nil)
