package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/thenoetrevino/pizarra/internal/types"
)

// DefaultChannelPrefix namespaces board channels on a shared Redis
const DefaultChannelPrefix = "pizarra:board"

// RedisPublisher fans board changes out over Redis pub/sub, one channel per
// board. It needs no daemon, so collaborators on different hosts can share
// a feed.
type RedisPublisher struct {
	rc     *redis.Client
	prefix string
	origin string

	mu      sync.Mutex
	board   types.BoardID
	sub     *redis.PubSub
	closed  bool
	seq     atomic.Int64
	timeout time.Duration
}

// NewRedisPublisher creates a publisher for the Redis server at addr
func NewRedisPublisher(addr, prefix, origin string) *RedisPublisher {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	return &RedisPublisher{
		rc:      redis.NewClient(&redis.Options{Addr: addr}),
		prefix:  prefix,
		origin:  origin,
		timeout: 5 * time.Second,
	}
}

// Origin returns the identifier stamped on events sent by this publisher
func (p *RedisPublisher) Origin() string {
	return p.origin
}

// Connect verifies the server is reachable
func (p *RedisPublisher) Connect(ctx context.Context) error {
	if err := p.rc.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	return nil
}

// channel returns the pub/sub channel for a board, or a pattern covering
// every board when board is empty.
func (p *RedisPublisher) channel(board types.BoardID) string {
	if board == "" {
		return p.prefix + ":*"
	}
	return p.prefix + ":" + string(board)
}

// SendEvent publishes the event on its board's channel
func (p *RedisPublisher) SendEvent(event Event) error {
	if event.Origin == "" {
		event.Origin = p.origin
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.SequenceID = p.seq.Add(1)

	payload, err := json.Marshal(Message{
		Version: ProtocolVersion,
		Type:    "event",
		Event:   &event,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.rc.Publish(ctx, p.channel(event.BoardID), payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Listen subscribes to the current board and streams decoded events. The
// subscription is confirmed before Listen returns.
func (p *RedisPublisher) Listen(ctx context.Context) (<-chan Event, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrNotConnected
	}
	board := p.board
	var sub *redis.PubSub
	if board == "" {
		sub = p.rc.PSubscribe(ctx, p.channel(board))
	} else {
		sub = p.rc.Subscribe(ctx, p.channel(board))
	}
	p.sub = sub
	p.mu.Unlock()

	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan Event, 10)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var wire Message
				if err := json.Unmarshal([]byte(msg.Payload), &wire); err != nil {
					slog.Warn("unable to parse change event", "channel", msg.Channel, "error", err)
					continue
				}
				if wire.Type != "event" || wire.Event == nil {
					continue
				}
				select {
				case out <- *wire.Event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Subscribe switches the board whose channel Listen follows
func (p *RedisPublisher) Subscribe(board types.BoardID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.board
	p.board = board
	if p.sub == nil || prev == board {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if prev == "" {
		if err := p.sub.PUnsubscribe(ctx, p.channel(prev)); err != nil {
			return fmt.Errorf("unsubscribe: %w", err)
		}
	} else if err := p.sub.Unsubscribe(ctx, p.channel(prev)); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}

	if board == "" {
		return p.sub.PSubscribe(ctx, p.channel(board))
	}
	return p.sub.Subscribe(ctx, p.channel(board))
}

// Close stops listening and releases the Redis connection pool
func (p *RedisPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.sub != nil {
		_ = p.sub.Close()
	}
	return p.rc.Close()
}
