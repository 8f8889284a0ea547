package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thenoetrevino/pizarra/internal/events"
)

// client represents a process connected to the daemon
type client struct {
	conn         net.Conn
	send         chan events.Message
	subscription events.SubscribeMessage
	lastPong     time.Time
	mu           sync.Mutex // Protects subscription and lastPong
	closeOnce    sync.Once  // Ensures send channel is closed only once
}

// inbound is an event together with the connection that sent it
type inbound struct {
	event events.Event
	from  *client // nil when injected through Broadcast
}

// Server is the change-feed daemon. It relays confirmed board changes from
// one process to every other process following the same board.
type Server struct {
	socketPath       string
	listener         net.Listener
	clients          map[*client]bool
	mu               sync.RWMutex
	ctx              context.Context
	cancel           context.CancelFunc
	broadcast        chan inbound
	metrics          *Metrics
	sequenceCounter  atomic.Int64
	clientBufferSize int
	shutdownOnce     sync.Once

	pingInterval time.Duration
	staleAfter   time.Duration
}

// Option configures a Server
type Option func(*Server)

// WithHeartbeat overrides how often clients are pinged and how long a
// client may stay silent before it is dropped.
func WithHeartbeat(ping, stale time.Duration) Option {
	return func(s *Server) {
		s.pingInterval = ping
		s.staleAfter = stale
	}
}

// getEnvInt reads an integer from an environment variable, returning defaultVal if not set or invalid
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultVal
}

// NewServer creates the socket and a server ready to Start
func NewServer(socketPath string, opts ...Option) (*Server, error) {
	if dir := filepath.Dir(socketPath); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create socket directory: %w", err)
		}
	}

	// Remove stale socket file if it exists
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return nil, fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	lc := net.ListenConfig{}
	listener, err := lc.Listen(context.Background(), "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create socket listener: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		socketPath:       socketPath,
		listener:         listener,
		clients:          make(map[*client]bool),
		ctx:              ctx,
		cancel:           cancel,
		broadcast:        make(chan inbound, getEnvInt("PIZARRA_DAEMON_BROADCAST_BUFFER", 100)),
		metrics:          NewMetrics(),
		clientBufferSize: getEnvInt("PIZARRA_DAEMON_CLIENT_BUFFER", 10),
		pingInterval:     30 * time.Second,
		staleAfter:       90 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Metrics exposes the live counters
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start runs the daemon until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	slog.Info("daemon listening", "socket_path", s.socketPath)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-s.ctx.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	acceptErr := make(chan error, 1)
	go func() {
		acceptErr <- s.acceptLoop(runCtx)
	}()

	go s.broadcastLoop(runCtx)
	go s.monitorHealth(runCtx)

	select {
	case <-runCtx.Done():
		slog.Info("daemon context cancelled, shutting down")
	case err := <-acceptErr:
		if err != nil {
			slog.Error("accept loop failed", "error", err)
		}
	}

	return s.Shutdown()
}

// acceptLoop accepts incoming client connections
func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		// A deadline lets the loop notice cancellation
		if ul, ok := s.listener.(*net.UnixListener); ok {
			if err := ul.SetDeadline(time.Now().Add(1 * time.Second)); err != nil {
				slog.Warn("failed to set listener deadline", "error", err)
			}
		}

		conn, err := s.listener.Accept()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept error: %w", err)
		}

		c := &client{
			conn:     conn,
			send:     make(chan events.Message, s.clientBufferSize),
			lastPong: time.Now(),
		}

		s.mu.Lock()
		s.clients[c] = true
		s.mu.Unlock()
		s.updateClientCount()

		slog.Debug("client connected", "clients", s.getClientCount())

		go s.handleClient(c)
		go s.clientWriter(c)
	}
}

// broadcastLoop stamps a sequence number on each event and relays it to
// every client following its board, except the connection that sent it.
func (s *Server) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case in, ok := <-s.broadcast:
			if !ok {
				return
			}
			event := in.event
			event.SequenceID = s.sequenceCounter.Add(1)
			s.metrics.IncRelayed(event.BoardID)

			msg := events.Message{
				Version: events.ProtocolVersion,
				Type:    "event",
				Event:   &event,
			}

			s.mu.RLock()
			for c := range s.clients {
				if c == in.from {
					continue
				}
				c.mu.Lock()
				subscribed := event.Matches(c.subscription.BoardID)
				c.mu.Unlock()

				if subscribed && !s.sendToClient(c, msg) {
					s.metrics.IncEventsDropped()
					slog.Warn("client send queue full, event dropped", "board_id", event.BoardID)
				}
			}
			s.mu.RUnlock()
		}
	}
}

// handleClient reads messages from a connected client
func (s *Server) handleClient(c *client) {
	defer func() {
		s.removeClient(c)
		slog.Debug("client disconnected", "clients", s.getClientCount())
	}()

	decoder := json.NewDecoder(c.conn)

	for {
		var msg events.Message
		if err := decoder.Decode(&msg); err != nil {
			return
		}

		if msg.Version != 0 && msg.Version != events.ProtocolVersion {
			slog.Warn("protocol version mismatch", "got", msg.Version, "want", events.ProtocolVersion)
		}

		switch msg.Type {
		case "event":
			if msg.Event == nil {
				continue
			}
			s.metrics.IncEventsReceived()
			select {
			case s.broadcast <- inbound{event: *msg.Event, from: c}:
			default:
				s.metrics.IncEventsDropped()
				slog.Warn("broadcast channel full")
			}

		case "subscribe":
			if msg.Subscribe != nil {
				c.mu.Lock()
				c.subscription = *msg.Subscribe
				c.mu.Unlock()
				slog.Debug("client subscribed", "board_id", msg.Subscribe.BoardID)
			}

		case "pong":
			c.mu.Lock()
			c.lastPong = time.Now()
			c.mu.Unlock()
		}
	}
}

// clientWriter sends messages to a client
func (s *Server) clientWriter(c *client) {
	encoder := json.NewEncoder(c.conn)
	for msg := range c.send {
		if err := encoder.Encode(msg); err != nil {
			return
		}
	}
}

// monitorHealth pings clients and drops the ones that stopped answering
func (s *Server) monitorHealth(ctx context.Context) {
	pingTicker := time.NewTicker(s.pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-pingTicker.C:
			now := time.Now()
			var live, stale []*client

			s.mu.RLock()
			for c := range s.clients {
				c.mu.Lock()
				lastPong := c.lastPong
				c.mu.Unlock()
				if now.Sub(lastPong) > s.staleAfter {
					stale = append(stale, c)
				} else {
					live = append(live, c)
				}
			}
			s.mu.RUnlock()

			// Outside the server lock, removeClient takes it
			for _, c := range stale {
				slog.Info("removing stale client")
				s.removeClient(c)
			}

			ping := events.Message{Version: events.ProtocolVersion, Type: "ping"}
			for _, c := range live {
				s.sendToClient(c, ping)
			}
		}
	}
}

// Broadcast injects an event as if a client had sent it (non-blocking)
func (s *Server) Broadcast(event events.Event) error {
	select {
	case <-s.ctx.Done():
		return fmt.Errorf("daemon stopped")
	default:
	}
	select {
	case s.broadcast <- inbound{event: event}:
		return nil
	default:
		return fmt.Errorf("broadcast channel full")
	}
}

// Shutdown closes the listener and every client connection
func (s *Server) Shutdown() error {
	s.shutdownOnce.Do(func() {
		s.cancel()

		if s.listener != nil {
			if err := s.listener.Close(); err != nil {
				slog.Debug("listener close", "error", err)
			}
		}

		s.mu.Lock()
		for c := range s.clients {
			_ = c.conn.Close()
			c.closeOnce.Do(func() {
				close(c.send)
			})
		}
		s.clients = make(map[*client]bool)
		s.mu.Unlock()
		s.updateClientCount()

		if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove socket file", "error", err)
		}
	})
	return nil
}

func (s *Server) getClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) updateClientCount() {
	s.metrics.SetConnectedClients(int32(s.getClientCount()))
}

// removeClient safely removes a client from the server
func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()

	_ = c.conn.Close()
	c.closeOnce.Do(func() {
		close(c.send)
	})

	s.updateClientCount()
}

// sendToClient attempts a non-blocking send; false means the queue is full
func (s *Server) sendToClient(c *client, msg events.Message) bool {
	defer func() {
		// The client may be removed concurrently and its channel closed
		_ = recover()
	}()
	select {
	case c.send <- msg:
		s.metrics.IncEventsSent()
		return true
	default:
		return false
	}
}
