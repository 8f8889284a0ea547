package events

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

var (
	ErrQueueFull    = errors.New("event queue full")
	ErrNotConnected = errors.New("not connected")
)

// FeedState names why the socket change feed could not be reached
type FeedState int

const (
	FeedMissing FeedState = iota // No socket at the path
	FeedDenied                   // Socket exists but is not ours to open
	FeedRefused                  // Stale socket, nothing accepting
	FeedDown                     // Anything else
)

func (s FeedState) String() string {
	switch s {
	case FeedMissing:
		return "missing"
	case FeedDenied:
		return "denied"
	case FeedRefused:
		return "refused"
	default:
		return "down"
	}
}

// FeedError explains a failed change feed connection. Boards keep working
// offline either way; Hint tells the user how to get live refreshes back.
type FeedError struct {
	State      FeedState
	SocketPath string
	Hint       string
	Err        error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("change feed %s at %s: %v", e.State, e.SocketPath, e.Err)
}

func (e *FeedError) Unwrap() error { return e.Err }

// DiagnoseFeed classifies a connection error for the feed at socketPath.
// It returns nil for a nil error.
func DiagnoseFeed(socketPath string, err error) *FeedError {
	if err == nil {
		return nil
	}

	fe := &FeedError{State: FeedDown, SocketPath: socketPath, Err: err}
	var errno syscall.Errno
	switch {
	case errors.Is(err, os.ErrNotExist):
		fe.State = FeedMissing
		fe.Hint = "start the change feed with pizarra-daemon"
	case errors.Is(err, os.ErrPermission):
		fe.State = FeedDenied
		fe.Hint = fmt.Sprintf("restrict %s to your user: chmod 700 %s", filepath.Dir(socketPath), filepath.Dir(socketPath))
	case errors.As(err, &errno) && errno == syscall.ECONNREFUSED:
		fe.State = FeedRefused
		fe.Hint = "the socket is stale; restart pizarra-daemon"
	default:
		fe.Hint = "start the change feed with pizarra-daemon"
	}
	return fe
}
