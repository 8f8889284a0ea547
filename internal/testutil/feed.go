package testutil

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/thenoetrevino/pizarra/internal/daemon"
)

// StartFeed runs a socket change feed in t's temp dir and returns its
// socket path once it accepts connections. The feed stops with the test.
func StartFeed(t *testing.T) string {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "feed.sock")
	server, err := daemon.NewServer(socketPath)
	if err != nil {
		t.Fatalf("Failed to create change feed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- server.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := server.Shutdown(); err != nil {
			t.Logf("change feed shutdown: %v", err)
		}
		if err := <-stopped; err != nil {
			t.Logf("change feed stopped: %v", err)
		}
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if conn, err := net.Dial("unix", socketPath); err == nil {
			_ = conn.Close()
			return socketPath
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("change feed never accepted connections")
	return ""
}
