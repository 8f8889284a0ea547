package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/thenoetrevino/pizarra/internal/config"
	"github.com/thenoetrevino/pizarra/internal/daemon"
	"github.com/thenoetrevino/pizarra/internal/logging"
)

func main() {
	// Set up signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Log to stderr so systemd or launchd pick it up
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		slog.Warn("invalid log level, using info", "error", err)
	}
	logging.Setup(os.Stderr, level)

	socketPath := cfg.Events.SocketPath

	// Ensure the socket directory exists with secure permissions
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o700); err != nil {
		slog.Error("failed to create socket directory", "error", err)
		os.Exit(1)
	}

	// Create and start the daemon server
	server, err := daemon.NewServer(socketPath)
	if err != nil {
		slog.Error("failed to create daemon", "error", err)
		os.Exit(1)
	}

	slog.Info("pizarra daemon starting", "socket_path", socketPath, "pid", os.Getpid())

	// Start the daemon (blocks until shutdown)
	if err := server.Start(ctx); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}

	snapshot := server.Metrics().GetSnapshot()
	slog.Info("pizarra daemon shutting down gracefully",
		"events_received", snapshot.EventsReceived,
		"events_sent", snapshot.EventsSent,
	)
}
