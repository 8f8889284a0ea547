package app

import (
	"log/slog"

	"github.com/thenoetrevino/pizarra/internal/board"
	"github.com/thenoetrevino/pizarra/internal/events"
)

// Option is a functional option for configuring App initialization
type Option func(*appConfig)

// appConfig holds the configuration for App initialization
type appConfig struct {
	eventClient     events.EventPublisher
	logger          *slog.Logger
	orphanPolicy    board.OrphanPolicy
	defaultSections []string
	closers         []func() error
}

// WithEventPublisher sets the event publisher for the application
func WithEventPublisher(ec events.EventPublisher) Option {
	return func(cfg *appConfig) {
		cfg.eventClient = ec
	}
}

// WithLogger sets the logger for the application
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *appConfig) {
		cfg.logger = logger
	}
}

// WithOrphanPolicy sets what deleting a non-empty section does
func WithOrphanPolicy(p board.OrphanPolicy) Option {
	return func(cfg *appConfig) {
		cfg.orphanPolicy = p
	}
}

// WithDefaultSections sets the sections an empty board is seeded with
func WithDefaultSections(labels ...string) Option {
	return func(cfg *appConfig) {
		cfg.defaultSections = labels
	}
}

// withCloser registers a resource Close releases, in reverse order
func withCloser(fn func() error) Option {
	return func(cfg *appConfig) {
		cfg.closers = append(cfg.closers, fn)
	}
}
