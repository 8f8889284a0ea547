package app

import (
	"errors"
	"log/slog"

	"github.com/thenoetrevino/pizarra/internal/board"
	"github.com/thenoetrevino/pizarra/internal/database"
	"github.com/thenoetrevino/pizarra/internal/drag"
	"github.com/thenoetrevino/pizarra/internal/events"
	"github.com/thenoetrevino/pizarra/internal/services/section"
	"github.com/thenoetrevino/pizarra/internal/services/task"
	"github.com/thenoetrevino/pizarra/internal/types"
)

// App holds all application services and provides dependency injection.
// This is the main application container that manages service lifecycles.
type App struct {
	// Store layer (remote documents)
	store database.DataStore

	// Change feed for collaborators, nil when offline
	eventClient events.EventPublisher

	logger  *slog.Logger
	closers []func() error

	// Repositories (business logic)
	Sections section.Service
	Tasks    task.Service

	// Board-level coordination
	Board *board.Board
	Drag  *drag.Coordinator
}

// New creates a new App with all services initialized for one board.
// This is the single entry point for creating the application container.
func New(store database.DataStore, boardID types.BoardID, opts ...Option) *App {
	cfg := &appConfig{
		orphanPolicy: board.OrphanReject,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	sections := section.NewService(store, cfg.eventClient, boardID)
	tasks := task.NewService(store, sections, cfg.eventClient, boardID)

	return &App{
		store:       store,
		eventClient: cfg.eventClient,
		logger:      cfg.logger,
		closers:     cfg.closers,
		Sections:    sections,
		Tasks:       tasks,
		Board: board.New(boardID, sections, tasks,
			board.WithOrphanPolicy(cfg.orphanPolicy),
			board.WithDefaultSections(cfg.defaultSections...),
		),
		Drag: drag.NewCoordinator(tasks, sections),
	}
}

// Store returns the underlying document store
func (a *App) Store() database.DataStore {
	return a.store
}

// Events returns the change feed, or nil when there is none
func (a *App) Events() events.EventPublisher {
	return a.eventClient
}

// Close releases every resource Open acquired. Apps built with New own
// nothing and closing them is a no-op.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
