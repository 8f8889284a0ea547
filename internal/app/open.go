package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/thenoetrevino/pizarra/internal/board"
	"github.com/thenoetrevino/pizarra/internal/config"
	"github.com/thenoetrevino/pizarra/internal/database"
	"github.com/thenoetrevino/pizarra/internal/database/tablestore"
	"github.com/thenoetrevino/pizarra/internal/events"
	"github.com/thenoetrevino/pizarra/internal/types"
)

// connectTimeout bounds how long Open waits for the change feed
const connectTimeout = 2 * time.Second

// Open builds an App from configuration: it opens the configured store and
// tries to join the change feed. An unreachable feed is not an error; the
// board then works alone.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	boardID := types.BoardID(cfg.Board.ID)
	policy, err := board.ParseOrphanPolicy(cfg.Board.OrphanPolicy)
	if err != nil {
		return nil, err
	}

	store, closeStore, err := openStore(ctx, cfg.Store, boardID)
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithOrphanPolicy(policy),
		WithDefaultSections(cfg.Board.DefaultSections...),
	}
	if closeStore != nil {
		base = append(base, withCloser(closeStore))
	}
	if publisher := connectEvents(ctx, cfg.Events, boardID); publisher != nil {
		base = append(base, WithEventPublisher(publisher), withCloser(publisher.Close))
	}

	return New(store, boardID, append(base, opts...)...), nil
}

func openStore(ctx context.Context, cfg config.StoreConfig, boardID types.BoardID) (database.DataStore, func() error, error) {
	switch cfg.Driver {
	case config.DriverAzTables:
		store, err := tablestore.New(cfg.ConnectionString, cfg.TasksTable, cfg.SectionsTable, boardID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open table store: %w", err)
		}
		if err := store.EnsureTables(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to prepare tables: %w", err)
		}
		return store, nil, nil
	default:
		db, err := database.InitDB(ctx, cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return database.NewRepository(db, boardID), db.Close, nil
	}
}

// connectEvents joins the configured change feed, or returns nil
func connectEvents(ctx context.Context, cfg config.EventsConfig, boardID types.BoardID) events.EventPublisher {
	origin := uuid.NewString()

	var publisher events.EventPublisher
	switch cfg.Driver {
	case config.EventsNone:
		return nil
	case config.EventsRedis:
		publisher = events.NewRedisPublisher(cfg.RedisAddr, cfg.ChannelPrefix, origin)
	default:
		client, err := events.NewClient(cfg.SocketPath, origin)
		if err != nil {
			slog.Warn("event client unavailable", "error", err)
			return nil
		}
		publisher = client
	}

	if err := publisher.Subscribe(boardID); err != nil {
		slog.Warn("event subscription failed", "error", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := publisher.Connect(connectCtx); err != nil {
		// No feed running; the board works offline
		attrs := []any{"driver", cfg.Driver, "error", err}
		if cfg.Driver != config.EventsRedis {
			attrs = append(attrs, "hint", events.DiagnoseFeed(cfg.SocketPath, err).Hint)
		}
		slog.Debug("change feed unavailable, working offline", attrs...)
		if closeErr := publisher.Close(); closeErr != nil {
			slog.Debug("closing unused publisher", "error", closeErr)
		}
		return nil
	}

	slog.Info("joined change feed", "driver", cfg.Driver, "board_id", boardID, "origin", origin)
	return publisher
}
