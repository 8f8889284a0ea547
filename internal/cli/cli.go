package cli

import (
	"context"
	"fmt"

	"github.com/thenoetrevino/pizarra/internal/app"
	"github.com/thenoetrevino/pizarra/internal/config"
)

type contextKey struct{}

// CLI represents the CLI application context
type CLI struct {
	App    *app.App // Application container with services
	Config *config.Config
	owned  bool
}

// WithApp makes GetCLIFromContext use app instead of opening one. The
// caller keeps ownership of app.
func WithApp(ctx context.Context, a *app.App) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// GetCLIFromContext returns the CLI for a command. An app placed in the
// context with WithApp wins; otherwise one is opened from configuration.
// The board is loaded either way.
func GetCLIFromContext(ctx context.Context) (*CLI, error) {
	if a, ok := ctx.Value(contextKey{}).(*app.App); ok && a != nil {
		c := &CLI{App: a, Config: config.Default()}
		if err := a.Board.Load(ctx); err != nil {
			return nil, fmt.Errorf("failed to load board: %w", err)
		}
		return c, nil
	}
	return NewCLI(ctx)
}

// NewCLI loads configuration, opens the store and joins the change feed
// when one is reachable.
func NewCLI(ctx context.Context) (*CLI, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	application, err := app.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := application.Board.Load(ctx); err != nil {
		_ = application.Close()
		return nil, fmt.Errorf("failed to load board: %w", err)
	}

	return &CLI{App: application, Config: cfg, owned: true}, nil
}

// Close cleans up CLI resources
func (c *CLI) Close() error {
	if !c.owned {
		return nil
	}
	return c.App.Close()
}
