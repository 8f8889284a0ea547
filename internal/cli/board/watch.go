package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/pizarra/internal/cli"
	"github.com/thenoetrevino/pizarra/internal/cli/handler"
)

// WatchCmd returns the board watch subcommand
func WatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the board again whenever it changes",
		Long: `Follow the board's change feed and print the board every time a
collaborator changes it. Stops on Ctrl+C.

With --json one JSON document is printed per update.

Examples:
  pizarra board watch
  pizarra board watch --assignee=ana --json
`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}

	cmd.Flags().String("assignee", "", "Only show tasks assigned to this user ('me', or 'none' for unassigned)")
	handler.AddOutputFlags(cmd)

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	formatter := handler.Formatter(cmd)
	c, err := cli.GetCLIFromContext(ctx)
	if err != nil {
		return formatter.Fail(err, cli.Suggest(err))
	}
	defer func() {
		if err := c.Close(); err != nil {
			slog.Error("failed to close cli", "error", err)
		}
	}()

	assignee, _ := cmd.Flags().GetString("assignee")
	b := c.App.Board

	if feed := c.App.Events(); feed != nil {
		go func() {
			if err := b.Follow(ctx, feed); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("change feed stopped", "error", err)
			}
		}()
	} else if !formatter.JSON && !formatter.Quiet {
		fmt.Fprintln(os.Stderr, "No change feed reachable; only local changes will show.")
	}

	for view := range b.Watch(ctx, cli.FilterFlag(assignee)) {
		if err := formatter.Success(toResult(b, view)); err != nil {
			return err
		}
	}
	return nil
}
