package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/pizarra/internal/cli"
	boardcmd "github.com/thenoetrevino/pizarra/internal/cli/board"
	"github.com/thenoetrevino/pizarra/internal/cli/section"
	"github.com/thenoetrevino/pizarra/internal/cli/styles"
	"github.com/thenoetrevino/pizarra/internal/cli/task"
	"github.com/thenoetrevino/pizarra/internal/cli/tutorial"
	"github.com/thenoetrevino/pizarra/internal/cli/use"
	"github.com/thenoetrevino/pizarra/internal/config"
	"github.com/thenoetrevino/pizarra/internal/logging"
)

var logCloser io.Closer

var rootCmd = &cobra.Command{
	Use:   "pizarra",
	Short: "Pizarra - a shared kanban board",
	Long: `Pizarra is a kanban board shared by everyone pointed at the same store.
Changes show up locally at once and are confirmed by the store; a failed
write is rolled back.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		styles.Init(cfg.Theme)

		closer, err := logging.Init(cfg.Log.Path, cfg.Log.Level)
		if err != nil {
			// Logging is best effort for the CLI
			fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
			return nil
		}
		logCloser = closer
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
			logCloser = nil
		}
	},
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	})

	rootCmd.AddCommand(boardcmd.BoardCmd())
	rootCmd.AddCommand(section.SectionCmd())
	rootCmd.AddCommand(task.TaskCmd())
	rootCmd.AddCommand(use.UseCmd())
	rootCmd.AddCommand(tutorial.TutorialCmd())
	rootCmd.AddCommand(configCmd())
}

// Execute runs the root command. Errors the commands did not print
// themselves are printed here.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !cli.Reported(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, cli.ErrUsage) {
			fmt.Fprintln(os.Stderr, "Run 'pizarra --help' for usage.")
		}
	}
	return err
}
