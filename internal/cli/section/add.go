package section

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/pizarra/internal/board"
	"github.com/thenoetrevino/pizarra/internal/cli"
	"github.com/thenoetrevino/pizarra/internal/cli/handler"
	"github.com/thenoetrevino/pizarra/internal/models"
)

// AddCmd returns the section add subcommand
func AddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <label>",
		Short: "Append a section to the right of the board",
		Long: `Append a section to the right of the board.

Examples:
  pizarra section add "Review"

  # Quiet mode for bash capture
  SECTION_ID=$(pizarra section add "Review" --quiet)
`,
		Args: cobra.ExactArgs(1),
		RunE: handler.Command(runAdd),
	}
	handler.AddOutputFlags(cmd)
	return cmd
}

func runAdd(ctx context.Context, c *cli.CLI, args *handler.Arguments) (any, error) {
	id, err := c.App.Sections.Create(ctx, args.Arg(0))
	if err != nil {
		return nil, err
	}

	s, ok := c.App.Sections.Get(id)
	if !ok {
		// Replaced by a concurrent refresh; report what was written
		s = models.Section{ID: id, Label: args.Arg(0)}
	}
	r := toResult(c.App.Board.View(board.All), s)
	return MessageResult{Result: r, Message: fmt.Sprintf("Section '%s' added (ID: %s)", s.Label, id)}, nil
}
