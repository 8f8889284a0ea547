package section

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/pizarra/internal/board"
	"github.com/thenoetrevino/pizarra/internal/cli"
	"github.com/thenoetrevino/pizarra/internal/cli/handler"
)

// DeleteCmd returns the section delete subcommand
func DeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <section>",
		Short: "Delete a section",
		Long: `Delete a section. What happens to its tasks depends on
board.orphan_policy: reject refuses while tasks remain, cascade deletes
them, reassign moves them to the neighbouring section.

Examples:
  pizarra section delete "Review"
  pizarra section delete 3 --json
`,
		Args: cobra.ExactArgs(1),
		RunE: handler.Command(runDelete),
	}
	handler.AddOutputFlags(cmd)
	return cmd
}

func runDelete(ctx context.Context, c *cli.CLI, args *handler.Arguments) (any, error) {
	target, err := cli.ResolveSection(c.App.Sections, args.Arg(0))
	if err != nil {
		return nil, err
	}

	r := toResult(c.App.Board.View(board.All), target)
	if err := c.App.Board.DeleteSection(ctx, target.ID); err != nil {
		return nil, err
	}

	return MessageResult{Result: r, Message: fmt.Sprintf("Section '%s' deleted (policy: %s)", target.Label, c.App.Board.Policy())}, nil
}
