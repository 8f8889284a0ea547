package section

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/pizarra/internal/board"
	"github.com/thenoetrevino/pizarra/internal/cli"
	"github.com/thenoetrevino/pizarra/internal/cli/handler"
)

// RenameCmd returns the section rename subcommand
func RenameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <section> <label>",
		Short: "Rename a section",
		Long: `Rename a section. The section can be named by id, label or position.

Examples:
  pizarra section rename "In Progress" "Doing"
  pizarra section rename 2 "Doing"
`,
		Args: cobra.ExactArgs(2),
		RunE: handler.Command(runRename),
	}
	handler.AddOutputFlags(cmd)
	return cmd
}

func runRename(ctx context.Context, c *cli.CLI, args *handler.Arguments) (any, error) {
	target, err := cli.ResolveSection(c.App.Sections, args.Arg(0))
	if err != nil {
		return nil, err
	}

	if err := c.App.Sections.Rename(ctx, target.ID, args.Arg(1)); err != nil {
		return nil, err
	}

	s, _ := c.App.Sections.Get(target.ID)
	r := toResult(c.App.Board.View(board.All), s)
	return MessageResult{Result: r, Message: fmt.Sprintf("Section '%s' renamed to '%s'", target.Label, s.Label)}, nil
}
