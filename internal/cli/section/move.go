package section

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/pizarra/internal/board"
	"github.com/thenoetrevino/pizarra/internal/cli"
	"github.com/thenoetrevino/pizarra/internal/cli/handler"
	"github.com/thenoetrevino/pizarra/internal/drag"
)

// MoveCmd returns the section move subcommand
func MoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <section> <position>",
		Short: "Move a section to a new column position",
		Long: `Move a section to a 1-based column position. Positions past either
end are clamped.

Examples:
  # Make "Done" the first column
  pizarra section move Done 1
`,
		Args: cobra.ExactArgs(2),
		RunE: handler.Command(runMove),
	}
	handler.AddOutputFlags(cmd)
	return cmd
}

func runMove(ctx context.Context, c *cli.CLI, args *handler.Arguments) (any, error) {
	target, err := cli.ResolveSection(c.App.Sections, args.Arg(0))
	if err != nil {
		return nil, err
	}
	pos, err := strconv.Atoi(args.Arg(1))
	if err != nil {
		return nil, fmt.Errorf("%w: position must be a number, got %q", cli.ErrUsage, args.Arg(1))
	}

	if err := c.App.Drag.StartSectionDrag(target.ID); err != nil {
		return nil, err
	}
	result, err := c.App.Drag.Drop(ctx, drag.SectionTarget(pos-1))
	if err != nil {
		return nil, err
	}

	s, _ := c.App.Sections.Get(target.ID)
	r := toResult(c.App.Board.View(board.All), s)
	msg := fmt.Sprintf("Section '%s' moved to position %d", s.Label, r.Position)
	if result == drag.ResultNoop {
		msg = fmt.Sprintf("Section '%s' already at position %d", s.Label, r.Position)
	}
	return MessageResult{Result: r, Message: msg}, nil
}
