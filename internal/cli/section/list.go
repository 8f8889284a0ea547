package section

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/pizarra/internal/board"
	"github.com/thenoetrevino/pizarra/internal/cli"
	"github.com/thenoetrevino/pizarra/internal/cli/handler"
)

// ListCmd returns the section list subcommand
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sections left to right",
		Long: `List the board's sections in column order.

Examples:
  pizarra section list
  pizarra section list --json
`,
		Args: cobra.NoArgs,
		RunE: handler.Command(runList),
	}
	handler.AddOutputFlags(cmd)
	return cmd
}

func runList(_ context.Context, c *cli.CLI, _ *handler.Arguments) (any, error) {
	view := c.App.Board.View(board.All)
	out := ListResult{Sections: make([]Result, 0, len(view.Columns))}
	for _, col := range view.Columns {
		out.Sections = append(out.Sections, toResult(view, col.Section))
	}
	return out, nil
}
