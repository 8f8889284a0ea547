package task

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/pizarra/internal/cli"
	"github.com/thenoetrevino/pizarra/internal/cli/handler"
	"github.com/thenoetrevino/pizarra/internal/drag"
)

// MoveCmd returns the task move subcommand
func MoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <task> <section>",
		Short: "Move a task to another section",
		Long: `Move a task to a section named by id, label or position.

Examples:
  pizarra task move 3f2a Done
  pizarra task move 3f2a 2 --json
`,
		Args: cobra.ExactArgs(2),
		RunE: handler.Command(runMove),
	}
	handler.AddOutputFlags(cmd)
	return cmd
}

func runMove(ctx context.Context, c *cli.CLI, args *handler.Arguments) (any, error) {
	t, err := cli.ResolveTask(c.App.Tasks, args.Arg(0))
	if err != nil {
		return nil, err
	}
	target, err := cli.ResolveSection(c.App.Sections, args.Arg(1))
	if err != nil {
		return nil, err
	}

	if err := c.App.Drag.StartTaskDrag(t.ID); err != nil {
		return nil, err
	}
	result, err := c.App.Drag.Drop(ctx, drag.TaskTarget(target.ID))
	if err != nil {
		return nil, err
	}

	t = current(c, t)
	r := toResult(c, t)
	r.Message = fmt.Sprintf("Task '%s' moved to %s", t.Title, target.Label)
	if result == drag.ResultNoop {
		r.Message = fmt.Sprintf("Task '%s' already in %s", t.Title, target.Label)
	}
	return r, nil
}
