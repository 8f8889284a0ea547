package task

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/pizarra/internal/cli"
	"github.com/thenoetrevino/pizarra/internal/cli/handler"
)

// DeleteCmd returns the task delete subcommand
func DeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <task>",
		Short: "Delete a task",
		Long: `Delete a task.

Examples:
  pizarra task delete 3f2a
`,
		Args: cobra.ExactArgs(1),
		RunE: handler.Command(runDelete),
	}
	handler.AddOutputFlags(cmd)
	return cmd
}

func runDelete(ctx context.Context, c *cli.CLI, args *handler.Arguments) (any, error) {
	t, err := cli.ResolveTask(c.App.Tasks, args.Arg(0))
	if err != nil {
		return nil, err
	}

	r := toResult(c, t)
	if err := c.App.Tasks.Delete(ctx, t.ID); err != nil {
		return nil, err
	}

	r.Message = fmt.Sprintf("Task '%s' deleted", t.Title)
	return r, nil
}
