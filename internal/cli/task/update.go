package task

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/pizarra/internal/cli"
	"github.com/thenoetrevino/pizarra/internal/cli/handler"
	"github.com/thenoetrevino/pizarra/internal/models"
)

// UpdateCmd returns the task update subcommand
func UpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <task>",
		Short: "Edit a task's title, description or assignee",
		Long: `Edit a task. Only the flags given are changed; values equal to the
current ones are not written.

Examples:
  pizarra task update 3f2a --title="Fix signup bug"
  pizarra task update 3f2a --assignee=none
`,
		Args: cobra.ExactArgs(1),
		RunE: handler.Command(runUpdate),
	}

	cmd.Flags().String("title", "", "New title")
	cmd.Flags().String("description", "", "New description (markdown)")
	cmd.Flags().String("assignee", "", "New assignee, 'none' to unassign")
	handler.AddOutputFlags(cmd)

	return cmd
}

func runUpdate(ctx context.Context, c *cli.CLI, args *handler.Arguments) (any, error) {
	t, err := cli.ResolveTask(c.App.Tasks, args.Arg(0))
	if err != nil {
		return nil, err
	}

	var patch models.TaskPatch
	if args.Has("title") {
		title := args.GetString("title", "")
		patch.Title = &title
	}
	if args.Has("description") {
		desc := args.GetString("description", "")
		patch.Description = &desc
	}
	if args.Has("assignee") {
		assignee := cli.AssigneeFlag(args.GetString("assignee", ""))
		patch.Assignee = &assignee
	}
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: nothing to update, pass --title, --description or --assignee", cli.ErrUsage)
	}

	if err := c.App.Tasks.Update(ctx, t.ID, patch); err != nil {
		return nil, err
	}

	t = current(c, t)
	r := toResult(c, t)
	r.Message = fmt.Sprintf("Task '%s' updated", t.Title)
	return r, nil
}
