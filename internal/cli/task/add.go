package task

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/pizarra/internal/cli"
	"github.com/thenoetrevino/pizarra/internal/cli/handler"
	"github.com/thenoetrevino/pizarra/internal/models"
	taskservice "github.com/thenoetrevino/pizarra/internal/services/task"
)

// AddCmd returns the task add subcommand
func AddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task to a section",
		Long: `Add a task to a section. Without --section the task goes to the first
section of the board.

Examples:
  # Create a task (human-readable output)
  pizarra task add --title="Fix login bug"

  # Into a named section, assigned
  pizarra task add --title="Review PR" --section="In Progress" --assignee=ana

  # Quiet mode for bash capture
  TASK_ID=$(pizarra task add --title="Test" --quiet)

  # Read title and description as JSON from stdin
  echo '{"title":"Write docs","description":"## Scope"}' | pizarra task add --stdin
`,
		Args: cobra.NoArgs,
		RunE: handler.Command(runAdd),
	}

	cmd.Flags().String("title", "", "Task title")
	cmd.Flags().String("description", "", "Task description (markdown)")
	cmd.Flags().String("section", "", "Section id, label or position (default: first section)")
	cmd.Flags().String("assignee", "", "User to assign the task to")
	cmd.Flags().Bool("stdin", false, "Read a JSON task from stdin")
	handler.AddOutputFlags(cmd)

	return cmd
}

func runAdd(ctx context.Context, c *cli.CLI, args *handler.Arguments) (any, error) {
	req := taskservice.CreateTaskRequest{
		Title:       args.GetString("title", ""),
		Description: args.GetString("description", ""),
		Assignee:    cli.AssigneeFlag(args.GetString("assignee", "")),
	}

	if args.GetBool("stdin") {
		in, err := cli.ReadTaskInput(args.GetCmd().InOrStdin())
		if err != nil {
			return nil, err
		}
		req.Title = in.Title
		req.Description = in.Description
		if !args.Has("assignee") {
			req.Assignee = cli.AssigneeFlag(in.Assignee)
		}
	}

	var target models.Section
	if ref := args.GetString("section", ""); ref != "" {
		s, err := cli.ResolveSection(c.App.Sections, ref)
		if err != nil {
			return nil, err
		}
		target = s
	} else {
		s, ok := c.App.Sections.At(0)
		if !ok {
			return nil, fmt.Errorf("%w: the board has no sections, add one with 'pizarra section add'", cli.ErrUsage)
		}
		target = s
	}
	req.SectionID = target.ID

	id, err := c.App.Tasks.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	t := current(c, models.Task{ID: id, Title: req.Title, Description: req.Description, Assignee: req.Assignee, SectionID: target.ID})
	r := toResult(c, t)
	r.Message = fmt.Sprintf("Task '%s' added to %s (ID: %s)", t.Title, target.Label, id)
	return r, nil
}
