package task

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/pizarra/internal/cli"
	"github.com/thenoetrevino/pizarra/internal/cli/handler"
	"github.com/thenoetrevino/pizarra/internal/types"
)

// NextCmd returns the task next subcommand
func NextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next <task>",
		Short: "Move a task one section to the right",
		Long: `Move a task one section to the right. A task in the last section
stays where it is.

Examples:
  pizarra task next 3f2a
`,
		Args: cobra.ExactArgs(1),
		RunE: handler.Command(func(ctx context.Context, c *cli.CLI, args *handler.Arguments) (any, error) {
			return runStep(ctx, c, args, c.App.Tasks.StepForward)
		}),
	}
	handler.AddOutputFlags(cmd)
	return cmd
}

// PrevCmd returns the task prev subcommand
func PrevCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prev <task>",
		Short: "Move a task one section to the left",
		Long: `Move a task one section to the left. A task in the first section
stays where it is.

Examples:
  pizarra task prev 3f2a
`,
		Args: cobra.ExactArgs(1),
		RunE: handler.Command(func(ctx context.Context, c *cli.CLI, args *handler.Arguments) (any, error) {
			return runStep(ctx, c, args, c.App.Tasks.StepBackward)
		}),
	}
	handler.AddOutputFlags(cmd)
	return cmd
}

func runStep(ctx context.Context, c *cli.CLI, args *handler.Arguments, step func(context.Context, types.TaskID) error) (any, error) {
	t, err := cli.ResolveTask(c.App.Tasks, args.Arg(0))
	if err != nil {
		return nil, err
	}
	before := t.SectionID

	if err := step(ctx, t.ID); err != nil {
		return nil, err
	}

	t = current(c, t)
	r := toResult(c, t)
	if t.SectionID == before {
		r.Message = fmt.Sprintf("Task '%s' stays in %s", t.Title, r.Section)
	} else {
		r.Message = fmt.Sprintf("Task '%s' moved to %s", t.Title, r.Section)
	}
	return r, nil
}
