package task

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/pizarra/internal/cli"
	"github.com/thenoetrevino/pizarra/internal/cli/handler"
)

// ShowCmd returns the task show subcommand
func ShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <task>",
		Short: "Show a task with its rendered description",
		Long: `Show a task. The task can be named by id or a unique id prefix.

Examples:
  pizarra task show 3f2a
  pizarra task show 3f2a9c1e-... --json
`,
		Args: cobra.ExactArgs(1),
		RunE: handler.Command(runShow),
	}
	handler.AddOutputFlags(cmd)
	return cmd
}

func runShow(_ context.Context, c *cli.CLI, args *handler.Arguments) (any, error) {
	t, err := cli.ResolveTask(c.App.Tasks, args.Arg(0))
	if err != nil {
		return nil, err
	}
	r := toResult(c, t)
	if r.Section == "" {
		r.Section = "unknown section"
	}
	return ShowResult{Result: r, task: t}, nil
}
