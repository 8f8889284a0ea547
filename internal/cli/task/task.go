package task

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/pizarra/internal/cli"
	"github.com/thenoetrevino/pizarra/internal/cli/styles"
	"github.com/thenoetrevino/pizarra/internal/models"
)

// TaskCmd returns the task parent command
func TaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}

	cmd.AddCommand(AddCmd())
	cmd.AddCommand(ShowCmd())
	cmd.AddCommand(UpdateCmd())
	cmd.AddCommand(DeleteCmd())
	cmd.AddCommand(MoveCmd())
	cmd.AddCommand(NextCmd())
	cmd.AddCommand(PrevCmd())

	return cmd
}

// Result is a task as the commands print it
type Result struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Assignee    string    `json:"assignee,omitempty"`
	SectionID   string    `json:"section_id"`
	Section     string    `json:"section"`
	Stage       int       `json:"stage"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	Message     string    `json:"message,omitempty"`
}

func (r Result) GetID() string { return r.ID }

func (r Result) Render() string {
	if r.Message != "" {
		return "✓ " + r.Message
	}
	return r.Title + "  " + r.ID
}

// ShowResult renders the full task card
type ShowResult struct {
	Result
	task models.Task
}

func (r ShowResult) Render() string {
	return styles.RenderTask(r.task, r.Section)
}

func toResult(c *cli.CLI, t models.Task) Result {
	r := Result{
		ID:          string(t.ID),
		Title:       t.Title,
		Description: t.Description,
		Assignee:    string(t.Assignee),
		SectionID:   string(t.SectionID),
		Stage:       t.StageIndex,
		CreatedAt:   t.CreatedAt,
	}
	if s, ok := c.App.Sections.Get(t.SectionID); ok {
		r.Section = s.Label
	}
	return r
}

// current re-reads a task after a write, falling back to what the caller had
func current(c *cli.CLI, t models.Task) models.Task {
	if latest, ok := c.App.Tasks.Get(t.ID); ok {
		return latest
	}
	return t
}
