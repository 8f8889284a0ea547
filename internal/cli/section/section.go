package section

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/pizarra/internal/board"
	"github.com/thenoetrevino/pizarra/internal/models"
)

// SectionCmd returns the section parent command
func SectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "section",
		Aliases: []string{"column", "col"},
		Short:   "Manage board sections",
	}

	cmd.AddCommand(ListCmd())
	cmd.AddCommand(AddCmd())
	cmd.AddCommand(RenameCmd())
	cmd.AddCommand(DeleteCmd())
	cmd.AddCommand(MoveCmd())

	return cmd
}

// Result is a section as the commands print it
type Result struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Order    int    `json:"order"`
	Position int    `json:"position"`
	Tasks    int    `json:"tasks"`
}

func (r Result) GetID() string { return r.ID }

func (r Result) Render() string {
	return fmt.Sprintf("%d. %s (%d tasks)  %s", r.Position, r.Label, r.Tasks, r.ID)
}

// ListResult is the output of 'section list'
type ListResult struct {
	Sections []Result `json:"sections"`
}

func (r ListResult) Render() string {
	if len(r.Sections) == 0 {
		return "No sections"
	}
	lines := make([]string, len(r.Sections))
	for i, s := range r.Sections {
		lines[i] = s.Render()
	}
	return strings.Join(lines, "\n")
}

// MessageResult pairs a section with a one-line human message
type MessageResult struct {
	Result
	Message string `json:"message"`
}

func (r MessageResult) Render() string { return "✓ " + r.Message }

func toResult(view board.View, s models.Section) Result {
	r := Result{ID: string(s.ID), Label: s.Label, Order: s.Order}
	if col, ok := view.Column(s.ID); ok {
		r.Position = col.Index + 1
		r.Tasks = col.Count
	}
	return r
}
