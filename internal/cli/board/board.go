package board

import (
	"context"

	"github.com/spf13/cobra"

	boardcore "github.com/thenoetrevino/pizarra/internal/board"
	"github.com/thenoetrevino/pizarra/internal/cli"
	"github.com/thenoetrevino/pizarra/internal/cli/handler"
	"github.com/thenoetrevino/pizarra/internal/cli/styles"
)

// BoardCmd returns the board command. Run bare it prints the board.
func BoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the board",
		Long: `Show every section with its tasks, left to right.

Examples:
  pizarra board

  # Only tasks assigned to ana, or only unassigned ones
  pizarra board --assignee=ana
  pizarra board --assignee=none

  # JSON output for agents
  pizarra board --json
`,
		Args: cobra.NoArgs,
		RunE: handler.Command(runShow),
	}

	cmd.Flags().String("assignee", "", "Only show tasks assigned to this user ('me', or 'none' for unassigned)")
	handler.AddOutputFlags(cmd)

	cmd.AddCommand(WatchCmd())

	return cmd
}

// Card is a task as printed on the board
type Card struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Assignee       string `json:"assignee,omitempty"`
	CanStepBack    bool   `json:"can_step_back"`
	CanStepForward bool   `json:"can_step_forward"`
}

// Column is a section as printed on the board
type Column struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Position int    `json:"position"`
	Count    int    `json:"count"`
	Cards    []Card `json:"cards"`
}

// Result is the output of 'board'
type Result struct {
	Board   string   `json:"board"`
	Filter  string   `json:"filter"`
	Columns []Column `json:"columns"`
	Orphans []Card   `json:"orphans,omitempty"`
	view    boardcore.View
}

func (r Result) GetID() string { return r.Board }

func (r Result) Render() string { return styles.RenderBoard(r.view) }

func toResult(b *boardcore.Board, view boardcore.View) Result {
	r := Result{
		Board:   b.ID().String(),
		Filter:  view.Filter.String(),
		Columns: make([]Column, len(view.Columns)),
		view:    view,
	}
	for i, col := range view.Columns {
		c := Column{
			ID:       string(col.Section.ID),
			Label:    col.Section.Label,
			Position: col.Index + 1,
			Count:    col.Count,
			Cards:    make([]Card, len(col.Cards)),
		}
		for j, card := range col.Cards {
			c.Cards[j] = Card{
				ID:             string(card.Task.ID),
				Title:          card.Task.Title,
				Assignee:       string(card.Task.Assignee),
				CanStepBack:    card.CanStepBack,
				CanStepForward: card.CanStepForward,
			}
		}
		r.Columns[i] = c
	}
	for _, t := range view.Orphans {
		r.Orphans = append(r.Orphans, Card{ID: string(t.ID), Title: t.Title, Assignee: string(t.Assignee)})
	}
	return r
}

func runShow(_ context.Context, c *cli.CLI, args *handler.Arguments) (any, error) {
	b := c.App.Board
	return toResult(b, b.View(cli.FilterFlag(args.GetString("assignee", "")))), nil
}
