// Package styles renders boards and tasks for the terminal
package styles

import (
	"fmt"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"

	"github.com/thenoetrevino/pizarra/internal/board"
	"github.com/thenoetrevino/pizarra/internal/config"
	"github.com/thenoetrevino/pizarra/internal/models"
)

var (
	// Card styles
	CardStyle   lipgloss.Style
	CardWidth   = 80
	ColumnWidth = 28

	// Text styles
	TitleStyle    lipgloss.Style
	SubtitleStyle lipgloss.Style
	LabelStyle    lipgloss.Style // Field labels like "Section:"
	ValueStyle    lipgloss.Style
	ColumnStyle   lipgloss.Style
	AssigneeStyle lipgloss.Style
	WarningStyle  lipgloss.Style
)

func init() {
	Init(config.Preset("default"))
}

// Init initializes all CLI styles with the given theme
func Init(theme config.Theme) {
	CardStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(CardWidth)

	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.Accent))

	SubtitleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Subtle))

	LabelStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.Accent))

	ValueStyle = lipgloss.NewStyle()

	ColumnStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.ColumnBorder)).
		Padding(0, 1).
		Width(ColumnWidth)

	AssigneeStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Assignee))

	WarningStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.Warning))
}

// ═══════════════════════════════════════════════════════════════════
// BOARD
// ═══════════════════════════════════════════════════════════════════

// RenderBoard lays the columns out side by side. Orphaned tasks are listed
// under the board.
func RenderBoard(view board.View) string {
	if len(view.Columns) == 0 {
		return SubtitleStyle.Render("No sections yet. Add one with 'pizarra section add <label>'.")
	}

	columns := make([]string, len(view.Columns))
	for i, col := range view.Columns {
		columns[i] = renderColumn(col)
	}
	out := lipgloss.JoinHorizontal(lipgloss.Top, columns...)

	if view.Filter != board.All {
		out = SubtitleStyle.Render("Filter: "+view.Filter.String()) + "\n" + out
	}

	if len(view.Orphans) > 0 {
		var b strings.Builder
		b.WriteString(out)
		b.WriteString("\n")
		b.WriteString(WarningStyle.Render(fmt.Sprintf("%d task(s) in unknown sections:", len(view.Orphans))))
		for _, t := range view.Orphans {
			b.WriteString("\n  " + t.Title + " " + SubtitleStyle.Render(shortID(string(t.ID))))
		}
		out = b.String()
	}
	return out
}

func renderColumn(col board.Column) string {
	var b strings.Builder

	header := TitleStyle.Render(col.Section.Label) + " " + SubtitleStyle.Render(fmt.Sprintf("(%d)", col.Count))
	if col.Section.Pending {
		header += " " + SubtitleStyle.Render("saving...")
	}
	b.WriteString(header)
	b.WriteString("\n")

	if len(col.Cards) == 0 {
		b.WriteString(SubtitleStyle.Render("empty"))
	}
	for i, card := range col.Cards {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(renderCardLine(card))
	}
	return ColumnStyle.Render(b.String())
}

func renderCardLine(card board.Card) string {
	back, forward := " ", " "
	if card.CanStepBack {
		back = "<"
	}
	if card.CanStepForward {
		forward = ">"
	}

	line := back + " " + card.Task.Title + " " + forward
	line += "\n  " + SubtitleStyle.Render(shortID(string(card.Task.ID)))
	if card.Task.IsAssigned() {
		line += " " + AssigneeStyle.Render("@"+card.Task.Assignee.String())
	}
	return line
}

// shortID trims uuids to something a terminal column can hold
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ═══════════════════════════════════════════════════════════════════
// TASK
// ═══════════════════════════════════════════════════════════════════

// RenderTask renders the full task as a card
func RenderTask(task models.Task, sectionLabel string) string {
	var content strings.Builder

	content.WriteString(TitleStyle.Render(task.Title))
	content.WriteString("\n")
	content.WriteString(SubtitleStyle.Render(string(task.ID)))
	content.WriteString("\n\n")

	content.WriteString(LabelStyle.Render("Section:") + " " + ValueStyle.Render(sectionLabel) + "\n")

	assignee := SubtitleStyle.Render("unassigned")
	if task.IsAssigned() {
		assignee = AssigneeStyle.Render(task.Assignee.String())
	}
	content.WriteString(LabelStyle.Render("Assignee:") + " " + assignee + "\n")

	if !task.CreatedAt.IsZero() {
		content.WriteString(LabelStyle.Render("Created:") + " " +
			SubtitleStyle.Render(task.CreatedAt.Local().Format("Jan 2, 2006 3:04 PM")) + "\n")
	}

	content.WriteString("\n")
	content.WriteString(RenderDescription(task.Description, CardWidth-6))

	return CardStyle.Render(content.String())
}

// Cache Glamour renderers by width to avoid expensive re-creation
var rendererCache sync.Map // map[int]*glamour.TermRenderer

// getRenderer returns a cached renderer for the given width
func getRenderer(width int) (*glamour.TermRenderer, error) {
	if cached, ok := rendererCache.Load(width); ok {
		return cached.(*glamour.TermRenderer), nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}

	rendererCache.Store(width, renderer)
	return renderer, nil
}

// RenderDescription renders a markdown description. It falls back to the
// raw text when markdown rendering fails.
func RenderDescription(description string, width int) string {
	if strings.TrimSpace(description) == "" {
		return SubtitleStyle.Italic(true).Render("No description")
	}

	renderer, err := getRenderer(width)
	if err == nil {
		rendered, err := renderer.Render(description)
		if err == nil {
			return strings.TrimSpace(rendered)
		}
	}
	return description
}
