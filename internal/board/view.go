package board

import (
	"slices"

	"github.com/thenoetrevino/pizarra/internal/models"
	"github.com/thenoetrevino/pizarra/internal/types"
)

// Card is a task as a column shows it
type Card struct {
	Task           models.Task
	CanStepBack    bool
	CanStepForward bool
}

// Column is one section with its visible cards
type Column struct {
	Section models.Section
	Index   int
	Cards   []Card
	Count   int // Visible cards, after filtering
}

// View is a read-only projection of the board
type View struct {
	Columns []Column
	Orphans []models.Task // Tasks whose section is unknown locally
	Filter  Filter
}

// Project groups tasks into their sections. Columns follow section order
// and cards keep the order tasks were given in. Orphans are never filtered.
func Project(sections []models.Section, tasks []models.Task, filter Filter) View {
	ordered := slices.Clone(sections)
	slices.SortStableFunc(ordered, func(a, b models.Section) int {
		return a.Order - b.Order
	})

	view := View{
		Columns: make([]Column, len(ordered)),
		Filter:  filter,
	}
	index := make(map[types.SectionID]int, len(ordered))
	for i, s := range ordered {
		view.Columns[i] = Column{Section: s, Index: i, Cards: []Card{}}
		index[s.ID] = i
	}

	last := len(ordered) - 1
	for _, t := range tasks {
		i, ok := index[t.SectionID]
		if !ok {
			view.Orphans = append(view.Orphans, t)
			continue
		}
		if !filter.Match(t) {
			continue
		}
		col := &view.Columns[i]
		col.Cards = append(col.Cards, Card{
			Task:           t,
			CanStepBack:    i > 0,
			CanStepForward: i < last,
		})
		col.Count++
	}
	return view
}

// Column returns the column of a section
func (v View) Column(id types.SectionID) (Column, bool) {
	for _, c := range v.Columns {
		if c.Section.ID == id {
			return c, true
		}
	}
	return Column{}, false
}

// Total counts the visible cards across every column
func (v View) Total() int {
	n := 0
	for _, c := range v.Columns {
		n += c.Count
	}
	return n
}
