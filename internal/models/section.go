package models

import (
	"time"

	"github.com/thenoetrevino/pizarra/internal/types"
)

// Section represents a kanban board column (e.g., "Todo", "In Progress", "Done")
// Columns are positioned left to right by Order, which is dense and unique
// after every successful reorder.
type Section struct {
	ID        types.SectionID // Store-assigned identifier
	Label     string          // Display name; may repeat across sections
	Order     int             // Column position, the only authority for ordering
	CreatedAt time.Time
	Pending   bool // Set locally while an optimistic create is unconfirmed
}

// Position returns the section's order value
func (s Section) Position() int {
	return s.Order
}

// WithOrder returns a copy of the section carrying the given order
func (s Section) WithOrder(order int) Section {
	s.Order = order
	return s
}

// SectionOrder is the {id, order} pair written by a batched reorder
type SectionOrder struct {
	ID    types.SectionID
	Order int
}

// Orders extracts the {id, order} pairs of a section sequence
func Orders(sections []Section) []SectionOrder {
	out := make([]SectionOrder, len(sections))
	for i, s := range sections {
		out[i] = SectionOrder{ID: s.ID, Order: s.Order}
	}
	return out
}
