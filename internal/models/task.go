package models

import (
	"time"

	"github.com/thenoetrevino/pizarra/internal/types"
)

// Task represents a single card on the kanban board
type Task struct {
	ID          types.TaskID
	Title       string
	Description string
	Assignee    types.UserID    // Empty means unassigned
	SectionID   types.SectionID // Every task belongs to exactly one section
	StageIndex  int             // Position of SectionID among sections at last sync
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAssigned reports whether the task has an assignee
func (t Task) IsAssigned() bool {
	return t.Assignee != ""
}

// TaskPatch is a partial update of a task's mutable fields.
// Fields with pointers are optional - nil means don't update.
type TaskPatch struct {
	Title       *string
	Description *string
	Assignee    *types.UserID // Pointer to "" unassigns
	SectionID   *types.SectionID
	StageIndex  *int
}

// IsEmpty reports whether the patch changes nothing
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Assignee == nil &&
		p.SectionID == nil && p.StageIndex == nil
}

// Apply returns a copy of t with the patch's fields written over it
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Assignee != nil {
		t.Assignee = *p.Assignee
	}
	if p.SectionID != nil {
		t.SectionID = *p.SectionID
	}
	if p.StageIndex != nil {
		t.StageIndex = *p.StageIndex
	}
	return t
}

// Changes drops every field whose value already equals the task's, so
// an inline edit that retypes the same value never reaches the store.
func (p TaskPatch) Changes(t Task) TaskPatch {
	var out TaskPatch
	if p.Title != nil && *p.Title != t.Title {
		out.Title = p.Title
	}
	if p.Description != nil && *p.Description != t.Description {
		out.Description = p.Description
	}
	if p.Assignee != nil && *p.Assignee != t.Assignee {
		out.Assignee = p.Assignee
	}
	if p.SectionID != nil && *p.SectionID != t.SectionID {
		out.SectionID = p.SectionID
	}
	if p.StageIndex != nil && *p.StageIndex != t.StageIndex {
		out.StageIndex = p.StageIndex
	}
	return out
}
