// Package database defines the store interfaces for board documents
package database

import (
	"context"

	"github.com/thenoetrevino/pizarra/internal/models"
	"github.com/thenoetrevino/pizarra/internal/types"
)

// SectionReader defines read operations for sections.
type SectionReader interface {
	// ListSections returns every section ordered by order ascending
	ListSections(ctx context.Context) ([]models.Section, error)
}

// SectionWriter defines write operations for sections.
type SectionWriter interface {
	CreateSection(ctx context.Context, label string, order int) (types.SectionID, error)
	UpdateSectionLabel(ctx context.Context, id types.SectionID, label string) error
	DeleteSection(ctx context.Context, id types.SectionID) error

	// BatchUpdateSectionOrders writes every listed order or none of them
	BatchUpdateSectionOrders(ctx context.Context, orders []models.SectionOrder) error
}

// SectionStore combines all section-related operations.
type SectionStore interface {
	SectionReader
	SectionWriter
}

// TaskReader defines read operations for tasks.
type TaskReader interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
}

// TaskWriter defines write operations for tasks.
type TaskWriter interface {
	// CreateTask stores the task's fields and returns the assigned id.
	// task.ID is ignored.
	CreateTask(ctx context.Context, task models.Task) (types.TaskID, error)
	UpdateTask(ctx context.Context, id types.TaskID, patch models.TaskPatch) error
	DeleteTask(ctx context.Context, id types.TaskID) error
}

// TaskStore combines all task-related operations.
type TaskStore interface {
	TaskReader
	TaskWriter
}
