package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thenoetrevino/pizarra/internal/models"
	"github.com/thenoetrevino/pizarra/internal/types"
)

// ============================================================================
// Task Operations
// ============================================================================

// TaskRepo handles all task-related database operations.
type TaskRepo struct {
	db    *sql.DB
	board types.BoardID
}

// ListTasks retrieves every task of the board in creation order
func (r *TaskRepo) ListTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, description, assigned_to, section_id, current_step, created_at, updated_at
		 FROM tasks
		 WHERE board_id = ?
		 ORDER BY created_at, rowid`,
		r.board,
	)
	if err != nil {
		return nil, classify("querying tasks", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var (
			task     models.Task
			assignee sql.NullString
		)
		if err := rows.Scan(
			&task.ID, &task.Title, &task.Description, &assignee,
			&task.SectionID, &task.StageIndex, &task.CreatedAt, &task.UpdatedAt,
		); err != nil {
			return nil, classify("scanning task row", err)
		}
		task.Assignee = types.UserID(NullStringToString(assignee))
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("iterating task rows", err)
	}

	return tasks, nil
}

// CreateTask inserts a new task document and returns its id
func (r *TaskRepo) CreateTask(ctx context.Context, task models.Task) (types.TaskID, error) {
	id := types.TaskID(uuid.NewString())
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (board_id, id, title, description, assigned_to, section_id, current_step, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.board, id, task.Title, task.Description, nullIfEmpty(string(task.Assignee)),
		task.SectionID, task.StageIndex, now, now,
	)
	if err != nil {
		return "", classify("creating task", err)
	}
	return id, nil
}

// UpdateTask writes the patch's fields in a single statement, so a section
// change and its stage index land together.
func (r *TaskRepo) UpdateTask(ctx context.Context, id types.TaskID, patch models.TaskPatch) error {
	var (
		sets []string
		args []any
	)
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Assignee != nil {
		sets = append(sets, "assigned_to = ?")
		args = append(args, nullIfEmpty(string(*patch.Assignee)))
	}
	if patch.SectionID != nil {
		sets = append(sets, "section_id = ?")
		args = append(args, *patch.SectionID)
	}
	if patch.StageIndex != nil {
		sets = append(sets, "current_step = ?")
		args = append(args, *patch.StageIndex)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), r.board, id)

	result, err := r.db.ExecContext(ctx,
		"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE board_id = ? AND id = ?",
		args...,
	)
	if err != nil {
		return classify("updating task", err)
	}
	return classify("updating task", requireAffected(result))
}

// DeleteTask removes a task from the database
func (r *TaskRepo) DeleteTask(ctx context.Context, id types.TaskID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE board_id = ? AND id = ?`,
		r.board, id,
	)
	if err != nil {
		return classify("deleting task", err)
	}
	return classify("deleting task", requireAffected(result))
}
