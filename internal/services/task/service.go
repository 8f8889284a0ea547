package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/thenoetrevino/pizarra/internal/database"
	"github.com/thenoetrevino/pizarra/internal/events"
	"github.com/thenoetrevino/pizarra/internal/models"
	"github.com/thenoetrevino/pizarra/internal/services/notify"
	"github.com/thenoetrevino/pizarra/internal/services/queue"
	"github.com/thenoetrevino/pizarra/internal/types"
)

// SectionOrdering is the live section order tasks are positioned against.
// The section repository implements it.
type SectionOrdering interface {
	IndexOf(id types.SectionID) int
	At(index int) (models.Section, bool)
	Len() int
}

// Service owns the task collection of one board
type Service interface {
	// Read operations
	List() []models.Task
	Get(id types.TaskID) (models.Task, bool)
	CanStep(id types.TaskID) (back, forward bool)
	Refresh(ctx context.Context) error
	Subscribe() (<-chan struct{}, func())

	// Write operations
	Create(ctx context.Context, req CreateTaskRequest) (types.TaskID, error)
	Update(ctx context.Context, id types.TaskID, patch models.TaskPatch) error
	Delete(ctx context.Context, id types.TaskID) error
	MoveToSection(ctx context.Context, id types.TaskID, target types.SectionID, stageIndex int) error
	StepForward(ctx context.Context, id types.TaskID) error
	StepBackward(ctx context.Context, id types.TaskID) error
}

// CreateTaskRequest encapsulates data for creating a task
type CreateTaskRequest struct {
	Title       string
	Description string
	SectionID   types.SectionID
	Assignee    types.UserID // Empty = unassigned
}

// service implements Service with optimistic local state confirmed by the store
type service struct {
	store       database.TaskStore
	sections    SectionOrdering
	eventClient events.EventPublisher
	board       types.BoardID
	logger      *slog.Logger

	writes queue.Keyed // One key per task id
	hub    notify.Hub

	mu    sync.RWMutex
	tasks []models.Task // Creation order
	gen   uint64        // Bumped by every Refresh
}

// NewService creates a task repository for board. eventClient may be nil.
func NewService(store database.TaskStore, sections SectionOrdering, eventClient events.EventPublisher, board types.BoardID) Service {
	return &service{
		store:       store,
		sections:    sections,
		eventClient: eventClient,
		board:       board,
		logger:      slog.Default().With("component", "tasks", "board_id", board),
	}
}

// ============================================================================
// Reads
// ============================================================================

func (s *service) List() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tasks)
}

func (s *service) Get(id types.TaskID) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.tasks[i], true
	}
	return models.Task{}, false
}

// CanStep reports whether the task has a section before and after its own
// in the live ordering.
func (s *service) CanStep(id types.TaskID) (back, forward bool) {
	task, ok := s.Get(id)
	if !ok {
		return false, false
	}
	cur := s.sections.IndexOf(task.SectionID)
	if cur < 0 {
		return false, false
	}
	return cur > 0, cur < s.sections.Len()-1
}

func (s *service) Subscribe() (<-chan struct{}, func()) {
	return s.hub.Subscribe()
}

// Refresh replaces local state with the store's. It wins over any
// optimistic change still waiting on its confirmation.
func (s *service) Refresh(ctx context.Context) error {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("refresh tasks: %w", err)
	}

	s.mu.Lock()
	s.tasks = tasks
	s.gen++
	s.mu.Unlock()

	s.logger.Debug("tasks refreshed", "count", len(tasks))
	s.hub.Notify()
	return nil
}

func (s *service) indexLocked(id types.TaskID) int {
	return slices.IndexFunc(s.tasks, func(t models.Task) bool {
		return t.ID == id
	})
}

// ============================================================================
// Writes
// ============================================================================

// Create persists a new task and only then adds it to local state, since
// the store assigns the id.
func (s *service) Create(ctx context.Context, req CreateTaskRequest) (types.TaskID, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	stage, err := s.stageOf(req.SectionID)
	if err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}

	task := models.Task{
		Title:       title,
		Description: req.Description,
		Assignee:    req.Assignee,
		SectionID:   req.SectionID,
		StageIndex:  stage,
	}
	id, err := s.store.CreateTask(context.WithoutCancel(ctx), task)
	if err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}

	now := time.Now()
	task.ID = id
	task.CreatedAt = now
	task.UpdatedAt = now

	s.mu.Lock()
	if s.indexLocked(id) < 0 {
		s.tasks = append(slices.Clone(s.tasks), task)
	}
	s.mu.Unlock()
	s.hub.Notify()

	s.publish()
	return id, nil
}

// Update applies an inline edit. Fields that already hold the given value
// are dropped; an edit that changes nothing never reaches the store.
func (s *service) Update(ctx context.Context, id types.TaskID, patch models.TaskPatch) error {
	return s.mutate(ctx, id, "update", func(current models.Task) (models.TaskPatch, error) {
		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return models.TaskPatch{}, ErrEmptyTitle
			}
			patch.Title = &title
		}
		if patch.SectionID != nil && patch.StageIndex == nil {
			stage, err := s.stageOf(*patch.SectionID)
			if err != nil {
				return models.TaskPatch{}, err
			}
			patch.StageIndex = &stage
		} else if patch.SectionID != nil {
			if _, err := s.stageOf(*patch.SectionID); err != nil {
				return models.TaskPatch{}, err
			}
		}
		return patch, nil
	})
}

// MoveToSection changes section and stage together in one write. A
// negative stageIndex is resolved from the live ordering.
func (s *service) MoveToSection(ctx context.Context, id types.TaskID, target types.SectionID, stageIndex int) error {
	return s.mutate(ctx, id, "move", func(current models.Task) (models.TaskPatch, error) {
		stage, err := s.stageOf(target)
		if err != nil {
			return models.TaskPatch{}, err
		}
		if stageIndex < 0 {
			stageIndex = stage
		}
		return models.TaskPatch{SectionID: &target, StageIndex: &stageIndex}, nil
	})
}

// StepForward moves the task to the next section. In the last section it
// does nothing.
func (s *service) StepForward(ctx context.Context, id types.TaskID) error {
	return s.step(ctx, id, +1)
}

// StepBackward moves the task to the previous section. In the first
// section it does nothing.
func (s *service) StepBackward(ctx context.Context, id types.TaskID) error {
	return s.step(ctx, id, -1)
}

func (s *service) step(ctx context.Context, id types.TaskID, delta int) error {
	return s.mutate(ctx, id, "step", func(current models.Task) (models.TaskPatch, error) {
		cur := s.sections.IndexOf(current.SectionID)
		if cur < 0 {
			return models.TaskPatch{}, fmt.Errorf("section %s: %w", current.SectionID, models.ErrInvalidReference)
		}
		next, ok := s.sections.At(cur + delta)
		if !ok || next.Pending {
			return models.TaskPatch{}, nil
		}
		stage := cur + delta
		return models.TaskPatch{SectionID: &next.ID, StageIndex: &stage}, nil
	})
}

// Delete removes the task at once. A failed delete puts it back where it was.
func (s *service) Delete(ctx context.Context, id types.TaskID) error {
	release, err := s.writes.Acquire(ctx, string(id))
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("delete task %s: %w", id, models.ErrInvalidReference)
	}
	removed := s.tasks[i]
	s.tasks = slices.Delete(slices.Clone(s.tasks), i, i+1)
	gen := s.gen
	s.mu.Unlock()
	s.hub.Notify()

	if err := s.store.DeleteTask(context.WithoutCancel(ctx), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Warn("task already deleted", "task_id", id)
			return fmt.Errorf("delete task %s: %w", id, err)
		}
		s.rollback(gen, "delete", id, func() {
			if s.indexLocked(id) >= 0 {
				return
			}
			at := min(i, len(s.tasks))
			s.tasks = slices.Insert(slices.Clone(s.tasks), at, removed)
		})
		return fmt.Errorf("delete task %s: %w", id, err)
	}

	release()
	s.publish()
	return nil
}

// mutate runs one optimistic field update of a task. build derives the
// patch from the task's settled state once every earlier write on the same
// task has finished.
func (s *service) mutate(ctx context.Context, id types.TaskID, op string, build func(models.Task) (models.TaskPatch, error)) error {
	release, err := s.writes.Acquire(ctx, string(id))
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%s task %s: %w", op, id, models.ErrInvalidReference)
	}
	before := s.tasks[i]
	patch, err := build(before)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%s task %s: %w", op, id, err)
	}
	patch = patch.Changes(before)
	if patch.IsEmpty() {
		s.mu.Unlock()
		return nil
	}
	s.tasks = slices.Clone(s.tasks)
	s.tasks[i] = patch.Apply(before)
	gen := s.gen
	s.mu.Unlock()
	s.hub.Notify()

	if err := s.store.UpdateTask(context.WithoutCancel(ctx), id, patch); err != nil {
		s.rollback(gen, op, id, func() {
			j := s.indexLocked(id)
			if j < 0 {
				return
			}
			s.tasks = slices.Clone(s.tasks)
			if errors.Is(err, models.ErrNotFound) {
				s.tasks = slices.Delete(s.tasks, j, j+1)
				return
			}
			s.tasks[j] = before
		})
		return fmt.Errorf("%s task %s: %w", op, id, err)
	}

	release()
	s.publish()
	return nil
}

// rollback undoes an optimistic change unless a refresh replaced local
// state after it was applied.
func (s *service) rollback(gen uint64, op string, id types.TaskID, undo func()) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		s.logger.Debug("rollback skipped, state was refreshed", "op", op, "task_id", id)
		return
	}
	undo()
	s.mu.Unlock()

	s.logger.Warn("task change rolled back", "op", op, "task_id", id)
	s.hub.Notify()
}

// stageOf resolves a section to its live position. Unknown and unconfirmed
// sections cannot hold tasks.
func (s *service) stageOf(id types.SectionID) (int, error) {
	if id.IsZero() || id.IsPending() {
		return 0, fmt.Errorf("section %q: %w", id, models.ErrInvalidReference)
	}
	stage := s.sections.IndexOf(id)
	if stage < 0 {
		return 0, fmt.Errorf("section %s: %w", id, models.ErrInvalidReference)
	}
	return stage, nil
}

func (s *service) publish() {
	event := events.Event{
		Type:    events.EventTasksChanged,
		BoardID: s.board,
	}
	if err := events.PublishWithRetry(s.eventClient, event, 3); err != nil {
		s.logger.Warn("failed to publish task change", "error", err)
	}
}
