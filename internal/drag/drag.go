// Package drag turns drag-and-drop gestures into repository calls.
//
// A Coordinator holds at most one drag session. The session remembers the
// stable id of what is being dragged, so a drop still addresses the right
// task or section when collaborators changed the board mid-drag.
package drag

import (
	"context"
	"fmt"
	"sync"

	"github.com/thenoetrevino/pizarra/internal/models"
	"github.com/thenoetrevino/pizarra/internal/types"
)

// Kind is what a drag carries or a drop target accepts
type Kind int

const (
	KindTask Kind = iota + 1
	KindSection
)

func (k Kind) String() string {
	switch k {
	case KindTask:
		return "task"
	case KindSection:
		return "section"
	default:
		return "none"
	}
}

// Phase is the coordinator's state
type Phase int

const (
	Idle Phase = iota
	DraggingTask
	DraggingSection
)

func (p Phase) String() string {
	switch p {
	case DraggingTask:
		return "dragging-task"
	case DraggingSection:
		return "dragging-section"
	default:
		return "idle"
	}
}

// Target is a drop location. Task drops land on a section, section drops
// land on an index in the ordering.
type Target struct {
	Kind      Kind
	SectionID types.SectionID // Task drops
	Index     int             // Section drops
}

// TaskTarget is a section a task can be dropped on
func TaskTarget(section types.SectionID) Target {
	return Target{Kind: KindTask, SectionID: section}
}

// SectionTarget is a position a section can be dropped at
func SectionTarget(index int) Target {
	return Target{Kind: KindSection, Index: index}
}

// Result reports what a drop did
type Result int

const (
	// ResultIgnored means the drop did not match the active drag
	ResultIgnored Result = iota
	// ResultNoop means the drop resolved to the current position
	ResultNoop
	// ResultApplied means a repository mutation was issued
	ResultApplied
)

func (r Result) String() string {
	switch r {
	case ResultNoop:
		return "noop"
	case ResultApplied:
		return "applied"
	default:
		return "ignored"
	}
}

// State is a snapshot of the drag session
type State struct {
	Phase       Phase
	SourceIndex int
	TaskID      types.TaskID
	SectionID   types.SectionID
	Hover       *Target
}

// Active reports whether a drag is in progress
func (s State) Active() bool {
	return s.Phase != Idle
}

// TaskMover is the part of the task repository a drop needs
type TaskMover interface {
	List() []models.Task
	Get(id types.TaskID) (models.Task, bool)
	MoveToSection(ctx context.Context, id types.TaskID, target types.SectionID, stageIndex int) error
}

// SectionMover is the part of the section repository a drop needs
type SectionMover interface {
	IndexOf(id types.SectionID) int
	Len() int
	Reorder(ctx context.Context, from, to int) error
}

// Coordinator resolves gestures against the repositories
type Coordinator struct {
	tasks    TaskMover
	sections SectionMover

	mu    sync.Mutex
	state State
}

// NewCoordinator creates an idle coordinator
func NewCoordinator(tasks TaskMover, sections SectionMover) *Coordinator {
	return &Coordinator{tasks: tasks, sections: sections}
}

// State returns a snapshot of the current session
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state
	if st.Hover != nil {
		hover := *st.Hover
		st.Hover = &hover
	}
	return st
}

// StartTaskDrag begins dragging a task. The source index is the task's
// position within its section.
func (c *Coordinator) StartTaskDrag(id types.TaskID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase != Idle {
		return models.ErrDragAlreadyActive
	}

	task, ok := c.tasks.Get(id)
	if !ok {
		return fmt.Errorf("start drag of task %s: %w", id, models.ErrInvalidReference)
	}
	index := 0
	for _, t := range c.tasks.List() {
		if t.ID == id {
			break
		}
		if t.SectionID == task.SectionID {
			index++
		}
	}

	c.state = State{Phase: DraggingTask, SourceIndex: index, TaskID: id, SectionID: task.SectionID}
	return nil
}

// StartSectionDrag begins dragging a section
func (c *Coordinator) StartSectionDrag(id types.SectionID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase != Idle {
		return models.ErrDragAlreadyActive
	}

	index := c.sections.IndexOf(id)
	if index < 0 {
		return fmt.Errorf("start drag of section %s: %w", id, models.ErrInvalidReference)
	}

	c.state = State{Phase: DraggingSection, SourceIndex: index, SectionID: id}
	return nil
}

// DragOver records the hovered candidate. Nothing is mutated.
func (c *Coordinator) DragOver(target Target) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase == Idle {
		return
	}
	c.state.Hover = &target
}

// Cancel abandons the session without touching the board
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = State{}
}

// Drop resolves the session against target. A drop that does not match
// the active drag is ignored and leaves the session as it was. Otherwise the
// coordinator is idle again before the repository is called, whatever the
// outcome.
func (c *Coordinator) Drop(ctx context.Context, target Target) (Result, error) {
	c.mu.Lock()
	st := c.state
	if !matches(st.Phase, target.Kind) {
		c.mu.Unlock()
		return ResultIgnored, nil
	}
	c.state = State{}
	c.mu.Unlock()

	switch st.Phase {
	case DraggingTask:
		return c.dropTask(ctx, st.TaskID, target.SectionID)
	case DraggingSection:
		return c.dropSection(ctx, st.SectionID, target.Index)
	}
	return ResultIgnored, nil
}

func (c *Coordinator) dropTask(ctx context.Context, id types.TaskID, sectionID types.SectionID) (Result, error) {
	stage := c.sections.IndexOf(sectionID)
	if stage < 0 {
		return ResultIgnored, fmt.Errorf("drop task %s on section %s: %w", id, sectionID, models.ErrInvalidReference)
	}
	task, ok := c.tasks.Get(id)
	if !ok {
		return ResultIgnored, fmt.Errorf("drop task %s: %w", id, models.ErrInvalidReference)
	}
	if task.SectionID == sectionID && task.StageIndex == stage {
		return ResultNoop, nil
	}
	return ResultApplied, c.tasks.MoveToSection(ctx, id, sectionID, stage)
}

func (c *Coordinator) dropSection(ctx context.Context, id types.SectionID, to int) (Result, error) {
	// The section may have moved since the drag started
	from := c.sections.IndexOf(id)
	if from < 0 {
		return ResultIgnored, fmt.Errorf("drop section %s: %w", id, models.ErrInvalidReference)
	}
	last := c.sections.Len() - 1
	if min(max(to, 0), last) == from {
		return ResultNoop, nil
	}
	return ResultApplied, c.sections.Reorder(ctx, from, to)
}

func matches(phase Phase, kind Kind) bool {
	return (phase == DraggingTask && kind == KindTask) ||
		(phase == DraggingSection && kind == KindSection)
}
