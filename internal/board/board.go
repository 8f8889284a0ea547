// Package board ties the two repositories of one board together: it
// projects them into a view, enforces the orphan policy when a section is
// deleted and keeps local state current with collaborators.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/thenoetrevino/pizarra/internal/events"
	"github.com/thenoetrevino/pizarra/internal/models"
	"github.com/thenoetrevino/pizarra/internal/services/section"
	"github.com/thenoetrevino/pizarra/internal/services/task"
	"github.com/thenoetrevino/pizarra/internal/types"
)

// OrphanPolicy decides what happens to the tasks of a deleted section
type OrphanPolicy string

const (
	// OrphanReject refuses to delete a section that still has tasks
	OrphanReject OrphanPolicy = "reject"
	// OrphanCascade deletes the section's tasks with it
	OrphanCascade OrphanPolicy = "cascade"
	// OrphanReassign moves the tasks to the previous section, else the next
	OrphanReassign OrphanPolicy = "reassign"
)

// ParseOrphanPolicy reads a policy name; empty means OrphanReject
func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch p := OrphanPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return OrphanReject, nil
	case OrphanReject, OrphanCascade, OrphanReassign:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOrphanPolicy, s)
	}
}

// Board is one board's section and task repositories
type Board struct {
	id       types.BoardID
	sections section.Service
	tasks    task.Service
	policy   OrphanPolicy
	defaults []string
	logger   *slog.Logger
}

// Option configures a Board
type Option func(*Board)

// WithOrphanPolicy sets how DeleteSection treats member tasks
func WithOrphanPolicy(p OrphanPolicy) Option {
	return func(b *Board) {
		b.policy = p
	}
}

// WithDefaultSections sets the labels Load seeds an empty board with
func WithDefaultSections(labels ...string) Option {
	return func(b *Board) {
		b.defaults = labels
	}
}

// New creates a board over its repositories
func New(id types.BoardID, sections section.Service, tasks task.Service, opts ...Option) *Board {
	b := &Board{
		id:       id,
		sections: sections,
		tasks:    tasks,
		policy:   OrphanReject,
		logger:   slog.Default().With("component", "board", "board_id", id),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Board) ID() types.BoardID { return b.id }

func (b *Board) Sections() section.Service { return b.sections }

func (b *Board) Tasks() task.Service { return b.tasks }

func (b *Board) Policy() OrphanPolicy { return b.policy }

// View projects the current local state
func (b *Board) View(filter Filter) View {
	return Project(b.sections.List(), b.tasks.List(), filter)
}

// Watch sends the current view, then a fresh one after every change of
// either repository. A slow reader only ever sees the latest view. The
// channel closes when ctx ends.
func (b *Board) Watch(ctx context.Context, filter Filter) <-chan View {
	out := make(chan View, 1)
	sectionsChanged, stopSections := b.sections.Subscribe()
	tasksChanged, stopTasks := b.tasks.Subscribe()

	go func() {
		defer close(out)
		defer stopSections()
		defer stopTasks()

		send := func() {
			view := b.View(filter)
			select {
			case <-out:
			default:
			}
			out <- view
		}

		send()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sectionsChanged:
				send()
			case <-tasksChanged:
				send()
			}
		}
	}()
	return out
}

// Load reads the board from the store. An empty board is seeded with the
// default sections first.
func (b *Board) Load(ctx context.Context) error {
	if err := b.sections.Refresh(ctx); err != nil {
		return err
	}
	if b.sections.Len() == 0 && len(b.defaults) > 0 {
		b.logger.Info("seeding default sections", "count", len(b.defaults))
		for _, label := range b.defaults {
			if _, err := b.sections.Create(ctx, label); err != nil {
				return fmt.Errorf("seed section %q: %w", label, err)
			}
		}
	}
	return b.tasks.Refresh(ctx)
}

// DeleteSection deletes a section after resolving its tasks by the
// board's orphan policy. A rejected store write leaves both the section
// and its tasks as they were, except for a cascade that fails after the
// section is gone: the tasks it could not delete stay behind as orphans.
func (b *Board) DeleteSection(ctx context.Context, id types.SectionID) error {
	index := b.sections.IndexOf(id)
	if index < 0 {
		return fmt.Errorf("delete section %s: %w", id, models.ErrInvalidReference)
	}

	var members []models.Task
	for _, t := range b.tasks.List() {
		if t.SectionID == id {
			members = append(members, t)
		}
	}
	if len(members) == 0 {
		return b.sections.Delete(ctx, id)
	}

	var err error
	switch b.policy {
	case OrphanCascade:
		err = b.cascade(ctx, id, members)
	case OrphanReassign:
		err = b.reassign(ctx, id, index, members)
	default:
		err = fmt.Errorf("%w: %d task(s)", ErrSectionHasTasks, len(members))
	}
	if err != nil {
		return fmt.Errorf("delete section %s: %w", id, err)
	}
	return nil
}

// cascade removes the section before its tasks, so a rejected section
// delete changes nothing.
func (b *Board) cascade(ctx context.Context, id types.SectionID, members []models.Task) error {
	if err := b.sections.Delete(ctx, id); err != nil {
		return err
	}
	var errs []error
	for _, t := range members {
		if err := b.tasks.Delete(ctx, t.ID); err != nil && !errors.Is(err, models.ErrNotFound) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		b.logger.Warn("cascade left orphaned tasks", "section_id", id, "count", len(errs))
	}
	return errors.Join(errs...)
}

// reassign moves every task to the fallback section and then deletes the
// section. Any failure moves the tasks already reassigned back.
func (b *Board) reassign(ctx context.Context, id types.SectionID, index int, members []models.Task) error {
	fallback, ok := b.fallback(index)
	if !ok {
		return ErrNoFallbackSection
	}

	var moved []models.Task
	for _, t := range members {
		if err := b.tasks.MoveToSection(ctx, t.ID, fallback, -1); err != nil {
			b.restore(ctx, moved)
			return err
		}
		moved = append(moved, t)
	}

	if err := b.sections.Delete(ctx, id); err != nil {
		// A section already gone remotely cannot take its tasks back
		if !errors.Is(err, models.ErrNotFound) {
			b.restore(ctx, moved)
		}
		return err
	}
	b.logger.Info("tasks reassigned", "count", len(members), "section_id", fallback)
	return nil
}

// restore puts reassigned tasks back at their original section and stage
func (b *Board) restore(ctx context.Context, moved []models.Task) {
	ctx = context.WithoutCancel(ctx)
	for i := len(moved) - 1; i >= 0; i-- {
		t := moved[i]
		if err := b.tasks.MoveToSection(ctx, t.ID, t.SectionID, t.StageIndex); err != nil {
			b.logger.Warn("failed to restore reassigned task", "task_id", t.ID, "section_id", t.SectionID, "error", err)
		}
	}
}

// fallback finds the nearest confirmed section before index, else after it
func (b *Board) fallback(index int) (types.SectionID, bool) {
	for i := index - 1; i >= 0; i-- {
		if s, ok := b.sections.At(i); ok && !s.Pending {
			return s.ID, true
		}
	}
	for i := index + 1; i < b.sections.Len(); i++ {
		if s, ok := b.sections.At(i); ok && !s.Pending {
			return s.ID, true
		}
	}
	return "", false
}

// Follow refreshes local state whenever a collaborator changes this
// board. Events this process sent are skipped. It blocks until ctx ends or
// the publisher stops delivering.
func (b *Board) Follow(ctx context.Context, publisher events.EventPublisher) error {
	if err := publisher.Subscribe(b.id); err != nil {
		return fmt.Errorf("subscribe to board %s: %w", b.id, err)
	}
	incoming, err := publisher.Listen(ctx)
	if err != nil {
		return fmt.Errorf("listen for board %s: %w", b.id, err)
	}
	origin := publisher.Origin()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-incoming:
			if !ok {
				return nil
			}
			if origin != "" && event.Origin == origin {
				continue
			}
			if !event.Matches(b.id) {
				continue
			}
			b.apply(ctx, event)
		}
	}
}

func (b *Board) apply(ctx context.Context, event events.Event) {
	switch event.Type {
	case events.EventSectionsChanged, events.EventTasksChanged:
	default:
		return
	}

	b.logger.Debug("collaborator change", "type", event.Type, "origin", event.Origin)
	// Stage indexes depend on the section order, so sections go first
	if err := b.sections.Refresh(ctx); err != nil {
		b.logger.Warn("refresh after collaborator change failed", "error", err)
		return
	}
	if err := b.tasks.Refresh(ctx); err != nil {
		b.logger.Warn("refresh after collaborator change failed", "error", err)
	}
}
