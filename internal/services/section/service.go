package section

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/thenoetrevino/pizarra/internal/database"
	"github.com/thenoetrevino/pizarra/internal/events"
	"github.com/thenoetrevino/pizarra/internal/models"
	"github.com/thenoetrevino/pizarra/internal/ordering"
	"github.com/thenoetrevino/pizarra/internal/services/notify"
	"github.com/thenoetrevino/pizarra/internal/services/queue"
	"github.com/thenoetrevino/pizarra/internal/types"
)

// collectionKey serializes every section write: any of them can shift
// positions of the others.
const collectionKey = "sections"

// Service owns the ordered section collection of one board
type Service interface {
	// Read operations
	List() []models.Section
	Get(id types.SectionID) (models.Section, bool)
	IndexOf(id types.SectionID) int
	At(index int) (models.Section, bool)
	Len() int
	Refresh(ctx context.Context) error
	Subscribe() (<-chan struct{}, func())

	// Write operations
	Create(ctx context.Context, label string) (types.SectionID, error)
	Rename(ctx context.Context, id types.SectionID, label string) error
	Delete(ctx context.Context, id types.SectionID) error
	Reorder(ctx context.Context, from, to int) error
}

// service implements Service with optimistic local state confirmed by the store
type service struct {
	store       database.SectionStore
	eventClient events.EventPublisher
	board       types.BoardID
	logger      *slog.Logger

	writes queue.Keyed
	hub    notify.Hub

	mu       sync.RWMutex
	sections []models.Section // Sorted by Order
	gen      uint64           // Bumped by every Refresh
}

// NewService creates a section repository for board. eventClient may be nil.
func NewService(store database.SectionStore, eventClient events.EventPublisher, board types.BoardID) Service {
	return &service{
		store:       store,
		eventClient: eventClient,
		board:       board,
		logger:      slog.Default().With("component", "sections", "board_id", board),
	}
}

// ============================================================================
// Reads
// ============================================================================

func (s *service) List() []models.Section {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.sections)
}

func (s *service) Get(id types.SectionID) (models.Section, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.sections[i], true
	}
	return models.Section{}, false
}

// IndexOf returns the position of id in the live ordering, -1 if absent
func (s *service) IndexOf(id types.SectionID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(id)
}

func (s *service) At(index int) (models.Section, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.sections) {
		return models.Section{}, false
	}
	return s.sections[index], true
}

func (s *service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sections)
}

func (s *service) Subscribe() (<-chan struct{}, func()) {
	return s.hub.Subscribe()
}

// Refresh replaces local state with the store's. It wins over any
// optimistic change still waiting on its confirmation.
func (s *service) Refresh(ctx context.Context) error {
	sections, err := s.store.ListSections(ctx)
	if err != nil {
		return fmt.Errorf("refresh sections: %w", err)
	}
	slices.SortStableFunc(sections, func(a, b models.Section) int {
		return a.Order - b.Order
	})

	s.mu.Lock()
	s.sections = sections
	s.gen++
	s.mu.Unlock()

	s.logger.Debug("sections refreshed", "count", len(sections))
	s.hub.Notify()
	return nil
}

func (s *service) indexLocked(id types.SectionID) int {
	return slices.IndexFunc(s.sections, func(sec models.Section) bool {
		return sec.ID == id
	})
}

// ============================================================================
// Writes
// ============================================================================

// Create appends a section. It is visible at once with a pending id that
// is swapped for the store's id on confirmation.
func (s *service) Create(ctx context.Context, label string) (types.SectionID, error) {
	label, err := validateLabel(label)
	if err != nil {
		return "", err
	}

	release, err := s.writes.Acquire(ctx, collectionKey)
	if err != nil {
		return "", err
	}
	defer release()

	s.mu.Lock()
	order := ordering.NextOrder(s.sections)
	pending := models.Section{
		ID:        types.PendingSectionID(uuid.NewString()),
		Label:     label,
		Order:     order,
		CreatedAt: time.Now(),
		Pending:   true,
	}
	s.sections = append(slices.Clone(s.sections), pending)
	gen := s.gen
	s.mu.Unlock()
	s.hub.Notify()

	id, err := s.store.CreateSection(context.WithoutCancel(ctx), label, order)
	if err != nil {
		s.rollback(gen, "create", func() {
			if i := s.indexLocked(pending.ID); i >= 0 {
				s.sections = slices.Delete(slices.Clone(s.sections), i, i+1)
			}
		})
		return "", fmt.Errorf("create section: %w", err)
	}

	s.mu.Lock()
	if i := s.indexLocked(pending.ID); i >= 0 {
		s.sections = slices.Clone(s.sections)
		s.sections[i].ID = id
		s.sections[i].Pending = false
	} else if s.indexLocked(id) < 0 {
		confirmed := pending
		confirmed.ID = id
		confirmed.Pending = false
		s.sections = append(slices.Clone(s.sections), confirmed)
	}
	s.mu.Unlock()
	s.hub.Notify()

	release()
	s.publish()
	return id, nil
}

// Rename changes a section's label. Blank or unchanged labels are ignored.
func (s *service) Rename(ctx context.Context, id types.SectionID, label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil
	}
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return ErrLabelTooLong
	}

	release, err := s.writes.Acquire(ctx, collectionKey)
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("rename section %s: %w", id, models.ErrInvalidReference)
	}
	previous := s.sections[i].Label
	if previous == label {
		s.mu.Unlock()
		return nil
	}
	s.sections = slices.Clone(s.sections)
	s.sections[i].Label = label
	gen := s.gen
	s.mu.Unlock()
	s.hub.Notify()

	if err := s.store.UpdateSectionLabel(context.WithoutCancel(ctx), id, label); err != nil {
		s.rollback(gen, "rename", func() {
			if j := s.indexLocked(id); j >= 0 {
				if errors.Is(err, models.ErrNotFound) {
					s.sections = slices.Delete(slices.Clone(s.sections), j, j+1)
					return
				}
				s.sections = slices.Clone(s.sections)
				s.sections[j].Label = previous
			}
		})
		return fmt.Errorf("rename section %s: %w", id, err)
	}

	release()
	s.publish()
	return nil
}

// Delete removes a section. Orders of the remaining sections are left as
// they are; the next reorder renumbers them.
func (s *service) Delete(ctx context.Context, id types.SectionID) error {
	release, err := s.writes.Acquire(ctx, collectionKey)
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("delete section %s: %w", id, models.ErrInvalidReference)
	}
	snapshot := s.sections
	s.sections = slices.Delete(slices.Clone(s.sections), i, i+1)
	gen := s.gen
	s.mu.Unlock()
	s.hub.Notify()

	if err := s.store.DeleteSection(context.WithoutCancel(ctx), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Already gone remotely; keep it pruned
			s.logger.Warn("section already deleted", "section_id", id)
			return fmt.Errorf("delete section %s: %w", id, err)
		}
		s.rollback(gen, "delete", func() {
			s.sections = snapshot
		})
		return fmt.Errorf("delete section %s: %w", id, err)
	}

	release()
	s.publish()
	return nil
}

// Reorder moves the section at from to position to and persists the whole
// renumbered ordering in one batch.
func (s *service) Reorder(ctx context.Context, from, to int) error {
	release, err := s.writes.Acquire(ctx, collectionKey)
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	next, moved, err := ordering.Move(s.sections, from, to)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("reorder sections: %w: %w", models.ErrInvalidReference, err)
	}
	if !moved {
		s.mu.Unlock()
		return nil
	}
	snapshot := s.sections
	s.sections = next
	gen := s.gen
	s.mu.Unlock()
	s.hub.Notify()

	if err := s.store.BatchUpdateSectionOrders(context.WithoutCancel(ctx), models.Orders(next)); err != nil {
		s.rollback(gen, "reorder", func() {
			s.sections = snapshot
		})
		return fmt.Errorf("reorder sections: %w", err)
	}

	release()
	s.publish()
	return nil
}

// rollback undoes an optimistic change unless a refresh replaced local
// state after it was applied.
func (s *service) rollback(gen uint64, op string, undo func()) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		s.logger.Debug("rollback skipped, state was refreshed", "op", op)
		return
	}
	undo()
	s.mu.Unlock()

	s.logger.Warn("section change rolled back", "op", op)
	s.hub.Notify()
}

func (s *service) publish() {
	event := events.Event{
		Type:    events.EventSectionsChanged,
		BoardID: s.board,
	}
	if err := events.PublishWithRetry(s.eventClient, event, 3); err != nil {
		s.logger.Warn("failed to publish section change", "error", err)
	}
}

func validateLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", ErrEmptyLabel
	}
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return "", ErrLabelTooLong
	}
	return label, nil
}
