package testutil

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/thenoetrevino/pizarra/internal/database"
	"github.com/thenoetrevino/pizarra/internal/models"
	"github.com/thenoetrevino/pizarra/internal/types"
)

// TestBoard is the board every test store is partitioned under
const TestBoard types.BoardID = "test-board"

// Store operation names used to target injected faults and gates
const (
	OpCreateTask        = "CreateTask"
	OpUpdateTask        = "UpdateTask"
	OpDeleteTask        = "DeleteTask"
	OpListTasks         = "ListTasks"
	OpCreateSection     = "CreateSection"
	OpUpdateSection     = "UpdateSectionLabel"
	OpDeleteSection     = "DeleteSection"
	OpListSections      = "ListSections"
	OpBatchSectionOrder = "BatchUpdateSectionOrders"
)

// SetupTestStore creates an in-memory SQLite store with migrations applied
func SetupTestStore(t *testing.T) (*sql.DB, *database.Repository) {
	t.Helper()
	db, err := database.OpenMemory(context.Background())
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, database.NewRepository(db, TestBoard)
}

// SeedSections writes sections straight to the store with dense orders
func SeedSections(t *testing.T, store database.SectionWriter, labels ...string) []types.SectionID {
	t.Helper()
	ids := make([]types.SectionID, len(labels))
	for i, label := range labels {
		id, err := store.CreateSection(context.Background(), label, i)
		if err != nil {
			t.Fatalf("Failed to seed section %q: %v", label, err)
		}
		ids[i] = id
	}
	return ids
}

// SeedTask writes a task straight to the store
func SeedTask(t *testing.T, store database.TaskWriter, task models.Task) types.TaskID {
	t.Helper()
	id, err := store.CreateTask(context.Background(), task)
	if err != nil {
		t.Fatalf("Failed to seed task %q: %v", task.Title, err)
	}
	return id
}

// StoredTask reads a task back from the store, failing the test when it
// is missing
func StoredTask(t *testing.T, store database.TaskReader, id types.TaskID) models.Task {
	t.Helper()
	tasks, err := store.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("Failed to list tasks: %v", err)
	}
	for _, task := range tasks {
		if task.ID == id {
			return task
		}
	}
	t.Fatalf("Task %s not in store", id)
	return models.Task{}
}

// FlakyStore wraps a DataStore and fails chosen operations on demand
type FlakyStore struct {
	database.DataStore

	mu       sync.Mutex
	failures map[string][]error
	always   map[string]error
	calls    map[string]int
}

// NewFlakyStore wraps inner; with no faults queued it behaves exactly like it
func NewFlakyStore(inner database.DataStore) *FlakyStore {
	return &FlakyStore{
		DataStore: inner,
		failures:  make(map[string][]error),
		always:    make(map[string]error),
		calls:     make(map[string]int),
	}
}

// FailNext makes the next call of op return err without reaching the store
func (f *FlakyStore) FailNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = append(f.failures[op], err)
}

// FailAlways makes every call of op return err until Heal
func (f *FlakyStore) FailAlways(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.always[op] = err
}

// Heal clears every injected fault
func (f *FlakyStore) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.failures)
	clear(f.always)
}

// Calls reports how many times op was invoked, failed calls included
func (f *FlakyStore) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *FlakyStore) check(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	if err, ok := f.always[op]; ok {
		return err
	}
	if queued := f.failures[op]; len(queued) > 0 {
		f.failures[op] = queued[1:]
		return queued[0]
	}
	return nil
}

func (f *FlakyStore) CreateTask(ctx context.Context, task models.Task) (types.TaskID, error) {
	if err := f.check(OpCreateTask); err != nil {
		return "", err
	}
	return f.DataStore.CreateTask(ctx, task)
}

func (f *FlakyStore) UpdateTask(ctx context.Context, id types.TaskID, patch models.TaskPatch) error {
	if err := f.check(OpUpdateTask); err != nil {
		return err
	}
	return f.DataStore.UpdateTask(ctx, id, patch)
}

func (f *FlakyStore) DeleteTask(ctx context.Context, id types.TaskID) error {
	if err := f.check(OpDeleteTask); err != nil {
		return err
	}
	return f.DataStore.DeleteTask(ctx, id)
}

func (f *FlakyStore) ListTasks(ctx context.Context) ([]models.Task, error) {
	if err := f.check(OpListTasks); err != nil {
		return nil, err
	}
	return f.DataStore.ListTasks(ctx)
}

func (f *FlakyStore) CreateSection(ctx context.Context, label string, order int) (types.SectionID, error) {
	if err := f.check(OpCreateSection); err != nil {
		return "", err
	}
	return f.DataStore.CreateSection(ctx, label, order)
}

func (f *FlakyStore) UpdateSectionLabel(ctx context.Context, id types.SectionID, label string) error {
	if err := f.check(OpUpdateSection); err != nil {
		return err
	}
	return f.DataStore.UpdateSectionLabel(ctx, id, label)
}

func (f *FlakyStore) DeleteSection(ctx context.Context, id types.SectionID) error {
	if err := f.check(OpDeleteSection); err != nil {
		return err
	}
	return f.DataStore.DeleteSection(ctx, id)
}

func (f *FlakyStore) ListSections(ctx context.Context) ([]models.Section, error) {
	if err := f.check(OpListSections); err != nil {
		return nil, err
	}
	return f.DataStore.ListSections(ctx)
}

func (f *FlakyStore) BatchUpdateSectionOrders(ctx context.Context, orders []models.SectionOrder) error {
	if err := f.check(OpBatchSectionOrder); err != nil {
		return err
	}
	return f.DataStore.BatchUpdateSectionOrders(ctx, orders)
}

var _ database.DataStore = (*FlakyStore)(nil)
