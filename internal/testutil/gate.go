package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/thenoetrevino/pizarra/internal/database"
	"github.com/thenoetrevino/pizarra/internal/models"
	"github.com/thenoetrevino/pizarra/internal/types"
)

// GatedStore holds chosen operations in flight until the test releases them,
// which makes the optimistic state between a mutation and its confirmation
// observable.
type GatedStore struct {
	database.DataStore

	mu      sync.Mutex
	gates   map[string]chan struct{}
	entered map[string]chan struct{}
}

// NewGatedStore wraps inner with no gates closed
func NewGatedStore(inner database.DataStore) *GatedStore {
	return &GatedStore{
		DataStore: inner,
		gates:     make(map[string]chan struct{}),
		entered:   make(map[string]chan struct{}),
	}
}

// Hold blocks every call of op until the returned release func runs
func (g *GatedStore) Hold(op string) func() {
	g.mu.Lock()
	defer g.mu.Unlock()
	gate := make(chan struct{})
	g.gates[op] = gate
	g.entered[op] = make(chan struct{}, 64)

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			if g.gates[op] == gate {
				delete(g.gates, op)
			}
			g.mu.Unlock()
			close(gate)
		})
	}
}

// WaitEntered blocks until a call of op reached the gate
func (g *GatedStore) WaitEntered(t *testing.T, op string) {
	t.Helper()
	g.mu.Lock()
	ch := g.entered[op]
	g.mu.Unlock()
	if ch == nil {
		t.Fatalf("no gate held for %s", op)
	}
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for %s to reach the store", op)
	}
}

func (g *GatedStore) wait(op string) {
	g.mu.Lock()
	gate := g.gates[op]
	entered := g.entered[op]
	g.mu.Unlock()
	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		<-gate
	}
}

func (g *GatedStore) CreateTask(ctx context.Context, task models.Task) (types.TaskID, error) {
	g.wait(OpCreateTask)
	return g.DataStore.CreateTask(ctx, task)
}

func (g *GatedStore) UpdateTask(ctx context.Context, id types.TaskID, patch models.TaskPatch) error {
	g.wait(OpUpdateTask)
	return g.DataStore.UpdateTask(ctx, id, patch)
}

func (g *GatedStore) DeleteTask(ctx context.Context, id types.TaskID) error {
	g.wait(OpDeleteTask)
	return g.DataStore.DeleteTask(ctx, id)
}

func (g *GatedStore) CreateSection(ctx context.Context, label string, order int) (types.SectionID, error) {
	g.wait(OpCreateSection)
	return g.DataStore.CreateSection(ctx, label, order)
}

func (g *GatedStore) UpdateSectionLabel(ctx context.Context, id types.SectionID, label string) error {
	g.wait(OpUpdateSection)
	return g.DataStore.UpdateSectionLabel(ctx, id, label)
}

func (g *GatedStore) DeleteSection(ctx context.Context, id types.SectionID) error {
	g.wait(OpDeleteSection)
	return g.DataStore.DeleteSection(ctx, id)
}

func (g *GatedStore) BatchUpdateSectionOrders(ctx context.Context, orders []models.SectionOrder) error {
	g.wait(OpBatchSectionOrder)
	return g.DataStore.BatchUpdateSectionOrders(ctx, orders)
}

var _ database.DataStore = (*GatedStore)(nil)
