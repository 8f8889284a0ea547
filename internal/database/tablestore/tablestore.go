// Package tablestore keeps board documents in Azure Table Storage. Every
// board is one partition; tasks and sections live in separate tables.
package tablestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/google/uuid"

	"github.com/thenoetrevino/pizarra/internal/database"
	"github.com/thenoetrevino/pizarra/internal/models"
	"github.com/thenoetrevino/pizarra/internal/types"
)

// Default table names
const (
	DefaultTasksTable    = "PizarraTasks"
	DefaultSectionsTable = "PizarraSections"
)

// maxBatch is the entity limit of one table transaction
const maxBatch = 100

// Store implements database.DataStore over two tables
type Store struct {
	tasks    *aztables.Client
	sections *aztables.Client
	board    types.BoardID
}

var _ database.DataStore = (*Store)(nil)

// New connects to the account in connStr. The SDK retries throttled and
// transient failures; whatever still fails surfaces as
// models.ErrStoreUnavailable.
func New(connStr, tasksTable, sectionsTable string, board types.BoardID) (*Store, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    30 * time.Second,
				RetryDelay:    time.Second,
				MaxRetryDelay: 15 * time.Second,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, fmt.Errorf("table service client: %w", err)
	}
	return NewWithClients(svc.NewClient(tasksTable), svc.NewClient(sectionsTable), board), nil
}

// NewWithClients uses existing table clients
func NewWithClients(tasks, sections *aztables.Client, board types.BoardID) *Store {
	return &Store{tasks: tasks, sections: sections, board: board}
}

// EnsureTables creates both tables if they do not exist yet
func (s *Store) EnsureTables(ctx context.Context) error {
	for _, c := range []*aztables.Client{s.tasks, s.sections} {
		if _, err := c.CreateTable(ctx, nil); err != nil {
			var respErr *azcore.ResponseError
			if errors.As(err, &respErr) && respErr.StatusCode == http.StatusConflict {
				continue
			}
			return classify("creating table", err)
		}
	}
	return nil
}

// ============================================================================
// Sections
// ============================================================================

func (s *Store) ListSections(ctx context.Context) ([]models.Section, error) {
	var sections []models.Section
	err := s.each(ctx, s.sections, func(raw []byte) error {
		sec, err := decodeSection(raw)
		if err != nil {
			return err
		}
		sections = append(sections, sec)
		return nil
	})
	if err != nil {
		return nil, classify("listing sections", err)
	}
	slices.SortStableFunc(sections, func(a, b models.Section) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if sections == nil {
		sections = []models.Section{}
	}
	return sections, nil
}

func (s *Store) CreateSection(ctx context.Context, label string, order int) (types.SectionID, error) {
	id := types.SectionID(uuid.NewString())
	payload, err := json.Marshal(encodeSection(s.board, id, label, order, time.Now().UTC()))
	if err != nil {
		return "", fmt.Errorf("encoding section: %w", err)
	}
	if _, err := s.sections.AddEntity(ctx, payload, nil); err != nil {
		return "", classify("creating section", err)
	}
	return id, nil
}

func (s *Store) UpdateSectionLabel(ctx context.Context, id types.SectionID, label string) error {
	return s.merge(ctx, s.sections, "updating section", sectionUpdate{Entity: s.key(string(id)), Status: &label})
}

func (s *Store) DeleteSection(ctx context.Context, id types.SectionID) error {
	_, err := s.sections.DeleteEntity(ctx, string(s.board), string(id), nil)
	return classify("deleting section", err)
}

// BatchUpdateSectionOrders merges every order in one entity group
// transaction, so they all land or none do.
func (s *Store) BatchUpdateSectionOrders(ctx context.Context, orders []models.SectionOrder) error {
	if len(orders) == 0 {
		return nil
	}
	if len(orders) > maxBatch {
		return fmt.Errorf("updating section orders: %d exceeds the %d entity batch limit: %w",
			len(orders), maxBatch, models.ErrStoreUnavailable)
	}

	etag := azcore.ETagAny
	actions := make([]aztables.TransactionAction, 0, len(orders))
	for _, o := range orders {
		order := o.Order
		payload, err := json.Marshal(sectionUpdate{Entity: s.key(string(o.ID)), Order: &order})
		if err != nil {
			return fmt.Errorf("encoding section order: %w", err)
		}
		actions = append(actions, aztables.TransactionAction{
			ActionType: aztables.TransactionTypeUpdateMerge,
			Entity:     payload,
			IfMatch:    &etag,
		})
	}
	_, err := s.sections.SubmitTransaction(ctx, actions, nil)
	return classify("updating section orders", err)
}

// ============================================================================
// Tasks
// ============================================================================

func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	err := s.each(ctx, s.tasks, func(raw []byte) error {
		task, err := decodeTask(raw)
		if err != nil {
			return err
		}
		tasks = append(tasks, task)
		return nil
	})
	if err != nil {
		return nil, classify("listing tasks", err)
	}
	slices.SortStableFunc(tasks, func(a, b models.Task) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func (s *Store) CreateTask(ctx context.Context, task models.Task) (types.TaskID, error) {
	id := types.TaskID(uuid.NewString())
	now := time.Now().UTC()
	task.ID = id
	task.CreatedAt = now
	task.UpdatedAt = now

	payload, err := json.Marshal(encodeTask(s.board, task))
	if err != nil {
		return "", fmt.Errorf("encoding task: %w", err)
	}
	if _, err := s.tasks.AddEntity(ctx, payload, nil); err != nil {
		return "", classify("creating task", err)
	}
	return id, nil
}

// UpdateTask merges only the patched properties, so a section change and
// its stage index land in one request.
func (s *Store) UpdateTask(ctx context.Context, id types.TaskID, patch models.TaskPatch) error {
	return s.merge(ctx, s.tasks, "updating task", encodePatch(s.key(string(id)), patch, time.Now().UTC()))
}

func (s *Store) DeleteTask(ctx context.Context, id types.TaskID) error {
	_, err := s.tasks.DeleteEntity(ctx, string(s.board), string(id), nil)
	return classify("deleting task", err)
}

// ============================================================================
// Helpers
// ============================================================================

func (s *Store) key(rowKey string) aztables.Entity {
	return aztables.Entity{PartitionKey: string(s.board), RowKey: rowKey}
}

// each pages through the board's partition
func (s *Store) each(ctx context.Context, c *aztables.Client, fn func([]byte) error) error {
	filter := partitionFilter(s.board)
	pager := c.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, raw := range resp.Entities {
			if err := fn(raw); err != nil {
				return err
			}
		}
	}
	return nil
}

// merge updates an existing entity; a missing one is ErrNotFound
func (s *Store) merge(ctx context.Context, c *aztables.Client, op string, entity any) error {
	payload, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	etag := azcore.ETagAny
	_, err = c.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{
		IfMatch:    &etag,
		UpdateMode: aztables.UpdateModeMerge,
	})
	return classify(op, err)
}

func partitionFilter(board types.BoardID) string {
	return "PartitionKey eq '" + strings.ReplaceAll(string(board), "'", "''") + "'"
}

// classify maps SDK errors onto the board's error taxonomy
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, models.ErrStoreUnavailable, err)
}
