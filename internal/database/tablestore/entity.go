package tablestore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/thenoetrevino/pizarra/internal/models"
	"github.com/thenoetrevino/pizarra/internal/types"
)

// Property names follow the board documents the web client reads

type taskEntity struct {
	aztables.Entity
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AssignedTo  string    `json:"assignedTo"`
	SectionID   string    `json:"sectionId"`
	CurrentStep int       `json:"currentStep"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// taskUpdate carries only the patched properties of a merge
type taskUpdate struct {
	aztables.Entity
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	AssignedTo  *string   `json:"assignedTo,omitempty"`
	SectionID   *string   `json:"sectionId,omitempty"`
	CurrentStep *int      `json:"currentStep,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// sectionEntity repeats the row key as sectionId
type sectionEntity struct {
	aztables.Entity
	SectionID string    `json:"sectionId"`
	Status    string    `json:"status"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}

type sectionUpdate struct {
	aztables.Entity
	Status *string `json:"status,omitempty"`
	Order  *int    `json:"order,omitempty"`
}

func encodeTask(board types.BoardID, t models.Task) taskEntity {
	return taskEntity{
		Entity:      aztables.Entity{PartitionKey: string(board), RowKey: string(t.ID)},
		Title:       t.Title,
		Description: t.Description,
		AssignedTo:  string(t.Assignee),
		SectionID:   string(t.SectionID),
		CurrentStep: t.StageIndex,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func encodeSection(board types.BoardID, id types.SectionID, label string, order int, now time.Time) sectionEntity {
	return sectionEntity{
		Entity:    aztables.Entity{PartitionKey: string(board), RowKey: string(id)},
		SectionID: string(id),
		Status:    label,
		Order:     order,
		CreatedAt: now,
	}
}

func encodePatch(key aztables.Entity, p models.TaskPatch, now time.Time) taskUpdate {
	u := taskUpdate{
		Entity:      key,
		Title:       p.Title,
		Description: p.Description,
		CurrentStep: p.StageIndex,
		UpdatedAt:   now,
	}
	if p.Assignee != nil {
		v := string(*p.Assignee)
		u.AssignedTo = &v
	}
	if p.SectionID != nil {
		v := string(*p.SectionID)
		u.SectionID = &v
	}
	return u
}

func decodeTask(raw []byte) (models.Task, error) {
	var e taskEntity
	if err := json.Unmarshal(raw, &e); err != nil {
		return models.Task{}, fmt.Errorf("decoding task entity: %w", err)
	}
	return models.Task{
		ID:          types.TaskID(e.RowKey),
		Title:       e.Title,
		Description: e.Description,
		Assignee:    types.UserID(e.AssignedTo),
		SectionID:   types.SectionID(e.SectionID),
		StageIndex:  e.CurrentStep,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}, nil
}

func decodeSection(raw []byte) (models.Section, error) {
	var e sectionEntity
	if err := json.Unmarshal(raw, &e); err != nil {
		return models.Section{}, fmt.Errorf("decoding section entity: %w", err)
	}
	return models.Section{
		ID:        types.SectionID(e.RowKey),
		Label:     e.Status,
		Order:     e.Order,
		CreatedAt: e.CreatedAt,
	}, nil
}
