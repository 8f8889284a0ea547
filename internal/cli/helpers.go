package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/thenoetrevino/pizarra/internal/board"
	"github.com/thenoetrevino/pizarra/internal/models"
	"github.com/thenoetrevino/pizarra/internal/services/section"
	"github.com/thenoetrevino/pizarra/internal/services/task"
	"github.com/thenoetrevino/pizarra/internal/types"
	"github.com/thenoetrevino/pizarra/internal/user"
)

// SectionLister is the read side of the section repository
type SectionLister interface {
	List() []models.Section
}

// TaskLister is the read side of the task repository
type TaskLister interface {
	List() []models.Task
}

// ResolveSection finds a section by id, by label (case-insensitive) or by
// its 1-based column position, in that order.
func ResolveSection(sections SectionLister, ref string) (models.Section, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Section{}, fmt.Errorf("%w: section reference is required", ErrUsage)
	}

	list := sections.List()
	for _, s := range list {
		if string(s.ID) == ref {
			return s, nil
		}
	}

	var matches []models.Section
	for _, s := range list {
		if strings.EqualFold(s.Label, ref) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
	default:
		return models.Section{}, fmt.Errorf("%w: %d sections are labelled %q, use the id instead", ErrUsage, len(matches), ref)
	}

	if pos, err := strconv.Atoi(ref); err == nil && pos >= 1 && pos <= len(list) {
		return list[pos-1], nil
	}

	return models.Section{}, fmt.Errorf("section %q: %w", ref, models.ErrNotFound)
}

// ResolveTask finds a task by id or by a unique id prefix
func ResolveTask(tasks TaskLister, ref string) (models.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Task{}, fmt.Errorf("%w: task id is required", ErrUsage)
	}

	var matches []models.Task
	for _, t := range tasks.List() {
		if string(t.ID) == ref {
			return t, nil
		}
		if strings.HasPrefix(string(t.ID), ref) {
			matches = append(matches, t)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return models.Task{}, fmt.Errorf("task %q: %w", ref, models.ErrNotFound)
	default:
		return models.Task{}, fmt.Errorf("%w: %q matches %d tasks, use a longer id", ErrUsage, ref, len(matches))
	}
}

// TaskInput is the JSON document accepted by 'task add --stdin'
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Assignee    string `json:"assignee,omitempty"`
}

// ReadTaskInput decodes a TaskInput from r
func ReadTaskInput(r io.Reader) (TaskInput, error) {
	var in TaskInput
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		if errors.Is(err, io.EOF) {
			return in, fmt.Errorf("%w: no task on stdin", ErrBadInput)
		}
		return in, fmt.Errorf("%w: %v", ErrBadInput, err)
	}
	return in, nil
}

// AssigneeFlag converts the --assignee flag value. "none" unassigns and
// "me" is the current user.
func AssigneeFlag(v string) types.UserID {
	v = strings.TrimSpace(v)
	switch {
	case strings.EqualFold(v, "none"):
		return ""
	case user.IsSelf(v):
		return user.Current()
	}
	return types.UserID(v)
}

// FilterFlag converts the --assignee flag of board views
func FilterFlag(v string) board.Filter {
	if user.IsSelf(v) {
		return board.AssignedTo(user.Current())
	}
	return board.ParseFilter(v)
}

// Suggest returns a hint for an error a user can act on, or ""
func Suggest(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, board.ErrSectionHasTasks):
		return "Move or delete its tasks first, or set board.orphan_policy to cascade or reassign"
	case errors.Is(err, board.ErrNoFallbackSection):
		return "Add another section to receive the tasks first"
	case errors.Is(err, task.ErrEmptyTitle):
		return "Provide a title with --title"
	case errors.Is(err, section.ErrEmptyLabel), errors.Is(err, section.ErrLabelTooLong):
		return "Section labels must be 1-50 characters"
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrInvalidReference):
		return "Run 'pizarra board' to see current sections and task ids"
	case errors.Is(err, models.ErrStoreUnavailable):
		return "The change was rolled back; check the store connection and retry"
	case errors.Is(err, ErrBadInput):
		return `Expected JSON like {"title": "...", "description": "..."}`
	default:
		return ""
	}
}
