package types

import "strings"

// ID types give semantic meaning to the opaque string identifiers the store
// hands out. They document what each string refers to in the domain model so
// a task id is never passed where a section id is expected.

// BoardID identifies the board (store partition) a process works against
type BoardID string

// SectionID identifies a kanban column
type SectionID string

// TaskID identifies a kanban card
type TaskID string

// UserID identifies a collaborator a task can be assigned to
type UserID string

// pendingPrefix marks identifiers handed out locally before the store
// confirmed a create.
const pendingPrefix = "pending-"

// String returns the raw identifier
func (id BoardID) String() string {
	return string(id)
}

func (id SectionID) String() string {
	return string(id)
}

func (id TaskID) String() string {
	return string(id)
}

func (id UserID) String() string {
	return string(id)
}

// IsZero reports whether the id is empty
func (id SectionID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

func (id TaskID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// PendingSectionID builds a local placeholder id from a unique suffix
func PendingSectionID(suffix string) SectionID {
	return SectionID(pendingPrefix + suffix)
}

// IsPending reports whether the id is a local placeholder
func (id SectionID) IsPending() bool {
	return strings.HasPrefix(string(id), pendingPrefix)
}
