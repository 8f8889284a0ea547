package models

import "errors"

// Board-wide error taxonomy shared by the store adapters, the repositories
// and the drag coordinator. Callers match with errors.Is.
var (
	// ErrInvalidReference indicates a mutation named a task or section that
	// does not exist locally. It is returned before any state changes.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrStoreUnavailable indicates the remote store failed transiently.
	// The optimistic change has been rolled back; the call may be retried.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotFound indicates the remote document no longer exists, usually
	// because a collaborator deleted it.
	ErrNotFound = errors.New("document not found")

	// ErrDragAlreadyActive indicates a drag was started while another one
	// is still in progress.
	ErrDragAlreadyActive = errors.New("a drag is already active")
)
