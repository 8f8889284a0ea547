package board

import "errors"

// Board-related errors
var (
	// Orphan policy errors
	ErrSectionHasTasks     = errors.New("section still has tasks")
	ErrNoFallbackSection   = errors.New("no section to move tasks to")
	ErrUnknownOrphanPolicy = errors.New("unknown orphan policy")
)
