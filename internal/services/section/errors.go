package section

import "errors"

// Section-related errors
var (
	// Validation errors
	ErrEmptyLabel   = errors.New("label cannot be empty")
	ErrLabelTooLong = errors.New("label cannot exceed 50 characters")
)

// MaxLabelLength is the longest label a section may carry, in characters
const MaxLabelLength = 50
