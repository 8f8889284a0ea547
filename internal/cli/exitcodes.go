package cli

import (
	"errors"

	"github.com/thenoetrevino/pizarra/internal/board"
	"github.com/thenoetrevino/pizarra/internal/models"
	"github.com/thenoetrevino/pizarra/internal/services/section"
	"github.com/thenoetrevino/pizarra/internal/services/task"
)

// Exit codes for CLI commands.
// These codes follow Unix conventions and provide consistent error reporting
// across all CLI commands.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitError indicates a general error occurred.
	// Use for: Store errors, network errors, unexpected failures,
	// or any error that doesn't fit the specific categories below.
	ExitError = 1

	// ExitUsage indicates incorrect command usage.
	// Use for: Missing arguments or invalid flag combinations.
	ExitUsage = 2

	// ExitNotFound indicates a requested resource was not found.
	// Use for: Unknown task or section ids and labels.
	ExitNotFound = 3

	// ExitDataErr indicates invalid or malformed data.
	// Use for: Invalid JSON input on stdin.
	ExitDataErr = 4

	// ExitValidation indicates a validation error.
	// Use for: Empty titles or labels, or a section delete the orphan
	// policy refuses.
	ExitValidation = 5
)

// Errors the commands raise themselves
var (
	ErrUsage    = errors.New("invalid usage")
	ErrBadInput = errors.New("invalid input")
)

// ExitCode maps an error returned by a command to the process exit code
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.Is(err, ErrBadInput):
		return ExitDataErr
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrInvalidReference):
		return ExitNotFound
	case errors.Is(err, task.ErrEmptyTitle),
		errors.Is(err, section.ErrEmptyLabel),
		errors.Is(err, section.ErrLabelTooLong),
		errors.Is(err, board.ErrSectionHasTasks),
		errors.Is(err, board.ErrNoFallbackSection),
		errors.Is(err, models.ErrDragAlreadyActive):
		return ExitValidation
	default:
		return ExitError
	}
}

// ErrorCode is the machine-readable code printed with an error
func ErrorCode(err error) string {
	switch ExitCode(err) {
	case ExitUsage:
		return "USAGE"
	case ExitDataErr:
		return "INVALID_INPUT"
	case ExitNotFound:
		return "NOT_FOUND"
	case ExitValidation:
		return "VALIDATION"
	default:
		if errors.Is(err, models.ErrStoreUnavailable) {
			return "STORE_UNAVAILABLE"
		}
		return "ERROR"
	}
}
