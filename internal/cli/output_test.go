package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenoetrevino/pizarra/internal/board"
	"github.com/thenoetrevino/pizarra/internal/models"
	"github.com/thenoetrevino/pizarra/internal/services/section"
	"github.com/thenoetrevino/pizarra/internal/services/task"
	"github.com/thenoetrevino/pizarra/internal/testutil"
)

// ============================================================================
// Mock Types for Testing
// ============================================================================

type mockDataWithID struct {
	ID   string
	Name string
}

func (m mockDataWithID) GetID() string {
	return m.ID
}

type mockRendered struct{}

func (mockRendered) Render() string {
	return "rendered!"
}

// ============================================================================
// Success Tests
// ============================================================================

func TestOutputFormatter_Success_JSON(t *testing.T) {
	f := &OutputFormatter{JSON: true}

	out := testutil.CaptureOutput(t, func() {
		require.NoError(t, f.Success(map[string]any{"test": "value"}))
	})

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "value", result["data"].(map[string]any)["test"])
}

func TestOutputFormatter_Success_Quiet(t *testing.T) {
	f := &OutputFormatter{Quiet: true}

	out := testutil.CaptureOutput(t, func() {
		require.NoError(t, f.Success(mockDataWithID{ID: "abc-123", Name: "x"}))
	})
	assert.Equal(t, "abc-123\n", out)

	// Nothing to print without an id
	out = testutil.CaptureOutput(t, func() {
		require.NoError(t, f.Success(struct{ Name string }{"x"}))
	})
	assert.Empty(t, out)
}

func TestOutputFormatter_Success_HumanReadable(t *testing.T) {
	f := &OutputFormatter{}

	out := testutil.CaptureOutput(t, func() {
		require.NoError(t, f.Success(mockRendered{}))
		require.NoError(t, f.Success("plain"))
		require.NoError(t, f.Success(struct{ Name string }{"x"}))
	})
	assert.Equal(t, "rendered!\nplain\n{Name:x}\n", out)
}

// ============================================================================
// Error Tests
// ============================================================================

func TestOutputFormatter_Error_JSON(t *testing.T) {
	f := &OutputFormatter{JSON: true}

	out := testutil.CaptureOutput(t, func() {
		require.NoError(t, f.ErrorWithSuggestion("NOT_FOUND", "task x not found", "list the board"))
	})

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, false, result["success"])
	errData := result["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", errData["code"])
	assert.Equal(t, "task x not found", errData["message"])
	assert.Equal(t, "list the board", errData["suggestion"])
}

func TestOutputFormatter_Fail_ReturnsError(t *testing.T) {
	f := &OutputFormatter{JSON: true}
	cause := fmt.Errorf("move task t1: %w", models.ErrInvalidReference)

	var got error
	out := testutil.CaptureOutput(t, func() {
		got = f.Fail(cause, "")
	})

	assert.ErrorIs(t, got, models.ErrInvalidReference)
	assert.True(t, Reported(got))
	assert.False(t, Reported(cause))
	assert.Equal(t, ExitNotFound, ExitCode(got))
	assert.True(t, strings.Contains(out, `"code":"NOT_FOUND"`), out)
}

// ============================================================================
// Exit Code Tests
// ============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		code int
		name string
	}{
		{nil, ExitSuccess, "OK"},
		{fmt.Errorf("x: %w", ErrUsage), ExitUsage, "USAGE"},
		{fmt.Errorf("x: %w", ErrBadInput), ExitDataErr, "INVALID_INPUT"},
		{fmt.Errorf("x: %w", models.ErrNotFound), ExitNotFound, "NOT_FOUND"},
		{fmt.Errorf("x: %w", models.ErrInvalidReference), ExitNotFound, "NOT_FOUND"},
		{task.ErrEmptyTitle, ExitValidation, "VALIDATION"},
		{section.ErrLabelTooLong, ExitValidation, "VALIDATION"},
		{fmt.Errorf("x: %w", board.ErrSectionHasTasks), ExitValidation, "VALIDATION"},
		{fmt.Errorf("x: %w", models.ErrStoreUnavailable), ExitError, "STORE_UNAVAILABLE"},
		{errors.New("boom"), ExitError, "ERROR"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, ExitCode(tt.err), "%v", tt.err)
		if tt.err != nil {
			assert.Equal(t, tt.name, ErrorCode(tt.err), "%v", tt.err)
		}
	}
}
