// Package cli holds helpers for command tests. It lives apart from
// testutil so repository tests can import testutil without pulling in the
// application container.
package cli

import (
	"testing"

	"github.com/thenoetrevino/pizarra/internal/app"
	"github.com/thenoetrevino/pizarra/internal/database"
	"github.com/thenoetrevino/pizarra/internal/testutil"
	"github.com/thenoetrevino/pizarra/internal/types"
)

// SetupCLITest creates an in-memory store and an App over it. The board
// starts empty and no default sections are seeded.
func SetupCLITest(t *testing.T, opts ...app.Option) (*database.Repository, *app.App) {
	t.Helper()
	_, repo := testutil.SetupTestStore(t)

	// EventPublisher is nil unless an option sets one
	appInstance := app.New(repo, testutil.TestBoard, opts...)
	t.Cleanup(func() { _ = appInstance.Close() })

	return repo, appInstance
}

// SeedBoard writes sections straight to the store, in order
func SeedBoard(t *testing.T, repo *database.Repository, labels ...string) []types.SectionID {
	t.Helper()
	return testutil.SeedSections(t, repo, labels...)
}
