package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/thenoetrevino/pizarra/internal/types"
)

// ============================================================================
// DATABASE SETUP HELPERS
// ============================================================================

const testBoard types.BoardID = "test-board"

// setupTestDB creates an in-memory database and runs migrations
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenMemory(context.Background())
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// setupTestRepo returns a repository for testBoard over a fresh database
func setupTestRepo(t *testing.T) (*sql.DB, *Repository) {
	t.Helper()
	db := setupTestDB(t)
	return db, NewRepository(db, testBoard)
}

// createTestSections creates one section per label with dense orders
func createTestSections(t *testing.T, repo *Repository, labels ...string) []types.SectionID {
	t.Helper()
	ids := make([]types.SectionID, len(labels))
	for i, label := range labels {
		id, err := repo.CreateSection(context.Background(), label, i)
		if err != nil {
			t.Fatalf("Failed to create section %q: %v", label, err)
		}
		ids[i] = id
	}
	return ids
}
