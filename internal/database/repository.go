package database

import (
	"database/sql"

	"github.com/thenoetrevino/pizarra/internal/types"
)

// Repository provides the SQLite implementation of DataStore for one board.
// It composes the per-collection repositories using struct embedding.
type Repository struct {
	*SectionRepo
	*TaskRepo
}

// Compile-time verification that *Repository implements DataStore
var _ DataStore = (*Repository)(nil)

// NewRepository creates a new Repository for the given board wrapping the
// database connection.
func NewRepository(db *sql.DB, board types.BoardID) *Repository {
	return &Repository{
		SectionRepo: &SectionRepo{db: db, board: board},
		TaskRepo:    &TaskRepo{db: db, board: board},
	}
}
