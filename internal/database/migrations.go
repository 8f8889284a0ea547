package database

import (
	"context"
	"database/sql"
)

// runMigrations creates the document tables if needed. Both collections are
// partitioned by board_id so one database file can hold several boards.
// Section documents carry their own id a second time in section_id.
func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sections (
			board_id TEXT NOT NULL,
			id TEXT NOT NULL,
			section_id TEXT NOT NULL,
			status TEXT NOT NULL,
			sort_order INTEGER NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (board_id, id)
		)
	`)
	if err != nil {
		return err
	}

	// sort_order is deliberately not UNIQUE: a batched reorder rewrites
	// every row inside one transaction and passes through duplicates.
	_, err = db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_sections_order
		ON sections(board_id, sort_order)
	`)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			board_id TEXT NOT NULL,
			id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			assigned_to TEXT,
			section_id TEXT NOT NULL,
			current_step INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (board_id, id)
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_tasks_section
		ON tasks(board_id, section_id)
	`)
	return err
}
