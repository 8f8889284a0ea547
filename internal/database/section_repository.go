package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/thenoetrevino/pizarra/internal/models"
	"github.com/thenoetrevino/pizarra/internal/types"
)

// SectionRepo handles all section-related database operations.
type SectionRepo struct {
	db    *sql.DB
	board types.BoardID
}

// ListSections retrieves all sections of the board ordered left to right
func (r *SectionRepo) ListSections(ctx context.Context) ([]models.Section, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, status, sort_order, created_at
		 FROM sections
		 WHERE board_id = ?
		 ORDER BY sort_order, created_at, rowid`,
		r.board,
	)
	if err != nil {
		return nil, classify("querying sections", err)
	}
	defer rows.Close()

	sections := []models.Section{}
	for rows.Next() {
		var s models.Section
		if err := rows.Scan(&s.ID, &s.Label, &s.Order, &s.CreatedAt); err != nil {
			return nil, classify("scanning section row", err)
		}
		sections = append(sections, s)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("iterating section rows", err)
	}

	return sections, nil
}

// CreateSection inserts a section document with a fresh id. The id is
// written twice, as the key and as the denormalized section_id field.
func (r *SectionRepo) CreateSection(ctx context.Context, label string, order int) (types.SectionID, error) {
	id := types.SectionID(uuid.NewString())
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sections (board_id, id, section_id, status, sort_order, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.board, id, id, label, order, time.Now().UTC(),
	)
	if err != nil {
		return "", classify("creating section", err)
	}
	return id, nil
}

// UpdateSectionLabel updates the display label of an existing section
func (r *SectionRepo) UpdateSectionLabel(ctx context.Context, id types.SectionID, label string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sections SET status = ? WHERE board_id = ? AND id = ?`,
		label, r.board, id,
	)
	if err != nil {
		return classify("updating section label", err)
	}
	return classify("updating section label", requireAffected(result))
}

// DeleteSection removes a section document. Tasks referencing it are not
// touched: orphan handling belongs to the board.
func (r *SectionRepo) DeleteSection(ctx context.Context, id types.SectionID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sections WHERE board_id = ? AND id = ?`,
		r.board, id,
	)
	if err != nil {
		return classify("deleting section", err)
	}
	return classify("deleting section", requireAffected(result))
}

// BatchUpdateSectionOrders writes all order values in one transaction.
// If any listed section is missing the whole batch is rolled back.
func (r *SectionRepo) BatchUpdateSectionOrders(ctx context.Context, orders []models.SectionOrder) error {
	if len(orders) == 0 {
		return nil
	}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`UPDATE sections SET sort_order = ? WHERE board_id = ? AND id = ?`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, o := range orders {
			result, err := stmt.ExecContext(ctx, o.Order, r.board, o.ID)
			if err != nil {
				return err
			}
			if err := requireAffected(result); err != nil {
				return err
			}
		}
		return nil
	})
	return classify("updating section orders", err)
}
