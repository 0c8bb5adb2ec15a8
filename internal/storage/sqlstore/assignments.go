package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/billsplit/internal/models"
)

// ListAssignments returns the assignment edges of the given items.
func (s *Store) ListAssignments(ctx context.Context, itemIDs []string) ([]models.ItemAssignment, error) {
	assignments := make([]models.ItemAssignment, 0)
	if len(itemIDs) == 0 {
		return assignments, nil
	}

	rows, err := s.query(ctx, s.db,
		"SELECT item_id, person_id FROM item_assignments WHERE item_id IN ("+placeholders(len(itemIDs))+") ORDER BY item_id, person_id",
		stringArgs(itemIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.ItemAssignment
		if err := rows.Scan(&a.ItemID, &a.PersonID); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}
	return assignments, nil
}

// ToggleAssignment removes the edge if present and inserts it otherwise.
func (s *Store) ToggleAssignment(ctx context.Context, itemID, personID string) (bool, error) {
	var assigned bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := s.exec(ctx, tx,
			"DELETE FROM item_assignments WHERE item_id = ? AND person_id = ?",
			itemID, personID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete assignment: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n > 0 {
			assigned = false
			return nil
		}

		_, err = s.exec(ctx, tx,
			"INSERT INTO item_assignments (item_id, person_id) VALUES (?, ?)",
			itemID, personID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert assignment: %w", err)
		}
		assigned = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return assigned, nil
}
