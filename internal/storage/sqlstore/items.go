package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/billsplit/internal/models"
)

const itemColumns = "id, bill_id, description, price, created_at"

// Items list in insertion order. Position counts up per bill and breaks ties
// between items stored in the same millisecond.
const itemOrder = " ORDER BY created_at, position, id"

// CreateItem adds a single item to a bill.
func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	draft := models.ItemDraft{Description: item.Description, Price: item.Price}
	if err := draft.Validate(); err != nil {
		return err
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.billExists(ctx, tx, item.BillID); err != nil {
			return err
		}
		pos, err := s.nextPosition(ctx, tx, item.BillID)
		if err != nil {
			return err
		}
		_, err = s.exec(ctx, tx,
			"INSERT INTO items (id, bill_id, description, price, position, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			item.ID, item.BillID, item.Description, item.Price, pos, toMillis(item.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
		return nil
	})
}

// InsertItems adds every draft to the bill in one transaction.
// Either all drafts are stored or none are.
func (s *Store) InsertItems(ctx context.Context, billID string, drafts []models.ItemDraft) ([]models.Item, error) {
	for i, d := range drafts {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("draft %d: %w", i, err)
		}
	}
	if len(drafts) == 0 {
		return []models.Item{}, nil
	}

	now := time.Now().UTC()
	items := make([]models.Item, len(drafts))
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.billExists(ctx, tx, billID); err != nil {
			return err
		}
		pos, err := s.nextPosition(ctx, tx, billID)
		if err != nil {
			return err
		}
		for i, d := range drafts {
			items[i] = models.Item{
				ID:          uuid.New().String(),
				BillID:      billID,
				Description: d.Description,
				Price:       d.Price,
				CreatedAt:   now,
			}
			_, err := s.exec(ctx, tx,
				"INSERT INTO items (id, bill_id, description, price, position, created_at) VALUES (?, ?, ?, ?, ?, ?)",
				items[i].ID, billID, d.Description, d.Price, pos+i, toMillis(now),
			)
			if err != nil {
				return fmt.Errorf("failed to insert item %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) nextPosition(ctx context.Context, q querier, billID string) (int, error) {
	var pos int
	err := s.queryRow(ctx, q, "SELECT COALESCE(MAX(position) + 1, 0) FROM items WHERE bill_id = ?", billID).Scan(&pos)
	if err != nil {
		return 0, fmt.Errorf("failed to read item position: %w", err)
	}
	return pos, nil
}

// GetItem retrieves an item by ID.
func (s *Store) GetItem(ctx context.Context, itemID string) (*models.Item, error) {
	row := s.queryRow(ctx, s.db, "SELECT "+itemColumns+" FROM items WHERE id = ?", itemID)
	item, err := scanItem(row)
	if err != nil {
		return nil, notFound(err, "item", itemID)
	}
	return item, nil
}

// DeleteItem removes an item. Its assignments go with it by cascade.
func (s *Store) DeleteItem(ctx context.Context, itemID string) error {
	res, err := s.exec(ctx, s.db, "DELETE FROM items WHERE id = ?", itemID)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return requireAffected(res, "item", itemID)
}

// ListItems returns a bill's items in insertion order.
func (s *Store) ListItems(ctx context.Context, billID string) ([]models.Item, error) {
	return s.listItems(ctx, "SELECT "+itemColumns+" FROM items WHERE bill_id = ?"+itemOrder, billID)
}

// ListItemsByBills returns the items of every given bill, in insertion order.
func (s *Store) ListItemsByBills(ctx context.Context, billIDs []string) ([]models.Item, error) {
	if len(billIDs) == 0 {
		return []models.Item{}, nil
	}
	query := "SELECT " + itemColumns + " FROM items WHERE bill_id IN (" + placeholders(len(billIDs)) + ")" + itemOrder
	return s.listItems(ctx, query, stringArgs(billIDs)...)
}

func (s *Store) listItems(ctx context.Context, query string, args ...any) ([]models.Item, error) {
	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := make([]models.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

func scanItem(row scanner) (*models.Item, error) {
	var (
		item      models.Item
		createdAt int64
	)
	if err := row.Scan(&item.ID, &item.BillID, &item.Description, &item.Price, &createdAt); err != nil {
		return nil, err
	}
	item.CreatedAt = fromMillis(createdAt)
	return &item, nil
}
