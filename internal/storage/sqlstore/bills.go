package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/storage"
)

const billColumns = "id, user_id, title, tax, tip, receipt_url, raw_receipt_text, created_at"

// CreateBill persists a new bill to the database.
func (s *Store) CreateBill(ctx context.Context, bill *models.Bill) error {
	if err := models.ValidateCharges(bill.Tax, bill.Tip); err != nil {
		return err
	}

	// Generate IDs if not set
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = time.Now().UTC()
	}
	if bill.Title == "" {
		bill.Title = generateTitle(bill.CreatedAt)
	}

	_, err := s.exec(ctx, s.db,
		"INSERT INTO bills ("+billColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		bill.ID, bill.UserID, bill.Title, bill.Tax, bill.Tip,
		bill.ReceiptURL, bill.RawReceiptText, toMillis(bill.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}
	return nil
}

// GetBill retrieves a bill by ID.
func (s *Store) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	row := s.queryRow(ctx, s.db, "SELECT "+billColumns+" FROM bills WHERE id = ?", billID)
	bill, err := scanBill(row)
	if err != nil {
		return nil, notFound(err, "bill", billID)
	}
	return bill, nil
}

// ListBills returns the user's bills, newest first.
func (s *Store) ListBills(ctx context.Context, userID string, filter storage.BillFilter) ([]models.Bill, error) {
	query := "SELECT " + billColumns + " FROM bills WHERE user_id = ?"
	args := []any{userID}
	if !filter.CreatedBefore.IsZero() {
		query += " AND created_at < ?"
		args = append(args, toMillis(filter.CreatedBefore))
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	bills := make([]models.Bill, 0)
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, *bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	return bills, nil
}

// UpdateBillTaxTip replaces the tax and tip of a bill.
func (s *Store) UpdateBillTaxTip(ctx context.Context, billID string, tax, tip float64) error {
	if err := models.ValidateCharges(tax, tip); err != nil {
		return err
	}
	res, err := s.exec(ctx, s.db, "UPDATE bills SET tax = ?, tip = ? WHERE id = ?", tax, tip, billID)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	return requireAffected(res, "bill", billID)
}

// AttachReceipt records the receipt location and extracted text on a bill.
func (s *Store) AttachReceipt(ctx context.Context, billID, receiptURL, rawText string) error {
	res, err := s.exec(ctx, s.db,
		"UPDATE bills SET receipt_url = ?, raw_receipt_text = ? WHERE id = ?",
		receiptURL, rawText, billID,
	)
	if err != nil {
		return fmt.Errorf("failed to attach receipt: %w", err)
	}
	return requireAffected(res, "bill", billID)
}

// DeleteBill removes a bill. Items and assignments go with it by cascade.
func (s *Store) DeleteBill(ctx context.Context, billID string) error {
	res, err := s.exec(ctx, s.db, "DELETE FROM bills WHERE id = ?", billID)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	return requireAffected(res, "bill", billID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBill(row scanner) (*models.Bill, error) {
	var (
		bill      models.Bill
		createdAt int64
	)
	err := row.Scan(
		&bill.ID,
		&bill.UserID,
		&bill.Title,
		&bill.Tax,
		&bill.Tip,
		&bill.ReceiptURL,
		&bill.RawReceiptText,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	bill.CreatedAt = fromMillis(createdAt)
	return &bill, nil
}

// billExists reports whether billID is present, inside q's transaction if any.
func (s *Store) billExists(ctx context.Context, q querier, billID string) error {
	var one int
	err := s.queryRow(ctx, q, "SELECT 1 FROM bills WHERE id = ?", billID).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("bill %s: %w", billID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check bill: %w", err)
	}
	return nil
}

// generateTitle creates an auto-generated title from the creation date.
func generateTitle(createdAt time.Time) string {
	return fmt.Sprintf("Bill - %s", createdAt.Format("Jan 2, 2006"))
}
