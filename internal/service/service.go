// Package service implements the billsplit.v1 Connect services.
package service

import (
	"context"
	"fmt"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/billsplit/internal/auth"
	"github.com/mmynk/billsplit/internal/middleware"
	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/storage"
)

// maxDayCount bounds day-count request fields to a century.
const maxDayCount = 36500

// dayCount validates a day-count request field and converts it to a duration.
func dayCount(field string, days int) (time.Duration, error) {
	if days < 0 {
		return 0, models.NewValidationError(field, "must not be negative")
	}
	if days > maxDayCount {
		return 0, models.NewValidationError(field, fmt.Sprintf("must be at most %d", maxDayCount))
	}
	return time.Duration(days) * 24 * time.Hour, nil
}

// requireUser returns the authenticated user ID from ctx.
func requireUser(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

// ownedBill loads a bill and hides it when it belongs to another user.
func ownedBill(ctx context.Context, store storage.BillStore, userID, billID string) (*models.Bill, error) {
	if billID == "" {
		return nil, models.NewValidationError("bill_id", "is required")
	}
	bill, err := store.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.UserID != userID {
		return nil, fmt.Errorf("bill %s: %w", billID, storage.ErrNotFound)
	}
	return bill, nil
}

func ownedItem(ctx context.Context, store storage.BillStore, userID, itemID string) (*models.Item, error) {
	if itemID == "" {
		return nil, models.NewValidationError("item_id", "is required")
	}
	item, err := store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if _, err := ownedBill(ctx, store, userID, item.BillID); err != nil {
		return nil, fmt.Errorf("item %s: %w", itemID, storage.ErrNotFound)
	}
	return item, nil
}

func ownedPerson(ctx context.Context, store storage.PeopleStore, userID, personID string) (*models.Person, error) {
	if personID == "" {
		return nil, models.NewValidationError("person_id", "is required")
	}
	person, err := store.GetPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	if person.UserID != userID {
		return nil, fmt.Errorf("person %s: %w", personID, storage.ErrNotFound)
	}
	return person, nil
}
