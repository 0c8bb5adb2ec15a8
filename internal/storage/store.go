// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/billsplit/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// BillFilter narrows ListBills. The zero value matches every bill.
type BillFilter struct {
	// CreatedBefore, when set, keeps only bills created strictly before it.
	CreatedBefore time.Time
}

// Store defines the interface for bill storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	BillStore
	PeopleStore
	UserStore

	// Close releases any resources held by the store.
	Close() error
}

// BillStore persists bills, their items and item assignments.
type BillStore interface {
	// CreateBill persists a new bill. ID and CreatedAt are filled in when empty.
	CreateBill(ctx context.Context, bill *models.Bill) error

	// GetBill retrieves a bill by its ID.
	// Returns ErrNotFound if the bill does not exist.
	GetBill(ctx context.Context, billID string) (*models.Bill, error)

	// ListBills returns the user's bills, newest first.
	ListBills(ctx context.Context, userID string, filter BillFilter) ([]models.Bill, error)

	// UpdateBillTaxTip replaces the tax and tip of a bill.
	UpdateBillTaxTip(ctx context.Context, billID string, tax, tip float64) error

	// AttachReceipt records the uploaded receipt location and its extracted text.
	AttachReceipt(ctx context.Context, billID, receiptURL, rawText string) error

	// DeleteBill removes a bill together with its items and their assignments.
	DeleteBill(ctx context.Context, billID string) error

	// CreateItem adds a single item to a bill.
	CreateItem(ctx context.Context, item *models.Item) error

	// InsertItems adds all drafts to a bill in one transaction, keeping their order.
	InsertItems(ctx context.Context, billID string, drafts []models.ItemDraft) ([]models.Item, error)

	// DeleteItem removes an item and its assignments.
	DeleteItem(ctx context.Context, itemID string) error

	// GetItem retrieves an item by its ID.
	GetItem(ctx context.Context, itemID string) (*models.Item, error)

	// ListItems returns a bill's items in insertion order.
	ListItems(ctx context.Context, billID string) ([]models.Item, error)

	// ListItemsByBills returns the items of every given bill.
	ListItemsByBills(ctx context.Context, billIDs []string) ([]models.Item, error)

	// ListAssignments returns the assignment edges of the given items.
	ListAssignments(ctx context.Context, itemIDs []string) ([]models.ItemAssignment, error)

	// ToggleAssignment adds the edge if absent and removes it if present.
	// It reports whether the edge exists afterwards.
	ToggleAssignment(ctx context.Context, itemID, personID string) (bool, error)
}

// PeopleStore persists the people a user splits bills with.
type PeopleStore interface {
	CreatePerson(ctx context.Context, person *models.Person) error
	GetPerson(ctx context.Context, personID string) (*models.Person, error)
	ListPeople(ctx context.Context, userID string) ([]models.Person, error)

	// DeletePerson removes a person and their assignments.
	DeletePerson(ctx context.Context, personID string) error
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail and GetUserByID return ErrNotFound for unknown users.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
