package models

import (
	"math"
	"strings"
	"time"
)

// Bill represents a shared purchase whose items are split among people.
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string

	// UserID is the account that owns the bill.
	UserID string

	// Title is the human-readable name for the bill (e.g., "Friday Dinner").
	Title string

	// Tax is the tax charged on the whole bill. Never negative.
	Tax float64

	// Tip is the tip added to the whole bill. Never negative.
	Tip float64

	// ReceiptURL points at the uploaded receipt image in the blob store.
	// Empty when no receipt was attached.
	ReceiptURL string

	// RawReceiptText is the last text extracted from the receipt image.
	RawReceiptText string

	// CreatedAt is when the bill was created.
	CreatedAt time.Time
}

// Item represents a single priced line on a bill.
// Items can be shared among any number of people through ItemAssignments.
type Item struct {
	// ID is the unique identifier for the item (UUID format).
	ID string

	// BillID is the bill this item belongs to.
	BillID string

	// Description is the name of the item (e.g., "Pizza", "Beer").
	Description string

	// Price is the pre-tax price of the item.
	Price float64

	// CreatedAt is when the item was added. Items list in insertion order.
	CreatedAt time.Time
}

// ItemAssignment links an item to a person who shares it.
// The pair (ItemID, PersonID) is unique.
type ItemAssignment struct {
	ItemID   string
	PersonID string
}

// ItemDraft is an item that has not been stored yet.
type ItemDraft struct {
	Description string
	Price       float64
}

// Validate rejects drafts that cannot become items: an empty description or
// a price that is not strictly positive.
func (d ItemDraft) Validate() error {
	if strings.TrimSpace(d.Description) == "" {
		return NewValidationError("description", "must not be empty")
	}
	if !(d.Price > 0) || math.IsInf(d.Price, 1) {
		return NewValidationError("price", "must be greater than zero")
	}
	return nil
}

// ValidateCharges rejects negative tax or tip values.
func ValidateCharges(tax, tip float64) error {
	if tax < 0 || math.IsNaN(tax) {
		return NewValidationError("tax", "must not be negative")
	}
	if tip < 0 || math.IsNaN(tip) {
		return NewValidationError("tip", "must not be negative")
	}
	return nil
}
