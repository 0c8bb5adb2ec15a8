// Package snapshot gathers the stored data a calculation needs into one
// immutable value, issuing independent reads concurrently.
package snapshot

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/billsplit/internal/calculator"
	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/storage"
)

// Reader is the subset of storage.Store that snapshots read from.
type Reader interface {
	GetBill(ctx context.Context, billID string) (*models.Bill, error)
	ListBills(ctx context.Context, userID string, filter storage.BillFilter) ([]models.Bill, error)
	ListItems(ctx context.Context, billID string) ([]models.Item, error)
	ListItemsByBills(ctx context.Context, billIDs []string) ([]models.Item, error)
	ListAssignments(ctx context.Context, itemIDs []string) ([]models.ItemAssignment, error)
	ListPeople(ctx context.Context, userID string) ([]models.Person, error)
}

// Bill is everything needed to split one bill.
type Bill struct {
	Bill        models.Bill
	Items       []models.Item
	Assignments []models.ItemAssignment
	People      []models.Person
}

// SplitInput converts the snapshot into calculator input.
func (b *Bill) SplitInput(policy calculator.Policy) calculator.SplitInput {
	return calculator.SplitInput{
		Items:       b.Items,
		Assignments: b.Assignments,
		People:      b.People,
		Tax:         b.Bill.Tax,
		Tip:         b.Bill.Tip,
		Policy:      policy,
	}
}

// LoadBill reads a bill with its items, assignments and the owner's people.
// The bill, its items and the people are read in parallel; assignments follow
// once the item IDs are known.
func LoadBill(ctx context.Context, r Reader, userID, billID string) (*Bill, error) {
	var (
		snap Bill
		bill *models.Bill
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bill, err = r.GetBill(gctx, billID)
		if err != nil {
			return fmt.Errorf("failed to load bill: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		snap.Items, err = r.ListItems(gctx, billID)
		if err != nil {
			return fmt.Errorf("failed to load items: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		snap.People, err = r.ListPeople(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load people: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if bill.UserID != userID {
		return nil, fmt.Errorf("bill %s: %w", billID, storage.ErrNotFound)
	}
	snap.Bill = *bill

	assignments, err := r.ListAssignments(ctx, itemIDs(snap.Items))
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	snap.Assignments = assignments
	return &snap, nil
}

// Selection is everything needed to total spending over several bills.
type Selection struct {
	BillIDs     []string
	Bills       []models.Bill
	Items       []models.Item
	Assignments []models.ItemAssignment
	People      []models.Person
}

// SpendingInput converts the snapshot into calculator input.
func (s *Selection) SpendingInput() calculator.SpendingInput {
	return calculator.SpendingInput{
		BillIDs:     s.BillIDs,
		Bills:       s.Bills,
		Items:       s.Items,
		Assignments: s.Assignments,
		People:      s.People,
	}
}

// LoadSelection reads the user's bills restricted to billIDs, with their items,
// assignments and the user's people. IDs of bills the user does not own are
// dropped from the selection.
func LoadSelection(ctx context.Context, r Reader, userID string, billIDs []string) (*Selection, error) {
	var (
		snap  Selection
		bills []models.Bill
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bills, err = r.ListBills(gctx, userID, storage.BillFilter{})
		if err != nil {
			return fmt.Errorf("failed to load bills: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		snap.People, err = r.ListPeople(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load people: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	owned := make(map[string]models.Bill, len(bills))
	for _, b := range bills {
		owned[b.ID] = b
	}
	seen := make(map[string]bool, len(billIDs))
	for _, id := range billIDs {
		b, ok := owned[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		snap.BillIDs = append(snap.BillIDs, id)
		snap.Bills = append(snap.Bills, b)
	}
	if len(snap.BillIDs) == 0 {
		return &snap, nil
	}

	items, err := r.ListItemsByBills(ctx, snap.BillIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	snap.Items = items

	assignments, err := r.ListAssignments(ctx, itemIDs(items))
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	snap.Assignments = assignments
	return &snap, nil
}

// History is a user's bills with their items, for spending history.
type History struct {
	Bills       []models.Bill
	ItemsByBill map[string][]models.Item
}

// BillTotals reduces the history to calculator input.
func (h *History) BillTotals() []calculator.BillTotal {
	return calculator.BillTotals(h.Bills, h.ItemsByBill)
}

// LoadHistory reads every bill of the user with its items.
func LoadHistory(ctx context.Context, r Reader, userID string) (*History, error) {
	bills, err := r.ListBills(ctx, userID, storage.BillFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load bills: %w", err)
	}

	ids := make([]string, len(bills))
	for i, b := range bills {
		ids[i] = b.ID
	}
	items, err := r.ListItemsByBills(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	h := &History{Bills: bills, ItemsByBill: make(map[string][]models.Item, len(bills))}
	for _, item := range items {
		h.ItemsByBill[item.BillID] = append(h.ItemsByBill[item.BillID], item)
	}
	return h, nil
}

func itemIDs(items []models.Item) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}
