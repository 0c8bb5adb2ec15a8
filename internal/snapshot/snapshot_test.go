package snapshot

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/mmynk/billsplit/internal/calculator"
	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/storage"
)

type fakeReader struct {
	bills       map[string]models.Bill
	items       []models.Item
	assignments []models.ItemAssignment
	people      []models.Person
	peopleErr   error
}

func (f *fakeReader) GetBill(_ context.Context, billID string) (*models.Bill, error) {
	b, ok := f.bills[billID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &b, nil
}

func (f *fakeReader) ListBills(_ context.Context, userID string, _ storage.BillFilter) ([]models.Bill, error) {
	var out []models.Bill
	for _, b := range f.bills {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeReader) ListItems(_ context.Context, billID string) ([]models.Item, error) {
	var out []models.Item
	for _, item := range f.items {
		if item.BillID == billID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeReader) ListItemsByBills(_ context.Context, billIDs []string) ([]models.Item, error) {
	want := make(map[string]bool)
	for _, id := range billIDs {
		want[id] = true
	}
	var out []models.Item
	for _, item := range f.items {
		if want[item.BillID] {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeReader) ListAssignments(_ context.Context, itemIDs []string) ([]models.ItemAssignment, error) {
	want := make(map[string]bool)
	for _, id := range itemIDs {
		want[id] = true
	}
	var out []models.ItemAssignment
	for _, a := range f.assignments {
		if want[a.ItemID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeReader) ListPeople(_ context.Context, userID string) ([]models.Person, error) {
	if f.peopleErr != nil {
		return nil, f.peopleErr
	}
	var out []models.Person
	for _, p := range f.people {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		bills: map[string]models.Bill{
			"b1": {ID: "b1", UserID: "u1", Tax: 2, Tip: 4},
			"b2": {ID: "b2", UserID: "u1", Tip: 1},
			"b3": {ID: "b3", UserID: "u2", Tax: 100},
		},
		items: []models.Item{
			{ID: "i1", BillID: "b1", Description: "Pizza", Price: 20},
			{ID: "i2", BillID: "b1", Description: "Soda", Price: 4},
			{ID: "i3", BillID: "b2", Description: "Coffee", Price: 3},
			{ID: "i4", BillID: "b3", Description: "Caviar", Price: 300},
		},
		assignments: []models.ItemAssignment{
			{ItemID: "i1", PersonID: "alice"},
			{ItemID: "i1", PersonID: "bob"},
			{ItemID: "i2", PersonID: "alice"},
			{ItemID: "i3", PersonID: "bob"},
			{ItemID: "i4", PersonID: "alice"},
		},
		people: []models.Person{
			{ID: "alice", UserID: "u1", Name: "Alice"},
			{ID: "bob", UserID: "u1", Name: "Bob"},
		},
	}
}

func TestLoadBill(t *testing.T) {
	ctx := context.Background()
	r := newFakeReader()

	snap, err := LoadBill(ctx, r, "u1", "b1")
	if err != nil {
		t.Fatalf("LoadBill failed: %v", err)
	}
	if len(snap.Items) != 2 || len(snap.Assignments) != 3 || len(snap.People) != 2 {
		t.Errorf("snapshot = %+v", snap)
	}

	splits, err := calculator.CalculateSplit(snap.SplitInput(calculator.PolicyEqual))
	if err != nil {
		t.Fatalf("CalculateSplit failed: %v", err)
	}
	if len(splits) != 2 || math.Abs(splits[0].Total-17) > 1e-9 {
		t.Errorf("splits = %+v", splits)
	}
}

func TestLoadBill_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("foreign bill is not found", func(t *testing.T) {
		_, err := LoadBill(ctx, newFakeReader(), "u1", "b3")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("failed read is returned", func(t *testing.T) {
		r := newFakeReader()
		boom := errors.New("connection reset")
		r.peopleErr = boom
		_, err := LoadBill(ctx, r, "u1", "b1")
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want %v", err, boom)
		}
	})
}

func TestLoadSelection(t *testing.T) {
	ctx := context.Background()
	snap, err := LoadSelection(ctx, newFakeReader(), "u1", []string{"b1", "b2", "b3", "b1"})
	if err != nil {
		t.Fatalf("LoadSelection failed: %v", err)
	}
	if len(snap.BillIDs) != 2 {
		t.Fatalf("BillIDs = %v, want b1 and b2 only", snap.BillIDs)
	}

	got := calculator.CalculatePersonSpending(snap.SpendingInput())
	// tax+tip = 7 over 2 people; Alice 10+4, Bob 10+3
	want := map[string]float64{"alice": 17.5, "bob": 16.5}
	for _, p := range got {
		if math.Abs(p.Total-want[p.PersonID]) > 1e-9 {
			t.Errorf("%s = %v, want %v", p.PersonID, p.Total, want[p.PersonID])
		}
	}
}

func TestLoadHistory(t *testing.T) {
	h, err := LoadHistory(context.Background(), newFakeReader(), "u1")
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	var sum float64
	for _, bt := range h.BillTotals() {
		sum += bt.Total
	}
	// b1: 24 + 6, b2: 3 + 1
	if math.Abs(sum-34) > 1e-9 {
		t.Errorf("sum = %v, want 34", sum)
	}
}
