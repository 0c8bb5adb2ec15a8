package calculator

import (
	"sort"

	"github.com/mmynk/billsplit/internal/models"
)

// PersonSpending is one person's total across a selection of bills.
type PersonSpending struct {
	PersonID    string
	PersonName  string
	PersonColor string
	Total       float64
}

// SpendingInput is the snapshot a multi-bill aggregation runs over.
// Items and Bills may contain entries outside BillIDs; they are ignored.
type SpendingInput struct {
	BillIDs     []string
	Bills       []models.Bill
	Items       []models.Item
	Assignments []models.ItemAssignment
	People      []models.Person
}

// CalculatePersonSpending totals what each person owes across the selected
// bills.
//
// Items are shared among their assignees exactly as in CalculateSplit. Tax and
// tip are handled differently: the summed tax and tip of every selected bill is
// divided equally among all people, whether or not they claimed anything.
// The result is sorted by total, highest first.
func CalculatePersonSpending(in SpendingInput) []PersonSpending {
	if len(in.BillIDs) == 0 || len(in.People) == 0 {
		return []PersonSpending{}
	}

	selected := make(map[string]bool, len(in.BillIDs))
	for _, id := range in.BillIDs {
		selected[id] = true
	}

	items := make([]models.Item, 0, len(in.Items))
	for _, item := range in.Items {
		if selected[item.BillID] {
			items = append(items, item)
		}
	}

	var taxTip float64
	counted := make(map[string]bool, len(in.Bills))
	for _, b := range in.Bills {
		if selected[b.ID] && !counted[b.ID] {
			counted[b.ID] = true
			taxTip += b.Tax + b.Tip
		}
	}
	perPerson := taxTip / float64(len(in.People))

	result := make([]PersonSpending, len(in.People))
	for i, p := range in.People {
		result[i] = PersonSpending{
			PersonID:    p.ID,
			PersonName:  p.Name,
			PersonColor: p.Color,
			Total:       perPerson,
		}
	}

	for _, sh := range shareItems(items, in.Assignments, in.People).lines {
		result[sh.person].Total += sh.share
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Total > result[j].Total
	})
	return result
}
