package calculator

import (
	"github.com/mmynk/billsplit/internal/models"
)

// LineShare is one itemized contribution to a person's total: a fraction of
// an item, or a tax or tip addend.
type LineShare struct {
	Description string
	Share       float64
}

// PersonSplit represents one person's calculated share of a bill.
type PersonSplit struct {
	PersonID    string
	PersonName  string
	PersonColor string

	// Subtotal is the sum of this person's item shares before tax and tip.
	Subtotal float64

	// TaxShare and TipShare are the addends handed out by the allocation policy.
	TaxShare float64
	TipShare float64

	// Total is Subtotal + TaxShare + TipShare.
	Total float64

	// Lines lists the item shares in item order, followed by the tax and tip
	// lines when they are non-zero.
	Lines []LineShare
}

// SplitInput is the snapshot one split calculation runs over.
type SplitInput struct {
	Items       []models.Item
	Assignments []models.ItemAssignment
	People      []models.Person
	Tax         float64
	Tip         float64
	Policy      Policy
}

// SplitSummary holds bill-level totals next to the per-person splits.
type SplitSummary struct {
	// GrandTotal is every item price plus tax and tip, assigned or not.
	GrandTotal float64

	// AssignedTotal is the sum of all person totals.
	AssignedTotal float64

	// UnassignedTotal is the price of items nobody was assigned to. It is part
	// of GrandTotal but of no person's split.
	UnassignedTotal float64
}

// CalculateSplit computes how much each person owes for one bill.
//
// Algorithm:
//   - each item with n valid assignments adds price/n to every assignee
//   - items nobody is assigned to are left out of every split
//   - when the summed subtotals are positive, tax and tip are handed out by
//     the policy and appended as synthetic lines
//   - people whose total is zero are dropped; the rest keep input order
//
// Assignments that reference an unknown item or person are ignored.
func CalculateSplit(in SplitInput) ([]PersonSplit, error) {
	if err := models.ValidateCharges(in.Tax, in.Tip); err != nil {
		return nil, err
	}
	if !in.Policy.Valid() {
		return nil, models.NewValidationError("policy", "unknown allocation policy "+string(in.Policy))
	}

	splits := make([]PersonSplit, len(in.People))
	for i, p := range in.People {
		splits[i] = PersonSplit{
			PersonID:    p.ID,
			PersonName:  p.Name,
			PersonColor: p.Color,
		}
	}

	shares := shareItems(in.Items, in.Assignments, in.People)
	for _, sh := range shares.lines {
		s := &splits[sh.person]
		s.Subtotal += sh.share
		s.Lines = append(s.Lines, LineShare{Description: sh.description, Share: sh.share})
	}

	subtotals := make([]float64, len(splits))
	var subtotalSum float64
	for i := range splits {
		subtotals[i] = splits[i].Subtotal
		subtotalSum += splits[i].Subtotal
	}

	for i := range splits {
		splits[i].Total = splits[i].Subtotal
	}

	if subtotalSum > 0 && (in.Tax > 0 || in.Tip > 0) {
		taxShares := in.Policy.Allocate(subtotals, in.Tax)
		tipShares := in.Policy.Allocate(subtotals, in.Tip)
		for i := range splits {
			s := &splits[i]
			if taxShares[i] > 0 {
				s.TaxShare = taxShares[i]
				s.Lines = append(s.Lines, LineShare{Description: in.Policy.taxLabel(), Share: taxShares[i]})
				s.Total += taxShares[i]
			}
			if tipShares[i] > 0 {
				s.TipShare = tipShares[i]
				s.Lines = append(s.Lines, LineShare{Description: in.Policy.tipLabel(), Share: tipShares[i]})
				s.Total += tipShares[i]
			}
		}
	}

	result := make([]PersonSplit, 0, len(splits))
	for _, s := range splits {
		if s.Total != 0 {
			result = append(result, s)
		}
	}
	return result, nil
}

// Summarize computes the bill-level totals for splits produced from in.
func Summarize(in SplitInput, splits []PersonSplit) SplitSummary {
	var summary SplitSummary
	for _, item := range in.Items {
		summary.GrandTotal += item.Price
	}
	summary.GrandTotal += in.Tax + in.Tip

	for _, s := range splits {
		summary.AssignedTotal += s.Total
	}

	shares := shareItems(in.Items, in.Assignments, in.People)
	for _, item := range in.Items {
		if !shares.assigned[item.ID] {
			summary.UnassignedTotal += item.Price
		}
	}
	return summary
}

// itemShare is one person's fraction of one item. person indexes the people
// slice the shares were computed from.
type itemShare struct {
	person      int
	description string
	share       float64
}

type sharedItems struct {
	lines    []itemShare
	assigned map[string]bool // item ID -> has at least one valid assignee
}

// shareItems divides every item equally among its valid assignees, in item
// order. It is shared by the single-bill and multi-bill calculations.
func shareItems(items []models.Item, assignments []models.ItemAssignment, people []models.Person) sharedItems {
	personIndex := make(map[string]int, len(people))
	for i, p := range people {
		if _, dup := personIndex[p.ID]; !dup {
			personIndex[p.ID] = i
		}
	}

	assignees := make(map[string][]int, len(items))
	seen := make(map[models.ItemAssignment]bool, len(assignments))
	for _, a := range assignments {
		if seen[a] {
			continue
		}
		seen[a] = true
		idx, ok := personIndex[a.PersonID]
		if !ok {
			continue
		}
		assignees[a.ItemID] = append(assignees[a.ItemID], idx)
	}

	out := sharedItems{assigned: make(map[string]bool, len(items))}
	for _, item := range items {
		persons := assignees[item.ID]
		if len(persons) == 0 {
			continue
		}
		out.assigned[item.ID] = true
		share := item.Price / float64(len(persons))
		for _, idx := range persons {
			out.lines = append(out.lines, itemShare{person: idx, description: item.Description, share: share})
		}
	}
	return out
}
