package service

import (
	"github.com/mmynk/billsplit/internal/calculator"
	"github.com/mmynk/billsplit/internal/models"
)

func toUser(u *models.User) *User {
	return &User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toBill(b *models.Bill) *Bill {
	return &Bill{
		ID:         b.ID,
		Title:      b.Title,
		Tax:        b.Tax,
		Tip:        b.Tip,
		ReceiptURL: b.ReceiptURL,
		CreatedAt:  b.CreatedAt,
	}
}

func toBills(bills []models.Bill) []*Bill {
	out := make([]*Bill, len(bills))
	for i := range bills {
		out[i] = toBill(&bills[i])
	}
	return out
}

// toItems converts items and attaches the IDs of the people assigned to each.
func toItems(items []models.Item, assignments []models.ItemAssignment) []*Item {
	assigned := make(map[string][]string, len(items))
	for _, a := range assignments {
		assigned[a.ItemID] = append(assigned[a.ItemID], a.PersonID)
	}

	out := make([]*Item, len(items))
	for i, item := range items {
		people := assigned[item.ID]
		if people == nil {
			people = []string{}
		}
		out[i] = &Item{
			ID:          item.ID,
			BillID:      item.BillID,
			Description: item.Description,
			Price:       item.Price,
			AssignedTo:  people,
		}
	}
	return out
}

func toPerson(p *models.Person) *Person {
	return &Person{
		ID:        p.ID,
		Name:      p.Name,
		Color:     p.Color,
		CreatedAt: p.CreatedAt,
	}
}

func toPeople(people []models.Person) []*Person {
	out := make([]*Person, len(people))
	for i := range people {
		out[i] = toPerson(&people[i])
	}
	return out
}

func toSplitResult(policy calculator.Policy, splits []calculator.PersonSplit, summary calculator.SplitSummary) *SplitResult {
	res := &SplitResult{
		Policy:          string(policy),
		Splits:          make([]*PersonSplit, len(splits)),
		GrandTotal:      summary.GrandTotal,
		AssignedTotal:   summary.AssignedTotal,
		UnassignedTotal: summary.UnassignedTotal,
	}
	for i, s := range splits {
		lines := make([]*LineShare, len(s.Lines))
		for j, l := range s.Lines {
			lines[j] = &LineShare{Description: l.Description, Share: l.Share}
		}
		res.Splits[i] = &PersonSplit{
			PersonID:    s.PersonID,
			PersonName:  s.PersonName,
			PersonColor: s.PersonColor,
			Subtotal:    s.Subtotal,
			TaxShare:    s.TaxShare,
			TipShare:    s.TipShare,
			Total:       s.Total,
			Lines:       lines,
		}
	}
	return res
}

func toDrafts(drafts []models.ItemDraft) []*ItemDraft {
	out := make([]*ItemDraft, len(drafts))
	for i, d := range drafts {
		out[i] = &ItemDraft{Description: d.Description, Price: d.Price}
	}
	return out
}
