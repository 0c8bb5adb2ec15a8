package calculator

import "github.com/mmynk/billsplit/internal/models"

// TipPresets are the percentages offered as quick tip choices.
var TipPresets = []float64{15, 18, 20}

// TipSuggestion is a preset percentage and the tip it produces.
type TipSuggestion struct {
	Percent float64
	Amount  float64
}

// SuggestTip returns percent of the items subtotal.
func SuggestTip(itemsSubtotal, percent float64) float64 {
	return itemsSubtotal * percent / 100
}

// SuggestTips computes a suggestion for each preset from the bill's items.
func SuggestTips(items []models.Item) []TipSuggestion {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Price
	}

	suggestions := make([]TipSuggestion, len(TipPresets))
	for i, pct := range TipPresets {
		suggestions[i] = TipSuggestion{Percent: pct, Amount: SuggestTip(subtotal, pct)}
	}
	return suggestions
}
