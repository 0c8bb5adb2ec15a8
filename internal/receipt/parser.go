// Package receipt turns extracted receipt text into item drafts.
package receipt

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billsplit/internal/models"
)

// linePattern matches "<description> | $<amount>", with the dollar sign optional.
// Anything after the amount is ignored.
var linePattern = regexp.MustCompile(`^(.+?)\s*\|\s*\$?(\d+\.?\d*)`)

// ParseLine extracts one item draft from a single line of receipt text.
// ok is false when the line does not describe a billable item.
func ParseLine(line string) (draft models.ItemDraft, ok bool) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return models.ItemDraft{}, false
	}

	desc := strings.TrimSpace(m[1])
	if desc == "" {
		return models.ItemDraft{}, false
	}

	amount, err := decimal.NewFromString(strings.TrimSuffix(m[2], "."))
	if err != nil {
		return models.ItemDraft{}, false
	}
	// Digit runs too long for a float64 come back as +Inf.
	price := amount.InexactFloat64()
	if math.IsInf(price, 0) || math.IsNaN(price) || price <= 0 {
		return models.ItemDraft{}, false
	}

	return models.ItemDraft{Description: desc, Price: price}, true
}

// ParseItems parses every line of text and returns the accepted drafts in
// line order. Lines that don't match, such as headers, totals of zero or
// blank lines, are skipped.
func ParseItems(text string) []models.ItemDraft {
	drafts := make([]models.ItemDraft, 0)
	for _, line := range strings.Split(text, "\n") {
		if draft, ok := ParseLine(strings.TrimRight(line, "\r")); ok {
			drafts = append(drafts, draft)
		}
	}
	return drafts
}

// Stats reports how many lines were considered and how many became drafts.
type Stats struct {
	Lines    int
	Accepted int
}

// ParseItemsWithStats is ParseItems plus line counts, skipping blank lines in
// the count.
func ParseItemsWithStats(text string) ([]models.ItemDraft, Stats) {
	var stats Stats
	drafts := make([]models.ItemDraft, 0)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		stats.Lines++
		if draft, ok := ParseLine(line); ok {
			drafts = append(drafts, draft)
		}
	}
	stats.Accepted = len(drafts)
	return drafts, stats
}
