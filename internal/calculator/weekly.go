package calculator

import (
	"math"
	"sort"
	"time"

	"github.com/mmynk/billsplit/internal/models"
)

const day = 24 * time.Hour

// BillTotal is a bill reduced to the two values weekly aggregation needs.
type BillTotal struct {
	Date  time.Time
	Total float64
}

// WeeklySpending is the total owed across all bills falling into one week.
// Weeks are anchored to the user's signup date, so week 1 starts on signup.
type WeeklySpending struct {
	WeekNumber int
	WeekStart  time.Time
	WeekEnd    time.Time
	Total      float64
}

// SpendingHistory is the weekly breakdown plus the figures shown above it.
type SpendingHistory struct {
	Weeks         []WeeklySpending
	TotalSpending float64
	Since         time.Time
}

// BillTotals reduces bills to (date, owed total) pairs, where the owed total
// is every item price on the bill plus its tax and tip.
// itemsByBill maps a bill ID to that bill's items.
func BillTotals(bills []models.Bill, itemsByBill map[string][]models.Item) []BillTotal {
	totals := make([]BillTotal, 0, len(bills))
	for _, b := range bills {
		var sum float64
		for _, item := range itemsByBill[b.ID] {
			sum += item.Price
		}
		totals = append(totals, BillTotal{Date: b.CreatedAt, Total: sum + b.Tax + b.Tip})
	}
	return totals
}

// WeekIndex returns the 1-based week number of d relative to signup.
// The distance is rounded up to whole days before dividing by seven, so a bill
// a few hours short of a week boundary already counts toward the next week.
func WeekIndex(signup, d time.Time) int {
	diff := d.Sub(signup)
	if diff < 0 {
		diff = -diff
	}
	days := int(math.Ceil(float64(diff) / float64(day)))
	return days/7 + 1
}

// WeekBounds returns the first and last day of week n.
func WeekBounds(signup time.Time, n int) (start, end time.Time) {
	start = signup.AddDate(0, 0, 7*(n-1))
	end = start.AddDate(0, 0, 6)
	return start, end
}

// AggregateWeekly buckets bill totals into signup-anchored weeks.
// Only weeks containing at least one bill are returned, in ascending order.
func AggregateWeekly(signup time.Time, bills []BillTotal) []WeeklySpending {
	byWeek := make(map[int]float64)
	for _, b := range bills {
		byWeek[WeekIndex(signup, b.Date)] += b.Total
	}

	weeks := make([]WeeklySpending, 0, len(byWeek))
	for n, total := range byWeek {
		start, end := WeekBounds(signup, n)
		weeks = append(weeks, WeeklySpending{
			WeekNumber: n,
			WeekStart:  start,
			WeekEnd:    end,
			Total:      total,
		})
	}
	sort.Slice(weeks, func(i, j int) bool {
		return weeks[i].WeekNumber < weeks[j].WeekNumber
	})
	return weeks
}

// SummarizeSpending builds the full spending history for one user.
func SummarizeSpending(signup time.Time, bills []BillTotal) SpendingHistory {
	history := SpendingHistory{
		Weeks: AggregateWeekly(signup, bills),
		Since: signup,
	}
	for _, b := range bills {
		history.TotalSpending += b.Total
	}
	return history
}
