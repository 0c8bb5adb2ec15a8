package calculator

import (
	"math"
	"sort"
	"time"

	"github.com/mmynk/billsplit/internal/models"
)

// DefaultReminderAge is how old a bill must be before it is listed as unsettled.
const DefaultReminderAge = 3 * day

// Reminder flags a bill that has been open for a while.
type Reminder struct {
	Bill    models.Bill
	DaysOld int
}

// UnsettledBills returns the bills created strictly before now-minAge,
// newest first.
func UnsettledBills(bills []models.Bill, now time.Time, minAge time.Duration) []Reminder {
	cutoff := now.Add(-minAge)

	reminders := make([]Reminder, 0)
	for _, b := range bills {
		if !b.CreatedAt.Before(cutoff) {
			continue
		}
		age := now.Sub(b.CreatedAt)
		if age < 0 {
			age = -age
		}
		reminders = append(reminders, Reminder{
			Bill:    b,
			DaysOld: int(math.Ceil(float64(age) / float64(day))),
		})
	}

	sort.SliceStable(reminders, func(i, j int) bool {
		return reminders[i].Bill.CreatedAt.After(reminders[j].Bill.CreatedAt)
	})
	return reminders
}
