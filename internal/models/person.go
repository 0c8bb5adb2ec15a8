package models

import "time"

// PersonColors is the palette handed out to new people in order.
var PersonColors = []string{
	"#3B82F6", "#10B981", "#F59E0B", "#EF4444",
	"#8B5CF6", "#EC4899", "#14B8A6", "#F97316",
}

// Person is a participant that items can be assigned to.
// People are scoped to the user that created them and reused across bills.
type Person struct {
	ID     string
	UserID string
	Name   string

	// Color is a display tag only. It has no effect on calculations.
	Color string

	CreatedAt time.Time
}

// NextPersonColor picks the palette entry for a user who already has
// existing people.
func NextPersonColor(existing int) string {
	if existing < 0 {
		existing = 0
	}
	return PersonColors[existing%len(PersonColors)]
}
