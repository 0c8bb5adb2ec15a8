package receipt

import (
	"math"
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line     string
		wantOK   bool
		wantDesc string
		want     float64
	}{
		{line: "Milk | $3.99", wantOK: true, wantDesc: "Milk", want: 3.99},
		{line: "  Bread   |  2.50  ", wantOK: true, wantDesc: "Bread", want: 2.5},
		{line: "Eggs|$4", wantOK: true, wantDesc: "Eggs", want: 4},
		{line: "Coffee beans | $12. extra", wantOK: true, wantDesc: "Coffee beans", want: 12},
		{line: "Chips | Salsa | $5.25", wantOK: true, wantDesc: "Chips | Salsa", want: 5.25},
		{line: "Subtotal | $0.00", wantOK: false},
		{line: "Milk 3.99", wantOK: false},
		{line: " | $3.00", wantOK: false},
		{line: "", wantOK: false},
		{line: "Lobster | $" + strings.Repeat("9", 400), wantOK: false},
	}

	for _, tt := range tests {
		name := tt.line
		if len(name) > 40 {
			name = name[:40]
		}
		t.Run(name, func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ParseLine(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Description != tt.wantDesc {
				t.Errorf("description = %q, want %q", got.Description, tt.wantDesc)
			}
			if math.Abs(got.Price-tt.want) > 1e-9 {
				t.Errorf("price = %v, want %v", got.Price, tt.want)
			}
		})
	}
}

func TestParseItems(t *testing.T) {
	text := "GROCERY MART\r\nMilk | $3.99\r\nBread | 2.50\n\nSubtotal | $0.00\nApples | $1.25\nThank you!"

	drafts := ParseItems(text)
	want := []string{"Milk", "Bread", "Apples"}
	if len(drafts) != len(want) {
		t.Fatalf("got %d drafts, want %d: %+v", len(drafts), len(want), drafts)
	}
	for i, d := range drafts {
		if d.Description != want[i] {
			t.Errorf("draft %d = %q, want %q", i, d.Description, want[i])
		}
		if err := d.Validate(); err != nil {
			t.Errorf("draft %d does not validate: %v", i, err)
		}
	}

	_, stats := ParseItemsWithStats(text)
	if stats.Lines != 6 || stats.Accepted != 3 {
		t.Errorf("stats = %+v, want 6 lines and 3 accepted", stats)
	}
}

func TestParseItems_Empty(t *testing.T) {
	if got := ParseItems(""); len(got) != 0 {
		t.Errorf("ParseItems(\"\") = %+v, want empty", got)
	}
}

func TestParseItems_OverlongAmountSkipped(t *testing.T) {
	text := "Milk | $3.99\nBread | $2.50\nSmudge | $" + strings.Repeat("9", 400)

	drafts := ParseItems(text)
	if len(drafts) != 2 {
		t.Fatalf("got %d drafts, want 2: %+v", len(drafts), drafts)
	}
	for i, d := range drafts {
		if err := d.Validate(); err != nil {
			t.Errorf("draft %d does not validate: %v", i, err)
		}
	}
}
