package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/billsplit/internal/calculator"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "$0.00"},
		{in: 3.5, want: "$3.50"},
		{in: 10.125, want: "$10.13"},
		{in: 1.0 / 3.0, want: "$0.33"},
		{in: 1234.567, want: "$1234.57"},
		{in: 1.005, want: "$1.01"},
		{in: 2.675, want: "$2.68"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(tt.in); got != tt.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteSplitCSV(t *testing.T) {
	splits := []calculator.PersonSplit{
		{
			PersonName: "Alice",
			Total:      17,
			Lines: []calculator.LineShare{
				{Description: "Pizza", Share: 10},
				{Description: "Soda, large", Share: 4},
				{Description: "Tax (split equally)", Share: 1},
				{Description: "Tip (split equally)", Share: 2},
			},
		},
		{
			PersonName: "Bob",
			Total:      10,
			Lines:      []calculator.LineShare{{Description: "Pizza", Share: 10}},
		},
	}

	var buf bytes.Buffer
	if err := WriteSplitCSV(&buf, splits); err != nil {
		t.Fatalf("WriteSplitCSV() error = %v", err)
	}

	want := strings.Join([]string{
		"Person,Total Owed,Item,Share",
		"Alice,$17.00,Pizza,$10.00",
		`,,"Soda, large",$4.00`,
		",,Tax (split equally),$1.00",
		",,Tip (split equally),$2.00",
		"Bob,$10.00,Pizza,$10.00",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("csv =\n%s\nwant\n%s", got, want)
	}
}

func TestFilename(t *testing.T) {
	ts := time.UnixMilli(1718000000123)
	if got := Filename(ts); got != "bill-split-1718000000123.csv" {
		t.Errorf("Filename() = %q", got)
	}
}
