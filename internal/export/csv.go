// Package export renders computed splits for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billsplit/internal/calculator"
)

var csvHeader = []string{"Person", "Total Owed", "Item", "Share"}

// FormatCurrency renders v as dollars with exactly two fraction digits.
// Rounding is half away from zero on the shortest decimal form of v, so 1.005
// renders as $1.01 even though its binary value is slightly below 1.005.
func FormatCurrency(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

// Filename is the download name for a split exported at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("bill-split-%d.csv", t.UnixMilli())
}

// WriteSplitCSV writes one row per line share. The first row of each person
// carries their name and total; following rows leave those cells empty.
func WriteSplitCSV(w io.Writer, splits []calculator.PersonSplit) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, s := range splits {
		if len(s.Lines) == 0 {
			if err := cw.Write([]string{s.PersonName, FormatCurrency(s.Total), "", ""}); err != nil {
				return fmt.Errorf("failed to write row for %s: %w", s.PersonName, err)
			}
			continue
		}
		for i, line := range s.Lines {
			row := []string{"", "", line.Description, FormatCurrency(line.Share)}
			if i == 0 {
				row[0] = s.PersonName
				row[1] = FormatCurrency(s.Total)
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write row for %s: %w", s.PersonName, err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
