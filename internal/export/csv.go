// Package export renders cleaned transactions back to canonical CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Narayana221/FinanceApp/internal/pipeline"
)

// Header is the canonical column order of exported CSV files.
var Header = []string{"Date", "Description", "Amount", "Category"}

// WriteCSV writes transactions with ISO dates and two-decimal amounts.
func WriteCSV(w io.Writer, txs []pipeline.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("WriteCSV: writing header: %w", err)
	}
	for _, tx := range txs {
		record := []string{
			tx.Date.Format("2006-01-02"),
			tx.Description,
			tx.Amount.StringFixed(2),
			tx.Category,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("WriteCSV: writing row %d: %w", tx.Row, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("WriteCSV: flushing: %w", err)
	}
	return nil
}
