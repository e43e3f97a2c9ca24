package pipeline

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var amountReplacer = strings.NewReplacer(
	"£", "",
	"$", "",
	"€", "",
	",", "",
	" ", "",
	" ", "",
)

// CleanAmount converts a raw monetary string to a decimal value. Currency
// symbols, thousands separators and surrounding whitespace are stripped,
// and accountant-style parentheses denote a negative amount.
func CleanAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = amountReplacer.Replace(s)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("cannot convert %q to number", raw)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("cannot convert %q to number", raw)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ValidateRow checks a single normalized record and either produces a
// transaction or a rejection explaining why the row cannot be used.
// Missing critical fields are reported before malformed values. Only date
// and amount are critical; a missing description stays an empty string.
func ValidateRow(rec NormalizedRecord, dayFirst bool) (Transaction, *Rejection) {
	date := strings.TrimSpace(rec.Date)
	desc := strings.TrimSpace(rec.Description)
	amount := strings.TrimSpace(rec.Amount)

	var missing []string
	if date == "" {
		missing = append(missing, "date")
	}
	if amount == "" {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return Transaction{}, &Rejection{
			Row:    rec.Row,
			Reason: ReasonMissingCritical,
			Detail: fmt.Sprintf("missing required field(s): %s", strings.Join(missing, ", ")),
		}
	}

	amt, err := CleanAmount(amount)
	if err != nil {
		return Transaction{}, &Rejection{
			Row:    rec.Row,
			Reason: ReasonInvalidAmount,
			Detail: err.Error(),
		}
	}

	when, err := ParseDate(date, dayFirst)
	if err != nil {
		return Transaction{}, &Rejection{
			Row:    rec.Row,
			Reason: ReasonInvalidDate,
			Detail: err.Error(),
		}
	}

	return Transaction{
		Row:         rec.Row,
		Date:        when,
		Description: desc,
		Amount:      amt,
		Category:    strings.TrimSpace(rec.Category),
	}, nil
}

// ValidateAll validates records in input order, partitioning them into
// transactions and rejections and attaching dataset-level warnings.
func ValidateAll(records []NormalizedRecord, dayFirst bool, minViableRows int) ([]Transaction, Report) {
	report := Report{TotalRows: len(records)}
	transactions := make([]Transaction, 0, len(records))

	for _, rec := range records {
		tx, rej := ValidateRow(rec, dayFirst)
		if rej != nil {
			report.Rejections = append(report.Rejections, *rej)
			continue
		}
		transactions = append(transactions, tx)
	}

	report.ValidRows = len(transactions)
	report.SkippedRows = len(report.Rejections)

	switch {
	case report.TotalRows > 0 && report.ValidRows == 0:
		report.Warnings = append(report.Warnings,
			"All rows were skipped. The file may not match any supported bank format.")
	case report.SkippedRows*2 > report.TotalRows:
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"More than half of the rows (%d/%d) were skipped. Check the file for formatting issues.",
			report.SkippedRows, report.TotalRows))
	}
	if report.ValidRows > 0 && report.ValidRows < minViableRows {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"Only %d valid transactions found. Insights may be unreliable with so little data.",
			report.ValidRows))
	}

	return transactions, report
}
