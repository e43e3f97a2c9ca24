package pipeline

import (
	"time"

	"github.com/shopspring/decimal"
)

// NormalizedRecord is one transaction row after column mapping, before
// validation. Field values are raw strings exactly as uploaded; Row is the
// original 1-based data row number used in user-facing diagnostics.
type NormalizedRecord struct {
	Row         int
	Date        string
	Description string
	Amount      string
	Category    string
}

// Transaction is a validated, categorized transaction. Amount is signed:
// money in is positive, money out is negative.
type Transaction struct {
	Row         int             `json:"row"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
}

// ReasonCode identifies why a row was rejected during validation.
type ReasonCode string

const (
	ReasonMissingCritical ReasonCode = "MISSING_CRITICAL"
	ReasonInvalidAmount   ReasonCode = "INVALID_AMOUNT"
	ReasonInvalidDate     ReasonCode = "INVALID_DATE"
)

// Rejection records one dropped row: its original row number, a
// machine-readable reason and a human-readable detail.
type Rejection struct {
	Row    int        `json:"row"`
	Reason ReasonCode `json:"reason"`
	Detail string     `json:"detail"`
}

// Report is the per-upload validation summary. TotalRows is always
// ValidRows + SkippedRows.
type Report struct {
	TotalRows   int         `json:"total_rows"`
	ValidRows   int         `json:"valid_rows"`
	SkippedRows int         `json:"skipped_rows"`
	Rejections  []Rejection `json:"rejections"`
	Warnings    []string    `json:"warnings"`
}

// Summary holds the headline financial metrics, each rounded to two
// decimal places. SavingsRate is a percentage and is zero by convention
// when there is no income.
type Summary struct {
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetSavings    decimal.Decimal `json:"net_savings"`
	SavingsRate   decimal.Decimal `json:"savings_rate"`
}

// CategorySpend is one entry of the expenses-by-category rollup. Amount is
// the positive spend magnitude.
type CategorySpend struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// MonthlySummary is the Summary of a single calendar month. Month is a
// YYYY-MM label.
type MonthlySummary struct {
	Month string `json:"month"`
	Summary
}

// Outlier flags a transaction whose absolute amount exceeded the review
// threshold.
type Outlier struct {
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Reason      string          `json:"reason"`
}
