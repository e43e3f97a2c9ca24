package pipeline

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Summarize computes overall income, expense and savings figures from a set
// of categorized transactions. Income is the absolute sum of transactions
// labelled Income; expenses is the absolute sum of all other negative
// amounts. All figures are rounded to two decimal places.
func Summarize(txs []Transaction) Summary {
	income := decimal.Zero
	expenses := decimal.Zero

	for _, tx := range txs {
		if tx.Category == CategoryIncome {
			income = income.Add(tx.Amount)
		} else if tx.Amount.IsNegative() {
			expenses = expenses.Add(tx.Amount)
		}
	}

	income = income.Abs().Round(2)
	expenses = expenses.Abs().Round(2)
	net := income.Sub(expenses).Round(2)

	rate := decimal.Zero
	if !income.IsZero() {
		rate = net.Div(income).Mul(hundred).Round(2)
	}

	return Summary{
		TotalIncome:   income,
		TotalExpenses: expenses,
		NetSavings:    net,
		SavingsRate:   rate,
	}
}

// SummarizeCategories totals spending per category across expense
// transactions, sorted by amount descending. Income transactions are
// excluded; amounts are reported as positive magnitudes.
func SummarizeCategories(txs []Transaction) []CategorySpend {
	totals := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Category == CategoryIncome || !tx.Amount.IsNegative() {
			continue
		}
		totals[tx.Category] = totals[tx.Category].Add(tx.Amount.Abs())
	}

	out := make([]CategorySpend, 0, len(totals))
	for cat, amt := range totals {
		out = append(out, CategorySpend{Category: cat, Amount: amt.Round(2)})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MonthlyTrends buckets transactions by calendar month in ascending order,
// computing the same summary figures per bucket.
func MonthlyTrends(txs []Transaction) []MonthlySummary {
	buckets := make(map[string][]Transaction)
	for _, tx := range txs {
		key := tx.Date.Format("2006-01")
		buckets[key] = append(buckets[key], tx)
	}

	months := make([]string, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Strings(months)

	out := make([]MonthlySummary, 0, len(months))
	for _, m := range months {
		out = append(out, MonthlySummary{Month: m, Summary: Summarize(buckets[m])})
	}
	return out
}

// FlagOutliers reports transactions whose absolute amount strictly exceeds
// the threshold. A transaction equal to the threshold is not an outlier.
func FlagOutliers(txs []Transaction, threshold decimal.Decimal) []Outlier {
	var out []Outlier
	for _, tx := range txs {
		if tx.Amount.Abs().GreaterThan(threshold) {
			out = append(out, Outlier{
				Date:        tx.Date,
				Description: tx.Description,
				Amount:      tx.Amount,
				Category:    tx.Category,
				Reason:      fmt.Sprintf("Extreme value: £%s exceeds threshold", tx.Amount.Abs().StringFixed(2)),
			})
		}
	}
	return out
}
