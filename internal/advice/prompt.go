package advice

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Narayana221/FinanceApp/internal/pipeline"
)

const topCategoryCount = 5

// CategoryShare is one spending category with its share of total expenses.
type CategoryShare struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Payload is the compact financial snapshot sent to the coaching model.
// It carries aggregates only, never individual transactions.
type Payload struct {
	TotalIncome     decimal.Decimal `json:"total_income"`
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
	NetSavings      decimal.Decimal `json:"net_savings"`
	SavingsRate     decimal.Decimal `json:"savings_rate"`
	SavingsGoal     decimal.Decimal `json:"savings_goal"`
	GoalGap         decimal.Decimal `json:"goal_gap"`
	TopCategories   []CategoryShare `json:"top_categories"`
	TotalCategories int             `json:"total_categories"`
}

// BuildPayload reduces an analysis to the snapshot the coach reasons over.
// Category shares are percentages of total expenses, top five only.
func BuildPayload(summary pipeline.Summary, categories []pipeline.CategorySpend, savingsGoal decimal.Decimal) Payload {
	p := Payload{
		TotalIncome:     summary.TotalIncome,
		TotalExpenses:   summary.TotalExpenses,
		NetSavings:      summary.NetSavings,
		SavingsRate:     summary.SavingsRate,
		SavingsGoal:     savingsGoal,
		GoalGap:         summary.NetSavings.Sub(savingsGoal).Round(2),
		TotalCategories: len(categories),
	}

	hundred := decimal.NewFromInt(100)
	for i, cs := range categories {
		if i >= topCategoryCount {
			break
		}
		share := decimal.Zero
		if !summary.TotalExpenses.IsZero() {
			share = cs.Amount.Div(summary.TotalExpenses).Mul(hundred).Round(2)
		}
		p.TopCategories = append(p.TopCategories, CategoryShare{
			Category:   cs.Category,
			Amount:     cs.Amount,
			Percentage: share,
		})
	}
	return p
}

// BuildPrompt renders the payload into the coaching prompt.
func BuildPrompt(p Payload) string {
	var b strings.Builder

	b.WriteString("You are a friendly personal finance coach. ")
	b.WriteString("Based on the monthly snapshot below, give 3 short, specific, actionable tips ")
	b.WriteString("to improve this person's cashflow. Be encouraging, not judgmental. ")
	b.WriteString("Use plain language and concrete amounts where helpful.\n\n")

	b.WriteString("Snapshot:\n")
	fmt.Fprintf(&b, "- Total income: £%s\n", p.TotalIncome.StringFixed(2))
	fmt.Fprintf(&b, "- Total expenses: £%s\n", p.TotalExpenses.StringFixed(2))
	fmt.Fprintf(&b, "- Net savings: £%s\n", p.NetSavings.StringFixed(2))
	fmt.Fprintf(&b, "- Savings rate: %s%%\n", p.SavingsRate.StringFixed(2))
	if !p.SavingsGoal.IsZero() {
		fmt.Fprintf(&b, "- Savings goal: £%s (gap: £%s)\n",
			p.SavingsGoal.StringFixed(2), p.GoalGap.StringFixed(2))
	}

	if len(p.TopCategories) > 0 {
		fmt.Fprintf(&b, "\nTop spending categories (of %d total):\n", p.TotalCategories)
		for _, cs := range p.TopCategories {
			fmt.Fprintf(&b, "- %s: £%s (%s%% of expenses)\n",
				cs.Category, cs.Amount.StringFixed(2), cs.Percentage.StringFixed(2))
		}
	}

	b.WriteString("\nRespond with plain text, no Markdown headings.")
	return b.String()
}
