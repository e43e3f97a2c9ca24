package pipeline

import "strings"

const (
	CategoryIncome        = "Income"
	CategoryUncategorized = "Uncategorized"
)

// CategoryRule maps a spending category to the description keywords that
// assign it. Rules are evaluated in slice order and the first category with
// a matching keyword wins.
type CategoryRule struct {
	Category string
	Keywords []string
}

// DefaultRules returns the built-in keyword rules, ordered by priority.
func DefaultRules() []CategoryRule {
	return []CategoryRule{
		{Category: "Groceries", Keywords: []string{
			"tesco", "sainsbury", "asda", "aldi", "lidl", "waitrose", "morrisons",
			"co-op", "coop", "grocery", "supermarket",
		}},
		{Category: "Subscriptions", Keywords: []string{
			"netflix", "spotify", "disney", "prime", "youtube", "apple.com",
			"subscription", "membership", "patreon",
		}},
		{Category: "Eating Out", Keywords: []string{
			"restaurant", "cafe", "coffee", "costa", "starbucks", "pret",
			"mcdonald", "kfc", "nando", "deliveroo", "uber eats", "just eat",
			"greggs", "pizza",
		}},
		{Category: "Transport", Keywords: []string{
			"uber", "tfl", "trainline", "rail", "bus", "petrol", "shell", "bp",
			"esso", "fuel", "parking", "taxi",
		}},
		{Category: "Shopping", Keywords: []string{
			"amazon", "ebay", "argos", "john lewis", "next", "zara", "h&m",
			"primark", "asos", "ikea",
		}},
		{Category: "Bills", Keywords: []string{
			"electric", "gas", "water", "council tax", "broadband", "internet",
			"vodafone", "o2", "ee", "three", "insurance", "rent", "mortgage",
			"energy",
		}},
	}
}

// IncomeKeywords returns description keywords that mark an inflow as income.
func IncomeKeywords() []string {
	return []string{"salary", "payroll", "wages", "interest", "dividend", "refund", "payment received"}
}

// categoryStep is one link of the priority chain: it returns the category
// and true when it claims the transaction, or false to pass it on.
type categoryStep func(tx Transaction) (string, bool)

// Categorizer assigns a category to each transaction by evaluating an
// ordered chain of steps; the first step that claims the transaction wins.
type Categorizer struct {
	chain []categoryStep
}

// NewCategorizer builds a categorizer from the given rules. Nil rules fall
// back to DefaultRules.
func NewCategorizer(rules []CategoryRule) *Categorizer {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Categorizer{
		chain: []categoryStep{
			existingLabelStep,
			incomeKeywordStep(IncomeKeywords()),
			ruleStep(rules),
			positiveIsIncomeStep,
		},
	}
}

func existingLabelStep(tx Transaction) (string, bool) {
	existing := strings.TrimSpace(tx.Category)
	return existing, existing != ""
}

// incomeKeywordStep claims inflows whose description names an income
// source. The amount must be positive: a negative "refund" is money out
// and falls through to the spending rules.
func incomeKeywordStep(keywords []string) categoryStep {
	return func(tx Transaction) (string, bool) {
		if !tx.Amount.IsPositive() {
			return "", false
		}
		desc := strings.ToLower(tx.Description)
		for _, kw := range keywords {
			if strings.Contains(desc, kw) {
				return CategoryIncome, true
			}
		}
		return "", false
	}
}

func ruleStep(rules []CategoryRule) categoryStep {
	return func(tx Transaction) (string, bool) {
		desc := strings.ToLower(tx.Description)
		for _, rule := range rules {
			for _, kw := range rule.Keywords {
				if strings.Contains(desc, kw) {
					return rule.Category, true
				}
			}
		}
		return "", false
	}
}

func positiveIsIncomeStep(tx Transaction) (string, bool) {
	return CategoryIncome, tx.Amount.IsPositive()
}

// Categorize resolves a single transaction's category.
func (c *Categorizer) Categorize(tx Transaction) string {
	for _, step := range c.chain {
		if category, ok := step(tx); ok {
			return category
		}
	}
	return CategoryUncategorized
}

// Apply categorizes every transaction, returning a new slice and leaving
// the input untouched.
func (c *Categorizer) Apply(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	for i, tx := range txs {
		tx.Category = c.Categorize(tx)
		out[i] = tx
	}
	return out
}
