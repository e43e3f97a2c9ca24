package pipeline

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func tx(description, amount, category string) Transaction {
	return Transaction{
		Description: description,
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
	}
}

func TestCategorizePriority(t *testing.T) {
	c := NewCategorizer(nil)

	tests := []struct {
		name string
		tx   Transaction
		want string
	}{
		{"existing label wins over keywords", tx("Tesco Superstore", "-10.00", "Holiday"), "Holiday"},
		{"income keyword wins over category rules", tx("Tesco salary payment", "2500.00", ""), CategoryIncome},
		{"income keyword needs a positive amount", tx("Refund for broken kettle", "-25.00", ""), CategoryUncategorized},
		{"negative income keyword falls to spending rules", tx("Tesco refund reversal", "-10.00", ""), "Groceries"},
		{"groceries", tx("TESCO STORES 3211", "-45.30", ""), "Groceries"},
		{"subscriptions", tx("Netflix.com", "-9.99", ""), "Subscriptions"},
		{"eating out", tx("Pret A Manger", "-4.50", ""), "Eating Out"},
		{"transport", tx("TfL Travel", "-2.80", ""), "Transport"},
		{"shopping", tx("AMAZON MKTPLACE", "-23.00", ""), "Shopping"},
		{"bills", tx("British Gas Energy", "-80.00", ""), "Bills"},
		{"earlier rule wins on overlap", tx("Tesco petrol station", "-50.00", ""), "Groceries"},
		{"positive unmatched is income", tx("Transfer from savings", "250.00", ""), CategoryIncome},
		{"negative unmatched is uncategorized", tx("XYZ Ltd", "-12.00", ""), CategoryUncategorized},
		{"zero unmatched is uncategorized", tx("XYZ Ltd", "0", ""), CategoryUncategorized},
		{"case insensitive match", tx("sAiNsBuRy LOCAL", "-5.00", ""), "Groceries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Categorize(tt.tx))
		})
	}
}

func TestCategorizeDeterministic(t *testing.T) {
	c := NewCategorizer(nil)
	sample := tx("Uber Eats order", "-18.00", "")
	first := c.Categorize(sample)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, c.Categorize(sample))
	}
}

func TestApplyLeavesInputUntouched(t *testing.T) {
	c := NewCategorizer(nil)
	in := []Transaction{tx("Tesco", "-10.00", ""), tx("Salary May", "2000.00", "")}

	out := c.Apply(in)

	assert.Equal(t, "", in[0].Category)
	assert.Equal(t, "Groceries", out[0].Category)
	assert.Equal(t, CategoryIncome, out[1].Category)
	assert.Len(t, out, len(in))
}

func TestCustomRules(t *testing.T) {
	c := NewCategorizer([]CategoryRule{
		{Category: "Pets", Keywords: []string{"vet", "petshop"}},
	})

	assert.Equal(t, "Pets", c.Categorize(tx("City Vet Clinic", "-60.00", "")))
	assert.Equal(t, CategoryUncategorized, c.Categorize(tx("Tesco", "-10.00", "")))
}
