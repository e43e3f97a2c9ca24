package advice

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Narayana221/FinanceApp/internal/pipeline"
)

func sampleSummary() pipeline.Summary {
	return pipeline.Summary{
		TotalIncome:   decimal.RequireFromString("2500.00"),
		TotalExpenses: decimal.RequireFromString("2000.00"),
		NetSavings:    decimal.RequireFromString("500.00"),
		SavingsRate:   decimal.RequireFromString("20.00"),
	}
}

func sampleCategories() []pipeline.CategorySpend {
	spend := func(cat, amt string) pipeline.CategorySpend {
		return pipeline.CategorySpend{Category: cat, Amount: decimal.RequireFromString(amt)}
	}
	return []pipeline.CategorySpend{
		spend("Bills", "900.00"),
		spend("Groceries", "500.00"),
		spend("Eating Out", "250.00"),
		spend("Transport", "150.00"),
		spend("Shopping", "120.00"),
		spend("Subscriptions", "50.00"),
		spend("Uncategorized", "30.00"),
	}
}

func TestBuildPayload(t *testing.T) {
	p := BuildPayload(sampleSummary(), sampleCategories(), decimal.RequireFromString("600.00"))

	assert.Equal(t, "2500.00", p.TotalIncome.StringFixed(2))
	assert.Equal(t, "-100.00", p.GoalGap.StringFixed(2))
	assert.Equal(t, 7, p.TotalCategories)

	// Top five only, in spend order, with shares of total expenses.
	require.Len(t, p.TopCategories, 5)
	assert.Equal(t, "Bills", p.TopCategories[0].Category)
	assert.Equal(t, "45.00", p.TopCategories[0].Percentage.StringFixed(2))
	assert.Equal(t, "Shopping", p.TopCategories[4].Category)
}

func TestBuildPayloadZeroExpenses(t *testing.T) {
	summary := pipeline.Summary{TotalIncome: decimal.RequireFromString("100.00")}
	cats := []pipeline.CategorySpend{{Category: "Bills", Amount: decimal.Zero}}

	p := BuildPayload(summary, cats, decimal.Zero)
	require.Len(t, p.TopCategories, 1)
	assert.True(t, p.TopCategories[0].Percentage.IsZero())
}

func TestBuildPromptContainsSnapshot(t *testing.T) {
	p := BuildPayload(sampleSummary(), sampleCategories(), decimal.RequireFromString("600.00"))
	prompt := BuildPrompt(p)

	assert.Contains(t, prompt, "£2500.00")
	assert.Contains(t, prompt, "£2000.00")
	assert.Contains(t, prompt, "20.00%")
	assert.Contains(t, prompt, "Savings goal: £600.00")
	assert.Contains(t, prompt, "Bills: £900.00 (45.00% of expenses)")
	assert.NotContains(t, prompt, "Uncategorized", "categories beyond the top five stay out of the prompt")
}

func TestBuildPromptOmitsZeroGoal(t *testing.T) {
	p := BuildPayload(sampleSummary(), nil, decimal.Zero)
	prompt := BuildPrompt(p)
	assert.NotContains(t, prompt, "Savings goal")
}

func TestAdviseUnconfigured(t *testing.T) {
	coach := NewCoach("", "gemini-2.5-flash")
	result := coach.Advise(context.Background(), Payload{})

	assert.False(t, result.OK)
	assert.Equal(t, ErrorUnconfigured, result.ErrorKind)
	assert.Contains(t, result.Message, "configure an API key")
}

func TestAdviseSuccess(t *testing.T) {
	coach := NewCoach("key", "gemini-2.5-flash", WithGenerator(
		func(ctx context.Context, prompt string) (string, error) {
			assert.Contains(t, prompt, "finance coach")
			return "Three tips.", nil
		}))

	result := coach.Advise(context.Background(), Payload{})
	assert.True(t, result.OK)
	assert.Equal(t, "Three tips.", result.Advice)
	assert.Empty(t, result.Message)
}

func TestAdviseRetriesOnce(t *testing.T) {
	calls := 0
	coach := NewCoach("key", "gemini-2.5-flash",
		WithRetries(1),
		WithRetryDelay(time.Millisecond),
		WithGenerator(func(ctx context.Context, prompt string) (string, error) {
			calls++
			if calls == 1 {
				return "", fmt.Errorf("upstream hiccup")
			}
			return "Recovered advice.", nil
		}))

	result := coach.Advise(context.Background(), Payload{})
	assert.True(t, result.OK)
	assert.Equal(t, 2, calls)
}

func TestAdviseExhaustedRetries(t *testing.T) {
	calls := 0
	coach := NewCoach("key", "gemini-2.5-flash",
		WithRetries(1),
		WithRetryDelay(time.Millisecond),
		WithGenerator(func(ctx context.Context, prompt string) (string, error) {
			calls++
			return "", fmt.Errorf("upstream down")
		}))

	result := coach.Advise(context.Background(), Payload{})
	assert.False(t, result.OK)
	assert.Equal(t, ErrorUpstream, result.ErrorKind)
	assert.Equal(t, 2, calls)
	assert.Contains(t, result.Message, "temporarily unavailable")
}

func TestAdviseTimeout(t *testing.T) {
	coach := NewCoach("key", "gemini-2.5-flash",
		WithTimeout(10*time.Millisecond),
		WithRetries(0),
		WithGenerator(func(ctx context.Context, prompt string) (string, error) {
			<-ctx.Done()
			return "", fmt.Errorf("generateContent: %w", ctx.Err())
		}))

	result := coach.Advise(context.Background(), Payload{})
	assert.False(t, result.OK)
	assert.Equal(t, ErrorTimeout, result.ErrorKind)
}
