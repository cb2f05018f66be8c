package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/report"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "12.5", want: "12.50"},
		{in: "-3", want: "-3.00"},
		{in: "0", want: "0.00"},
		{in: "1000.129", want: "1000.13"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Contains(t, FormatAmount(decimal.RequireFromString(tt.in)), tt.want)
		})
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]string{"Name", "Balance"}, [][]string{
		{"Cash", "10.00"},
		{"Business Card", "-250.00"},
	})

	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "Business Card")
	assert.Contains(t, out, "-250.00")

	lines := strings.Split(out, "\n")
	assert.GreaterOrEqual(t, len(lines), 3)
}

func TestRenderAccounts(t *testing.T) {
	assert.Contains(t, RenderAccounts(nil), "No accounts yet")

	out := RenderAccounts([]model.Account{
		{ID: "a1", Name: "Cash", Type: model.AccountCash, Balance: decimal.RequireFromString("40")},
		{ID: "a2", Name: "Card", Type: model.AccountCreditCard, Balance: decimal.RequireFromString("-15.5")},
	})
	assert.Contains(t, out, "Cash")
	assert.Contains(t, out, "credit_card")
	assert.Contains(t, out, "24.50")
}

func TestRenderTransactions(t *testing.T) {
	assert.Contains(t, RenderTransactions(nil), "No transactions")

	out := RenderTransactions([]model.Transaction{{
		Date:        time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC),
		Type:        model.TypeExpense,
		Amount:      decimal.RequireFromString("9.99"),
		Description: "Lunch",
		Category:    "Food",
		Division:    model.DivisionOffice,
		Account:     &model.AccountRef{ID: "a1", Name: "Cash"},
	}})
	assert.Contains(t, out, "Lunch")
	assert.Contains(t, out, "-9.99")
	assert.Contains(t, out, "Cash")
}

func TestRenderStats(t *testing.T) {
	stats := &report.Stats{
		Period:    report.PeriodMonth,
		StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC),
		Summary: report.Summary{
			TotalIncome:  decimal.RequireFromString("100"),
			TotalExpense: decimal.RequireFromString("40"),
			Balance:      decimal.RequireFromString("60"),
		},
		CategoryBreakdown: map[string]*report.Flow{
			"Salary": {Income: decimal.RequireFromString("100")},
			"Food":   {Expense: decimal.RequireFromString("40")},
		},
		DivisionBreakdown: map[model.Division]*report.Flow{
			model.DivisionOffice:   {Income: decimal.RequireFromString("100")},
			model.DivisionPersonal: {Expense: decimal.RequireFromString("40")},
		},
		TransactionCount: 2,
	}

	out := RenderStats(stats)
	assert.Contains(t, out, "Month report")
	assert.Contains(t, out, "2024-06-01")
	assert.Contains(t, out, "60.00")
	assert.Contains(t, out, "office")
	assert.Less(t, strings.Index(out, "Food"), strings.Index(out, "Salary"))
}
