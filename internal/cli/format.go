package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/report"
)

const dateLayout = "2006-01-02"

// FormatAmount renders a money amount with two decimals, colored by sign.
func FormatAmount(amount decimal.Decimal) string {
	text := amount.StringFixed(2)
	switch {
	case amount.IsNegative():
		return ExpenseStyle.Render(text)
	case amount.IsPositive():
		return IncomeStyle.Render(text)
	default:
		return text
	}
}

// RenderTable lays out rows under a bold header with padded columns.
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	renderRow := func(cells []string, style lipgloss.Style) string {
		rendered := make([]string, len(cells))
		for i, cell := range cells {
			rendered[i] = TableCellStyle.Width(widths[i] + TableCellStyle.GetPaddingRight()).Render(cell)
		}
		return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}

	lines := []string{renderRow(headers, TableHeaderStyle)}
	for _, row := range rows {
		lines = append(lines, renderRow(row, lipgloss.NewStyle()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// RenderAccounts renders accounts with their balances and a grand total.
func RenderAccounts(accounts []model.Account) string {
	if len(accounts) == 0 {
		return SubtleStyle.Render("No accounts yet. Create one with: tally accounts create")
	}

	total := decimal.Zero
	rows := make([][]string, 0, len(accounts))
	for _, a := range accounts {
		total = total.Add(a.Balance)
		rows = append(rows, []string{a.Name, string(a.Type), FormatAmount(a.Balance), SubtleStyle.Render(a.ID)})
	}

	return RenderTable([]string{"Name", "Type", "Balance", "ID"}, rows) +
		"\n\n" + fmt.Sprintf("Net worth: %s", FormatAmount(total))
}

// RenderTransactions renders transactions newest first as they come.
func RenderTransactions(txns []model.Transaction) string {
	if len(txns) == 0 {
		return SubtleStyle.Render("No transactions.")
	}

	rows := make([][]string, 0, len(txns))
	for i := range txns {
		t := &txns[i]
		account := "-"
		if t.Account != nil {
			account = t.Account.Name
		}
		rows = append(rows, []string{
			t.Date.Local().Format(dateLayout),
			t.Description,
			t.Category,
			string(t.Division),
			account,
			FormatAmount(t.SignedAmount()),
		})
	}
	return RenderTable([]string{"Date", "Description", "Category", "Division", "Account", "Amount"}, rows)
}

// RenderCategories renders categories with their totals.
func RenderCategories(summary []model.CategorySummary) string {
	if len(summary) == 0 {
		return SubtleStyle.Render("No categories. Seed the defaults with: tally categories seed")
	}

	rows := make([][]string, 0, len(summary))
	for _, c := range summary {
		rows = append(rows, []string{
			c.Name,
			string(c.Type),
			c.Icon,
			fmt.Sprintf("%d", c.TransactionCount),
			c.TotalAmount.StringFixed(2),
		})
	}
	return RenderTable([]string{"Name", "Type", "Icon", "Count", "Total"}, rows)
}

// RenderStats renders a period report: totals, divisions and categories.
func RenderStats(stats *report.Stats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s → %s  (%d transactions)\n\n",
		stats.StartDate.Format(dateLayout), stats.EndDate.Format(dateLayout), stats.TransactionCount)
	fmt.Fprintf(&b, "Income:   %s\n", FormatAmount(stats.Summary.TotalIncome))
	fmt.Fprintf(&b, "Expense:  %s\n", FormatAmount(stats.Summary.TotalExpense.Neg()))
	fmt.Fprintf(&b, "Balance:  %s\n\n", FormatAmount(stats.Summary.Balance))

	divisions := make([][]string, 0, len(model.Divisions))
	for _, d := range model.Divisions {
		flow := stats.DivisionBreakdown[d]
		if flow == nil {
			continue
		}
		divisions = append(divisions, []string{string(d), FormatAmount(flow.Income), FormatAmount(flow.Expense.Neg())})
	}
	b.WriteString(RenderTable([]string{"Division", "Income", "Expense"}, divisions))

	if len(stats.CategoryBreakdown) > 0 {
		names := make([]string, 0, len(stats.CategoryBreakdown))
		for name := range stats.CategoryBreakdown {
			names = append(names, name)
		}
		sort.Strings(names)

		categories := make([][]string, 0, len(names))
		for _, name := range names {
			flow := stats.CategoryBreakdown[name]
			categories = append(categories, []string{name, FormatAmount(flow.Income), FormatAmount(flow.Expense.Neg())})
		}
		b.WriteString("\n\n")
		b.WriteString(RenderTable([]string{"Category", "Income", "Expense"}, categories))
	}

	title := fmt.Sprintf("%s %s report", ChartIcon, strings.ToUpper(string(stats.Period[:1]))+string(stats.Period[1:]))
	return RenderBox(title, b.String())
}
