package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryType indicates whether a category is meant for income or expense.
type CategoryType string

const (
	// CategoryTypeIncome represents categories for income transactions.
	CategoryTypeIncome CategoryType = "income"
	// CategoryTypeExpense represents categories for expense transactions.
	CategoryTypeExpense CategoryType = "expense"
)

// Valid reports whether t is a known category type.
func (t CategoryType) Valid() bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

// Category is a named label transactions refer to by name only.
// Renaming or deleting a category never touches the transactions citing it.
type Category struct {
	CreatedAt time.Time    `json:"createdAt"`
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Type      CategoryType `json:"type"`
	Icon      string       `json:"icon"`
}

// CategorySummary is a category with the totals of the transactions citing it.
type CategorySummary struct {
	Category
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	TransactionCount int             `json:"transactionCount"`
}

// DefaultCategories returns the starter set of categories offered by
// `tally categories seed`. IDs and timestamps are left for the caller.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Salary", Type: CategoryTypeIncome, Icon: "wallet"},
		{Name: "Business", Type: CategoryTypeIncome, Icon: "briefcase"},
		{Name: "Investment", Type: CategoryTypeIncome, Icon: "trending-up"},
		{Name: "Other Income", Type: CategoryTypeIncome, Icon: "plus-circle"},
		{Name: "Fuel", Type: CategoryTypeExpense, Icon: "fuel"},
		{Name: "Food", Type: CategoryTypeExpense, Icon: "utensils"},
		{Name: "Movie", Type: CategoryTypeExpense, Icon: "film"},
		{Name: "Medical", Type: CategoryTypeExpense, Icon: "heart"},
		{Name: "Loan", Type: CategoryTypeExpense, Icon: "credit-card"},
		{Name: "Shopping", Type: CategoryTypeExpense, Icon: "shopping-bag"},
		{Name: "Utilities", Type: CategoryTypeExpense, Icon: "zap"},
		{Name: "Rent", Type: CategoryTypeExpense, Icon: "home"},
		{Name: "Transport", Type: CategoryTypeExpense, Icon: "car"},
		{Name: TransferCategory, Type: CategoryTypeExpense, Icon: "arrow-right"},
		{Name: "Other Expense", Type: CategoryTypeExpense, Icon: "more-horizontal"},
	}
}
