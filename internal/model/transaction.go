// Package model defines the core domain models used throughout the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType indicates whether money entered or left an account.
type TransactionType string

const (
	// TypeIncome increases the referenced account balance.
	TypeIncome TransactionType = "income"
	// TypeExpense decreases the referenced account balance.
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Division is the cost center a transaction is reported under.
type Division string

const (
	// DivisionOffice tags business spending and earnings.
	DivisionOffice Division = "office"
	// DivisionPersonal tags private spending and earnings.
	DivisionPersonal Division = "personal"
)

// Divisions lists every division in reporting order.
var Divisions = []Division{DivisionOffice, DivisionPersonal}

// Valid reports whether d is a known division.
func (d Division) Valid() bool {
	return d == DivisionOffice || d == DivisionPersonal
}

// TransferCategory is the category assigned to both legs of a transfer.
const TransferCategory = "Transfer"

// Transaction represents a single booking against the ledger.
type Transaction struct {
	Date        time.Time       `json:"date"` // Business date chosen by the user
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Amount      decimal.Decimal `json:"amount"`
	AccountID   *string         `json:"accountId"`
	Account     *AccountRef     `json:"account,omitempty"` // Joined on reads when the account still exists
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Division    Division        `json:"division"`
}

// HasAccount reports whether the transaction references an account.
func (t *Transaction) HasAccount() bool {
	return t.AccountID != nil && *t.AccountID != ""
}

// SignedAmount returns the effect of the transaction on its account balance:
// positive for income, negative for expense.
func (t *Transaction) SignedAmount() decimal.Decimal {
	return SignedAmount(t.Type, t.Amount)
}

// SignedAmount returns +amount for income and -amount for expense.
func SignedAmount(typ TransactionType, amount decimal.Decimal) decimal.Decimal {
	if typ == TypeIncome {
		return amount
	}
	return amount.Neg()
}
