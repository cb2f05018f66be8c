package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType describes where the money is held.
type AccountType string

const (
	AccountCash       AccountType = "cash"
	AccountBank       AccountType = "bank"
	AccountCreditCard AccountType = "credit_card"
	AccountWallet     AccountType = "wallet"
)

// DefaultAccountType is used when an account is created without a type.
const DefaultAccountType = AccountBank

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountCash, AccountBank, AccountCreditCard, AccountWallet:
		return true
	}
	return false
}

// Account is a balance-carrying container that transactions are booked against.
type Account struct {
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Balance   decimal.Decimal `json:"balance"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
}

// Ref returns the compact representation joined onto transactions.
func (a *Account) Ref() *AccountRef {
	return &AccountRef{ID: a.ID, Name: a.Name, Type: a.Type}
}

// AccountRef is the subset of account details embedded in transaction reads.
type AccountRef struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Type AccountType `json:"type"`
}
