package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

// CreateAccountInput describes a new account.
type CreateAccountInput struct {
	Balance decimal.Decimal   `json:"balance"`
	Name    string            `json:"name"`
	Type    model.AccountType `json:"type"`
}

// Validate normalizes the input and reports the first invalid field.
func (in *CreateAccountInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return common.NewValidationError("name", "is required")
	}
	if in.Type == "" {
		in.Type = model.DefaultAccountType
	}
	if !in.Type.Valid() {
		return common.NewValidationError("type", "must be one of cash, bank, credit_card, wallet")
	}
	return nil
}

// UpdateAccountInput renames or retypes an account. Balances change only
// through bookings.
type UpdateAccountInput struct {
	Name *string            `json:"name"`
	Type *model.AccountType `json:"type"`
}

// Validate normalizes the input and reports the first invalid field.
func (in *UpdateAccountInput) Validate() error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return common.NewValidationError("name", "cannot be empty")
		}
		in.Name = &name
	}
	if in.Type != nil && !in.Type.Valid() {
		return common.NewValidationError("type", "must be one of cash, bank, credit_card, wallet")
	}
	return nil
}

// CreateTransactionInput describes a booking.
type CreateTransactionInput struct {
	Date        *time.Time            `json:"date"`
	AccountID   *string               `json:"accountId"`
	Amount      decimal.Decimal       `json:"amount"`
	Type        model.TransactionType `json:"type"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	Division    model.Division        `json:"division"`
}

// Validate normalizes the input and reports the first invalid field.
func (in *CreateTransactionInput) Validate() error {
	if !in.Type.Valid() {
		return common.NewValidationError("type", "must be income or expense")
	}
	if !in.Amount.IsPositive() {
		return common.NewValidationError("amount", "must be greater than zero")
	}
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return common.NewValidationError("description", "is required")
	}
	in.Category = strings.TrimSpace(in.Category)
	if in.Category == "" {
		return common.NewValidationError("category", "is required")
	}
	if !in.Division.Valid() {
		return common.NewValidationError("division", "must be office or personal")
	}
	if in.AccountID != nil && strings.TrimSpace(*in.AccountID) == "" {
		in.AccountID = nil
	}
	return nil
}

// UpdateTransactionInput carries the fields to change. Nil fields are kept.
type UpdateTransactionInput struct {
	Date        *time.Time             `json:"date"`
	AccountID   *string                `json:"accountId"`
	Amount      *decimal.Decimal       `json:"amount"`
	Type        *model.TransactionType `json:"type"`
	Description *string                `json:"description"`
	Category    *string                `json:"category"`
	Division    *model.Division        `json:"division"`
}

// applyTo returns a copy of txn with the requested changes, validated.
// The account reference cannot be changed.
func (in *UpdateTransactionInput) applyTo(txn *model.Transaction) (*model.Transaction, error) {
	if in.AccountID != nil && !sameAccount(in.AccountID, txn.AccountID) {
		return nil, common.NewValidationError("accountId", "cannot be changed once set")
	}

	updated := *txn
	if in.Type != nil {
		updated.Type = *in.Type
	}
	if in.Amount != nil {
		updated.Amount = *in.Amount
	}
	if in.Description != nil {
		updated.Description = *in.Description
	}
	if in.Category != nil {
		updated.Category = *in.Category
	}
	if in.Division != nil {
		updated.Division = *in.Division
	}
	if in.Date != nil {
		updated.Date = in.Date.UTC()
	}

	check := CreateTransactionInput{
		Type:        updated.Type,
		Amount:      updated.Amount,
		Description: updated.Description,
		Category:    updated.Category,
		Division:    updated.Division,
	}
	if err := check.Validate(); err != nil {
		return nil, err
	}
	updated.Description = check.Description
	updated.Category = check.Category
	return &updated, nil
}

func sameAccount(requested, current *string) bool {
	req := strings.TrimSpace(*requested)
	if current == nil {
		return req == ""
	}
	return req == *current
}

// TransferInput moves money between two accounts.
type TransferInput struct {
	Date          *time.Time      `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	FromAccountID string          `json:"fromAccountId"`
	ToAccountID   string          `json:"toAccountId"`
	Description   string          `json:"description"`
}

// Validate checks everything that can be checked without storage.
func (in *TransferInput) Validate() error {
	in.FromAccountID = strings.TrimSpace(in.FromAccountID)
	in.ToAccountID = strings.TrimSpace(in.ToAccountID)
	in.Description = strings.TrimSpace(in.Description)

	if in.FromAccountID == "" {
		return common.NewValidationError("fromAccountId", "is required")
	}
	if in.ToAccountID == "" {
		return common.NewValidationError("toAccountId", "is required")
	}
	if in.FromAccountID == in.ToAccountID {
		return common.NewValidationError("toAccountId", "must differ from the source account")
	}
	if !in.Amount.IsPositive() {
		return common.NewValidationError("amount", "must be greater than zero")
	}
	return nil
}

// CreateCategoryInput describes a new category.
type CreateCategoryInput struct {
	Name string             `json:"name"`
	Type model.CategoryType `json:"type"`
	Icon string             `json:"icon"`
}

// Validate normalizes the input and reports the first invalid field.
func (in *CreateCategoryInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Icon = strings.TrimSpace(in.Icon)
	if in.Name == "" {
		return common.NewValidationError("name", "is required")
	}
	if !in.Type.Valid() {
		return common.NewValidationError("type", "must be income or expense")
	}
	return nil
}
