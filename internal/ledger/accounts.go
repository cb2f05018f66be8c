package ledger

import (
	"context"
	"log/slog"

	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
)

// RecentTransactionLimit is how many bookings GetAccount returns.
const RecentTransactionLimit = 10

// AccountDetail is an account with its most recent bookings.
type AccountDetail struct {
	model.Account
	RecentTransactions []model.Transaction `json:"recentTransactions"`
}

// CreateAccount opens an account with the given starting balance.
func (l *Ledger) CreateAccount(ctx context.Context, in CreateAccountInput) (*model.Account, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := l.now().UTC()
	account := &model.Account{
		ID:        l.newID(),
		Name:      in.Name,
		Type:      in.Type,
		Balance:   in.Balance,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.storage.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	slog.Info("account created", "account_id", account.ID, "name", account.Name)
	return account, nil
}

// ListAccounts returns all accounts ordered by name.
func (l *Ledger) ListAccounts(ctx context.Context) ([]model.Account, error) {
	return l.storage.ListAccounts(ctx)
}

// GetAccount returns an account and its ten most recent bookings by business date.
func (l *Ledger) GetAccount(ctx context.Context, id string) (*AccountDetail, error) {
	account, err := l.storage.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	recent, err := l.storage.ListTransactions(ctx, service.TransactionFilter{
		AccountID: id,
		Limit:     RecentTransactionLimit,
	})
	if err != nil {
		return nil, err
	}

	return &AccountDetail{Account: *account, RecentTransactions: recent}, nil
}

// UpdateAccount changes an account's name or type.
func (l *Ledger) UpdateAccount(ctx context.Context, id string, in UpdateAccountInput) (*model.Account, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var updated *model.Account
	err := l.withTx(ctx, "update account", func(tx service.Transaction) error {
		account, err := tx.GetAccount(ctx, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			account.Name = *in.Name
		}
		if in.Type != nil {
			account.Type = *in.Type
		}
		if err := tx.UpdateAccount(ctx, account); err != nil {
			return err
		}
		updated = account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteAccount removes an account. Its transactions stay in place and keep
// their account reference.
func (l *Ledger) DeleteAccount(ctx context.Context, id string) error {
	if err := l.storage.DeleteAccount(ctx, id); err != nil {
		return err
	}
	slog.Info("account deleted", "account_id", id)
	return nil
}
