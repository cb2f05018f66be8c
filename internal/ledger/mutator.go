package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
)

// BalanceMutator keeps an account balance equal to its opening balance plus
// the signed sum of the transactions booked against it. It only ever runs
// inside a unit of work.
type BalanceMutator struct {
	tx service.Transaction
}

// NewBalanceMutator binds a mutator to an open unit of work.
func NewBalanceMutator(tx service.Transaction) BalanceMutator {
	return BalanceMutator{tx: tx}
}

// OnCreate applies the signed amount of a new transaction once.
// A missing account is reported as common.ErrNotFound.
func (m BalanceMutator) OnCreate(ctx context.Context, txn *model.Transaction) error {
	if !txn.HasAccount() {
		return nil
	}
	_, err := m.apply(ctx, *txn.AccountID, txn.SignedAmount())
	return err
}

// OnUpdate swaps the effect of before for the effect of after when the type
// or amount changed. The account reference is taken from before.
func (m BalanceMutator) OnUpdate(ctx context.Context, before, after *model.Transaction) error {
	if !before.HasAccount() {
		return nil
	}
	if before.Type == after.Type && before.Amount.Equal(after.Amount) {
		return nil
	}

	// Reversing the old delta and applying the new one is a single write.
	delta := after.SignedAmount().Sub(before.SignedAmount())
	_, err := m.apply(ctx, *before.AccountID, delta)
	return err
}

// OnDelete reverses the signed amount of a removed transaction. If the
// account is already gone the reversal is skipped so the orphan can still
// be deleted.
func (m BalanceMutator) OnDelete(ctx context.Context, txn *model.Transaction) error {
	if !txn.HasAccount() {
		return nil
	}

	_, err := m.apply(ctx, *txn.AccountID, txn.SignedAmount().Neg())
	if errors.Is(err, common.ErrNotFound) {
		slog.Warn("account missing, skipping balance reversal",
			"transaction_id", txn.ID,
			"account_id", *txn.AccountID)
		return nil
	}
	return err
}

func (m BalanceMutator) apply(ctx context.Context, accountID string, delta decimal.Decimal) (*model.Account, error) {
	account, err := m.tx.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	account.Balance = account.Balance.Add(delta)
	if err := m.tx.UpdateAccountBalance(ctx, account.ID, account.Balance); err != nil {
		return nil, fmt.Errorf("failed to apply balance change: %w", err)
	}

	slog.Debug("applied balance change",
		"account_id", account.ID,
		"delta", delta.String(),
		"balance", account.Balance.String())
	return account, nil
}
