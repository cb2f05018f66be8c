package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
)

// TransferResult holds both accounts after the move and the two linked records.
type TransferResult struct {
	From    model.Account     `json:"fromAccount"`
	To      model.Account     `json:"toAccount"`
	Expense model.Transaction `json:"expenseTransaction"`
	Income  model.Transaction `json:"incomeTransaction"`
}

// Transfer moves in.Amount from one account to another. The two balance
// writes and the two transaction records commit together or not at all.
func (l *Ledger) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := l.now().UTC()
	date := now
	if in.Date != nil && !in.Date.IsZero() {
		date = in.Date.UTC()
	}

	var result TransferResult
	err := l.withTx(ctx, "transfer", func(tx service.Transaction) error {
		from, err := tx.GetAccount(ctx, in.FromAccountID)
		if err != nil {
			return fmt.Errorf("source account: %w", err)
		}
		to, err := tx.GetAccount(ctx, in.ToAccountID)
		if err != nil {
			return fmt.Errorf("destination account: %w", err)
		}

		if from.Balance.LessThan(in.Amount) {
			return fmt.Errorf("%w: available %s, requested %s",
				common.ErrInsufficientFunds, from.Balance.String(), in.Amount.String())
		}

		from.Balance = from.Balance.Sub(in.Amount)
		to.Balance = to.Balance.Add(in.Amount)
		if err := tx.UpdateAccountBalance(ctx, from.ID, from.Balance); err != nil {
			return err
		}
		if err := tx.UpdateAccountBalance(ctx, to.ID, to.Balance); err != nil {
			return err
		}

		outgoing := in.Description
		incoming := in.Description
		if in.Description == "" {
			outgoing = "Transfer to " + to.Name
			incoming = "Transfer from " + from.Name
		}

		expense := l.transferLeg(model.TypeExpense, in, outgoing, from.ID, date, now)
		income := l.transferLeg(model.TypeIncome, in, incoming, to.ID, date, now)
		if err := tx.CreateTransaction(ctx, expense); err != nil {
			return err
		}
		if err := tx.CreateTransaction(ctx, income); err != nil {
			return err
		}

		expense.Account = from.Ref()
		income.Account = to.Ref()
		result = TransferResult{From: *from, To: *to, Expense: *expense, Income: *income}
		return nil
	})
	if err != nil {
		if !isClientError(err) {
			slog.Error("transfer aborted, rolled back",
				"from_account_id", in.FromAccountID,
				"to_account_id", in.ToAccountID,
				"amount", in.Amount.String(),
				"error", err)
		}
		return nil, err
	}

	slog.Info("transfer completed",
		"from_account_id", result.From.ID,
		"to_account_id", result.To.ID,
		"amount", in.Amount.String())

	l.publish(ctx, service.Event{
		Kind:           service.EventTransferCompleted,
		Amount:         in.Amount,
		TransactionIDs: []string{result.Expense.ID, result.Income.ID},
		AccountIDs:     []string{result.From.ID, result.To.ID},
	})
	return &result, nil
}

func (l *Ledger) transferLeg(typ model.TransactionType, in TransferInput, description, accountID string, date, now time.Time) *model.Transaction {
	id := accountID
	return &model.Transaction{
		ID:          l.newID(),
		Type:        typ,
		Amount:      in.Amount,
		Description: description,
		Category:    model.TransferCategory,
		Division:    model.DivisionPersonal,
		Date:        date,
		AccountID:   &id,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
