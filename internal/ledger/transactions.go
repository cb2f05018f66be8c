package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
)

// CreateTransaction books a transaction and applies it to its account, if any.
func (l *Ledger) CreateTransaction(ctx context.Context, in CreateTransactionInput) (*model.Transaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	txn := l.newTransaction(in)

	var created *model.Transaction
	err := l.withTx(ctx, "create transaction", func(tx service.Transaction) error {
		var err error
		created, err = l.book(ctx, tx, txn)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("transaction created",
		"transaction_id", created.ID,
		"type", created.Type,
		"amount", created.Amount.String())

	l.publish(ctx, transactionEvent(service.EventTransactionCreated, created))
	return created, nil
}

// GetTransaction returns a transaction joined with its account details.
func (l *Ledger) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	return l.storage.GetTransaction(ctx, id)
}

// ListTransactions returns transactions matching filter, newest business date first.
func (l *Ledger) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, common.NewValidationError("type", "must be income or expense")
	}
	if filter.Division != "" && !filter.Division.Valid() {
		return nil, common.NewValidationError("division", "must be office or personal")
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, common.NewValidationError("endDate", "must not be before startDate")
	}
	return l.storage.ListTransactions(ctx, filter)
}

// UpdateTransaction changes a transaction still inside the edit window and
// moves its account balance by the difference.
func (l *Ledger) UpdateTransaction(ctx context.Context, id string, in UpdateTransactionInput) (*model.Transaction, error) {
	var updated *model.Transaction
	err := l.withTx(ctx, "update transaction", func(tx service.Transaction) error {
		existing, err := tx.GetTransaction(ctx, id)
		if err != nil {
			return err
		}

		if err := l.editWindow.Check(existing.CreatedAt, l.now()); err != nil {
			return err
		}

		next, err := in.applyTo(existing)
		if err != nil {
			return err
		}

		if err := NewBalanceMutator(tx).OnUpdate(ctx, existing, next); err != nil {
			return err
		}
		if err := tx.UpdateTransaction(ctx, next); err != nil {
			return err
		}

		updated, err = tx.GetTransaction(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("transaction updated", "transaction_id", id)
	l.publish(ctx, transactionEvent(service.EventTransactionUpdated, updated))
	return updated, nil
}

// DeleteTransaction removes a transaction and reverses its balance effect.
// Deletion is not limited by the edit window.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	var deleted *model.Transaction
	err := l.withTx(ctx, "delete transaction", func(tx service.Transaction) error {
		existing, err := tx.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if err := NewBalanceMutator(tx).OnDelete(ctx, existing); err != nil {
			return err
		}
		if err := tx.DeleteTransaction(ctx, id); err != nil {
			return err
		}
		deleted = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("transaction deleted", "transaction_id", id)
	l.publish(ctx, transactionEvent(service.EventTransactionDeleted, deleted))
	return deleted, nil
}

// ImportTransactions books every input against accountID in one unit of
// work: either all are booked or none. onBooked, when set, is called after
// each booking.
func (l *Ledger) ImportTransactions(ctx context.Context, accountID string, inputs []CreateTransactionInput, onBooked func(n int)) ([]model.Transaction, error) {
	if accountID == "" {
		return nil, common.NewValidationError("accountId", "is required")
	}

	txns := make([]*model.Transaction, 0, len(inputs))
	for i := range inputs {
		in := inputs[i]
		id := accountID
		in.AccountID = &id
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("statement line %d: %w", i+1, err)
		}
		txns = append(txns, l.newTransaction(in))
	}

	booked := make([]model.Transaction, 0, len(txns))
	err := l.withTx(ctx, "import transactions", func(tx service.Transaction) error {
		if _, err := tx.GetAccount(ctx, accountID); err != nil {
			return err
		}
		for i, txn := range txns {
			created, err := l.book(ctx, tx, txn)
			if err != nil {
				return fmt.Errorf("statement line %d: %w", i+1, err)
			}
			booked = append(booked, *created)
			if onBooked != nil {
				onBooked(i + 1)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("imported transactions", "account_id", accountID, "count", len(booked))
	for i := range booked {
		l.publish(ctx, transactionEvent(service.EventTransactionCreated, &booked[i]))
	}
	return booked, nil
}

// book applies txn to its account and persists it inside tx.
func (l *Ledger) book(ctx context.Context, tx service.Transaction, txn *model.Transaction) (*model.Transaction, error) {
	if err := NewBalanceMutator(tx).OnCreate(ctx, txn); err != nil {
		return nil, err
	}
	if err := tx.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return tx.GetTransaction(ctx, txn.ID)
}

func (l *Ledger) newTransaction(in CreateTransactionInput) *model.Transaction {
	now := l.now().UTC()
	date := now
	if in.Date != nil && !in.Date.IsZero() {
		date = in.Date.UTC()
	}

	return &model.Transaction{
		ID:          l.newID(),
		Type:        in.Type,
		Amount:      in.Amount,
		Description: in.Description,
		Category:    in.Category,
		Division:    in.Division,
		Date:        date,
		AccountID:   in.AccountID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func transactionEvent(kind service.EventKind, txn *model.Transaction) service.Event {
	event := service.Event{
		Kind:           kind,
		Amount:         txn.Amount,
		TransactionIDs: []string{txn.ID},
	}
	if txn.HasAccount() {
		event.AccountIDs = []string{*txn.AccountID}
	}
	return event
}
