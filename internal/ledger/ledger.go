// Package ledger implements the bookkeeping rules of tally: every booking,
// edit, deletion and transfer keeps account balances in step with the
// transactions that reference them.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
)

// Ledger orchestrates accounts, transactions and categories on top of storage.
type Ledger struct {
	storage    service.Storage
	publisher  service.Publisher
	now        func() time.Time
	newID      func() string
	editWindow EditWindow
}

// Config holds configuration options for the ledger.
type Config struct {
	EditWindow time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		EditWindow: DefaultEditWindow,
	}
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithPublisher announces committed changes through p.
func WithPublisher(p service.Publisher) Option {
	return func(l *Ledger) {
		if p != nil {
			l.publisher = p
		}
	}
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) {
		l.newID = newID
	}
}

// New creates a ledger with the default configuration.
func New(storage service.Storage, opts ...Option) *Ledger {
	return NewWithConfig(storage, DefaultConfig(), opts...)
}

// NewWithConfig creates a ledger with custom configuration.
func NewWithConfig(storage service.Storage, config Config, opts ...Option) *Ledger {
	if config.EditWindow <= 0 {
		config.EditWindow = DefaultEditWindow
	}

	l := &Ledger{
		storage:    storage,
		publisher:  nopPublisher{},
		now:        time.Now,
		newID:      uuid.NewString,
		editWindow: EditWindow{Length: config.EditWindow},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// EditWindow returns the policy applied to transaction updates.
func (l *Ledger) EditWindow() EditWindow {
	return l.editWindow
}

// EditableFor reports how much longer txn can be updated. Zero means the
// window has closed.
func (l *Ledger) EditableFor(txn *model.Transaction) time.Duration {
	return l.editWindow.Remaining(txn.CreatedAt, l.now())
}

// withTx runs fn inside one storage unit of work. fn must only use tx: the
// pool has a single connection which tx holds until it finishes.
func (l *Ledger) withTx(ctx context.Context, operation string, fn func(tx service.Transaction) error) error {
	tx, err := l.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin %s: %w", operation, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Error("rollback failed, ledger may hold a partial write",
				"operation", operation,
				"error", err,
				"rollback_error", rbErr)
			return fmt.Errorf("%w: %s failed: %v (rollback: %v)", common.ErrPartialWrite, operation, err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", operation, err)
	}
	return nil
}

// publish announces a committed change. The store is the source of truth,
// so failures are only logged.
func (l *Ledger) publish(ctx context.Context, event service.Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = l.now().UTC()
	}
	if err := l.publisher.Publish(ctx, event); err != nil {
		slog.Warn("failed to publish ledger event",
			"kind", event.Kind,
			"transaction_ids", event.TransactionIDs,
			"error", err)
	}
}

// isClientError reports whether err is a validation, not-found or policy
// failure rather than a system fault.
func isClientError(err error) bool {
	return errors.Is(err, common.ErrValidation) ||
		errors.Is(err, common.ErrNotFound) ||
		errors.Is(err, common.ErrEditWindowExpired)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, service.Event) error { return nil }
func (nopPublisher) Close() error                                 { return nil }
