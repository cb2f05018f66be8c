// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/tally/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
// Zero values mean "no constraint".
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	AccountID string
	Category  string
	Type      model.TransactionType
	Division  model.Division
	Limit     int
	Offset    int
}

// CategoryTotal aggregates the transactions citing one category name.
type CategoryTotal struct {
	Amount decimal.Decimal
	Count  int
}

// Storage defines the contract for our persistence layer. Every single call
// is atomic on its own; multi-record atomicity requires BeginTx.
type Storage interface {
	// Account operations
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)
	UpdateAccount(ctx context.Context, account *model.Account) error
	UpdateAccountBalance(ctx context.Context, id string, balance decimal.Decimal) error
	DeleteAccount(ctx context.Context, id string) error

	// Transaction operations
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	CountTransactions(ctx context.Context, filter TransactionFilter) (int, error)
	GetCategoryTotals(ctx context.Context) (map[string]CategoryTotal, error)

	// Category operations
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// Publisher announces committed ledger changes to interested parties.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// EventKind names a ledger change.
type EventKind string

// Ledger event kinds.
const (
	EventTransactionCreated EventKind = "transaction.created"
	EventTransactionUpdated EventKind = "transaction.updated"
	EventTransactionDeleted EventKind = "transaction.deleted"
	EventTransferCompleted  EventKind = "transfer.completed"
)

// Event describes a committed ledger change.
type Event struct {
	OccurredAt     time.Time       `json:"occurredAt"`
	Amount         decimal.Decimal `json:"amount"`
	Kind           EventKind       `json:"kind"`
	TransactionIDs []string        `json:"transactionIds"`
	AccountIDs     []string        `json:"accountIds,omitempty"`
}
