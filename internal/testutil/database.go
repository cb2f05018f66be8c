// Package testutil provides test utilities for tally: an isolated in-memory
// ledger database with seeded categories.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
	"github.com/Veraticus/tally/internal/storage"
	"github.com/Veraticus/tally/internal/testutil/categories"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage    service.Storage
	t          *testing.T
	Categories categories.Categories
}

// SetupTestDB creates a new in-memory test database with no categories.
// It automatically handles migrations and cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithBuilder(t, nil)
}

// SetupTestDBWithBuilder creates a test database using a category builder.
//
// Example:
//
//	db := testutil.SetupTestDBWithBuilder(t, func(b categories.Builder) categories.Builder {
//		return b.WithFixture(categories.FixtureHousehold)
//	})
func SetupTestDBWithBuilder(t *testing.T, configure func(categories.Builder) categories.Builder) *TestDB {
	t.Helper()

	builder := categories.NewBuilder(t)
	if configure != nil {
		builder = configure(builder)
	}

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	cats, err := builder.Build(ctx, store)
	if err != nil {
		t.Fatalf("failed to build categories: %v", err)
	}

	return &TestDB{
		Storage:    store,
		Categories: cats,
		t:          t,
	}
}

// MustCreateAccount inserts an account with the given opening balance or fails the test.
func (db *TestDB) MustCreateAccount(name string, accountType model.AccountType, balance string) *model.Account {
	db.t.Helper()

	account := &model.Account{
		ID:      uuid.NewString(),
		Name:    name,
		Type:    accountType,
		Balance: decimal.RequireFromString(balance),
	}
	if err := db.Storage.CreateAccount(context.Background(), account); err != nil {
		db.t.Fatalf("failed to create account %q: %v", name, err)
	}
	return account
}

// MustGetBalance returns the current balance of an account or fails the test.
func (db *TestDB) MustGetBalance(accountID string) decimal.Decimal {
	db.t.Helper()

	account, err := db.Storage.GetAccount(context.Background(), accountID)
	if err != nil {
		db.t.Fatalf("failed to load account %s: %v", accountID, err)
	}
	return account.Balance
}

// TxnSpec describes a transaction inserted by MustCreateTransaction.
type TxnSpec struct {
	Date        time.Time
	AccountID   *string
	Type        model.TransactionType
	Amount      string
	Category    string
	Division    model.Division
	Description string
}

// MustCreateTransaction inserts a transaction directly, without touching any
// account balance, or fails the test.
func (db *TestDB) MustCreateTransaction(spec TxnSpec) *model.Transaction {
	db.t.Helper()

	if spec.Division == "" {
		spec.Division = model.DivisionPersonal
	}
	if spec.Description == "" {
		spec.Description = spec.Category + " " + spec.Amount
	}
	now := time.Now().UTC()
	txn := &model.Transaction{
		ID:          uuid.NewString(),
		Type:        spec.Type,
		Amount:      decimal.RequireFromString(spec.Amount),
		Description: spec.Description,
		Category:    spec.Category,
		Division:    spec.Division,
		Date:        spec.Date.UTC(),
		AccountID:   spec.AccountID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.Storage.CreateTransaction(context.Background(), txn); err != nil {
		db.t.Fatalf("failed to create transaction %q: %v", spec.Description, err)
	}
	return txn
}

// WithTransaction executes the given function within a database transaction.
// The transaction is always rolled back after the function completes.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}
