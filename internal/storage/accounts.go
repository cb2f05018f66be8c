package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

// CreateAccount inserts a new account. CreatedAt and UpdatedAt are set when zero.
func (s *SQLiteStorage) CreateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}
	return createAccount(ctx, s.db, account)
}

// GetAccount returns the account with the given id or common.ErrNotFound.
func (s *SQLiteStorage) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getAccount(ctx, s.db, id)
}

// ListAccounts returns all accounts ordered by name.
func (s *SQLiteStorage) ListAccounts(ctx context.Context) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listAccounts(ctx, s.db)
}

// UpdateAccount rewrites an account's name, type and balance.
func (s *SQLiteStorage) UpdateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}
	return updateAccount(ctx, s.db, account)
}

// UpdateAccountBalance overwrites only the balance column.
func (s *SQLiteStorage) UpdateAccountBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return updateAccountBalance(ctx, s.db, id, balance)
}

// DeleteAccount removes an account. Transactions referencing it are kept.
func (s *SQLiteStorage) DeleteAccount(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return deleteAccount(ctx, s.db, id)
}

func createAccount(ctx context.Context, q queryable, account *model.Account) error {
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = account.CreatedAt
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO accounts (id, name, type, balance, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		account.ID, account.Name, string(account.Type), account.Balance.String(),
		account.CreatedAt.UTC(), account.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: account %s already exists", common.ErrDuplicateEntry, account.ID)
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}

	slog.Debug("created account", "account_id", account.ID, "name", account.Name)
	return nil
}

func getAccount(ctx context.Context, q queryable, id string) (*model.Account, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, type, balance, created_at, updated_at
		FROM accounts
		WHERE id = ?`, id)

	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func listAccounts(ctx context.Context, q queryable) ([]model.Account, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, type, balance, created_at, updated_at
		FROM accounts
		ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	accounts := []model.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

func updateAccount(ctx context.Context, q queryable, account *model.Account) error {
	account.UpdatedAt = time.Now().UTC()
	result, err := q.ExecContext(ctx, `
		UPDATE accounts
		SET name = ?, type = ?, balance = ?, updated_at = ?
		WHERE id = ?`,
		account.Name, string(account.Type), account.Balance.String(), account.UpdatedAt, account.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return requireAffected(result, "account", account.ID)
}

func updateAccountBalance(ctx context.Context, q queryable, id string, balance decimal.Decimal) error {
	result, err := q.ExecContext(ctx, `
		UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ?`,
		balance.String(), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update account balance: %w", err)
	}
	if err := requireAffected(result, "account", id); err != nil {
		return err
	}

	slog.Debug("updated account balance", "account_id", id, "balance", balance.String())
	return nil
}

func deleteAccount(ctx context.Context, q queryable, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return requireAffected(result, "account", id)
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var (
		account     model.Account
		accountType string
	)
	if err := row.Scan(&account.ID, &account.Name, &accountType, &account.Balance,
		&account.CreatedAt, &account.UpdatedAt); err != nil {
		return nil, err
	}
	account.Type = model.AccountType(accountType)
	account.CreatedAt = account.CreatedAt.UTC()
	account.UpdatedAt = account.UpdatedAt.UTC()
	return &account, nil
}
