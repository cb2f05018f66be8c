package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
)

const transactionColumns = `
	t.id, t.type, t.amount, t.description, t.category, t.division,
	t.date, t.account_id, t.created_at, t.updated_at,
	a.id, a.name, a.type`

const transactionFrom = `
	FROM transactions t
	LEFT JOIN accounts a ON a.id = t.account_id`

// CreateTransaction inserts a transaction record. It never touches balances.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	return createTransaction(ctx, s.db, txn)
}

// GetTransaction returns a transaction joined with its account details.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getTransaction(ctx, s.db, id)
}

// UpdateTransaction rewrites the mutable columns of a transaction.
// account_id and created_at are never changed.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	return updateTransaction(ctx, s.db, txn)
}

// DeleteTransaction removes a transaction record.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return deleteTransaction(ctx, s.db, id)
}

// ListTransactions returns transactions matching filter, newest business date first.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return listTransactions(ctx, s.db, filter)
}

// CountTransactions counts transactions matching filter. Limit and Offset are ignored.
func (s *SQLiteStorage) CountTransactions(ctx context.Context, filter service.TransactionFilter) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateFilter(filter); err != nil {
		return 0, err
	}
	return countTransactions(ctx, s.db, filter)
}

// GetCategoryTotals sums transaction amounts per category name.
func (s *SQLiteStorage) GetCategoryTotals(ctx context.Context) (map[string]service.CategoryTotal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getCategoryTotals(ctx, s.db)
}

func createTransaction(ctx context.Context, q queryable, txn *model.Transaction) error {
	now := time.Now().UTC()
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = now
	}
	if txn.UpdatedAt.IsZero() {
		txn.UpdatedAt = txn.CreatedAt
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO transactions (
			id, type, amount, description, category, division,
			date, account_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, string(txn.Type), txn.Amount.String(), txn.Description, txn.Category,
		string(txn.Division), txn.Date.UTC(), nullableID(txn.AccountID),
		txn.CreatedAt.UTC(), txn.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: transaction %s already exists", common.ErrDuplicateEntry, txn.ID)
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	slog.Debug("created transaction",
		"transaction_id", txn.ID,
		"type", txn.Type,
		"amount", txn.Amount.String())
	return nil
}

func getTransaction(ctx context.Context, q queryable, id string) (*model.Transaction, error) {
	row := q.QueryRowContext(ctx, `SELECT `+transactionColumns+transactionFrom+` WHERE t.id = ?`, id)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

func updateTransaction(ctx context.Context, q queryable, txn *model.Transaction) error {
	txn.UpdatedAt = time.Now().UTC()
	result, err := q.ExecContext(ctx, `
		UPDATE transactions
		SET type = ?, amount = ?, description = ?, category = ?, division = ?,
			date = ?, updated_at = ?
		WHERE id = ?`,
		string(txn.Type), txn.Amount.String(), txn.Description, txn.Category,
		string(txn.Division), txn.Date.UTC(), txn.UpdatedAt, txn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return requireAffected(result, "transaction", txn.ID)
}

func deleteTransaction(ctx context.Context, q queryable, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return requireAffected(result, "transaction", id)
}

// buildWhere turns a filter into a WHERE clause and its arguments.
func buildWhere(filter service.TransactionFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if filter.Type != "" {
		conditions = append(conditions, "t.type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Division != "" {
		conditions = append(conditions, "t.division = ?")
		args = append(args, string(filter.Division))
	}
	if filter.Category != "" {
		conditions = append(conditions, "t.category = ?")
		args = append(args, filter.Category)
	}
	if filter.AccountID != "" {
		conditions = append(conditions, "t.account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.StartDate != nil {
		conditions = append(conditions, "t.date >= ?")
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "t.date <= ?")
		args = append(args, filter.EndDate.UTC())
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func listTransactions(ctx context.Context, q queryable, filter service.TransactionFilter) ([]model.Transaction, error) {
	where, args := buildWhere(filter)
	query := `SELECT ` + transactionColumns + transactionFrom + where +
		` ORDER BY t.date DESC, t.created_at DESC, t.id`

	switch {
	case filter.Limit > 0:
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	case filter.Offset > 0:
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	transactions := []model.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	slog.Debug("listed transactions", "count", len(transactions))
	return transactions, nil
}

func countTransactions(ctx context.Context, q queryable, filter service.TransactionFilter) (int, error) {
	where, args := buildWhere(filter)
	var count int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions t`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func getCategoryTotals(ctx context.Context, q queryable) (map[string]service.CategoryTotal, error) {
	// Amounts are summed in Go; SQLite would coerce the TEXT column to float.
	rows, err := q.QueryContext(ctx, `SELECT category, amount FROM transactions`)
	if err != nil {
		return nil, fmt.Errorf("failed to query category totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	totals := make(map[string]service.CategoryTotal)
	for rows.Next() {
		var (
			category string
			amount   decimal.Decimal
		)
		if err := rows.Scan(&category, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		total := totals[category]
		total.Amount = total.Amount.Add(amount)
		total.Count++
		totals[category] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category totals: %w", err)
	}

	return totals, nil
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		txn        model.Transaction
		txnType    string
		division   string
		accountID  sql.NullString
		joinedID   sql.NullString
		joinedName sql.NullString
		joinedType sql.NullString
	)

	if err := row.Scan(
		&txn.ID, &txnType, &txn.Amount, &txn.Description, &txn.Category, &division,
		&txn.Date, &accountID, &txn.CreatedAt, &txn.UpdatedAt,
		&joinedID, &joinedName, &joinedType,
	); err != nil {
		return nil, err
	}

	txn.Type = model.TransactionType(txnType)
	txn.Division = model.Division(division)
	txn.Date = txn.Date.UTC()
	txn.CreatedAt = txn.CreatedAt.UTC()
	txn.UpdatedAt = txn.UpdatedAt.UTC()

	if accountID.Valid {
		id := accountID.String
		txn.AccountID = &id
	}
	if joinedID.Valid {
		txn.Account = &model.AccountRef{
			ID:   joinedID.String,
			Name: joinedName.String,
			Type: model.AccountType(joinedType.String),
		}
	}

	return &txn, nil
}

func nullableID(id *string) sql.NullString {
	if id == nil || *id == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *id, Valid: true}
}
