package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

// ListCategories returns all categories ordered by name.
func (s *SQLiteStorage) ListCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listCategories(ctx, s.db)
}

// GetCategory returns a category by id.
func (s *SQLiteStorage) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getCategory(ctx, s.db, "id", id)
}

// GetCategoryByName returns a category by its name.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return getCategory(ctx, s.db, "name", name)
}

// CreateCategory inserts a category. A taken name yields common.ErrDuplicateEntry.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}
	return createCategory(ctx, s.db, category)
}

// DeleteCategory removes a category. Transactions citing its name are untouched.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return deleteCategory(ctx, s.db, id)
}

func listCategories(ctx context.Context, q queryable) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, type, icon, created_at
		FROM categories
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	categories := []model.Category{}
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

func getCategory(ctx context.Context, q queryable, column, value string) (*model.Category, error) {
	var query string
	switch column {
	case "id":
		query = `SELECT id, name, type, icon, created_at FROM categories WHERE id = ?`
	case "name":
		query = `SELECT id, name, type, icon, created_at FROM categories WHERE name = ?`
	default:
		return nil, fmt.Errorf("unsupported category lookup column %q", column)
	}

	cat, err := scanCategory(q.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: category %s", common.ErrNotFound, value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return cat, nil
}

func createCategory(ctx context.Context, q queryable, category *model.Category) error {
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO categories (id, name, type, icon, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		category.ID, category.Name, string(category.Type), category.Icon, category.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category %q already exists", common.ErrDuplicateEntry, category.Name)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	slog.Info("created new category", "name", category.Name, "type", category.Type)
	return nil
}

func deleteCategory(ctx context.Context, q queryable, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return requireAffected(result, "category", id)
}

func scanCategory(row rowScanner) (*model.Category, error) {
	var (
		cat     model.Category
		catType string
	)
	if err := row.Scan(&cat.ID, &cat.Name, &catType, &cat.Icon, &cat.CreatedAt); err != nil {
		return nil, err
	}
	cat.Type = model.CategoryType(catType)
	cat.CreatedAt = cat.CreatedAt.UTC()
	return &cat, nil
}
