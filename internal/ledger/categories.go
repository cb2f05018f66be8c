package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
)

// ListCategories returns all categories ordered by name.
func (l *Ledger) ListCategories(ctx context.Context) ([]model.Category, error) {
	return l.storage.ListCategories(ctx)
}

// CreateCategory adds a category. Names are unique.
func (l *Ledger) CreateCategory(ctx context.Context, in CreateCategoryInput) (*model.Category, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	category := &model.Category{
		ID:        l.newID(),
		Name:      in.Name,
		Type:      in.Type,
		Icon:      in.Icon,
		CreatedAt: l.now().UTC(),
	}
	if err := l.storage.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category. Transactions citing its name keep it.
func (l *Ledger) DeleteCategory(ctx context.Context, id string) error {
	return l.storage.DeleteCategory(ctx, id)
}

// SeedCategories creates any of the default categories that do not exist
// yet and returns how many were added.
func (l *Ledger) SeedCategories(ctx context.Context) (int, error) {
	added := 0
	err := l.withTx(ctx, "seed categories", func(tx service.Transaction) error {
		for _, cat := range model.DefaultCategories() {
			_, err := tx.GetCategoryByName(ctx, cat.Name)
			if err == nil {
				continue
			}
			if !errors.Is(err, common.ErrNotFound) {
				return err
			}

			cat.ID = l.newID()
			cat.CreatedAt = l.now().UTC()
			if err := tx.CreateCategory(ctx, &cat); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("seeded default categories", "added", added)
	return added, nil
}
