package categories_test

import (
	"context"
	"testing"

	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/testutil"
	"github.com/Veraticus/tally/internal/testutil/categories"
)

func TestBuilder_WithCategory(t *testing.T) {
	db := testutil.SetupTestDBWithBuilder(t, func(b categories.Builder) categories.Builder {
		return b.WithCategory(categories.CategoryFood)
	})

	ctx := context.Background()
	cat, err := db.Storage.GetCategoryByName(ctx, "Food")
	if err != nil {
		t.Fatalf("failed to get category: %v", err)
	}
	if cat.Type != model.CategoryTypeExpense {
		t.Errorf("expected type %q, got %q", model.CategoryTypeExpense, cat.Type)
	}
}

func TestBuilder_WithFixture(t *testing.T) {
	db := testutil.SetupTestDBWithBuilder(t, func(b categories.Builder) categories.Builder {
		return b.WithFixture(categories.FixtureMinimal)
	})

	ctx := context.Background()
	cats, err := db.Storage.ListCategories(ctx)
	if err != nil {
		t.Fatalf("failed to list categories: %v", err)
	}
	if len(cats) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(cats))
	}

	salary := db.Categories.MustFind(t, categories.CategorySalary)
	if salary.Type != model.CategoryTypeIncome {
		t.Errorf("expected Salary to be an income category, got %q", salary.Type)
	}
}

func TestBuilder_WithDefaultCategories(t *testing.T) {
	db := testutil.SetupTestDBWithBuilder(t, func(b categories.Builder) categories.Builder {
		return b.WithDefaultCategories()
	})

	defaults := model.DefaultCategories()
	if len(db.Categories) != len(defaults) {
		t.Fatalf("expected %d categories, got %d", len(defaults), len(db.Categories))
	}

	transfer := db.Categories.MustFind(t, categories.CategoryTransfer)
	if transfer.Icon == "" {
		t.Error("expected default categories to carry icons")
	}
}

func TestBuilder_DuplicateNamesCollapse(t *testing.T) {
	db := testutil.SetupTestDBWithBuilder(t, func(b categories.Builder) categories.Builder {
		return b.WithCategories(categories.CategoryRent, categories.CategoryRent).
			WithFixture(categories.FixtureMinimal)
	})

	if len(db.Categories) != 3 {
		t.Errorf("expected 3 categories, got %d: %v", len(db.Categories), db.Categories.Names())
	}
}

func TestBuilder_CatchAllFixture(t *testing.T) {
	db := testutil.SetupTestDBWithBuilder(t, func(b categories.Builder) categories.Builder {
		return b.WithFixture(categories.FixtureCatchAll)
	})

	if len(db.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d: %v", len(db.Categories), db.Categories.Names())
	}
	if got := db.Categories.MustFind(t, categories.CategoryOtherIncome).Type; got != model.CategoryTypeIncome {
		t.Errorf("expected Other Income to be an income category, got %q", got)
	}
	if got := db.Categories.MustFind(t, categories.CategoryOtherExpense).Type; got != model.CategoryTypeExpense {
		t.Errorf("expected Other Expense to be an expense category, got %q", got)
	}
}
