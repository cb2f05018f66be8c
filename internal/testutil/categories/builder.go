// Package categories provides test infrastructure for seeding categories.
// It offers a fluent API for building category sets and fixtures shared
// across tests.
//
// Example usage:
//
//	cats, err := categories.NewBuilder(t).
//		WithDefaultCategories().
//		WithCategory("Custom Category").
//		Build(ctx, storage)
package categories

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/google/uuid"

	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
)

// Builder provides a fluent interface for constructing test categories.
type Builder interface {
	// WithCategory adds a single expense category to the builder.
	WithCategory(name CategoryName) Builder

	// WithCategories adds multiple expense categories to the builder.
	WithCategories(names ...CategoryName) Builder

	// WithIncomeCategory adds a single income category to the builder.
	WithIncomeCategory(name CategoryName) Builder

	// WithDefaultCategories adds the starter set shipped with tally.
	WithDefaultCategories() Builder

	// WithFixture adds categories from a predefined fixture.
	WithFixture(fixture Fixture) Builder

	// Build creates the categories in the provided storage and returns them
	// sorted by name.
	Build(ctx context.Context, storage service.Storage) (Categories, error)

	// BuildMap creates categories and returns them as a map for easy lookup.
	BuildMap(ctx context.Context, storage service.Storage) (CategoryMap, error)
}

// CategoryName represents a strongly-typed category name.
type CategoryName string

// String returns the string representation of the category name.
func (c CategoryName) String() string {
	return string(c)
}

// Category names from the default set.
const (
	CategorySalary       CategoryName = "Salary"
	CategoryBusiness     CategoryName = "Business"
	CategoryInvestment   CategoryName = "Investment"
	CategoryOtherIncome  CategoryName = "Other Income"
	CategoryFood         CategoryName = "Food"
	CategoryFuel         CategoryName = "Fuel"
	CategoryRent         CategoryName = "Rent"
	CategoryUtilities    CategoryName = "Utilities"
	CategoryTransport    CategoryName = "Transport"
	CategoryShopping     CategoryName = "Shopping"
	CategoryTransfer     CategoryName = "Transfer"
	CategoryOtherExpense CategoryName = "Other Expense"
)

// Test-specific category names.
const (
	CategoryTest1 CategoryName = "Test Category 1"
	CategoryTest2 CategoryName = "Test Category 2"
)

// Categories represents a collection of created test categories.
type Categories []model.Category

// Find returns the category with the given name, or nil if not found.
func (c Categories) Find(name CategoryName) *model.Category {
	for i := range c {
		if c[i].Name == name.String() {
			return &c[i]
		}
	}
	return nil
}

// MustFind returns the category with the given name, or fails the test if not found.
func (c Categories) MustFind(t *testing.T, name CategoryName) model.Category {
	t.Helper()
	cat := c.Find(name)
	if cat == nil {
		t.Fatalf("category %q not found in test data", name)
	}
	return *cat
}

// Names returns all category names as a slice of strings.
func (c Categories) Names() []string {
	names := make([]string, len(c))
	for i, cat := range c {
		names[i] = cat.Name
	}
	return names
}

// CategoryMap provides O(1) lookup for categories by name.
type CategoryMap map[CategoryName]model.Category

// MustGet returns the category for the given name or fails the test.
func (m CategoryMap) MustGet(t *testing.T, name CategoryName) model.Category {
	t.Helper()
	cat, ok := m[name]
	if !ok {
		t.Fatalf("category %q not found in test data", name)
	}
	return cat
}

type categorySpec struct {
	typ  model.CategoryType
	icon string
}

// categoryBuilder implements the Builder interface.
type categoryBuilder struct {
	t          *testing.T
	categories map[CategoryName]categorySpec
}

// NewBuilder creates a new category builder for the given test.
func NewBuilder(t *testing.T) Builder {
	t.Helper()
	return &categoryBuilder{
		t:          t,
		categories: make(map[CategoryName]categorySpec),
	}
}

func (b *categoryBuilder) WithCategory(name CategoryName) Builder {
	b.categories[name] = categorySpec{typ: model.CategoryTypeExpense}
	return b
}

func (b *categoryBuilder) WithCategories(names ...CategoryName) Builder {
	for _, name := range names {
		b.WithCategory(name)
	}
	return b
}

func (b *categoryBuilder) WithIncomeCategory(name CategoryName) Builder {
	b.categories[name] = categorySpec{typ: model.CategoryTypeIncome}
	return b
}

func (b *categoryBuilder) WithDefaultCategories() Builder {
	for _, cat := range model.DefaultCategories() {
		b.categories[CategoryName(cat.Name)] = categorySpec{typ: cat.Type, icon: cat.Icon}
	}
	return b
}

func (b *categoryBuilder) WithFixture(fixture Fixture) Builder {
	for _, name := range fixture.Income() {
		b.WithIncomeCategory(name)
	}
	return b.WithCategories(fixture.Expense()...)
}

func (b *categoryBuilder) Build(ctx context.Context, storage service.Storage) (Categories, error) {
	b.t.Helper()

	// Convert map to slice for consistent ordering
	names := make([]CategoryName, 0, len(b.categories))
	for name := range b.categories {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	result := make(Categories, 0, len(names))
	for _, name := range names {
		spec := b.categories[name]
		cat := model.Category{
			ID:   uuid.NewString(),
			Name: name.String(),
			Type: spec.typ,
			Icon: spec.icon,
		}
		if err := storage.CreateCategory(ctx, &cat); err != nil {
			return nil, fmt.Errorf("failed to create category %q: %w", name, err)
		}
		result = append(result, cat)
	}

	return result, nil
}

func (b *categoryBuilder) BuildMap(ctx context.Context, storage service.Storage) (CategoryMap, error) {
	categories, err := b.Build(ctx, storage)
	if err != nil {
		return nil, err
	}

	m := make(CategoryMap, len(categories))
	for _, cat := range categories {
		m[CategoryName(cat.Name)] = cat
	}
	return m, nil
}
