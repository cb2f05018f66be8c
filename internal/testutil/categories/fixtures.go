package categories

// Fixture represents a predefined set of categories for testing.
type Fixture interface {
	// Name returns the fixture's descriptive name.
	Name() string

	// Income returns the income category names included in this fixture.
	Income() []CategoryName

	// Expense returns the expense category names included in this fixture.
	Expense() []CategoryName
}

// fixture implements the Fixture interface.
type fixture struct {
	name    string
	income  []CategoryName
	expense []CategoryName
}

func (f *fixture) Name() string            { return f.name }
func (f *fixture) Income() []CategoryName  { return f.income }
func (f *fixture) Expense() []CategoryName { return f.expense }

// Predefined fixtures for common test scenarios.
var (
	// FixtureMinimal provides the absolute minimum categories for basic tests.
	FixtureMinimal = &fixture{
		name:    "Minimal",
		income:  []CategoryName{CategorySalary},
		expense: []CategoryName{CategoryFood, CategoryRent},
	}

	// FixtureHousehold covers the usual mix of a personal ledger, including
	// the category used by transfers.
	FixtureHousehold = &fixture{
		name:   "Household",
		income: []CategoryName{CategorySalary, CategoryBusiness, CategoryInvestment},
		expense: []CategoryName{
			CategoryFood,
			CategoryFuel,
			CategoryRent,
			CategoryUtilities,
			CategoryTransport,
			CategoryShopping,
			CategoryTransfer,
		},
	}

	// FixtureCatchAll holds only the fallback categories bookings land in
	// when nothing more specific applies.
	FixtureCatchAll = &fixture{
		name:    "CatchAll",
		income:  []CategoryName{CategoryOtherIncome},
		expense: []CategoryName{CategoryOtherExpense},
	}

	// FixtureTestingOnly provides generic categories for edge cases.
	FixtureTestingOnly = &fixture{
		name:    "TestingOnly",
		income:  []CategoryName{CategoryTest1},
		expense: []CategoryName{CategoryTest2},
	}
)
