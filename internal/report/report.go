package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
)

// Pagination defaults for History.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Flow is an income/expense pair.
type Flow struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

func (f *Flow) add(t *model.Transaction) {
	if t.Type == model.TypeIncome {
		f.Income = f.Income.Add(t.Amount)
		return
	}
	f.Expense = f.Expense.Add(t.Amount)
}

// Summary holds the period totals.
type Summary struct {
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	Balance      decimal.Decimal `json:"balance"`
}

// Stats is the dashboard view of one period.
type Stats struct {
	StartDate         time.Time                `json:"startDate"`
	EndDate           time.Time                `json:"endDate"`
	CategoryBreakdown map[string]*Flow         `json:"categoryBreakdown"`
	DivisionBreakdown map[model.Division]*Flow `json:"divisionBreakdown"`
	Period            Period                   `json:"period"`
	Summary           Summary                  `json:"summary"`
	TransactionCount  int                      `json:"transactionCount"`
}

// HistoryPage is one page of transactions, newest business date first.
type HistoryPage struct {
	Transactions []model.Transaction `json:"transactions"`
	TotalPages   int                 `json:"totalPages"`
	CurrentPage  int                 `json:"currentPage"`
	Limit        int                 `json:"limit"`
	Total        int                 `json:"total"`
}

// Reporter reads the ledger to build reports. It never writes.
type Reporter struct {
	storage  service.Storage
	location *time.Location
	now      func() time.Time
}

// Option customizes a Reporter.
type Option func(*Reporter)

// WithLocation sets the zone period bounds are computed in.
func WithLocation(loc *time.Location) Option {
	return func(r *Reporter) {
		if loc != nil {
			r.location = loc
		}
	}
}

// WithClock replaces the wall clock used when no reference date is given.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		r.now = now
	}
}

// New creates a Reporter over storage.
func New(storage service.Storage, opts ...Option) *Reporter {
	r := &Reporter{
		storage:  storage,
		location: time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Location returns the zone period bounds are computed in.
func (r *Reporter) Location() *time.Location {
	return r.location
}

// Stats aggregates every transaction whose business date falls inside the
// period containing ref. A nil ref means now.
func (r *Reporter) Stats(ctx context.Context, period Period, ref *time.Time) (*Stats, error) {
	if period == "" {
		period = DefaultPeriod
	}
	at := r.now()
	if ref != nil && !ref.IsZero() {
		at = *ref
	}

	start, end, err := Bounds(period, at, r.location)
	if err != nil {
		return nil, err
	}

	txns, err := r.storage.ListTransactions(ctx, service.TransactionFilter{
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s transactions: %w", period, err)
	}

	stats := &Stats{
		Period:            period,
		StartDate:         start,
		EndDate:           end,
		CategoryBreakdown: make(map[string]*Flow),
		DivisionBreakdown: make(map[model.Division]*Flow, len(model.Divisions)),
		TransactionCount:  len(txns),
	}
	for _, d := range model.Divisions {
		stats.DivisionBreakdown[d] = &Flow{}
	}

	for i := range txns {
		t := &txns[i]
		if t.Type == model.TypeIncome {
			stats.Summary.TotalIncome = stats.Summary.TotalIncome.Add(t.Amount)
		} else {
			stats.Summary.TotalExpense = stats.Summary.TotalExpense.Add(t.Amount)
		}

		bucket, ok := stats.CategoryBreakdown[t.Category]
		if !ok {
			bucket = &Flow{}
			stats.CategoryBreakdown[t.Category] = bucket
		}
		bucket.add(t)

		if division, ok := stats.DivisionBreakdown[t.Division]; ok {
			division.add(t)
		}
	}
	stats.Summary.Balance = stats.Summary.TotalIncome.Sub(stats.Summary.TotalExpense)

	return stats, nil
}

// History returns one page of all transactions. Non-positive page or limit
// fall back to the defaults; limit is capped at MaxLimit.
func (r *Reporter) History(ctx context.Context, page, limit int) (*HistoryPage, error) {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	total, err := r.storage.CountTransactions(ctx, service.TransactionFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	txns, err := r.storage.ListTransactions(ctx, service.TransactionFilter{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load history page %d: %w", page, err)
	}
	if txns == nil {
		txns = []model.Transaction{}
	}

	return &HistoryPage{
		Transactions: txns,
		TotalPages:   (total + limit - 1) / limit,
		CurrentPage:  page,
		Limit:        limit,
		Total:        total,
	}, nil
}

// CategorySummary returns every category with the total amount and count of
// the transactions citing its name, in category name order.
func (r *Reporter) CategorySummary(ctx context.Context) ([]model.CategorySummary, error) {
	categories, err := r.storage.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := r.storage.GetCategoryTotals(ctx)
	if err != nil {
		return nil, err
	}

	summary := make([]model.CategorySummary, 0, len(categories))
	for _, c := range categories {
		total := totals[c.Name]
		summary = append(summary, model.CategorySummary{
			Category:         c,
			TotalAmount:      total.Amount,
			TransactionCount: total.Count,
		})
	}
	return summary, nil
}
