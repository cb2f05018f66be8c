package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/tally/internal/certs"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/ledger"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/report"
	"github.com/Veraticus/tally/internal/testutil"
	"github.com/Veraticus/tally/internal/testutil/categories"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	db     *testutil.TestDB
	clock  *testClock
	server *Server
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDBWithBuilder(t, func(b categories.Builder) categories.Builder {
		return b.WithFixture(categories.FixtureHousehold)
	})
	clock := &testClock{now: time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)}

	l := ledger.New(db.Storage, ledger.WithClock(clock.Now))
	r := report.New(db.Storage, report.WithLocation(time.UTC), report.WithClock(clock.Now))

	return &testEnv{
		db:     db,
		clock:  clock,
		server: NewServer(l, r, Config{Addr: "127.0.0.1:0"}),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := setupServer(t)

	rec := env.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "OK", body["status"])
}

func TestAccounts_Lifecycle(t *testing.T) {
	env := setupServer(t)

	rec := env.do(t, http.MethodPost, "/api/accounts", `{"name":"Cash","balance":100,"type":"cash"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	account := decodeBody[model.Account](t, rec)
	assert.NotEmpty(t, account.ID)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(100)))

	rec = env.do(t, http.MethodGet, "/api/accounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]model.Account](t, rec), 1)

	rec = env.do(t, http.MethodPut, "/api/accounts/"+account.ID, map[string]string{"name": "Wallet cash"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[model.Account](t, rec)
	assert.Equal(t, "Wallet cash", updated.Name)
	assert.True(t, updated.Balance.Equal(decimal.NewFromInt(100)), "update must not touch the balance")

	env.db.MustCreateTransaction(testutil.TxnSpec{
		Date:      time.Date(2024, 6, 9, 12, 0, 0, 0, time.UTC),
		AccountID: &account.ID,
		Type:      model.TypeExpense,
		Amount:    "5",
		Category:  "Food",
	})

	rec = env.do(t, http.MethodGet, "/api/accounts/"+account.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decodeBody[ledger.AccountDetail](t, rec)
	assert.Equal(t, account.ID, detail.ID)
	assert.Len(t, detail.RecentTransactions, 1)

	rec = env.do(t, http.MethodDelete, "/api/accounts/"+account.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Account deleted successfully", decodeBody[MessageResponse](t, rec).Message)

	rec = env.do(t, http.MethodGet, "/api/accounts/"+account.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decodeBody[ErrorResponse](t, rec).Message)
}

func TestAccounts_Errors(t *testing.T) {
	env := setupServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{name: "missing name", method: http.MethodPost, path: "/api/accounts", body: `{"balance":10}`, status: http.StatusBadRequest},
		{name: "bad type", method: http.MethodPost, path: "/api/accounts", body: `{"name":"X","type":"piggy"}`, status: http.StatusBadRequest},
		{name: "malformed body", method: http.MethodPost, path: "/api/accounts", body: `{"name":`, status: http.StatusBadRequest},
		{name: "update unknown", method: http.MethodPut, path: "/api/accounts/nope", body: `{"name":"X"}`, status: http.StatusNotFound},
		{name: "delete unknown", method: http.MethodDelete, path: "/api/accounts/nope", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeBody[ErrorResponse](t, rec).Message)
		})
	}
}

func TestTransactions_EditWindow(t *testing.T) {
	env := setupServer(t)
	account := env.db.MustCreateAccount("Bank", model.AccountBank, "1000")

	rec := env.do(t, http.MethodPost, "/api/transactions", map[string]any{
		"type":        "income",
		"amount":      100,
		"description": "Invoice 42",
		"category":    "Business",
		"division":    "office",
		"accountId":   account.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[model.Transaction](t, rec)
	assert.True(t, env.db.MustGetBalance(account.ID).Equal(decimal.NewFromInt(1100)))

	rec = env.do(t, http.MethodPut, "/api/transactions/"+created.ID, map[string]any{"amount": 150})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, env.db.MustGetBalance(account.ID).Equal(decimal.NewFromInt(1150)))

	env.clock.Advance(13 * time.Hour)

	rec = env.do(t, http.MethodPut, "/api/transactions/"+created.ID, map[string]any{"amount": 500})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, rec).Message, "edit")
	assert.True(t, env.db.MustGetBalance(account.ID).Equal(decimal.NewFromInt(1150)))

	rec = env.do(t, http.MethodGet, "/api/transactions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[model.Transaction](t, rec).Amount.Equal(decimal.NewFromInt(150)))

	rec = env.do(t, http.MethodDelete, "/api/transactions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.db.MustGetBalance(account.ID).Equal(decimal.NewFromInt(1000)))

	rec = env.do(t, http.MethodGet, "/api/transactions/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactions_CreateErrors(t *testing.T) {
	env := setupServer(t)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{
			name:   "zero amount",
			body:   map[string]any{"type": "expense", "amount": 0, "description": "x", "category": "Food", "division": "personal"},
			status: http.StatusBadRequest,
		},
		{
			name:   "bad division",
			body:   map[string]any{"type": "expense", "amount": 3, "description": "x", "category": "Food", "division": "home"},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown account",
			body:   map[string]any{"type": "expense", "amount": 3, "description": "x", "category": "Food", "division": "personal", "accountId": "nope"},
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/transactions", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestTransactions_ListFilters(t *testing.T) {
	env := setupServer(t)
	account := env.db.MustCreateAccount("Bank", model.AccountBank, "0")

	env.db.MustCreateTransaction(testutil.TxnSpec{
		Date: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC), Type: model.TypeIncome,
		Amount: "2000", Category: "Salary", Division: model.DivisionOffice, AccountID: &account.ID,
	})
	env.db.MustCreateTransaction(testutil.TxnSpec{
		Date: time.Date(2024, 6, 15, 20, 0, 0, 0, time.UTC), Type: model.TypeExpense,
		Amount: "40", Category: "Food",
	})
	env.db.MustCreateTransaction(testutil.TxnSpec{
		Date: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), Type: model.TypeExpense,
		Amount: "900", Category: "Rent",
	})

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "all newest first", query: "", want: []string{"Rent", "Food", "Salary"}},
		{name: "by type", query: "?type=expense", want: []string{"Rent", "Food"}},
		{name: "by division", query: "?division=office", want: []string{"Salary"}},
		{name: "by category", query: "?category=Food", want: []string{"Food"}},
		{name: "by account", query: "?accountId=" + account.ID, want: []string{"Salary"}},
		{name: "date-only end covers the day", query: "?startDate=2024-06-01&endDate=2024-06-15", want: []string{"Food", "Salary"}},
		{name: "timestamp bounds", query: "?startDate=2024-06-01T09:00:00Z&endDate=2024-06-30T23:59:59Z", want: []string{"Food"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/transactions"+tt.query, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			txns := decodeBody[[]model.Transaction](t, rec)
			got := make([]string, 0, len(txns))
			for _, txn := range txns {
				got = append(got, txn.Category)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("invalid filters", func(t *testing.T) {
		for _, q := range []string{"?type=gift", "?division=home", "?startDate=yesterday", "?endDate=06/15/2024"} {
			rec := env.do(t, http.MethodGet, "/api/transactions"+q, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		}
	})
}

func TestTransfer(t *testing.T) {
	env := setupServer(t)
	from := env.db.MustCreateAccount("Bank", model.AccountBank, "500")
	to := env.db.MustCreateAccount("Cash", model.AccountCash, "20")

	t.Run("insufficient funds", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/accounts/transfer", map[string]any{
			"fromAccountId": from.ID, "toAccountId": to.ID, "amount": 501,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.True(t, env.db.MustGetBalance(from.ID).Equal(decimal.NewFromInt(500)))
	})

	t.Run("unknown account", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/accounts/transfer", map[string]any{
			"fromAccountId": from.ID, "toAccountId": "nope", "amount": 1,
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/accounts/transfer", map[string]any{
			"fromAccountId": from.ID, "toAccountId": to.ID, "amount": 200,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decodeBody[TransferResponse](t, rec)
		assert.Equal(t, "Transfer successful", resp.Message)
		assert.True(t, resp.FromAccount.Balance.Equal(decimal.NewFromInt(300)))
		assert.True(t, resp.ToAccount.Balance.Equal(decimal.NewFromInt(220)))
		require.Len(t, resp.Transactions, 2)
		assert.Equal(t, model.TypeExpense, resp.Transactions[0].Type)
		assert.Equal(t, model.TypeIncome, resp.Transactions[1].Type)
		for _, txn := range resp.Transactions {
			assert.Equal(t, model.TransferCategory, txn.Category)
			assert.Equal(t, model.DivisionPersonal, txn.Division)
		}
	})
}

func TestDashboard_Stats(t *testing.T) {
	env := setupServer(t)

	for _, spec := range []testutil.TxnSpec{
		{Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Type: model.TypeIncome, Amount: "1000", Category: "Salary", Division: model.DivisionOffice},
		{Date: time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC), Type: model.TypeExpense, Amount: "30", Category: "Food"},
		{Date: time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC), Type: model.TypeExpense, Amount: "70", Category: "Fuel"},
		{Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Type: model.TypeExpense, Amount: "500", Category: "Rent"},
	} {
		env.db.MustCreateTransaction(spec)
	}

	rec := env.do(t, http.MethodGet, "/api/dashboard/stats?period=month&date=2024-05-20", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stats := decodeBody[report.Stats](t, rec)
	assert.Equal(t, report.PeriodMonth, stats.Period)
	assert.Equal(t, 3, stats.TransactionCount)
	assert.True(t, stats.Summary.TotalIncome.Equal(decimal.NewFromInt(1000)))
	assert.True(t, stats.Summary.TotalExpense.Equal(decimal.NewFromInt(100)))
	assert.True(t, stats.Summary.Balance.Equal(decimal.NewFromInt(900)))
	assert.NotContains(t, stats.CategoryBreakdown, "Rent")
	require.Contains(t, stats.DivisionBreakdown, model.DivisionOffice)
	assert.True(t, stats.DivisionBreakdown[model.DivisionOffice].Income.Equal(decimal.NewFromInt(1000)))

	t.Run("defaults to the current month", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/dashboard/stats", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		stats := decodeBody[report.Stats](t, rec)
		assert.Equal(t, 1, stats.TransactionCount)
	})

	t.Run("invalid input", func(t *testing.T) {
		for _, q := range []string{"?period=decade", "?date=soon"} {
			rec := env.do(t, http.MethodGet, "/api/dashboard/stats"+q, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		}
	})
}

func TestDashboard_History(t *testing.T) {
	env := setupServer(t)
	for day := 1; day <= 3; day++ {
		env.db.MustCreateTransaction(testutil.TxnSpec{
			Date:     time.Date(2024, 6, day, 10, 0, 0, 0, time.UTC),
			Type:     model.TypeExpense,
			Amount:   fmt.Sprintf("%d", day),
			Category: "Food",
		})
	}

	rec := env.do(t, http.MethodGet, "/api/dashboard/history?page=2&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	page := decodeBody[report.HistoryPage](t, rec)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Transactions, 1)
	assert.True(t, page.Transactions[0].Amount.Equal(decimal.NewFromInt(1)))

	rec = env.do(t, http.MethodGet, "/api/dashboard/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decodeBody[report.HistoryPage](t, rec)
	assert.Equal(t, report.DefaultLimit, page.Limit)
	assert.Len(t, page.Transactions, 3)

	rec = env.do(t, http.MethodGet, "/api/dashboard/history?limit=many", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCategories(t *testing.T) {
	env := setupServer(t)

	rec := env.do(t, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	initial := decodeBody[[]model.Category](t, rec)
	require.NotEmpty(t, initial)

	rec = env.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "Gifts", "type": "expense", "icon": "gift"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[model.Category](t, rec)

	rec = env.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "Gifts", "type": "expense"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "duplicate names are rejected")

	env.db.MustCreateTransaction(testutil.TxnSpec{
		Date: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), Type: model.TypeExpense, Amount: "12.5", Category: "Gifts",
	})

	rec = env.do(t, http.MethodGet, "/api/categories/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody[[]model.CategorySummary](t, rec)
	assert.Len(t, summary, len(initial)+1)
	for _, s := range summary {
		if s.Name == "Gifts" {
			assert.Equal(t, 1, s.TransactionCount)
			assert.True(t, s.TotalAmount.Equal(decimal.RequireFromString("12.5")))
		}
	}

	rec = env.do(t, http.MethodDelete, "/api/categories/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/categories/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want int
	}{
		{name: "validation", err: common.NewValidationError("amount", "must be positive"), want: http.StatusBadRequest},
		{name: "insufficient funds", err: fmt.Errorf("transfer: %w", common.ErrInsufficientFunds), want: http.StatusBadRequest},
		{name: "duplicate", err: common.ErrDuplicateEntry, want: http.StatusBadRequest},
		{name: "edit window", err: common.ErrEditWindowExpired, want: http.StatusForbidden},
		{name: "not found", err: fmt.Errorf("account x: %w", common.ErrNotFound), want: http.StatusNotFound},
		{name: "partial write", err: common.ErrPartialWrite, want: http.StatusInternalServerError},
		{name: "other", err: errors.New("disk full"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestWriteError_ServerFault(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)

	writeError(rec, req, "Error fetching accounts", errors.New("database is locked"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "Error fetching accounts", body.Message)
	assert.Equal(t, "database is locked", body.Error)
}

func TestServe_GracefulShutdown(t *testing.T) {
	env := setupServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/api/health"
	get := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
		require.NoError(t, err)
		return http.DefaultClient.Do(req)
	}
	require.Eventually(t, func() bool {
		resp, err := get()
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	_, err = get()
	assert.Error(t, err)
}

func TestServe_TLS(t *testing.T) {
	env := setupServer(t)

	tlsCfg, err := certs.NewStore(t.TempDir()).TLSConfig()
	require.NoError(t, err)
	server := NewServer(env.server.ledger, env.server.reporter, Config{Addr: "127.0.0.1:0", TLS: tlsCfg})

	leaf, err := x509.ParseCertificate(tlsCfg.Certificates[0].Certificate[0])
	require.NoError(t, err)
	pool := x509.NewCertPool()
	pool.AddCert(leaf)
	client := &http.Client{Transport: &http.Transport{
		TLSClientConfig: &tls.Config{RootCAs: pool, ServerName: "localhost", MinVersion: tls.VersionTLS12},
	}}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, ln) }()

	url := "https://" + ln.Addr().String() + "/api/health"
	require.Eventually(t, func() bool {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK && resp.TLS != nil
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestCORS(t *testing.T) {
	preflight := func(origin string) *http.Request {
		req := httptest.NewRequest(http.MethodOptions, "/api/transactions", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")
		return req
	}

	tests := []struct {
		name       string
		origin     string
		wantOrigin string
		origins    []string
	}{
		{name: "any origin", origins: []string{"*"}, origin: "http://localhost:3000", wantOrigin: "*"},
		{name: "listed origin", origins: []string{"https://books.example.com"}, origin: "https://books.example.com", wantOrigin: "https://books.example.com"},
		{name: "unlisted origin", origins: []string{"https://books.example.com"}, origin: "https://evil.example.com"},
		{name: "disabled", origin: "http://localhost:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupServer(t)
			server := NewServer(env.server.ledger, env.server.reporter, Config{Addr: "127.0.0.1:0", CORSOrigins: tt.origins})

			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, preflight(tt.origin))

			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantOrigin != "" {
				assert.Less(t, rec.Code, http.StatusMultipleChoices)
				assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
			}
		})
	}

	t.Run("simple request carries the header", func(t *testing.T) {
		env := setupServer(t)
		server := NewServer(env.server.ledger, env.server.reporter, Config{Addr: "127.0.0.1:0", CORSOrigins: []string{"*"}})

		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
