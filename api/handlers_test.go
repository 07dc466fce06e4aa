/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Entry forms (production, sales, other sales, expenses)
- Statement reconciliation over HTTP
- Reports and xlsx exports
- Error status mapping
- Backup download
*/
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alwafa/bakery-ledger/bakery"
	memstore "github.com/alwafa/bakery-ledger/bakery/store"
	"github.com/alwafa/bakery-ledger/store/sqlite"
)

type testServer struct {
	t      *testing.T
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := bakery.NewService(store, bakery.Options{})
	h := NewHandler(svc, nil)
	h.Resetter = store
	return &testServer{t: t, router: NewRouter(h, RouterConfig{Demo: true})}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =============================================================================
// ENTRY FORMS
// =============================================================================

func TestSaveProduction_ComputesExpected(t *testing.T) {
	s := newTestServer(t)

	// WHEN: 2.5 bags are saved twice
	s.do(http.MethodPut, "/api/production/2024-05-01", SaveProductionRequest{FlourBags: 1})
	rec := s.do(http.MethodPut, "/api/production/2024-05-01", SaveProductionRequest{FlourBags: 2.5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: the last value wins
	got := decodeBody[ProductionDTO](t, s.do(http.MethodGet, "/api/production/2024-05-01", nil))
	assert.True(t, got.Stored)
	assert.Equal(t, 2.5, got.FlourBags)
	assert.Equal(t, int64(4000), got.ExpectedProduction)
}

func TestGetProduction_MissingDateIsZero(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/production/2024-05-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[ProductionDTO](t, rec)
	assert.False(t, got.Stored)
	assert.Zero(t, got.ExpectedProduction)
}

func TestSaveProduction_Rejections(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPut, "/api/production/2024-05-01", SaveProductionRequest{FlourBags: -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/production/2024-05-01", SaveProductionRequest{FlourBags: 1e20})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/production/01-05-2024", SaveProductionRequest{FlourBags: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveSales_PricesByChannel(t *testing.T) {
	s := newTestServer(t)

	// GIVEN: a distributor, the cash line and an unknown buyer
	rec := s.do(http.MethodPut, "/api/sales/2024-05-01", SaveSalesRequest{Lines: []SalesLineRequest{
		{Distributor: "هيثم", Delivered: 100, Returned: 10, CashPaid: 500},
		{Distributor: bakery.DefaultCashAccount, Delivered: 50},
		{Distributor: "مصنع الحلويات", Delivered: 200},
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: each line got its channel's default price
	sales := decodeBody[[]SalesDTO](t, rec)
	require.Len(t, sales, 3)
	assert.Equal(t, 16.0, sales[0].UnitPrice)
	assert.Equal(t, int64(90), sales[0].NetSales)
	assert.Equal(t, 1440.0, sales[0].TotalAmount)
	assert.Equal(t, 20.0, sales[1].UnitPrice)
	assert.Equal(t, 15.0, sales[2].UnitPrice)

	stored := decodeBody[[]SalesDTO](t, s.do(http.MethodGet, "/api/sales/2024-05-01", nil))
	assert.Len(t, stored, 3)
}

func TestSaveSales_EmptyBatchRejected(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPut, "/api/sales/2024-05-01", SaveSalesRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOtherSales_RoundTrip(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPut, "/api/other-sales/2024-05-01", SaveOtherSalesRequest{Items: []OtherSalesItemRequest{
		{ItemName: "كيك", Amount: 3000},
		{ItemName: "فحم", Amount: 1200},
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	items := decodeBody[[]OtherSalesDTO](t, s.do(http.MethodGet, "/api/other-sales/2024-05-01", nil))
	assert.Len(t, items, 2)
}

func TestGetExpenses_SuggestsFromProduction(t *testing.T) {
	s := newTestServer(t)

	// GIVEN: 2.5 bags and no stored expenses
	s.do(http.MethodPut, "/api/production/2024-05-01", SaveProductionRequest{FlourBags: 2.5})

	// WHEN: reading the expenses form
	got := decodeBody[ExpensesDTO](t, s.do(http.MethodGet, "/api/expenses/2024-05-01", nil))

	// THEN: the usual values are suggested
	assert.False(t, got.Stored)
	assert.Equal(t, 53000.0, got.Labor)
	assert.Equal(t, 20000.0, got.Wood)
	assert.Equal(t, 2500.0, got.Misc)

	// AND: saving replaces the suggestion
	rec := s.do(http.MethodPut, "/api/expenses/2024-05-01", SaveExpensesRequest{Labor: 50000, Wood: 18000, Misc: 2000})
	require.Equal(t, http.StatusOK, rec.Code)
	got = decodeBody[ExpensesDTO](t, s.do(http.MethodGet, "/api/expenses/2024-05-01", nil))
	assert.True(t, got.Stored)
	assert.Equal(t, 70000.0, got.Total)
}

// =============================================================================
// LEDGER
// =============================================================================

func TestStatement_SalesAndManualEntries(t *testing.T) {
	s := newTestServer(t)

	// GIVEN: a sale of 1600 with 500 paid on the spot, and a manual payment of 200
	s.do(http.MethodPut, "/api/sales/2024-05-01", SaveSalesRequest{Lines: []SalesLineRequest{
		{Distributor: "هيثم", Delivered: 100, CashPaid: 500},
	}})
	rec := s.do(http.MethodPost, "/api/ledger", LedgerEntryRequest{
		Date: "2024-05-02", Name: "هيثم", Description: "سداد", Credit: 200,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	entry := decodeBody[LedgerEntryDTO](t, rec)
	assert.NotZero(t, entry.ID)

	// WHEN: reading the statement for that account
	st := decodeBody[StatementDTO](t, s.do(http.MethodGet, "/api/statement?account="+url.QueryEscape("هيثم"), nil))

	// THEN: debit 1600, credit 700, balance 900
	assert.False(t, st.Empty)
	assert.Equal(t, 1600.0, st.TotalDebit)
	assert.Equal(t, 700.0, st.TotalCredit)
	assert.Equal(t, 900.0, st.Balance)
	require.Len(t, st.Rows, 2)
	assert.Equal(t, "2024-05-02", st.Rows[0].Date, "newest first")
	assert.Equal(t, "manual", st.Rows[0].Source)
}

func TestStatement_EmptyLedger(t *testing.T) {
	s := newTestServer(t)

	st := decodeBody[StatementDTO](t, s.do(http.MethodGet, "/api/statement", nil))
	assert.True(t, st.Empty)
	assert.Empty(t, st.Rows)
	assert.Zero(t, st.Balance)
}

func TestAddLedgerEntry_Rejections(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/ledger", LedgerEntryRequest{Date: "2024-05-02", Name: "هيثم", Debit: -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/ledger", LedgerEntryRequest{Date: "yesterday", Name: "هيثم"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/ledger", LedgerEntryRequest{Date: "2024-05-02", Name: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "blank names are caught by the service")
}

// =============================================================================
// REPORTS
// =============================================================================

func TestDailyReport_EmptyDate(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/reports/daily/2024-05-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	r := decodeBody[DailyReportDTO](t, rec)
	assert.Zero(t, r.ExpectedProduction)
	assert.Zero(t, r.NetProfit)
	assert.Empty(t, r.ActiveSales)
}

func TestMonthlyReport_InvalidMonth(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/reports/monthly/2024/13", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/reports/monthly/abc/1", nil).Code)
}

func TestMonthlyReport_February(t *testing.T) {
	s := newTestServer(t)

	s.do(http.MethodPut, "/api/sales/2024-02-29", SaveSalesRequest{Lines: []SalesLineRequest{
		{Distributor: "هيثم", Delivered: 100},
	}})

	r := decodeBody[MonthlyReportDTO](t, s.do(http.MethodGet, "/api/reports/monthly/2024/2", nil))
	assert.False(t, r.Empty)
	assert.Equal(t, "2024-02-29", r.End)
	assert.Equal(t, 1600.0, r.DistributionRevenue)
	require.Len(t, r.DailyRevenue, 1)
	assert.Equal(t, "2024-02-29", r.DailyRevenue[0].Label)
}

func TestExports_ReturnWorkbooks(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPut, "/api/sales/2024-05-01", SaveSalesRequest{Lines: []SalesLineRequest{
		{Distributor: "هيثم", Delivered: 100},
	}})

	for _, path := range []string{"/api/reports/monthly/2024/5/export", "/api/statement/export"} {
		rec := s.do(http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
		// xlsx is a zip archive
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), path)
	}
}

// =============================================================================
// PRICES
// =============================================================================

func TestSettings_UpdateAndResolve(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPut, "/api/settings/price_cash", UpdatePriceRequest{Value: 25})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	price := decodeBody[PriceDTO](t, s.do(http.MethodGet, "/api/prices/"+url.PathEscape(bakery.DefaultCashAccount), nil))
	assert.Equal(t, "cash", price.Channel)
	assert.Equal(t, 25.0, price.Price)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPut, "/api/settings/price_gold", UpdatePriceRequest{Value: 1}).Code)
}

func TestDistributorPrice_Override(t *testing.T) {
	s := newTestServer(t)

	// GIVEN: an override for one distributor
	rec := s.do(http.MethodPut, "/api/distributors/"+url.PathEscape("وجيه")+"/price", UpdatePriceRequest{Value: 18})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: the resolver and the list use it; others keep the default
	price := decodeBody[PriceDTO](t, s.do(http.MethodGet, "/api/prices/"+url.PathEscape("وجيه"), nil))
	assert.Equal(t, "distributor", price.Channel)
	assert.Equal(t, 18.0, price.Price)

	prices := decodeBody[[]DistributorPriceDTO](t, s.do(http.MethodGet, "/api/distributors/prices", nil))
	byName := map[string]float64{}
	for _, p := range prices {
		byName[p.Distributor] = p.Price
	}
	assert.Equal(t, 18.0, byName["وجيه"])
	assert.Equal(t, 16.0, byName["هيثم"])
}

// =============================================================================
// BACKUP / SCENARIOS
// =============================================================================

func TestDownloadBackup(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/backup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "bakery_backup_")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("SQLite format 3")))
}

func TestDownloadBackup_StoreWithoutSnapshots(t *testing.T) {
	// GIVEN: the in-memory store, which cannot snapshot
	svc := bakery.NewService(memstore.NewMemory(), bakery.Options{})
	router := NewRouter(NewHandler(svc, nil), RouterConfig{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/backup", nil))

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestLoadScenario_ShortDay(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "short-day", Date: "2024-05-10"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	r := decodeBody[DailyReportDTO](t, s.do(http.MethodGet, "/api/reports/daily/2024-05-10", nil))
	assert.Equal(t, int64(4800), r.ExpectedProduction)
	assert.Equal(t, int64(4500), r.NetSales)
	assert.Equal(t, int64(300), r.Deficit)
	assert.Equal(t, 4800.0, r.LossValue)

	current := decodeBody[ScenarioDTO](t, s.do(http.MethodGet, "/api/scenarios/current", nil))
	assert.Equal(t, "short-day", current.ID)
}

func TestLoadScenario_Overpayment(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "overpayment", Date: "2024-05-10"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	st := decodeBody[StatementDTO](t, s.do(http.MethodGet, "/api/statement?account="+url.QueryEscape("هيثم"), nil))
	assert.Equal(t, -5000.0, st.Balance)
}

func TestLoadScenario_Unknown(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScenarioRoutes_HiddenOutsideDemo(t *testing.T) {
	svc := bakery.NewService(memstore.NewMemory(), bakery.Options{})
	router := NewRouter(NewHandler(svc, nil), RouterConfig{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scenarios", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
