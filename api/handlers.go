/*
handlers.go - HTTP API handlers for the bakery ledger

PURPOSE:
  Exposes the bakery service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the bakery package.

ENDPOINTS:
  Entry forms (one date at a time):
    GET    /api/catalog                       Distributors, cash account, items
    GET    /api/production/{date}             Stored production (or zeros)
    PUT    /api/production/{date}             Save flour bags
    GET    /api/sales/{date}                  Stored sales lines
    PUT    /api/sales/{date}                  Save a batch of sales lines
    GET    /api/other-sales/{date}            Stored item amounts
    PUT    /api/other-sales/{date}            Save item amounts
    GET    /api/expenses/{date}               Stored or suggested expenses
    PUT    /api/expenses/{date}               Save expenses

  Ledger:
    POST   /api/ledger                        Append a manual debit/credit
    GET    /api/statement?account=NAME        Reconciled statement
    GET    /api/statement/export              Statement as xlsx

  Reports:
    GET    /api/reports/daily/{date}
    GET    /api/reports/monthly/{year}/{month}
    GET    /api/reports/monthly/{year}/{month}/export

  Prices:
    GET    /api/settings                      Global prices
    PUT    /api/settings/{key}
    GET    /api/distributors/prices           Effective distributor prices
    PUT    /api/distributors/{name}/price
    GET    /api/prices/{name}                 Resolved price for a line name

  Admin:
    GET    /api/backup                        Raw SQLite snapshot

REQUEST FLOW:
  1. Parse path params and body
  2. Validate the body (validator tags on request DTOs)
  3. Call bakery.Service
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON ErrorResponse with:
  - 400: Malformed body, bad path params, bakery.ErrInvalidInput
  - 501: bakery.ErrStoreRequired (backup on a store without snapshots)
  - 500: Everything else (storage failures)

SECURITY NOTE:
  No authentication. The server is meant for a single shop on a local
  network.

SEE ALSO:
  - dto.go: Request/response data structures
  - export.go: xlsx rendering
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/alwafa/bakery-ledger/bakery"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Resetter clears every stored record. Only demo scenarios use it.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *bakery.Service
	// Resetter is optional; without it scenarios cannot be loaded.
	Resetter Resetter

	logger   *zap.Logger
	validate *validator.Validate

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler for the given service.
func NewHandler(svc *bakery.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Service:  svc,
		logger:   logger,
		validate: validator.New(),
	}
}

// =============================================================================
// CATALOG
// =============================================================================

// GetCatalog returns the names offered by the entry forms.
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	c := h.Service.Catalog()
	writeJSON(w, http.StatusOK, CatalogDTO{
		Distributors: c.Distributors,
		CashAccount:  c.CashAccount,
		OtherItems:   c.OtherItems,
	})
}

// =============================================================================
// PRODUCTION
// =============================================================================

// GetProduction returns the production of a date.
func (h *Handler) GetProduction(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	rec, stored, err := h.Service.Production(r.Context(), date)
	if err != nil {
		h.fail(w, "Failed to load production", err)
		return
	}
	writeJSON(w, http.StatusOK, ProductionDTO{
		Date:               date.String(),
		FlourBags:          money(rec.FlourBags),
		ExpectedProduction: rec.ExpectedProduction,
		Stored:             stored,
	})
}

// SaveProduction stores the flour bags used on a date.
func (h *Handler) SaveProduction(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	var req SaveProductionRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rec, err := h.Service.SaveProduction(r.Context(), date, decimal.NewFromFloat(req.FlourBags))
	if err != nil {
		h.fail(w, "Failed to save production", err)
		return
	}
	writeJSON(w, http.StatusOK, ProductionDTO{
		Date:               rec.Date.String(),
		FlourBags:          money(rec.FlourBags),
		ExpectedProduction: rec.ExpectedProduction,
		Stored:             true,
	})
}

// =============================================================================
// SALES
// =============================================================================

// GetSales returns the sales lines stored for a date.
func (h *Handler) GetSales(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	recs, err := h.Service.Sales(r.Context(), date)
	if err != nil {
		h.fail(w, "Failed to load sales", err)
		return
	}
	writeJSON(w, http.StatusOK, toSalesDTOs(recs))
}

// SaveSales prices and stores a batch of sales lines. On a failure part way
// the lines saved so far stay saved and are not returned.
func (h *Handler) SaveSales(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	var req SaveSalesRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	lines := make([]bakery.SalesInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = bakery.SalesInput{
			Distributor: l.Distributor,
			Delivered:   l.Delivered,
			Returned:    l.Returned,
			CashPaid:    decimal.NewFromFloat(l.CashPaid),
		}
	}

	recs, err := h.Service.SaveSalesBatch(r.Context(), date, lines)
	if err != nil {
		h.fail(w, "Failed to save sales", err)
		return
	}
	writeJSON(w, http.StatusOK, toSalesDTOs(recs))
}

// GetOtherSales returns the item amounts stored for a date.
func (h *Handler) GetOtherSales(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	recs, err := h.Service.OtherSales(r.Context(), date)
	if err != nil {
		h.fail(w, "Failed to load other sales", err)
		return
	}
	writeJSON(w, http.StatusOK, toOtherSalesDTOs(recs))
}

// SaveOtherSales stores each item amount for a date.
func (h *Handler) SaveOtherSales(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	var req SaveOtherSalesRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	saved := make([]bakery.OtherSalesRecord, 0, len(req.Items))
	for _, item := range req.Items {
		rec, err := h.Service.SaveOtherSales(r.Context(), date, item.ItemName, decimal.NewFromFloat(item.Amount))
		if err != nil {
			h.fail(w, "Failed to save other sales", err)
			return
		}
		saved = append(saved, rec)
	}
	writeJSON(w, http.StatusOK, toOtherSalesDTOs(saved))
}

// =============================================================================
// EXPENSES
// =============================================================================

// GetExpenses returns the stored expenses, or the suggested values when the
// date has none.
func (h *Handler) GetExpenses(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	rec, stored, err := h.Service.SuggestedExpenses(r.Context(), date)
	if err != nil {
		h.fail(w, "Failed to load expenses", err)
		return
	}
	writeJSON(w, http.StatusOK, toExpensesDTO(rec, stored))
}

// SaveExpenses stores the expenses of a date.
func (h *Handler) SaveExpenses(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	var req SaveExpensesRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rec, err := h.Service.SaveExpenses(r.Context(), date,
		decimal.NewFromFloat(req.Labor),
		decimal.NewFromFloat(req.Wood),
		decimal.NewFromFloat(req.Misc),
	)
	if err != nil {
		h.fail(w, "Failed to save expenses", err)
		return
	}
	writeJSON(w, http.StatusOK, toExpensesDTO(rec, true))
}

// =============================================================================
// LEDGER
// =============================================================================

// AddLedgerEntry appends a manual debit or credit.
func (h *Handler) AddLedgerEntry(w http.ResponseWriter, r *http.Request) {
	var req LedgerEntryRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := bakery.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	entry, err := h.Service.AddLedgerEntry(r.Context(), date, req.Name, req.Description,
		decimal.NewFromFloat(req.Debit), decimal.NewFromFloat(req.Credit))
	if err != nil {
		h.fail(w, "Failed to add ledger entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLedgerEntryDTO(entry))
}

// GetStatement returns the reconciled statement, optionally for one account.
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	st, err := h.Service.Statement(r.Context(), r.URL.Query().Get("account"))
	if err != nil {
		h.fail(w, "Failed to build statement", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementDTO(st))
}

// ExportStatement returns the statement as an xlsx workbook.
func (h *Handler) ExportStatement(w http.ResponseWriter, r *http.Request) {
	st, err := h.Service.Statement(r.Context(), r.URL.Query().Get("account"))
	if err != nil {
		h.fail(w, "Failed to build statement", err)
		return
	}
	f, err := statementWorkbook(st)
	if err != nil {
		h.fail(w, "Failed to render statement", err)
		return
	}
	defer f.Close()
	h.writeWorkbook(w, f, "statement_"+bakery.Today().String()+".xlsx")
}

// =============================================================================
// REPORTS
// =============================================================================

// GetDailyReport returns the profit and loss of a date.
func (h *Handler) GetDailyReport(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	report, err := h.Service.DailyReport(r.Context(), date)
	if err != nil {
		h.fail(w, "Failed to build daily report", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyReportDTO(report))
}

// GetMonthlyReport returns the totals and chart series of a month.
func (h *Handler) GetMonthlyReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.monthlyReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toMonthlyReportDTO(report))
}

// ExportMonthlyReport returns the monthly report as an xlsx workbook.
func (h *Handler) ExportMonthlyReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.monthlyReport(w, r)
	if !ok {
		return
	}
	f, err := monthlyWorkbook(report)
	if err != nil {
		h.fail(w, "Failed to render monthly report", err)
		return
	}
	defer f.Close()
	h.writeWorkbook(w, f, "monthly_"+report.Period.Label()+".xlsx")
}

func (h *Handler) monthlyReport(w http.ResponseWriter, r *http.Request) (bakery.MonthlyReport, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return bakery.MonthlyReport{}, false
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return bakery.MonthlyReport{}, false
	}

	report, err := h.Service.MonthlyReport(r.Context(), year, time.Month(month))
	if err != nil {
		h.fail(w, "Failed to build monthly report", err)
		return bakery.MonthlyReport{}, false
	}
	return report, true
}

// =============================================================================
// PRICES
// =============================================================================

// ListSettings returns the global prices with defaults applied.
func (h *Handler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.Settings(r.Context())
	if err != nil {
		h.fail(w, "Failed to load settings", err)
		return
	}
	dtos := make([]SettingDTO, len(settings))
	for i, s := range settings {
		dtos[i] = SettingDTO{Key: string(s.Key), Value: money(s.Value)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdateSetting stores one global price.
func (h *Handler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	key := bakery.SettingKey(chi.URLParam(r, "key"))
	var req UpdatePriceRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	value := decimal.NewFromFloat(req.Value)
	if err := h.Service.UpdateSetting(r.Context(), key, value); err != nil {
		h.fail(w, "Failed to update setting", err)
		return
	}
	writeJSON(w, http.StatusOK, SettingDTO{Key: string(key), Value: money(value)})
}

// ListDistributorPrices returns every distributor's effective price.
func (h *Handler) ListDistributorPrices(w http.ResponseWriter, r *http.Request) {
	prices, err := h.Service.DistributorPrices(r.Context())
	if err != nil {
		h.fail(w, "Failed to load distributor prices", err)
		return
	}
	dtos := make([]DistributorPriceDTO, len(prices))
	for i, p := range prices {
		dtos[i] = DistributorPriceDTO{Distributor: p.Distributor, Price: money(p.Price)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdateDistributorPrice stores a distributor's price override.
func (h *Handler) UpdateDistributorPrice(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	var req UpdatePriceRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	price := decimal.NewFromFloat(req.Value)
	if err := h.Service.UpdateDistributorPrice(r.Context(), name, price); err != nil {
		h.fail(w, "Failed to update distributor price", err)
		return
	}
	writeJSON(w, http.StatusOK, DistributorPriceDTO{Distributor: bakery.CleanAccountName(name), Price: money(price)})
}

// GetPrice resolves the unit price a sales line with this name would get.
func (h *Handler) GetPrice(w http.ResponseWriter, r *http.Request) {
	name := bakery.CleanAccountName(pathParam(r, "name"))
	price, ch, err := h.Service.Prices().ResolveFor(r.Context(), name)
	if err != nil {
		h.fail(w, "Failed to resolve price", err)
		return
	}
	writeJSON(w, http.StatusOK, PriceDTO{Name: name, Channel: ch.Kind.String(), Price: money(price)})
}

// =============================================================================
// BACKUP
// =============================================================================

// DownloadBackup streams a snapshot of the database file.
func (h *Handler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.ExportSnapshot(r.Context())
	if err != nil {
		h.fail(w, "Failed to export backup", err)
		return
	}

	filename := fmt.Sprintf("bakery_backup_%s.db", bakery.Today())
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("backup write interrupted", zap.Error(err))
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// fail writes err with the status its kind maps to. Server-side failures are
// logged; client errors are not.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, zap.Error(err), zap.Int("status", status))
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case bakery.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, bakery.ErrStoreRequired):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into dst and runs its validator tags.
func (h *Handler) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return h.validate.Struct(dst)
}

// dateParam parses the {date} path segment, writing a 400 on failure.
func (h *Handler) dateParam(w http.ResponseWriter, r *http.Request) (bakery.Date, bool) {
	date, err := bakery.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return bakery.Date{}, false
	}
	return date, true
}

// pathParam returns a decoded path segment. Names are usually Arabic and
// arrive percent-encoded.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
