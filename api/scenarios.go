/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Populates the database with realistic bakery days so the reports and
	the statement have something to show. Each scenario writes through
	bakery.Service, so prices are resolved exactly as for real entries.

AVAILABLE SCENARIOS:

	normal-day:   One day where everything baked was sold
	short-day:    Flour for 4800 loaves, 4500 sold (deficit of 300)
	overpayment:  A distributor pays more than owed (negative balance)
	full-month:   Every day of the month up to the chosen date

HOW SCENARIOS WORK:
 1. Reset database (clear all data, default prices restored)
 2. Write production, sales, other sales and expenses for the day(s)
 3. Optionally append manual ledger entries

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "short-day", "date": "2024-05-10"}

NOTE:

	Scenarios reset the database. Routes are only mounted when demo mode
	is enabled (BAKERY_DEMO=true).

SEE ALSO:
  - handlers.go: Handler, Resetter
  - server.go: Demo route group
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/alwafa/bakery-ledger/bakery"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "normal-day",
		Name:        "Normal Day",
		Description: "2.5 bags of flour, every loaf sold, expenses at the usual values",
	},
	{
		ID:          "short-day",
		Name:        "Short Day",
		Description: "3 bags of flour but only 4500 loaves sold; the deficit is valued at the distributor price",
	},
	{
		ID:          "overpayment",
		Name:        "Overpayment",
		Description: "A distributor settles more than owed and ends with a negative balance",
	},
	{
		ID:          "full-month",
		Name:        "Full Month",
		Description: "Daily entries from the first of the month up to the chosen date",
	},
}

type scenarioLoader func(h *Handler, ctx context.Context, date bakery.Date) error

var scenarioLoaders = map[string]scenarioLoader{
	"normal-day":  (*Handler).loadNormalDayScenario,
	"short-day":   (*Handler).loadShortDayScenario,
	"overpayment": (*Handler).loadOverpaymentScenario,
	"full-month":  (*Handler).loadFullMonthScenario,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	loader, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}
	date := bakery.Today()
	if req.Date != "" {
		var err error
		if date, err = bakery.ParseDate(req.Date); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.reset(ctx); err != nil {
		h.fail(w, "Failed to reset database", err)
		return
	}
	if err := loader(h, ctx, date); err != nil {
		h.fail(w, fmt.Sprintf("Failed to load scenario %s", req.ScenarioID), err)
		return
	}
	h.currentScenario = req.ScenarioID
	h.logger.Info("scenario loaded", zap.String("scenario", req.ScenarioID), zap.Stringer("date", date))

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID, "date": date.String()})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.reset(r.Context()); err != nil {
		h.fail(w, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// reset must be called with h.mu held.
func (h *Handler) reset(ctx context.Context) error {
	if h.Resetter == nil {
		return fmt.Errorf("reset: %w", bakery.ErrStoreRequired)
	}
	if err := h.Resetter.Reset(ctx); err != nil {
		return err
	}
	h.currentScenario = ""
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadNormalDayScenario(ctx context.Context, date bakery.Date) error {
	return h.writeDay(ctx, date, decimal.RequireFromString("2.5"), 4000, 0)
}

func (h *Handler) loadShortDayScenario(ctx context.Context, date bakery.Date) error {
	return h.writeDay(ctx, date, decimal.NewFromInt(3), 4500, 0)
}

func (h *Handler) loadOverpaymentScenario(ctx context.Context, date bakery.Date) error {
	if err := h.writeDay(ctx, date, decimal.RequireFromString("2.5"), 4000, 0); err != nil {
		return err
	}
	// the first distributor pays off the day's debt plus an advance
	cat := h.Service.Catalog()
	if len(cat.Distributors) == 0 {
		return nil
	}
	name := cat.Distributors[0]
	st, err := h.Service.Statement(ctx, name)
	if err != nil {
		return err
	}
	_, err = h.Service.AddLedgerEntry(ctx, date, name, "سداد مقدم",
		decimal.Zero, st.Balance.Add(decimal.NewFromInt(5000)))
	return err
}

func (h *Handler) loadFullMonthScenario(ctx context.Context, date bakery.Date) error {
	for d := bakery.StartOfMonth(date.Year(), date.Month()); !d.After(date); d = d.AddDays(1) {
		// every third day comes up 150 loaves short
		short := int64(0)
		if d.Day()%3 == 0 {
			short = 150
		}
		if err := h.writeDay(ctx, d, decimal.RequireFromString("2.5"), 4000, short); err != nil {
			return fmt.Errorf("%s: %w", d, err)
		}
	}
	return nil
}

// writeDay stores one day: production, sales spread over the catalog lines
// so they total sold-short loaves, one other-sales item and the suggested
// expenses.
func (h *Handler) writeDay(ctx context.Context, date bakery.Date, bags decimal.Decimal, sold, short int64) error {
	if _, err := h.Service.SaveProduction(ctx, date, bags); err != nil {
		return err
	}

	cat := h.Service.Catalog()
	names := append(append([]string{}, cat.Distributors...), cat.CashAccount)
	sold -= short
	per := sold / int64(len(names))
	lines := make([]bakery.SalesInput, len(names))
	for i, name := range names {
		delivered := per
		if i == len(names)-1 {
			delivered = sold - per*int64(len(names)-1)
		}
		lines[i] = bakery.SalesInput{
			Distributor: name,
			Delivered:   delivered + 20,
			Returned:    20,
			CashPaid:    decimal.NewFromInt(delivered * 10),
		}
	}
	if _, err := h.Service.SaveSalesBatch(ctx, date, lines); err != nil {
		return err
	}

	if len(cat.OtherItems) > 0 {
		if _, err := h.Service.SaveOtherSales(ctx, date, cat.OtherItems[0], decimal.NewFromInt(3000)); err != nil {
			return err
		}
	}

	exp, _, err := h.Service.SuggestedExpenses(ctx, date)
	if err != nil {
		return err
	}
	_, err = h.Service.SaveExpenses(ctx, date, exp.Labor, exp.Wood, exp.Misc)
	return err
}
