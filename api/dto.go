/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the bakery model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Entry forms:  SaveProductionRequest, SaveSalesRequest, SaveOtherSalesRequest,
                SaveExpensesRequest and their *DTO counterparts
  Ledger:       LedgerEntryRequest, LedgerEntryDTO, StatementDTO
  Reports:      DailyReportDTO, MonthlyReportDTO
  Prices:       UpdatePriceRequest, SettingDTO, DistributorPriceDTO, PriceDTO
  Scenarios:    LoadScenarioRequest, ScenarioDTO

MONEY:
  Amounts travel as JSON numbers (float64) and are converted to
  decimal.Decimal at the boundary. All arithmetic happens on decimals.

VALIDATION:
  Request types carry go-playground/validator tags. Handlers run
  validator.Struct before calling the service; the service validates again.

SEE ALSO:
  - handlers.go: Uses these types
  - bakery/types.go: Domain records
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/alwafa/bakery-ledger/bakery"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// SaveProductionRequest is the body of PUT /api/production/{date}.
type SaveProductionRequest struct {
	FlourBags float64 `json:"flour_bags" validate:"gte=0,lte=10000"`
}

// SalesLineRequest is one distributor line of the daily sales form.
type SalesLineRequest struct {
	Distributor string  `json:"distributor" validate:"required"`
	Delivered   int64   `json:"delivered" validate:"gte=0"`
	Returned    int64   `json:"returned" validate:"gte=0"`
	CashPaid    float64 `json:"cash_paid" validate:"gte=0"`
}

// SaveSalesRequest is the body of PUT /api/sales/{date}.
type SaveSalesRequest struct {
	Lines []SalesLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// OtherSalesItemRequest is one item amount.
type OtherSalesItemRequest struct {
	ItemName string  `json:"item_name" validate:"required"`
	Amount   float64 `json:"amount" validate:"gte=0"`
}

// SaveOtherSalesRequest is the body of PUT /api/other-sales/{date}.
type SaveOtherSalesRequest struct {
	Items []OtherSalesItemRequest `json:"items" validate:"required,min=1,dive"`
}

// SaveExpensesRequest is the body of PUT /api/expenses/{date}.
type SaveExpensesRequest struct {
	Labor float64 `json:"labor" validate:"gte=0"`
	Wood  float64 `json:"wood" validate:"gte=0"`
	Misc  float64 `json:"misc" validate:"gte=0"`
}

// LedgerEntryRequest is the body of POST /api/ledger.
type LedgerEntryRequest struct {
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Debit       float64 `json:"debit" validate:"gte=0"`
	Credit      float64 `json:"credit" validate:"gte=0"`
}

// UpdatePriceRequest is the body of the settings and distributor price PUTs.
type UpdatePriceRequest struct {
	Value float64 `json:"value" validate:"gte=0"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load. Date defaults
// to today.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
	Date       string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// CatalogDTO lists the names the entry forms offer.
type CatalogDTO struct {
	Distributors []string `json:"distributors"`
	CashAccount  string   `json:"cash_account"`
	OtherItems   []string `json:"other_items"`
}

// ProductionDTO is the production of one date. Stored is false when nothing
// was saved for the date yet.
type ProductionDTO struct {
	Date               string  `json:"date"`
	FlourBags          float64 `json:"flour_bags"`
	ExpectedProduction int64   `json:"expected_production"`
	Stored             bool    `json:"stored"`
}

// SalesDTO is one stored sales record.
type SalesDTO struct {
	Date        string  `json:"date"`
	Distributor string  `json:"distributor"`
	Delivered   int64   `json:"delivered"`
	Returned    int64   `json:"returned"`
	NetSales    int64   `json:"net_sales"`
	UnitPrice   float64 `json:"price_per_unit"`
	TotalAmount float64 `json:"total_amount"`
	CashPaid    float64 `json:"cash_paid"`
}

// OtherSalesDTO is one stored item amount.
type OtherSalesDTO struct {
	Date     string  `json:"date"`
	ItemName string  `json:"item_name"`
	Amount   float64 `json:"amount"`
}

// ExpensesDTO is the expenses of one date. When Stored is false the values
// are the suggested defaults.
type ExpensesDTO struct {
	Date   string  `json:"date"`
	Labor  float64 `json:"labor"`
	Wood   float64 `json:"wood"`
	Misc   float64 `json:"misc"`
	Total  float64 `json:"total"`
	Stored bool    `json:"stored"`
}

// LedgerEntryDTO is a stored manual entry.
type LedgerEntryDTO struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
}

// AccountSummaryDTO is one account's totals in a statement.
type AccountSummaryDTO struct {
	Name    string  `json:"name"`
	Debit   float64 `json:"debit"`
	Credit  float64 `json:"credit"`
	Balance float64 `json:"balance"`
}

// StatementRowDTO is one statement line.
type StatementRowDTO struct {
	Source      string  `json:"source"`
	EntryID     int64   `json:"entry_id,omitempty"`
	Date        string  `json:"date"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
}

// StatementDTO is the response of GET /api/statement.
type StatementDTO struct {
	Empty        bool                `json:"empty"`
	Account      string              `json:"account,omitempty"`
	AccountNames []string            `json:"account_names"`
	Accounts     []AccountSummaryDTO `json:"accounts"`
	TotalDebit   float64             `json:"total_debit"`
	TotalCredit  float64             `json:"total_credit"`
	Balance      float64             `json:"balance"`
	Rows         []StatementRowDTO   `json:"rows"`
}

// DailyReportDTO is the response of GET /api/reports/daily/{date}.
type DailyReportDTO struct {
	Date                string     `json:"date"`
	ExpectedProduction  int64      `json:"expected_production"`
	NetSales            int64      `json:"net_sales"`
	Deficit             int64      `json:"deficit"`
	DeficitPrice        float64    `json:"deficit_price"`
	LossValue           float64    `json:"loss_value"`
	DistributionRevenue float64    `json:"distribution_revenue"`
	OtherRevenue        float64    `json:"other_revenue"`
	TotalRevenue        float64    `json:"total_revenue"`
	TotalExpense        float64    `json:"total_expense"`
	NetProfit           float64    `json:"net_profit"`
	ActiveSales         []SalesDTO `json:"active_sales"`
}

// RevenuePointDTO is one point of a monthly chart series.
type RevenuePointDTO struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// MonthlyReportDTO is the response of GET /api/reports/monthly/{year}/{month}.
type MonthlyReportDTO struct {
	Month               string            `json:"month"`
	Start               string            `json:"start"`
	End                 string            `json:"end"`
	Empty               bool              `json:"empty"`
	DistributionRevenue float64           `json:"distribution_revenue"`
	OtherRevenue        float64           `json:"other_revenue"`
	TotalRevenue        float64           `json:"total_revenue"`
	TotalExpense        float64           `json:"total_expense"`
	Profit              float64           `json:"profit"`
	DailyRevenue        []RevenuePointDTO `json:"daily_revenue"`
	DistributorRevenue  []RevenuePointDTO `json:"distributor_revenue"`
	Sales               []SalesDTO        `json:"sales"`
}

// SettingDTO is one global price.
type SettingDTO struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// DistributorPriceDTO is one distributor's effective price.
type DistributorPriceDTO struct {
	Distributor string  `json:"distributor"`
	Price       float64 `json:"price"`
}

// PriceDTO is the resolved unit price for a sales line name.
type PriceDTO struct {
	Name    string  `json:"name"`
	Channel string  `json:"channel"`
	Price   float64 `json:"price"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func toSalesDTO(rec bakery.SalesRecord) SalesDTO {
	return SalesDTO{
		Date:        rec.Date.String(),
		Distributor: rec.Distributor,
		Delivered:   rec.Delivered,
		Returned:    rec.Returned,
		NetSales:    rec.NetSales,
		UnitPrice:   money(rec.UnitPrice),
		TotalAmount: money(rec.TotalAmount),
		CashPaid:    money(rec.CashPaid),
	}
}

func toSalesDTOs(recs []bakery.SalesRecord) []SalesDTO {
	dtos := make([]SalesDTO, len(recs))
	for i, r := range recs {
		dtos[i] = toSalesDTO(r)
	}
	return dtos
}

func toOtherSalesDTOs(recs []bakery.OtherSalesRecord) []OtherSalesDTO {
	dtos := make([]OtherSalesDTO, len(recs))
	for i, r := range recs {
		dtos[i] = OtherSalesDTO{Date: r.Date.String(), ItemName: r.ItemName, Amount: money(r.Amount)}
	}
	return dtos
}

func toExpensesDTO(rec bakery.ExpenseRecord, stored bool) ExpensesDTO {
	return ExpensesDTO{
		Date:   rec.Date.String(),
		Labor:  money(rec.Labor),
		Wood:   money(rec.Wood),
		Misc:   money(rec.Misc),
		Total:  money(rec.Total),
		Stored: stored,
	}
}

func toLedgerEntryDTO(e bakery.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:          e.ID,
		Date:        e.Date.String(),
		Name:        e.Account,
		Description: e.Description,
		Debit:       money(e.Debit),
		Credit:      money(e.Credit),
	}
}

func toStatementDTO(st bakery.Statement) StatementDTO {
	dto := StatementDTO{
		Empty:        st.Empty,
		Account:      st.Filter,
		AccountNames: append([]string{}, st.AccountNames...),
		Accounts:     make([]AccountSummaryDTO, len(st.Accounts)),
		TotalDebit:   money(st.TotalDebit),
		TotalCredit:  money(st.TotalCredit),
		Balance:      money(st.Balance),
		Rows:         make([]StatementRowDTO, len(st.Rows)),
	}
	for i, a := range st.Accounts {
		dto.Accounts[i] = AccountSummaryDTO{
			Name:    a.Account,
			Debit:   money(a.Debit),
			Credit:  money(a.Credit),
			Balance: money(a.Balance),
		}
	}
	for i, r := range st.Rows {
		dto.Rows[i] = StatementRowDTO{
			Source:      string(r.Source),
			EntryID:     r.EntryID,
			Date:        r.Date.String(),
			Name:        r.Account,
			Description: r.Description,
			Debit:       money(r.Debit),
			Credit:      money(r.Credit),
		}
	}
	return dto
}

func toDailyReportDTO(r bakery.DailyReport) DailyReportDTO {
	return DailyReportDTO{
		Date:                r.Date.String(),
		ExpectedProduction:  r.ExpectedProduction,
		NetSales:            r.NetSales,
		Deficit:             r.Deficit,
		DeficitPrice:        money(r.DeficitPrice),
		LossValue:           money(r.LossValue),
		DistributionRevenue: money(r.DistributionRevenue),
		OtherRevenue:        money(r.OtherRevenue),
		TotalRevenue:        money(r.TotalRevenue),
		TotalExpense:        money(r.TotalExpense),
		NetProfit:           money(r.NetProfit),
		ActiveSales:         toSalesDTOs(r.ActiveSales),
	}
}

func toMonthlyReportDTO(r bakery.MonthlyReport) MonthlyReportDTO {
	dto := MonthlyReportDTO{
		Month:               r.Period.Label(),
		Start:               r.Period.Start.String(),
		End:                 r.Period.End.String(),
		Empty:               r.Empty,
		DistributionRevenue: money(r.DistributionRevenue),
		OtherRevenue:        money(r.OtherRevenue),
		TotalRevenue:        money(r.TotalRevenue),
		TotalExpense:        money(r.TotalExpense),
		Profit:              money(r.Profit),
		DailyRevenue:        make([]RevenuePointDTO, len(r.DailyRevenue)),
		DistributorRevenue:  make([]RevenuePointDTO, len(r.DistributorRevenue)),
		Sales:               toSalesDTOs(r.Sales),
	}
	for i, p := range r.DailyRevenue {
		dto.DailyRevenue[i] = RevenuePointDTO{Label: p.Date.String(), Amount: money(p.Amount)}
	}
	for i, p := range r.DistributorRevenue {
		dto.DistributorRevenue[i] = RevenuePointDTO{Label: p.Distributor, Amount: money(p.Amount)}
	}
	return dto
}
