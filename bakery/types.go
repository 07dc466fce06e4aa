/*
Package bakery provides the daily operations engine for a single bakery.

PURPOSE:
  Records what happened on a business day (flour used, bread delivered to
  distributors, cash collected, miscellaneous sales, expenses, manual debts
  and payments) and derives the financial views the owner looks at:
  daily profit, monthly profit and the per-account statement.

KEY CONCEPTS IN THIS FILE (types.go):
  - ProductionRecord: flour bags used on a date and the loaves they should yield
  - SalesRecord: one distributor's deliveries, returns and cash on a date
  - OtherSalesRecord: revenue from items outside the distribution round
  - ExpenseRecord: labor, wood and miscellaneous costs for a date
  - LedgerEntry: a manual debit (new debt) or credit (payment) on an account
  - SettingKey / DistributorPrice: the price configuration

DESIGN PRINCIPLES:
  1. Precision: money and flour use decimal.Decimal, counts use int64
  2. Derived fields are computed by constructors, never trusted from callers
  3. Records are keyed by their natural key (date, date+name); saving again
     overwrites the previous values for that key
  4. Ledger entries are append-only

USAGE:
  rec := bakery.NewProductionRecord(date, decimal.RequireFromString("2.5"))
  // rec.ExpectedProduction == 4000

SEE ALSO:
  - store.go: Persistence contracts
  - pricing.go: Unit price resolution
  - daily.go, monthly.go, statement.go: Reports
*/
package bakery

import (
	"github.com/shopspring/decimal"
)

// LoavesPerBag is the expected yield of one bag of flour.
const LoavesPerBag = 1600

// MaxFlourBags bounds a day's flour usage so the expected production
// always fits in an int64.
var MaxFlourBags = decimal.NewFromInt(10000)

// =============================================================================
// PRODUCTION
// =============================================================================

// ProductionRecord is the flour usage for a date. One per date.
type ProductionRecord struct {
	Date               Date
	FlourBags          decimal.Decimal
	ExpectedProduction int64
}

// NewProductionRecord computes the expected production as
// floor(flourBags * LoavesPerBag).
func NewProductionRecord(date Date, flourBags decimal.Decimal) ProductionRecord {
	return ProductionRecord{
		Date:               date,
		FlourBags:          flourBags,
		ExpectedProduction: ExpectedProduction(flourBags),
	}
}

// ExpectedProduction returns floor(flourBags * LoavesPerBag).
func ExpectedProduction(flourBags decimal.Decimal) int64 {
	return flourBags.Mul(decimal.NewFromInt(LoavesPerBag)).Floor().IntPart()
}

// =============================================================================
// SALES
// =============================================================================

// SalesRecord is one distributor's round on a date. Unique by (Date, Distributor).
type SalesRecord struct {
	Date        Date
	Distributor string
	Delivered   int64
	Returned    int64
	NetSales    int64
	UnitPrice   decimal.Decimal
	TotalAmount decimal.Decimal
	CashPaid    decimal.Decimal
}

// NewSalesRecord derives NetSales and TotalAmount. NetSales is negative when
// more bread came back than went out; that is recorded as is.
func NewSalesRecord(date Date, distributor string, delivered, returned int64, unitPrice, cashPaid decimal.Decimal) SalesRecord {
	net := delivered - returned
	return SalesRecord{
		Date:        date,
		Distributor: distributor,
		Delivered:   delivered,
		Returned:    returned,
		NetSales:    net,
		UnitPrice:   unitPrice,
		TotalAmount: decimal.NewFromInt(net).Mul(unitPrice),
		CashPaid:    cashPaid,
	}
}

// SalesInput is one line of a sales batch as entered by the operator.
type SalesInput struct {
	Distributor string
	Delivered   int64
	Returned    int64
	CashPaid    decimal.Decimal
}

// OtherSalesRecord is revenue from a non-distribution item. Unique by (Date, ItemName).
type OtherSalesRecord struct {
	Date     Date
	ItemName string
	Amount   decimal.Decimal
}

// =============================================================================
// EXPENSES
// =============================================================================

// ExpenseRecord holds the day's costs. One per date.
type ExpenseRecord struct {
	Date  Date
	Labor decimal.Decimal
	Wood  decimal.Decimal
	Misc  decimal.Decimal
	Total decimal.Decimal
}

func NewExpenseRecord(date Date, labor, wood, misc decimal.Decimal) ExpenseRecord {
	return ExpenseRecord{
		Date:  date,
		Labor: labor,
		Wood:  wood,
		Misc:  misc,
		Total: labor.Add(wood).Add(misc),
	}
}

// =============================================================================
// LEDGER
// =============================================================================

// LedgerEntry is a manual transaction on a named account. By convention only
// one of Debit and Credit is non-zero.
//
// Debit  = the account owes the bakery more (new debt)
// Credit = the account paid the bakery (payment received)
type LedgerEntry struct {
	ID          int64
	Date        Date
	Account     string
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// =============================================================================
// SETTINGS
// =============================================================================

// SettingKey names a global price setting.
type SettingKey string

const (
	SettingPriceCash        SettingKey = "price_cash"
	SettingPriceFactory     SettingKey = "price_factory"
	SettingPriceDistributor SettingKey = "price_distributor"
)

// Valid reports whether k is a known setting.
func (k SettingKey) Valid() bool {
	switch k {
	case SettingPriceCash, SettingPriceFactory, SettingPriceDistributor:
		return true
	}
	return false
}

// Setting is a stored global scalar.
type Setting struct {
	Key   SettingKey
	Value decimal.Decimal
}

// DistributorPrice overrides the unit price for one distributor.
type DistributorPrice struct {
	Distributor string
	Price       decimal.Decimal
}
