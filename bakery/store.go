/*
store.go - Persistence contracts for bakery records

PURPOSE:
  Defines the interface between the engine and the database. One typed
  method per entity and query shape; there is no "fetch any table by name".

KEY INTERFACES:
  SettingsStore: Global prices and per-distributor overrides (pricing input)
  Store:         Everything the engine reads and writes
  Snapshotter:   Optional raw backup of the whole store

UPSERT CONTRACT:
  Save* methods overwrite the record with the same natural key:
  - production, expenses:  date
  - sales:                 (date, distributor)
  - other sales:           (date, item name)
  - settings:              key
  - distributor prices:    distributor
  Each save is one atomic statement. There are no multi-record transactions;
  concurrent writers to the same key resolve as last write wins.

APPEND-ONLY LEDGER:
  AppendLedgerEntry assigns the ID. Ledger entries are never updated or
  deleted.

MISSING DATA:
  Lookups that find nothing return (zero value, false, nil) or an empty
  slice. Only I/O failures are errors.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite store
  - bakery/store/memory.go: In-memory store for tests

SEE ALSO:
  - pricing.go: Consumes SettingsStore
  - service.go: Consumes Store
*/
package bakery

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SETTINGS STORE - Price configuration
// =============================================================================

// SettingsStore holds the global price settings and distributor overrides.
type SettingsStore interface {
	// Setting returns the stored value and whether it exists.
	Setting(ctx context.Context, key SettingKey) (decimal.Decimal, bool, error)

	SaveSetting(ctx context.Context, key SettingKey, value decimal.Decimal) error

	// DistributorPrice returns the override for a distributor and whether it exists.
	DistributorPrice(ctx context.Context, distributor string) (decimal.Decimal, bool, error)

	SaveDistributorPrice(ctx context.Context, distributor string, price decimal.Decimal) error

	// DistributorPrices returns all overrides ordered by distributor.
	DistributorPrices(ctx context.Context) ([]DistributorPrice, error)
}

// =============================================================================
// STORE - All records
// =============================================================================

// Store persists the six record kinds.
type Store interface {
	SettingsStore

	SaveProduction(ctx context.Context, rec ProductionRecord) error
	ProductionOn(ctx context.Context, date Date) ([]ProductionRecord, error)

	SaveSales(ctx context.Context, rec SalesRecord) error
	SalesOn(ctx context.Context, date Date) ([]SalesRecord, error)
	// SalesBetween returns sales in [p.Start, p.End] ordered by date, distributor.
	SalesBetween(ctx context.Context, p Period) ([]SalesRecord, error)
	// AllSales returns every sales record in insertion order.
	AllSales(ctx context.Context) ([]SalesRecord, error)

	SaveOtherSales(ctx context.Context, rec OtherSalesRecord) error
	OtherSalesOn(ctx context.Context, date Date) ([]OtherSalesRecord, error)
	OtherSalesBetween(ctx context.Context, p Period) ([]OtherSalesRecord, error)

	SaveExpenses(ctx context.Context, rec ExpenseRecord) error
	ExpensesOn(ctx context.Context, date Date) ([]ExpenseRecord, error)
	ExpensesBetween(ctx context.Context, p Period) ([]ExpenseRecord, error)

	// AppendLedgerEntry stores the entry and returns it with its assigned ID.
	// This is the ONLY write on the ledger.
	AppendLedgerEntry(ctx context.Context, entry LedgerEntry) (LedgerEntry, error)
	// LedgerEntries returns every manual entry in insertion order.
	LedgerEntries(ctx context.Context) ([]LedgerEntry, error)
}

// Snapshotter is implemented by stores that can export their full contents.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]byte, error)
}
