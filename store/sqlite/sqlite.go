/*
Package sqlite provides a SQLite-backed implementation of bakery.Store.

PURPOSE:
  Persists the six record kinds of the bakery in a single local file.
  The schema is the logical model: one table per record kind, keyed by its
  natural key.

INTERFACES IMPLEMENTED:
  bakery.Store:       All records
  bakery.Snapshotter: Raw database backup

KEY TABLES:
  production:         one row per date
  sales:              one row per (date, distributor)
  other_sales:        one row per (date, item_name)
  expenses:           one row per date
  ledger:             append-only manual entries (INTEGER id)
  settings:           global prices by key
  distributor_prices: per-distributor overrides

UPSERTS:
  Every save is a single INSERT ... ON CONFLICT DO UPDATE statement on the
  natural key, so saving the same date twice never creates a second row and
  the row keeps its original id (sales statement order is stable).
  There are no multi-statement transactions.

DATES AND MONEY:
  Dates are TEXT YYYY-MM-DD, so BETWEEN and ORDER BY on the column follow
  calendar order. Decimals are TEXT to keep them exact.

CONCURRENCY:
  One connection (SetMaxOpenConns(1)) plus sync.RWMutex. SQLite serializes
  writers anyway; the single connection also keeps ":memory:" databases
  consistent across calls.

USAGE:
  store, err := sqlite.New("./bakery.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := bakery.NewService(store, bakery.Options{})

MIGRATION:
  Schema is auto-migrated on New(). Default prices are seeded with
  INSERT OR IGNORE so existing values survive restarts.

SEE ALSO:
  - bakery/store.go: Interface definitions
  - bakery/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/alwafa/bakery-ledger/bakery"
)

// Store implements bakery.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ bakery.Store       = (*Store)(nil)
	_ bakery.Snapshotter = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema and default prices.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS production (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL UNIQUE,
		flour_bags TEXT NOT NULL,
		expected_production INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sales (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		distributor TEXT NOT NULL,
		delivered INTEGER NOT NULL,
		returned INTEGER NOT NULL,
		net_sales INTEGER NOT NULL,
		price_per_unit TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		cash_paid TEXT NOT NULL,
		UNIQUE(date, distributor)
	);

	CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(date);

	CREATE TABLE IF NOT EXISTS other_sales (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		item_name TEXT NOT NULL,
		amount TEXT NOT NULL,
		UNIQUE(date, item_name)
	);

	CREATE TABLE IF NOT EXISTS expenses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL UNIQUE,
		labor TEXT NOT NULL,
		wood TEXT NOT NULL,
		misc TEXT NOT NULL,
		total_expenses TEXT NOT NULL
	);

	-- Manual debit/credit entries (append-only)
	CREATE TABLE IF NOT EXISTS ledger (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		debit TEXT NOT NULL DEFAULT '0',
		credit TEXT NOT NULL DEFAULT '0'
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_name ON ledger(name);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS distributor_prices (
		distributor TEXT PRIMARY KEY,
		price TEXT NOT NULL
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	seeds := map[bakery.SettingKey]decimal.Decimal{
		bakery.SettingPriceDistributor: bakery.DefaultDistributorPrice,
		bakery.SettingPriceCash:        bakery.DefaultCashPrice,
		bakery.SettingPriceFactory:     bakery.DefaultFactoryPrice,
	}
	for k, v := range seeds {
		if _, err := s.db.Exec("INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)", string(k), v.String()); err != nil {
			return err
		}
	}
	return nil
}

// SeedDistributors gives each distributor the default price unless it
// already has one. Names are cleaned as sales lines are.
func (s *Store) SeedDistributors(ctx context.Context, distributors []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range bakery.CleanAccountNames(distributors) {
		_, err := s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO distributor_prices (distributor, price) VALUES (?, ?)",
			d, bakery.DefaultDistributorPrice.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to seed distributor %s: %w", d, err)
		}
	}
	return nil
}

// =============================================================================
// SETTINGS (bakery.SettingsStore interface)
// =============================================================================

// Setting returns a global setting.
func (s *Store) Setting(ctx context.Context, key bakery.SettingKey) (decimal.Decimal, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", string(key)).Scan(&value)
	if err == sql.ErrNoRows {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to get setting: %w", err)
	}
	d, err := parseDecimal("settings.value", value)
	return d, err == nil, err
}

// SaveSetting upserts a global setting.
func (s *Store) SaveSetting(ctx context.Context, key bakery.SettingKey, value decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, string(key), value.String())
	if err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	return nil
}

// DistributorPrice returns a distributor's override.
func (s *Store) DistributorPrice(ctx context.Context, distributor string) (decimal.Decimal, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var price string
	err := s.db.QueryRowContext(ctx,
		"SELECT price FROM distributor_prices WHERE distributor = ?", distributor,
	).Scan(&price)
	if err == sql.ErrNoRows {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to get distributor price: %w", err)
	}
	d, err := parseDecimal("distributor_prices.price", price)
	return d, err == nil, err
}

// SaveDistributorPrice upserts a distributor's override.
func (s *Store) SaveDistributorPrice(ctx context.Context, distributor string, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO distributor_prices (distributor, price) VALUES (?, ?)
		ON CONFLICT(distributor) DO UPDATE SET price = excluded.price
	`, distributor, price.String())
	if err != nil {
		return fmt.Errorf("failed to save distributor price: %w", err)
	}
	return nil
}

// DistributorPrices returns all overrides ordered by distributor.
func (s *Store) DistributorPrices(ctx context.Context) ([]bakery.DistributorPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT distributor, price FROM distributor_prices ORDER BY distributor")
	if err != nil {
		return nil, fmt.Errorf("failed to list distributor prices: %w", err)
	}
	defer rows.Close()

	var prices []bakery.DistributorPrice
	for rows.Next() {
		var p bakery.DistributorPrice
		var price string
		if err := rows.Scan(&p.Distributor, &price); err != nil {
			return nil, err
		}
		if p.Price, err = parseDecimal("distributor_prices.price", price); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// =============================================================================
// PRODUCTION
// =============================================================================

// SaveProduction upserts the production of a date.
func (s *Store) SaveProduction(ctx context.Context, rec bakery.ProductionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO production (date, flour_bags, expected_production) VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			flour_bags = excluded.flour_bags,
			expected_production = excluded.expected_production
	`, rec.Date.String(), rec.FlourBags.String(), rec.ExpectedProduction)
	if err != nil {
		return fmt.Errorf("failed to save production: %w", err)
	}
	return nil
}

// ProductionOn returns the production of a date (zero or one row).
func (s *Store) ProductionOn(ctx context.Context, date bakery.Date) ([]bakery.ProductionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT date, flour_bags, expected_production FROM production WHERE date = ?",
		date.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query production: %w", err)
	}
	defer rows.Close()

	var out []bakery.ProductionRecord
	for rows.Next() {
		var rec bakery.ProductionRecord
		var d, bags string
		if err := rows.Scan(&d, &bags, &rec.ExpectedProduction); err != nil {
			return nil, fmt.Errorf("failed to scan production: %w", err)
		}
		if rec.Date, err = bakery.ParseDate(d); err != nil {
			return nil, err
		}
		if rec.FlourBags, err = parseDecimal("production.flour_bags", bags); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// =============================================================================
// SALES
// =============================================================================

const salesColumns = `date, distributor, delivered, returned, net_sales, price_per_unit, total_amount, cash_paid`

// SaveSales upserts one distributor's sales for a date.
func (s *Store) SaveSales(ctx context.Context, rec bakery.SalesRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sales (`+salesColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, distributor) DO UPDATE SET
			delivered = excluded.delivered,
			returned = excluded.returned,
			net_sales = excluded.net_sales,
			price_per_unit = excluded.price_per_unit,
			total_amount = excluded.total_amount,
			cash_paid = excluded.cash_paid
	`,
		rec.Date.String(), rec.Distributor, rec.Delivered, rec.Returned, rec.NetSales,
		rec.UnitPrice.String(), rec.TotalAmount.String(), rec.CashPaid.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save sales: %w", err)
	}
	return nil
}

// SalesOn returns the sales of one date.
func (s *Store) SalesOn(ctx context.Context, date bakery.Date) ([]bakery.SalesRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySales(ctx, "SELECT "+salesColumns+" FROM sales WHERE date = ? ORDER BY id", date.String())
}

// SalesBetween returns the sales in [p.Start, p.End].
func (s *Store) SalesBetween(ctx context.Context, p bakery.Period) ([]bakery.SalesRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySales(ctx,
		"SELECT "+salesColumns+" FROM sales WHERE date BETWEEN ? AND ? ORDER BY date, distributor",
		p.Start.String(), p.End.String(),
	)
}

// AllSales returns every sales record in insertion order.
func (s *Store) AllSales(ctx context.Context) ([]bakery.SalesRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySales(ctx, "SELECT "+salesColumns+" FROM sales ORDER BY id")
}

func (s *Store) querySales(ctx context.Context, query string, args ...any) ([]bakery.SalesRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var out []bakery.SalesRecord
	for rows.Next() {
		rec, err := scanSales(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanSales(rows *sql.Rows) (bakery.SalesRecord, error) {
	var (
		rec                    bakery.SalesRecord
		date                   string
		price, total, cashPaid string
	)
	err := rows.Scan(&date, &rec.Distributor, &rec.Delivered, &rec.Returned, &rec.NetSales,
		&price, &total, &cashPaid)
	if err != nil {
		return rec, fmt.Errorf("failed to scan sales: %w", err)
	}

	if rec.Date, err = bakery.ParseDate(date); err != nil {
		return rec, err
	}
	if rec.UnitPrice, err = parseDecimal("sales.price_per_unit", price); err != nil {
		return rec, err
	}
	if rec.TotalAmount, err = parseDecimal("sales.total_amount", total); err != nil {
		return rec, err
	}
	if rec.CashPaid, err = parseDecimal("sales.cash_paid", cashPaid); err != nil {
		return rec, err
	}
	return rec, nil
}

// =============================================================================
// OTHER SALES
// =============================================================================

// SaveOtherSales upserts one item's amount for a date.
func (s *Store) SaveOtherSales(ctx context.Context, rec bakery.OtherSalesRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO other_sales (date, item_name, amount) VALUES (?, ?, ?)
		ON CONFLICT(date, item_name) DO UPDATE SET amount = excluded.amount
	`, rec.Date.String(), rec.ItemName, rec.Amount.String())
	if err != nil {
		return fmt.Errorf("failed to save other sales: %w", err)
	}
	return nil
}

func (s *Store) OtherSalesOn(ctx context.Context, date bakery.Date) ([]bakery.OtherSalesRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryOtherSales(ctx,
		"SELECT date, item_name, amount FROM other_sales WHERE date = ? ORDER BY id", date.String())
}

func (s *Store) OtherSalesBetween(ctx context.Context, p bakery.Period) ([]bakery.OtherSalesRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryOtherSales(ctx,
		"SELECT date, item_name, amount FROM other_sales WHERE date BETWEEN ? AND ? ORDER BY date, id",
		p.Start.String(), p.End.String())
}

func (s *Store) queryOtherSales(ctx context.Context, query string, args ...any) ([]bakery.OtherSalesRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query other sales: %w", err)
	}
	defer rows.Close()

	var out []bakery.OtherSalesRecord
	for rows.Next() {
		var rec bakery.OtherSalesRecord
		var date, amount string
		if err := rows.Scan(&date, &rec.ItemName, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan other sales: %w", err)
		}
		if rec.Date, err = bakery.ParseDate(date); err != nil {
			return nil, err
		}
		if rec.Amount, err = parseDecimal("other_sales.amount", amount); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// =============================================================================
// EXPENSES
// =============================================================================

// SaveExpenses upserts the expenses of a date.
func (s *Store) SaveExpenses(ctx context.Context, rec bakery.ExpenseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (date, labor, wood, misc, total_expenses) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			labor = excluded.labor,
			wood = excluded.wood,
			misc = excluded.misc,
			total_expenses = excluded.total_expenses
	`, rec.Date.String(), rec.Labor.String(), rec.Wood.String(), rec.Misc.String(), rec.Total.String())
	if err != nil {
		return fmt.Errorf("failed to save expenses: %w", err)
	}
	return nil
}

func (s *Store) ExpensesOn(ctx context.Context, date bakery.Date) ([]bakery.ExpenseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryExpenses(ctx,
		"SELECT date, labor, wood, misc, total_expenses FROM expenses WHERE date = ?", date.String())
}

func (s *Store) ExpensesBetween(ctx context.Context, p bakery.Period) ([]bakery.ExpenseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryExpenses(ctx,
		"SELECT date, labor, wood, misc, total_expenses FROM expenses WHERE date BETWEEN ? AND ? ORDER BY date",
		p.Start.String(), p.End.String())
}

func (s *Store) queryExpenses(ctx context.Context, query string, args ...any) ([]bakery.ExpenseRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var out []bakery.ExpenseRecord
	for rows.Next() {
		var rec bakery.ExpenseRecord
		var date, labor, wood, misc, total string
		if err := rows.Scan(&date, &labor, &wood, &misc, &total); err != nil {
			return nil, fmt.Errorf("failed to scan expenses: %w", err)
		}
		if rec.Date, err = bakery.ParseDate(date); err != nil {
			return nil, err
		}
		for _, f := range []struct {
			dst *decimal.Decimal
			col string
			raw string
		}{
			{&rec.Labor, "expenses.labor", labor},
			{&rec.Wood, "expenses.wood", wood},
			{&rec.Misc, "expenses.misc", misc},
			{&rec.Total, "expenses.total_expenses", total},
		} {
			if *f.dst, err = parseDecimal(f.col, f.raw); err != nil {
				return nil, err
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// =============================================================================
// LEDGER
// =============================================================================

// AppendLedgerEntry inserts a manual entry and returns it with its id.
// There is no update or delete for this table.
func (s *Store) AppendLedgerEntry(ctx context.Context, entry bakery.LedgerEntry) (bakery.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO ledger (date, name, description, debit, credit) VALUES (?, ?, ?, ?, ?)",
		entry.Date.String(), entry.Account, entry.Description, entry.Debit.String(), entry.Credit.String(),
	)
	if err != nil {
		return bakery.LedgerEntry{}, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	if entry.ID, err = res.LastInsertId(); err != nil {
		return bakery.LedgerEntry{}, fmt.Errorf("failed to read ledger id: %w", err)
	}
	return entry, nil
}

// LedgerEntries returns all manual entries in insertion order.
func (s *Store) LedgerEntries(ctx context.Context) ([]bakery.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, date, name, description, debit, credit FROM ledger ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var out []bakery.LedgerEntry
	for rows.Next() {
		var e bakery.LedgerEntry
		var date, debit, credit string
		if err := rows.Scan(&e.ID, &date, &e.Account, &e.Description, &debit, &credit); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		if e.Date, err = bakery.ParseDate(date); err != nil {
			return nil, err
		}
		if e.Debit, err = parseDecimal("ledger.debit", debit); err != nil {
			return nil, err
		}
		if e.Credit, err = parseDecimal("ledger.credit", credit); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Snapshot returns a consistent copy of the database file. It uses
// VACUUM INTO a temporary file, which also works for ":memory:" databases.
func (s *Store) Snapshot(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := os.MkdirTemp("", "bakery-snapshot-")
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	defer os.RemoveAll(dir)

	target := filepath.Join(dir, "bakery.db")
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", target); err != nil {
		return nil, fmt.Errorf("failed to snapshot database: %w", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return data, nil
}

// Reset clears all records and restores default prices (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"production", "sales", "other_sales", "expenses", "ledger", "settings", "distributor_prices"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return s.migrate()
}

func parseDecimal(column, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %s %q: %w", column, value, err)
	}
	return d, nil
}
