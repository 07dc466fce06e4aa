/*
service.go - Write operations and wiring for the bakery engine

PURPOSE:
  Service is the single entry point the HTTP layer calls. It validates
  inputs, computes derived fields, resolves prices and hands records to the
  store. The report builders (daily.go, monthly.go, statement.go) hang off
  the same type.

STATE:
  Service holds no record state between calls. Every call reads the store
  fresh. Prices are resolved at save time and frozen into the sales record,
  so changing a price only affects records saved afterwards.

VALIDATION:
  Callers are expected to send sane values, but negative quantities and
  amounts are rejected here too with a ValidationError (ErrInvalidInput).

SEE ALSO:
  - store.go: Persistence contracts
  - pricing.go: Price resolution
  - api/handlers.go: HTTP layer
*/
package bakery

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Suggested expense values for a date with no stored expenses.
var (
	DefaultLabor      = decimal.NewFromInt(53000)
	DefaultWood       = decimal.NewFromInt(20000)
	DefaultMiscPerBag = decimal.NewFromInt(1000)
)

// Options configures a Service.
type Options struct {
	Distributors []string
	CashAccount  string
	OtherItems   []string
	// Normalizer decides account identity in the statement.
	// Defaults to ExactAccount: any distinct name is a distinct account.
	Normalizer Normalizer
	Logger     *zap.Logger
}

// Service runs the bakery operations against a Store.
type Service struct {
	store     Store
	prices    *PriceResolver
	opts      Options
	normalize Normalizer
	logger    *zap.Logger
}

// NewService wires a service. Names are cleaned the way sales lines are;
// empty lists fall back to the default distributor round, cash account and
// other-sales items.
func NewService(store Store, opts Options) *Service {
	opts.Distributors = CleanAccountNames(opts.Distributors)
	opts.CashAccount = CleanAccountName(opts.CashAccount)
	opts.OtherItems = CleanAccountNames(opts.OtherItems)
	if len(opts.Distributors) == 0 {
		opts.Distributors = DefaultDistributors
	}
	if opts.CashAccount == "" {
		opts.CashAccount = DefaultCashAccount
	}
	if len(opts.OtherItems) == 0 {
		opts.OtherItems = DefaultOtherItems
	}
	if opts.Normalizer == nil {
		opts.Normalizer = ExactAccount
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		prices:    NewPriceResolver(store, opts.CashAccount, opts.Distributors),
		opts:      opts,
		normalize: opts.Normalizer,
		logger:    logger,
	}
}

// Prices exposes the resolver used for sales.
func (s *Service) Prices() *PriceResolver { return s.prices }

// Catalog lists the names the entry forms offer.
type Catalog struct {
	Distributors []string
	CashAccount  string
	OtherItems   []string
}

func (s *Service) Catalog() Catalog {
	return Catalog{
		Distributors: append([]string(nil), s.opts.Distributors...),
		CashAccount:  s.opts.CashAccount,
		OtherItems:   append([]string(nil), s.opts.OtherItems...),
	}
}

// =============================================================================
// PRODUCTION
// =============================================================================

// SaveProduction stores the flour usage for a date, replacing any previous value.
func (s *Service) SaveProduction(ctx context.Context, date Date, flourBags decimal.Decimal) (ProductionRecord, error) {
	if err := requireDate(date); err != nil {
		return ProductionRecord{}, err
	}
	if flourBags.IsNegative() {
		return ProductionRecord{}, invalid("flour_bags", flourBags, "must not be negative")
	}
	if flourBags.GreaterThan(MaxFlourBags) {
		return ProductionRecord{}, invalid("flour_bags", flourBags, "must not exceed "+MaxFlourBags.String())
	}

	rec := NewProductionRecord(date, flourBags)
	if err := s.store.SaveProduction(ctx, rec); err != nil {
		return ProductionRecord{}, storageErr("save production", err)
	}
	s.logger.Debug("production saved",
		zap.Stringer("date", date),
		zap.Stringer("flour_bags", flourBags),
		zap.Int64("expected", rec.ExpectedProduction))
	return rec, nil
}

// Production returns the stored production for a date, if any.
func (s *Service) Production(ctx context.Context, date Date) (ProductionRecord, bool, error) {
	recs, err := s.store.ProductionOn(ctx, date)
	if err != nil {
		return ProductionRecord{}, false, storageErr("load production", err)
	}
	if len(recs) == 0 {
		return ProductionRecord{Date: date}, false, nil
	}
	return recs[0], true, nil
}

// =============================================================================
// SALES
// =============================================================================

// SaveSalesBatch prices and stores one sales record per line. Lines are saved
// one by one; a failure part way leaves the earlier lines saved.
func (s *Service) SaveSalesBatch(ctx context.Context, date Date, lines []SalesInput) ([]SalesRecord, error) {
	if err := requireDate(date); err != nil {
		return nil, err
	}
	for _, l := range lines {
		if err := validateSalesInput(l); err != nil {
			return nil, err
		}
	}

	saved := make([]SalesRecord, 0, len(lines))
	for _, l := range lines {
		name := CleanAccountName(l.Distributor)
		price, ch, err := s.prices.ResolveFor(ctx, name)
		if err != nil {
			return saved, err
		}
		rec := NewSalesRecord(date, name, l.Delivered, l.Returned, price, l.CashPaid)
		if err := s.store.SaveSales(ctx, rec); err != nil {
			return saved, storageErr("save sales", err)
		}
		s.logger.Debug("sales saved",
			zap.Stringer("date", date),
			zap.String("distributor", name),
			zap.Stringer("channel", ch.Kind),
			zap.Int64("net_sales", rec.NetSales),
			zap.Stringer("total", rec.TotalAmount))
		saved = append(saved, rec)
	}
	return saved, nil
}

func validateSalesInput(l SalesInput) error {
	switch {
	case strings.TrimSpace(l.Distributor) == "":
		return invalid("distributor", l.Distributor, "must not be empty")
	case l.Delivered < 0:
		return invalid("delivered", l.Delivered, "must not be negative")
	case l.Returned < 0:
		return invalid("returned", l.Returned, "must not be negative")
	case l.CashPaid.IsNegative():
		return invalid("cash_paid", l.CashPaid, "must not be negative")
	}
	return nil
}

// Sales returns the stored sales for a date.
func (s *Service) Sales(ctx context.Context, date Date) ([]SalesRecord, error) {
	recs, err := s.store.SalesOn(ctx, date)
	if err != nil {
		return nil, storageErr("load sales", err)
	}
	return recs, nil
}

// SaveOtherSales stores the amount for one item on a date.
func (s *Service) SaveOtherSales(ctx context.Context, date Date, itemName string, amount decimal.Decimal) (OtherSalesRecord, error) {
	if err := requireDate(date); err != nil {
		return OtherSalesRecord{}, err
	}
	item := CleanAccountName(itemName)
	if item == "" {
		return OtherSalesRecord{}, invalid("item_name", itemName, "must not be empty")
	}
	if amount.IsNegative() {
		return OtherSalesRecord{}, invalid("amount", amount, "must not be negative")
	}

	rec := OtherSalesRecord{Date: date, ItemName: item, Amount: amount}
	if err := s.store.SaveOtherSales(ctx, rec); err != nil {
		return OtherSalesRecord{}, storageErr("save other sales", err)
	}
	return rec, nil
}

func (s *Service) OtherSales(ctx context.Context, date Date) ([]OtherSalesRecord, error) {
	recs, err := s.store.OtherSalesOn(ctx, date)
	if err != nil {
		return nil, storageErr("load other sales", err)
	}
	return recs, nil
}

// =============================================================================
// EXPENSES
// =============================================================================

// SaveExpenses stores the day's costs; the total is computed here.
func (s *Service) SaveExpenses(ctx context.Context, date Date, labor, wood, misc decimal.Decimal) (ExpenseRecord, error) {
	if err := requireDate(date); err != nil {
		return ExpenseRecord{}, err
	}
	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{{"labor", labor}, {"wood", wood}, {"misc", misc}} {
		if f.value.IsNegative() {
			return ExpenseRecord{}, invalid(f.name, f.value, "must not be negative")
		}
	}

	rec := NewExpenseRecord(date, labor, wood, misc)
	if err := s.store.SaveExpenses(ctx, rec); err != nil {
		return ExpenseRecord{}, storageErr("save expenses", err)
	}
	return rec, nil
}

// Expenses returns the stored expenses for a date, if any.
func (s *Service) Expenses(ctx context.Context, date Date) (ExpenseRecord, bool, error) {
	recs, err := s.store.ExpensesOn(ctx, date)
	if err != nil {
		return ExpenseRecord{}, false, storageErr("load expenses", err)
	}
	if len(recs) == 0 {
		return ExpenseRecord{Date: date}, false, nil
	}
	return recs[0], true, nil
}

// SuggestedExpenses returns the stored expenses, or the usual values when
// none are stored: fixed labor and wood, and misc at 1000 per flour bag used
// that day.
func (s *Service) SuggestedExpenses(ctx context.Context, date Date) (ExpenseRecord, bool, error) {
	rec, ok, err := s.Expenses(ctx, date)
	if err != nil || ok {
		return rec, ok, err
	}
	prod, _, err := s.Production(ctx, date)
	if err != nil {
		return ExpenseRecord{}, false, err
	}
	misc := prod.FlourBags.Mul(DefaultMiscPerBag)
	return NewExpenseRecord(date, DefaultLabor, DefaultWood, misc), false, nil
}

// =============================================================================
// LEDGER
// =============================================================================

// AddLedgerEntry appends a manual debit or credit. Exactly one of the two is
// expected to be non-zero; both are accepted.
func (s *Service) AddLedgerEntry(ctx context.Context, date Date, account, description string, debit, credit decimal.Decimal) (LedgerEntry, error) {
	if err := requireDate(date); err != nil {
		return LedgerEntry{}, err
	}
	name := CleanAccountName(account)
	switch {
	case name == "":
		return LedgerEntry{}, invalid("name", account, "must not be empty")
	case debit.IsNegative():
		return LedgerEntry{}, invalid("debit", debit, "must not be negative")
	case credit.IsNegative():
		return LedgerEntry{}, invalid("credit", credit, "must not be negative")
	}
	if !debit.IsZero() && !credit.IsZero() {
		s.logger.Warn("ledger entry has both debit and credit",
			zap.String("account", name), zap.Stringer("date", date))
	}

	entry, err := s.store.AppendLedgerEntry(ctx, LedgerEntry{
		Date:        date,
		Account:     name,
		Description: strings.TrimSpace(description),
		Debit:       debit,
		Credit:      credit,
	})
	if err != nil {
		return LedgerEntry{}, storageErr("append ledger entry", err)
	}
	s.logger.Debug("ledger entry added", zap.Int64("id", entry.ID), zap.String("account", name))
	return entry, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

// UpdateSetting stores a global price.
func (s *Service) UpdateSetting(ctx context.Context, key SettingKey, value decimal.Decimal) error {
	if !key.Valid() {
		return invalid("key", key, "unknown setting")
	}
	if value.IsNegative() {
		return invalid("value", value, "must not be negative")
	}
	if err := s.store.SaveSetting(ctx, key, value); err != nil {
		return storageErr("save setting", err)
	}
	s.logger.Info("setting updated", zap.String("key", string(key)), zap.Stringer("value", value))
	return nil
}

// UpdateDistributorPrice stores a distributor's price override.
func (s *Service) UpdateDistributorPrice(ctx context.Context, distributor string, price decimal.Decimal) error {
	name := CleanAccountName(distributor)
	if name == "" {
		return invalid("distributor", distributor, "must not be empty")
	}
	if price.IsNegative() {
		return invalid("price", price, "must not be negative")
	}
	if err := s.store.SaveDistributorPrice(ctx, name, price); err != nil {
		return storageErr("save distributor price", err)
	}
	s.logger.Info("distributor price updated", zap.String("distributor", name), zap.Stringer("price", price))
	return nil
}

// Settings returns every global setting with defaults applied.
func (s *Service) Settings(ctx context.Context) ([]Setting, error) {
	keys := []SettingKey{SettingPriceCash, SettingPriceFactory, SettingPriceDistributor}
	out := make([]Setting, 0, len(keys))
	for _, k := range keys {
		v, err := s.prices.Setting(ctx, k)
		if err != nil {
			return nil, err
		}
		out = append(out, Setting{Key: k, Value: v})
	}
	return out, nil
}

// DistributorPrices returns the effective price of every configured
// distributor plus any other stored override.
func (s *Service) DistributorPrices(ctx context.Context) ([]DistributorPrice, error) {
	stored, err := s.store.DistributorPrices(ctx)
	if err != nil {
		return nil, storageErr("load distributor prices", err)
	}
	byName := make(map[string]decimal.Decimal, len(stored))
	for _, p := range stored {
		byName[p.Distributor] = p.Price
	}

	out := make([]DistributorPrice, 0, len(s.opts.Distributors)+len(stored))
	seen := make(map[string]bool)
	for _, d := range s.opts.Distributors {
		price, ok := byName[d]
		if !ok {
			price = DefaultDistributorPrice
		}
		out = append(out, DistributorPrice{Distributor: d, Price: price})
		seen[d] = true
	}
	for _, p := range stored {
		if !seen[p.Distributor] {
			out = append(out, p)
		}
	}
	return out, nil
}

// =============================================================================
// BACKUP
// =============================================================================

// ExportSnapshot returns the raw bytes of the whole store.
func (s *Service) ExportSnapshot(ctx context.Context) ([]byte, error) {
	snap, ok := s.store.(Snapshotter)
	if !ok {
		return nil, ErrStoreRequired
	}
	data, err := snap.Snapshot(ctx)
	if err != nil {
		return nil, storageErr("snapshot", err)
	}
	s.logger.Info("snapshot exported", zap.Int("bytes", len(data)))
	return data, nil
}

func requireDate(d Date) error {
	if d.IsZero() {
		return invalid("date", d, "must be set")
	}
	return nil
}
