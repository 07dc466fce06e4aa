// Package store provides an in-memory bakery.Store.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/alwafa/bakery-ledger/bakery"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps every record in maps and slices guarded by one mutex.
type Memory struct {
	mu sync.RWMutex

	production map[string]bakery.ProductionRecord
	sales      []bakery.SalesRecord
	other      []bakery.OtherSalesRecord
	expenses   map[string]bakery.ExpenseRecord
	ledger     []bakery.LedgerEntry
	nextID     int64

	settings     map[bakery.SettingKey]decimal.Decimal
	distributors map[string]decimal.Decimal

	// Fail, when set, is returned by every call. Used to exercise storage
	// failure paths.
	Fail error
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		production:   make(map[string]bakery.ProductionRecord),
		expenses:     make(map[string]bakery.ExpenseRecord),
		settings:     make(map[bakery.SettingKey]decimal.Decimal),
		distributors: make(map[string]decimal.Decimal),
		nextID:       1,
	}
}

// --- settings ---

// Setting returns a global setting.
func (m *Memory) Setting(_ context.Context, key bakery.SettingKey) (decimal.Decimal, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Fail != nil {
		return decimal.Zero, false, m.Fail
	}
	v, ok := m.settings[key]
	return v, ok, nil
}

// SaveSetting stores a global setting.
func (m *Memory) SaveSetting(_ context.Context, key bakery.SettingKey, value decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.settings[key] = value
	return nil
}

// DistributorPrice returns a distributor's stored price.
func (m *Memory) DistributorPrice(_ context.Context, distributor string) (decimal.Decimal, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Fail != nil {
		return decimal.Zero, false, m.Fail
	}
	v, ok := m.distributors[distributor]
	return v, ok, nil
}

// SaveDistributorPrice stores a distributor's price.
func (m *Memory) SaveDistributorPrice(_ context.Context, distributor string, price decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.distributors[distributor] = price
	return nil
}

// DistributorPrices lists every stored distributor price.
func (m *Memory) DistributorPrices(_ context.Context) ([]bakery.DistributorPrice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	out := make([]bakery.DistributorPrice, 0, len(m.distributors))
	for name, price := range m.distributors {
		out = append(out, bakery.DistributorPrice{Distributor: name, Price: price})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distributor < out[j].Distributor })
	return out, nil
}

// --- production ---

// SaveProduction upserts the production for a date.
func (m *Memory) SaveProduction(_ context.Context, rec bakery.ProductionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.production[rec.Date.String()] = rec
	return nil
}

// ProductionOn returns the production for a date, if any.
func (m *Memory) ProductionOn(_ context.Context, date bakery.Date) ([]bakery.ProductionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	if rec, ok := m.production[date.String()]; ok {
		return []bakery.ProductionRecord{rec}, nil
	}
	return nil, nil
}

// --- sales ---

// SaveSales replaces the record with the same (date, distributor) in place,
// keeping the original insertion position.
func (m *Memory) SaveSales(_ context.Context, rec bakery.SalesRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	for i, s := range m.sales {
		if s.Date.Equal(rec.Date) && s.Distributor == rec.Distributor {
			m.sales[i] = rec
			return nil
		}
	}
	m.sales = append(m.sales, rec)
	return nil
}

// SalesOn returns the sales lines for a date.
func (m *Memory) SalesOn(_ context.Context, date bakery.Date) ([]bakery.SalesRecord, error) {
	return m.salesWhere(func(s bakery.SalesRecord) bool { return s.Date.Equal(date) })
}

// SalesBetween returns the sales lines inside a period.
func (m *Memory) SalesBetween(_ context.Context, p bakery.Period) ([]bakery.SalesRecord, error) {
	out, err := m.salesWhere(func(s bakery.SalesRecord) bool { return p.Contains(s.Date) })
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Distributor < out[j].Distributor
	})
	return out, err
}

// AllSales returns every sales line.
func (m *Memory) AllSales(_ context.Context) ([]bakery.SalesRecord, error) {
	return m.salesWhere(func(bakery.SalesRecord) bool { return true })
}

func (m *Memory) salesWhere(keep func(bakery.SalesRecord) bool) ([]bakery.SalesRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	var out []bakery.SalesRecord
	for _, s := range m.sales {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

// --- other sales ---

// SaveOtherSales upserts an other-sales item.
func (m *Memory) SaveOtherSales(_ context.Context, rec bakery.OtherSalesRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	for i, o := range m.other {
		if o.Date.Equal(rec.Date) && o.ItemName == rec.ItemName {
			m.other[i] = rec
			return nil
		}
	}
	m.other = append(m.other, rec)
	return nil
}

// OtherSalesOn returns the other-sales items for a date.
func (m *Memory) OtherSalesOn(_ context.Context, date bakery.Date) ([]bakery.OtherSalesRecord, error) {
	return m.otherWhere(func(o bakery.OtherSalesRecord) bool { return o.Date.Equal(date) })
}

// OtherSalesBetween returns the other-sales items inside a period.
func (m *Memory) OtherSalesBetween(_ context.Context, p bakery.Period) ([]bakery.OtherSalesRecord, error) {
	return m.otherWhere(func(o bakery.OtherSalesRecord) bool { return p.Contains(o.Date) })
}

func (m *Memory) otherWhere(keep func(bakery.OtherSalesRecord) bool) ([]bakery.OtherSalesRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	var out []bakery.OtherSalesRecord
	for _, o := range m.other {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out, nil
}

// --- expenses ---

// SaveExpenses upserts the expenses for a date.
func (m *Memory) SaveExpenses(_ context.Context, rec bakery.ExpenseRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.expenses[rec.Date.String()] = rec
	return nil
}

// ExpensesOn returns the expenses for a date, if any.
func (m *Memory) ExpensesOn(_ context.Context, date bakery.Date) ([]bakery.ExpenseRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	if rec, ok := m.expenses[date.String()]; ok {
		return []bakery.ExpenseRecord{rec}, nil
	}
	return nil, nil
}

// ExpensesBetween returns the expenses inside a period.
func (m *Memory) ExpensesBetween(_ context.Context, p bakery.Period) ([]bakery.ExpenseRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	var out []bakery.ExpenseRecord
	for _, e := range m.expenses {
		if p.Contains(e.Date) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// --- ledger ---

// AppendLedgerEntry assigns the next ID. Append-only.
func (m *Memory) AppendLedgerEntry(_ context.Context, entry bakery.LedgerEntry) (bakery.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return bakery.LedgerEntry{}, m.Fail
	}
	entry.ID = m.nextID
	m.nextID++
	m.ledger = append(m.ledger, entry)
	return entry, nil
}

// LedgerEntries returns every manual entry in insertion order.
func (m *Memory) LedgerEntries(_ context.Context) ([]bakery.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	result := make([]bakery.LedgerEntry, len(m.ledger))
	copy(result, m.ledger)
	return result, nil
}

// Len returns the number of stored records per kind, for tests.
func (m *Memory) Len() (production, sales, other, expenses, ledger int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.production), len(m.sales), len(m.other), len(m.expenses), len(m.ledger)
}

var _ bakery.Store = (*Memory)(nil)
