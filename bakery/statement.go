/*
statement.go - Account statement reconciliation

PURPOSE:
  Builds the debit/credit statement the owner uses to see who owes what.
  Two sources feed it and neither is stored in the shape of the other:

    Sales (automatic):   every sales record is a debt of its full value
                         (Debit = TotalAmount) with the cash collected on the
                         spot as an immediate payment (Credit = CashPaid)
    Manual (ledger):     debts and payments entered by hand

  Both are normalized into StatementRow before anything is summed.

ALGORITHM:
  1. Sales  -> StatementRow{Source: SourceSales}
  2. Ledger -> StatementRow{Source: SourceManual}
  3. Concatenate (sales first, then ledger, in read order)
  4. Keep only the filtered account, if a filter is given
  5. Group by account key: debit, credit, balance = debit - credit
  6. Grand totals over the kept rows
  7. Detail rows sorted by date, newest first

BALANCE SIGN:
  balance > 0  the account owes the bakery
  balance < 0  the bakery owes the account (overpayment)

EMPTY:
  No sales and no ledger entries at all gives Statement{Empty: true}.
  A filter that matches nothing on a non-empty ledger gives zero totals
  with Empty false.

SEE ALSO:
  - account.go: Account name normalization
  - types.go: SalesRecord, LedgerEntry
*/
package bakery

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STATEMENT ROW - Sales and manual entries in one shape
// =============================================================================

// RowSource tags where a statement row came from.
type RowSource string

const (
	SourceSales  RowSource = "sales"
	SourceManual RowSource = "manual"
)

// DailySalesDescription labels rows synthesized from sales records.
const DailySalesDescription = "مبيعات يومية"

// StatementRow is one debit/credit line. EntryID is set for manual rows only.
type StatementRow struct {
	Source      RowSource
	EntryID     int64
	Date        Date
	Account     string
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// FromSale turns a sales record into a statement row.
func FromSale(rec SalesRecord) StatementRow {
	return StatementRow{
		Source:      SourceSales,
		Date:        rec.Date,
		Account:     rec.Distributor,
		Description: DailySalesDescription,
		Debit:       rec.TotalAmount,
		Credit:      rec.CashPaid,
	}
}

// FromLedgerEntry turns a manual entry into a statement row.
func FromLedgerEntry(e LedgerEntry) StatementRow {
	return StatementRow{
		Source:      SourceManual,
		EntryID:     e.ID,
		Date:        e.Date,
		Account:     e.Account,
		Description: e.Description,
		Debit:       e.Debit,
		Credit:      e.Credit,
	}
}

// =============================================================================
// STATEMENT
// =============================================================================

// AccountSummary is the grouped total of one account.
type AccountSummary struct {
	Account string
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Balance decimal.Decimal
}

// Statement is the reconciled view for one or all accounts.
type Statement struct {
	Empty bool
	// Filter is the account the statement was restricted to, if any.
	Filter string
	// AccountNames lists every account present before filtering.
	AccountNames []string

	Accounts    []AccountSummary
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Balance     decimal.Decimal

	// Rows are the individual lines, newest first.
	Rows []StatementRow
}

// Statement reads all sales and ledger entries and reconciles them. An empty
// filter means all accounts.
func (s *Service) Statement(ctx context.Context, accountFilter string) (Statement, error) {
	sales, err := s.store.AllSales(ctx)
	if err != nil {
		return Statement{}, storageErr("load sales", err)
	}
	entries, err := s.store.LedgerEntries(ctx)
	if err != nil {
		return Statement{}, storageErr("load ledger", err)
	}

	rows := make([]StatementRow, 0, len(sales)+len(entries))
	for _, sr := range sales {
		rows = append(rows, FromSale(sr))
	}
	for _, e := range entries {
		rows = append(rows, FromLedgerEntry(e))
	}
	return Reconcile(rows, CleanAccountName(accountFilter), s.normalize), nil
}

// Reconcile groups rows per account. normalize decides account identity;
// nil means exact string match.
func Reconcile(rows []StatementRow, accountFilter string, normalize Normalizer) Statement {
	if normalize == nil {
		normalize = ExactAccount
	}
	if len(rows) == 0 {
		return emptyStatement(accountFilter)
	}

	st := Statement{
		Filter:      accountFilter,
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
		Balance:     decimal.Zero,
		Accounts:    []AccountSummary{},
		Rows:        []StatementRow{},
	}

	names := make(map[AccountKey]string)
	var order []AccountKey
	for _, r := range rows {
		k := normalize(r.Account)
		if _, ok := names[k]; !ok {
			names[k] = r.Account
			order = append(order, k)
		}
	}
	for _, k := range order {
		st.AccountNames = append(st.AccountNames, names[k])
	}

	filterKey := normalize(accountFilter)
	groups := make(map[AccountKey]*AccountSummary)
	for _, r := range rows {
		k := normalize(r.Account)
		if accountFilter != "" && k != filterKey {
			continue
		}
		g, ok := groups[k]
		if !ok {
			g = &AccountSummary{Account: names[k], Debit: decimal.Zero, Credit: decimal.Zero}
			groups[k] = g
		}
		g.Debit = g.Debit.Add(r.Debit)
		g.Credit = g.Credit.Add(r.Credit)
		st.Rows = append(st.Rows, r)
	}

	for _, g := range groups {
		g.Balance = g.Debit.Sub(g.Credit)
		st.Accounts = append(st.Accounts, *g)
		st.TotalDebit = st.TotalDebit.Add(g.Debit)
		st.TotalCredit = st.TotalCredit.Add(g.Credit)
	}
	st.Balance = st.TotalDebit.Sub(st.TotalCredit)

	sort.Slice(st.Accounts, func(i, j int) bool {
		return st.Accounts[i].Account < st.Accounts[j].Account
	})
	sort.SliceStable(st.Rows, func(i, j int) bool {
		return st.Rows[i].Date.After(st.Rows[j].Date)
	})
	return st
}

func emptyStatement(filter string) Statement {
	return Statement{
		Empty:        true,
		Filter:       filter,
		AccountNames: []string{},
		Accounts:     []AccountSummary{},
		TotalDebit:   decimal.Zero,
		TotalCredit:  decimal.Zero,
		Balance:      decimal.Zero,
		Rows:         []StatementRow{},
	}
}

// Account returns the summary of one account by display name.
func (st Statement) Account(name string) (AccountSummary, bool) {
	for _, a := range st.Accounts {
		if a.Account == name {
			return a, true
		}
	}
	return AccountSummary{}, false
}
