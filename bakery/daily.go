package bakery

import (
	"context"

	"github.com/shopspring/decimal"
)

// DailyReport is the profit and loss for one date.
//
// Deficit is ExpectedProduction - NetSales and may be negative when more
// bread was sold than the flour should have produced. LossValue prices the
// deficit at the standard distributor price, whoever was short.
type DailyReport struct {
	Date               Date
	ExpectedProduction int64
	NetSales           int64
	Deficit            int64
	DeficitPrice       decimal.Decimal
	LossValue          decimal.Decimal

	DistributionRevenue decimal.Decimal
	OtherRevenue        decimal.Decimal
	TotalRevenue        decimal.Decimal
	TotalExpense        decimal.Decimal
	NetProfit           decimal.Decimal

	// ActiveSales are the date's sales rows with NetSales > 0.
	ActiveSales []SalesRecord
}

// DailyReport computes the report for a date from whatever is stored. A date
// with no records reports zeros.
func (s *Service) DailyReport(ctx context.Context, date Date) (DailyReport, error) {
	production, err := s.store.ProductionOn(ctx, date)
	if err != nil {
		return DailyReport{}, storageErr("load production", err)
	}
	sales, err := s.store.SalesOn(ctx, date)
	if err != nil {
		return DailyReport{}, storageErr("load sales", err)
	}
	other, err := s.store.OtherSalesOn(ctx, date)
	if err != nil {
		return DailyReport{}, storageErr("load other sales", err)
	}
	expenses, err := s.store.ExpensesOn(ctx, date)
	if err != nil {
		return DailyReport{}, storageErr("load expenses", err)
	}
	price, err := s.prices.DeficitPrice(ctx)
	if err != nil {
		return DailyReport{}, err
	}

	return ComputeDaily(date, production, sales, other, expenses, price), nil
}

// ComputeDaily folds one date's records into a DailyReport.
func ComputeDaily(date Date, production []ProductionRecord, sales []SalesRecord, other []OtherSalesRecord, expenses []ExpenseRecord, deficitPrice decimal.Decimal) DailyReport {
	r := DailyReport{
		Date:                date,
		DeficitPrice:        deficitPrice,
		DistributionRevenue: decimal.Zero,
		OtherRevenue:        decimal.Zero,
		TotalExpense:        decimal.Zero,
		ActiveSales:         []SalesRecord{},
	}

	for _, p := range production {
		r.ExpectedProduction += p.ExpectedProduction
	}
	for _, sr := range sales {
		r.NetSales += sr.NetSales
		r.DistributionRevenue = r.DistributionRevenue.Add(sr.TotalAmount)
		if sr.NetSales > 0 {
			r.ActiveSales = append(r.ActiveSales, sr)
		}
	}
	for _, o := range other {
		r.OtherRevenue = r.OtherRevenue.Add(o.Amount)
	}
	for _, e := range expenses {
		r.TotalExpense = r.TotalExpense.Add(e.Total)
	}

	r.Deficit = r.ExpectedProduction - r.NetSales
	r.LossValue = decimal.NewFromInt(r.Deficit).Mul(deficitPrice)
	r.TotalRevenue = r.DistributionRevenue.Add(r.OtherRevenue)
	r.NetProfit = r.TotalRevenue.Sub(r.TotalExpense).Sub(r.LossValue)
	return r
}
