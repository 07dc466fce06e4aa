package bakery

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyReport folds a month of records into totals and chart series.
//
// Profit is TotalRevenue - TotalExpense. Unlike the daily report it does not
// subtract the production-deficit loss.
type MonthlyReport struct {
	Year   int
	Month  time.Month
	Period Period
	// Empty is set when the month has no sales records, even if it has
	// expenses or other sales.
	Empty bool

	DistributionRevenue decimal.Decimal
	OtherRevenue        decimal.Decimal
	TotalRevenue        decimal.Decimal
	TotalExpense        decimal.Decimal
	Profit              decimal.Decimal

	// DailyRevenue is sales TotalAmount per date, ascending.
	DailyRevenue []DailyRevenuePoint
	// DistributorRevenue is sales TotalAmount per distributor, ascending by name.
	DistributorRevenue []DistributorRevenuePoint
	// Sales are the month's sales records.
	Sales []SalesRecord
}

type DailyRevenuePoint struct {
	Date   Date
	Amount decimal.Decimal
}

type DistributorRevenuePoint struct {
	Distributor string
	Amount      decimal.Decimal
}

// MonthlyReport computes the report for year/month over the exact calendar
// month.
func (s *Service) MonthlyReport(ctx context.Context, year int, month time.Month) (MonthlyReport, error) {
	period, err := MonthPeriod(year, month)
	if err != nil {
		return MonthlyReport{}, err
	}

	sales, err := s.store.SalesBetween(ctx, period)
	if err != nil {
		return MonthlyReport{}, storageErr("load sales", err)
	}
	if len(sales) == 0 {
		return emptyMonth(year, month, period), nil
	}
	other, err := s.store.OtherSalesBetween(ctx, period)
	if err != nil {
		return MonthlyReport{}, storageErr("load other sales", err)
	}
	expenses, err := s.store.ExpensesBetween(ctx, period)
	if err != nil {
		return MonthlyReport{}, storageErr("load expenses", err)
	}

	return ComputeMonthly(year, month, period, sales, other, expenses), nil
}

// ComputeMonthly folds the month's records. Records outside period are ignored.
func ComputeMonthly(year int, month time.Month, period Period, sales []SalesRecord, other []OtherSalesRecord, expenses []ExpenseRecord) MonthlyReport {
	r := emptyMonth(year, month, period)

	byDate := make(map[string]*DailyRevenuePoint)
	byDistributor := make(map[string]*DistributorRevenuePoint)
	for _, sr := range sales {
		if !period.Contains(sr.Date) {
			continue
		}
		r.Sales = append(r.Sales, sr)
		r.DistributionRevenue = r.DistributionRevenue.Add(sr.TotalAmount)

		dp, ok := byDate[sr.Date.String()]
		if !ok {
			dp = &DailyRevenuePoint{Date: sr.Date, Amount: decimal.Zero}
			byDate[sr.Date.String()] = dp
		}
		dp.Amount = dp.Amount.Add(sr.TotalAmount)

		pp, ok := byDistributor[sr.Distributor]
		if !ok {
			pp = &DistributorRevenuePoint{Distributor: sr.Distributor, Amount: decimal.Zero}
			byDistributor[sr.Distributor] = pp
		}
		pp.Amount = pp.Amount.Add(sr.TotalAmount)
	}
	if len(r.Sales) == 0 {
		return r
	}
	r.Empty = false

	for _, o := range other {
		if period.Contains(o.Date) {
			r.OtherRevenue = r.OtherRevenue.Add(o.Amount)
		}
	}
	for _, e := range expenses {
		if period.Contains(e.Date) {
			r.TotalExpense = r.TotalExpense.Add(e.Total)
		}
	}

	for _, dp := range byDate {
		r.DailyRevenue = append(r.DailyRevenue, *dp)
	}
	sort.Slice(r.DailyRevenue, func(i, j int) bool {
		return r.DailyRevenue[i].Date.Before(r.DailyRevenue[j].Date)
	})
	for _, pp := range byDistributor {
		r.DistributorRevenue = append(r.DistributorRevenue, *pp)
	}
	sort.Slice(r.DistributorRevenue, func(i, j int) bool {
		return r.DistributorRevenue[i].Distributor < r.DistributorRevenue[j].Distributor
	})

	r.TotalRevenue = r.DistributionRevenue.Add(r.OtherRevenue)
	r.Profit = r.TotalRevenue.Sub(r.TotalExpense)
	return r
}

func emptyMonth(year int, month time.Month, period Period) MonthlyReport {
	return MonthlyReport{
		Year:                year,
		Month:               month,
		Period:              period,
		Empty:               true,
		DistributionRevenue: decimal.Zero,
		OtherRevenue:        decimal.Zero,
		TotalRevenue:        decimal.Zero,
		TotalExpense:        decimal.Zero,
		Profit:              decimal.Zero,
		DailyRevenue:        []DailyRevenuePoint{},
		DistributorRevenue:  []DistributorRevenuePoint{},
		Sales:               []SalesRecord{},
	}
}
