package api

import (
	"net/http"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/alwafa/bakery-ledger/bakery"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// sheetWriter appends rows to one sheet, remembering the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func newSheet(f *excelize.File, name string, first bool) *sheetWriter {
	sw := &sheetWriter{f: f, sheet: name}
	if first {
		sw.err = f.SetSheetName("Sheet1", name)
	} else {
		_, sw.err = f.NewSheet(name)
	}
	if sw.err == nil {
		rtl := true
		sw.err = f.SetSheetView(name, 0, &excelize.ViewOptions{RightToLeft: &rtl})
	}
	return sw
}

func (sw *sheetWriter) append(values ...any) {
	if sw.err != nil {
		return
	}
	sw.row++
	cell, err := excelize.CoordinatesToCellName(1, sw.row)
	if err != nil {
		sw.err = err
		return
	}
	sw.err = sw.f.SetSheetRow(sw.sheet, cell, &values)
}

// monthlyWorkbook renders a monthly report: a summary sheet, the two chart
// series and the month's sales lines.
func monthlyWorkbook(r bakery.MonthlyReport) (*excelize.File, error) {
	f := excelize.NewFile()

	summary := newSheet(f, "Summary", true)
	summary.append("Month", r.Period.Label())
	summary.append("From", r.Period.Start.String())
	summary.append("To", r.Period.End.String())
	summary.append("Distribution revenue", money(r.DistributionRevenue))
	summary.append("Other revenue", money(r.OtherRevenue))
	summary.append("Total revenue", money(r.TotalRevenue))
	summary.append("Total expenses", money(r.TotalExpense))
	summary.append("Profit", money(r.Profit))

	daily := newSheet(f, "Daily", false)
	daily.append("Date", "Revenue")
	for _, p := range r.DailyRevenue {
		daily.append(p.Date.String(), money(p.Amount))
	}

	byDistributor := newSheet(f, "Distributors", false)
	byDistributor.append("Distributor", "Revenue")
	for _, p := range r.DistributorRevenue {
		byDistributor.append(p.Distributor, money(p.Amount))
	}

	sales := newSheet(f, "Sales", false)
	sales.append("Date", "Distributor", "Delivered", "Returned", "Net", "Price", "Total", "Cash paid")
	for _, s := range r.Sales {
		sales.append(s.Date.String(), s.Distributor, s.Delivered, s.Returned, s.NetSales,
			money(s.UnitPrice), money(s.TotalAmount), money(s.CashPaid))
	}

	for _, sw := range []*sheetWriter{summary, daily, byDistributor, sales} {
		if sw.err != nil {
			f.Close()
			return nil, sw.err
		}
	}
	return f, nil
}

// statementWorkbook renders the per-account totals and the detail rows.
func statementWorkbook(st bakery.Statement) (*excelize.File, error) {
	f := excelize.NewFile()

	accounts := newSheet(f, "Accounts", true)
	accounts.append("Account", "Debit", "Credit", "Balance")
	for _, a := range st.Accounts {
		accounts.append(a.Account, money(a.Debit), money(a.Credit), money(a.Balance))
	}
	accounts.append("Total", money(st.TotalDebit), money(st.TotalCredit), money(st.Balance))

	rows := newSheet(f, "Entries", false)
	rows.append("Date", "Account", "Description", "Debit", "Credit", "Source")
	for _, r := range st.Rows {
		rows.append(r.Date.String(), r.Account, r.Description, money(r.Debit), money(r.Credit), string(r.Source))
	}

	for _, sw := range []*sheetWriter{accounts, rows} {
		if sw.err != nil {
			f.Close()
			return nil, sw.err
		}
	}
	return f, nil
}

func (h *Handler) writeWorkbook(w http.ResponseWriter, f *excelize.File, filename string) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if err := f.Write(w); err != nil {
		h.logger.Error("failed to write workbook", zap.String("file", filename), zap.Error(err))
	}
}
