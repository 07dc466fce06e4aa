package bakery_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alwafa/bakery-ledger/bakery"
	"github.com/alwafa/bakery-ledger/bakery/store"
)

var (
	may1 = bakery.MustParseDate("2024-05-01")
	may2 = bakery.MustParseDate("2024-05-02")
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newService(t *testing.T) (*bakery.Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return bakery.NewService(mem, bakery.Options{}), mem
}

// =============================================================================
// PRODUCTION
// =============================================================================

func TestExpectedProduction(t *testing.T) {
	tests := []struct {
		bags string
		want int64
	}{
		{"0", 0},
		{"1", 1600},
		{"2.5", 4000},
		{"0.3333", 533},
	}
	for _, tt := range tests {
		t.Run(tt.bags, func(t *testing.T) {
			assert.Equal(t, tt.want, bakery.ExpectedProduction(dec(tt.bags)))
		})
	}
}

func TestSaveProduction_Idempotent(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	// WHEN: the same date is saved twice
	_, err := svc.SaveProduction(ctx, may1, dec("2"))
	require.NoError(t, err)
	_, err = svc.SaveProduction(ctx, may1, dec("2.5"))
	require.NoError(t, err)

	// THEN: one record, last value wins
	production, _, _, _, _ := mem.Len()
	assert.Equal(t, 1, production)
	rec, ok, err := svc.Production(ctx, may1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(4000), rec.ExpectedProduction)
}

func TestSaveProduction_RejectsNegative(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.SaveProduction(context.Background(), may1, dec("-1"))
	assert.True(t, bakery.IsClientError(err))

	var ve *bakery.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "flour_bags", ve.Field)
}

func TestSaveProduction_RejectsOversizedBags(t *testing.T) {
	svc, mem := newService(t)

	// WHEN: a value too large for the expected production is entered
	_, err := svc.SaveProduction(context.Background(), may1, dec("1e20"))

	// THEN: it is rejected and nothing is stored
	assert.True(t, bakery.IsClientError(err))
	production, _, _, _, _ := mem.Len()
	assert.Zero(t, production)

	// AND: the bound itself is accepted
	rec, err := svc.SaveProduction(context.Background(), may1, bakery.MaxFlourBags)
	require.NoError(t, err)
	assert.Equal(t, int64(16_000_000), rec.ExpectedProduction)
}

func TestSaveProduction_RequiresDate(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.SaveProduction(context.Background(), bakery.Date{}, dec("1"))
	assert.ErrorIs(t, err, bakery.ErrInvalidInput)
}

// =============================================================================
// SALES
// =============================================================================

func TestSaveSalesBatch_NetCanBeNegative(t *testing.T) {
	svc, _ := newService(t)

	recs, err := svc.SaveSalesBatch(context.Background(), may1, []bakery.SalesInput{
		{Distributor: "هيثم", Delivered: 10, Returned: 30},
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(-20), recs[0].NetSales)
	assert.Equal(t, "-320", recs[0].TotalAmount.String())
}

func TestSaveSalesBatch_FreezesPriceAtSaveTime(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	// GIVEN: a sale at the default price
	_, err := svc.SaveSalesBatch(ctx, may1, []bakery.SalesInput{{Distributor: "هيثم", Delivered: 100}})
	require.NoError(t, err)

	// WHEN: the price changes afterwards
	require.NoError(t, svc.UpdateDistributorPrice(ctx, "هيثم", dec("18")))
	_, err = svc.SaveSalesBatch(ctx, may2, []bakery.SalesInput{{Distributor: "هيثم", Delivered: 100}})
	require.NoError(t, err)

	// THEN: the old record keeps its price
	old, err := svc.Sales(ctx, may1)
	require.NoError(t, err)
	assert.Equal(t, "1600", old[0].TotalAmount.String())
	fresh, err := svc.Sales(ctx, may2)
	require.NoError(t, err)
	assert.Equal(t, "1800", fresh[0].TotalAmount.String())
}

func TestSaveSalesBatch_ValidatesBeforeSaving(t *testing.T) {
	svc, mem := newService(t)

	_, err := svc.SaveSalesBatch(context.Background(), may1, []bakery.SalesInput{
		{Distributor: "هيثم", Delivered: 100},
		{Distributor: "وجيه", Delivered: -1},
	})
	assert.True(t, bakery.IsClientError(err))

	_, sales, _, _, _ := mem.Len()
	assert.Zero(t, sales, "no line is saved when one is invalid")
}

func TestSaveSalesBatch_Upserts(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	for _, delivered := range []int64{100, 120} {
		_, err := svc.SaveSalesBatch(ctx, may1, []bakery.SalesInput{{Distributor: "هيثم", Delivered: delivered}})
		require.NoError(t, err)
	}

	_, sales, _, _, _ := mem.Len()
	assert.Equal(t, 1, sales)
}

// =============================================================================
// OTHER SALES / EXPENSES
// =============================================================================

func TestSaveOtherSales(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SaveOtherSales(ctx, may1, "  كيك ", dec("3000"))
	require.NoError(t, err)
	_, err = svc.SaveOtherSales(ctx, may1, "", dec("1"))
	assert.True(t, bakery.IsClientError(err))
	_, err = svc.SaveOtherSales(ctx, may1, "فحم", dec("-1"))
	assert.True(t, bakery.IsClientError(err))

	recs, err := svc.OtherSales(ctx, may1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "كيك", recs[0].ItemName)
}

func TestSaveExpenses_ComputesTotal(t *testing.T) {
	svc, _ := newService(t)

	rec, err := svc.SaveExpenses(context.Background(), may1, dec("53000"), dec("20000"), dec("2500"))
	require.NoError(t, err)
	assert.Equal(t, "75500", rec.Total.String())
}

func TestSuggestedExpenses(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	// GIVEN: 2.5 bags used and nothing stored
	_, err := svc.SaveProduction(ctx, may1, dec("2.5"))
	require.NoError(t, err)

	rec, stored, err := svc.SuggestedExpenses(ctx, may1)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.Equal(t, "53000", rec.Labor.String())
	assert.Equal(t, "20000", rec.Wood.String())
	assert.Equal(t, "2500", rec.Misc.String())

	// WHEN: expenses are stored, they are returned instead
	_, err = svc.SaveExpenses(ctx, may1, dec("1"), dec("2"), dec("3"))
	require.NoError(t, err)
	rec, stored, err = svc.SuggestedExpenses(ctx, may1)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, "6", rec.Total.String())
}

// =============================================================================
// LEDGER / SETTINGS
// =============================================================================

func TestAddLedgerEntry(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	e1, err := svc.AddLedgerEntry(ctx, may1, " هيثم ", "سداد", decimal.Zero, dec("200"))
	require.NoError(t, err)
	e2, err := svc.AddLedgerEntry(ctx, may1, "هيثم", "سداد", decimal.Zero, dec("200"))
	require.NoError(t, err)

	assert.Equal(t, "هيثم", e1.Account)
	assert.NotEqual(t, e1.ID, e2.ID, "duplicates are separate entries")

	_, err = svc.AddLedgerEntry(ctx, may1, "هيثم", "", dec("-1"), decimal.Zero)
	assert.True(t, bakery.IsClientError(err))
	_, err = svc.AddLedgerEntry(ctx, may1, " ", "", dec("1"), decimal.Zero)
	assert.True(t, bakery.IsClientError(err))
}

func TestUpdateSetting(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.UpdateSetting(ctx, bakery.SettingPriceFactory, dec("14")))
	assert.True(t, bakery.IsClientError(svc.UpdateSetting(ctx, "price_gold", dec("1"))))
	assert.True(t, bakery.IsClientError(svc.UpdateSetting(ctx, bakery.SettingPriceCash, dec("-1"))))

	settings, err := svc.Settings(ctx)
	require.NoError(t, err)
	values := map[bakery.SettingKey]string{}
	for _, s := range settings {
		values[s.Key] = s.Value.String()
	}
	assert.Equal(t, map[bakery.SettingKey]string{
		bakery.SettingPriceCash:        "20",
		bakery.SettingPriceFactory:     "14",
		bakery.SettingPriceDistributor: "16",
	}, values)
}

func TestDistributorPrices_ConfiguredFirst(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.UpdateDistributorPrice(ctx, "مخبز الحي", dec("17")))
	require.NoError(t, svc.UpdateDistributorPrice(ctx, "وجيه", dec("18")))

	prices, err := svc.DistributorPrices(ctx)
	require.NoError(t, err)
	require.Len(t, prices, len(bakery.DefaultDistributors)+1)
	assert.Equal(t, "هيثم", prices[0].Distributor)
	assert.Equal(t, "16", prices[0].Price.String())
	assert.Equal(t, "18", prices[1].Price.String())
	assert.Equal(t, "مخبز الحي", prices[len(prices)-1].Distributor)
}

func TestExportSnapshot_RequiresSnapshotter(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.ExportSnapshot(context.Background())
	assert.ErrorIs(t, err, bakery.ErrStoreRequired)
}

func TestStorageFailure_Propagates(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()
	boom := errors.New("disk full")
	mem.Fail = boom

	_, err := svc.SaveProduction(ctx, may1, dec("1"))
	assert.True(t, bakery.IsStorageFailure(err))
	assert.ErrorIs(t, err, boom)
	assert.False(t, bakery.IsClientError(err))

	_, err = svc.DailyReport(ctx, may1)
	assert.True(t, bakery.IsStorageFailure(err))

	_, err = svc.Statement(ctx, "")
	assert.True(t, bakery.IsStorageFailure(err))

	_, err = svc.MonthlyReport(ctx, 2024, 5)
	assert.True(t, bakery.IsStorageFailure(err))

	_, err = svc.Prices().Resolve(ctx, bakery.CashChannel())
	assert.True(t, bakery.IsStorageFailure(err))
}

func TestCatalog_Defaults(t *testing.T) {
	svc, _ := newService(t)

	c := svc.Catalog()
	assert.Equal(t, bakery.DefaultDistributors, c.Distributors)
	assert.Equal(t, "كاش", c.CashAccount)
	assert.Equal(t, []string{"روتي طويل", "كيك", "خبز", "فحم"}, c.OtherItems)
}

func TestNewService_CleansConfiguredNames(t *testing.T) {
	// GIVEN: names written as "هيثم, وجيه" in the environment
	svc := bakery.NewService(store.NewMemory(), bakery.Options{
		Distributors: []string{"هيثم", " وجيه"},
		CashAccount:  " كاش ",
		OtherItems:   []string{" كيك", " "},
	})
	ctx := context.Background()

	// WHEN: a sales line names the padded distributor
	sales, err := svc.SaveSalesBatch(ctx, may1, []bakery.SalesInput{
		{Distributor: " وجيه", Delivered: 100},
		{Distributor: "كاش", Delivered: 10},
	})
	require.NoError(t, err)

	// THEN: it is priced as a distributor, not as factory
	assert.Equal(t, "وجيه", sales[0].Distributor)
	assert.Equal(t, "16", sales[0].UnitPrice.String())
	assert.Equal(t, "1600", sales[0].TotalAmount.String())
	assert.Equal(t, "20", sales[1].UnitPrice.String())

	c := svc.Catalog()
	assert.Equal(t, []string{"هيثم", "وجيه"}, c.Distributors)
	assert.Equal(t, "كاش", c.CashAccount)
	assert.Equal(t, []string{"كيك"}, c.OtherItems)
}
