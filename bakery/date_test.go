package bakery_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alwafa/bakery-ledger/bakery"
)

func TestParseDate(t *testing.T) {
	d, err := bakery.ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())

	for _, bad := range []string{"", "2023-02-29", "29/02/2024"} {
		_, err := bakery.ParseDate(bad)
		assert.True(t, bakery.IsClientError(err), bad)
	}
}

func TestMonthPeriod(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		end   string
	}{
		{2024, time.February, "2024-02-29"},
		{2023, time.February, "2023-02-28"},
		{2024, time.April, "2024-04-30"},
		{2024, time.December, "2024-12-31"},
	}
	for _, tt := range tests {
		p, err := bakery.MonthPeriod(tt.year, tt.month)
		require.NoError(t, err)
		assert.Equal(t, tt.end, p.End.String())
		assert.Equal(t, 1, p.Start.Day())
		assert.True(t, p.Contains(p.End))
		assert.False(t, p.Contains(p.End.AddDays(1)))
	}

	_, err := bakery.MonthPeriod(2024, 0)
	assert.True(t, bakery.IsClientError(err))
}

func TestPeriodLabel(t *testing.T) {
	p, err := bakery.MonthPeriod(2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, "2024-03", p.Label())
	assert.Equal(t, 31, bakery.DaysInMonth(2024, time.March))
}
