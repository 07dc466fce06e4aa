package bakery

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of a business date.
const DateLayout = "2006-01-02"

// =============================================================================
// DATE - A business day (no time of day, no zone)
// =============================================================================

// Date is a calendar day. Stored and compared as YYYY-MM-DD, which sorts
// lexicographically in date order.
type Date struct {
	Time time.Time
}

// NewDate returns the day year-month-day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, invalid("date", s, "expected YYYY-MM-DD")
	}
	return Date{Time: t}, nil
}

// MustParseDate is ParseDate for literals in tests and seeds.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), now.Month(), now.Day())
}

func (d Date) String() string    { return d.Time.Format(DateLayout) }
func (d Date) IsZero() bool      { return d.Time.IsZero() }
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }

func (d Date) Before(other Date) bool { return d.String() < other.String() }
func (d Date) After(other Date) bool  { return d.String() > other.String() }
func (d Date) Equal(other Date) bool  { return d.String() == other.String() }

func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is the inclusive range [Start, End].
type Period struct {
	Start Date
	End   Date
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// MonthPeriod returns the first and the true last day of a month, so short
// months never rely on a non-existent day 31.
func MonthPeriod(year int, month time.Month) (Period, error) {
	if month < time.January || month > time.December {
		return Period{}, invalid("month", int(month), "must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return Period{}, invalid("year", year, "must be between 1 and 9999")
	}
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}, nil
}

func StartOfMonth(year int, month time.Month) Date { return NewDate(year, month, 1) }

func EndOfMonth(year int, month time.Month) Date {
	t := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return Date{Time: t}
}

// DaysInMonth returns 28, 29, 30 or 31.
func DaysInMonth(year int, month time.Month) int {
	return EndOfMonth(year, month).Day()
}

// Label returns YYYY-MM for month periods.
func (p Period) Label() string {
	return fmt.Sprintf("%04d-%02d", p.Start.Year(), int(p.Start.Month()))
}
