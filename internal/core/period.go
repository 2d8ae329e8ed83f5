// Package core holds the ledger domain model: accounts, entries, accounting
// periods and the summary shapes derived from them.
package core

import (
	"fmt"
	"time"
)

// Period is an accounting period, a plain (year, month) pair. Entries count
// toward a period independently of their real-world transaction date, so an
// entry can be back- or forward-posted.
type Period struct {
	Year  int
	Month int // 1-12
}

// PeriodOf returns the period the given instant falls in.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// Valid reports whether the month is in the 1-12 range.
func (p Period) Valid() bool {
	return p.Month >= 1 && p.Month <= 12
}

// Next returns the following period, wrapping December into January.
func (p Period) Next() Period {
	return p.AddMonths(1)
}

// Previous returns the preceding period, wrapping January into December.
func (p Period) Previous() Period {
	if p.Month == 1 {
		return Period{Year: p.Year - 1, Month: 12}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// AddMonths advances the period by n months (n >= 0), normalizing the month
// back into 1-12. Used to lay out installment schedules.
func (p Period) AddMonths(n int) Period {
	months := (p.Month - 1) + n
	return Period{
		Year:  p.Year + months/12,
		Month: months%12 + 1,
	}
}

// RangeEnd returns the inclusive end of a window that starts at p and spans
// monthsAhead additional months. Bounds "upcoming" queries.
func (p Period) RangeEnd(monthsAhead int) Period {
	return p.AddMonths(monthsAhead)
}

// Before reports whether p is strictly earlier than o.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// After reports whether p is strictly later than o.
func (p Period) After(o Period) bool {
	return o.Before(p)
}

// LastDay returns midnight UTC on the last calendar day of the period.
func (p Period) LastDay() time.Time {
	// Day zero of the following month normalizes to the last day of this one.
	return time.Date(p.Year, time.Month(p.Month)+1, 0, 0, 0, 0, 0, time.UTC)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
