package engine

import (
	"fmt"
	"time"
)

// Date is the canonical calendar date every roster birthday is normalized to
// before it reaches the scheduling logic. It carries no time-of-day and no
// location, so comparisons are always made at day granularity.
//
// A Year of 0 means the year is unknown (vCard "--MM-DD" values). The zero
// Date (all fields zero) means the date is absent.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date from its components. It does not validate them.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether the date is absent.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// YearKnown reports whether the date carries a meaningful year.
func (d Date) YearKnown() bool {
	return d.Year != 0
}

// Valid reports whether d names a real calendar day. Yearless dates are
// checked against a leap year so that "--02-29" stays valid.
func (d Date) Valid() bool {
	if d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	year := d.Year
	if !d.YearKnown() {
		year = leapYearFallback
	}
	return d.Day <= daysIn(d.Month, year)
}

// Time returns midnight UTC of d. UTC keeps day arithmetic free of DST shifts.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Day, other.Day)
	}
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// DaysUntil returns the number of whole days from d to other (negative if other is earlier).
func (d Date) DaysUntil(other Date) int {
	return int(other.Time().Sub(d.Time()).Hours() / 24)
}

// OccurrenceIn returns the date on which the anniversary d falls in year.
//
// February 29 anniversaries fall on March 1 in non-leap years.
func (d Date) OccurrenceIn(year int) Date {
	if d.Month == time.February && d.Day == 29 && !isLeap(year) {
		return Date{Year: year, Month: time.March, Day: 1}
	}
	return Date{Year: year, Month: d.Month, Day: d.Day}
}

// String formats the date as YYYY-MM-DD, or --MM-DD when the year is unknown.
func (d Date) String() string {
	if !d.YearKnown() {
		return fmt.Sprintf("--%02d-%02d", int(d.Month), d.Day)
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// leapYearFallback validates yearless dates such as --02-29.
const leapYearFallback = 2000

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysIn(m time.Month, year int) int {
	// Day 0 of the next month is the last day of m.
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
