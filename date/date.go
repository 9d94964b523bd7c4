// Package date provides a calendar date without time of day or zone.
//
// Arithmetic follows calendar rules rather than duration rules: adding
// months clamps to the last valid day (Jan 31 + 1 month = Feb 28), and
// day distances are whole days.
package date

import (
	"fmt"
	"time"
)

// Date is a year, month and day. The zero value is not a valid date;
// use Of, FromTime or Parse.
type Date struct {
	year  int
	month time.Month
	day   int
}

const (
	layout        = "2006-01-02"
	secondsPerDay = 24 * 60 * 60
)

// Of returns the date for year, month and day. Out of range values are
// normalized the same way time.Date does.
func Of(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime returns the calendar date of t in t's location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

// Parse parses a date in YYYY-MM-DD form.
func Parse(s string) (Date, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return FromTime(t), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) Year() int { return d.year }
func (d Date) Month() time.Month { return d.month }
func (d Date) Day() int { return d.day }
func (d Date) IsZero() bool { return d == Date{} }
func (d Date) String() string { return d.Time().Format(layout) }
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// ISOWeekday returns the day of week numbered Monday=1 through Sunday=7.
func (d Date) ISOWeekday() int {
	return ISOWeekday(d.Weekday())
}

// ISOWeekday converts a time.Weekday to Monday=1 through Sunday=7.
func ISOWeekday(w time.Weekday) int {
	if w == time.Sunday {
		return 7
	}
	return int(w)
}

func (d Date) AddDays(n int) Date {
	return Of(d.year, d.month, d.day+n)
}

func (d Date) AddWeeks(n int) Date {
	return d.AddDays(7 * n)
}

// AddMonths adds n months, clamping the day to the length of the target
// month.
func (d Date) AddMonths(n int) Date {
	first := Of(d.year, d.month+time.Month(n), 1)
	day := d.day
	if last := first.DaysInMonth(); day > last {
		day = last
	}
	return Date{year: first.year, month: first.month, day: day}
}

// DaysInMonth returns the number of days in d's month.
func (d Date) DaysInMonth() int {
	return Of(d.year, d.month+1, 0).day
}

func (d Date) FirstDayOfMonth() Date {
	return Date{year: d.year, month: d.month, day: 1}
}

func (d Date) LastDayOfMonth() Date {
	return Date{year: d.year, month: d.month, day: d.DaysInMonth()}
}

func (d Date) IsLastDayOfMonth() bool {
	return d.day == d.DaysInMonth()
}

// WithDay returns d with the day of month replaced, clamped to the month.
func (d Date) WithDay(day int) Date {
	if last := d.DaysInMonth(); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return Date{year: d.year, month: d.month, day: day}
}

// Monday returns the Monday of d's ISO week (d itself when d is a Monday).
func (d Date) Monday() Date {
	return d.AddDays(1 - d.ISOWeekday())
}

// NthWeekdayOfMonth returns the ordinal-th weekday w of d's month. A
// positive ordinal counts from the start of the month, a negative one
// from the end (-1 is the last). The result may fall outside d's month
// when the month has fewer occurrences; ok is false in that case and
// for ordinal 0.
func (d Date) NthWeekdayOfMonth(ordinal int, w time.Weekday) (Date, bool) {
	var result Date
	switch {
	case ordinal > 0:
		first := d.FirstDayOfMonth()
		offset := (int(w) - int(first.Weekday()) + 7) % 7
		result = first.AddDays(offset + 7*(ordinal-1))
	case ordinal < 0:
		last := d.LastDayOfMonth()
		offset := (int(last.Weekday()) - int(w) + 7) % 7
		result = last.AddDays(-offset + 7*(ordinal+1))
	default:
		return Date{}, false
	}
	return result, result.year == d.year && result.month == d.month
}

// DaysUntil returns the number of days from d to other, negative when
// other is earlier.
func (d Date) DaysUntil(other Date) int {
	return int((other.Time().Unix() - d.Time().Unix()) / secondsPerDay)
}

func (d Date) Compare(other Date) int {
	switch {
	case d.year != other.year:
		return cmpInt(d.year, other.year)
	case d.month != other.month:
		return cmpInt(int(d.month), int(other.month))
	default:
		return cmpInt(d.day, other.day)
	}
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }
func (d Date) Equal(other Date) bool { return d == other }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
