package recurrence

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/mo"

	"github.com/cyp0633/librrule/date"
)

// DayOfMonthValidator accepts dates whose day of month is listed in
// BYMONTHDAY. Positive values are kept as an absolute table; negative
// values count back from the last day of the month and are kept as
// offsets (-1 is offset 0, -2 is offset -1, ...).
type DayOfMonthValidator struct {
	days    mo.Option[bitset]
	offsets []int // ascending, all <= 0
}

// ParseDayOfMonthValidator parses a BYMONTHDAY value such as "1,15,-1".
func ParseDayOfMonthValidator(value string) (*DayOfMonthValidator, error) {
	v := &DayOfMonthValidator{}
	var days bitset
	for _, token := range strings.Split(value, ",") {
		day, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil || day == 0 || day < -31 || day > 31 {
			return nil, rangeError(value, fmt.Sprintf("invalid day of month: %s", token))
		}
		if day > 0 {
			days.set(day)
			continue
		}
		if offset := day + 1; !slices.Contains(v.offsets, offset) {
			v.offsets = append(v.offsets, offset)
		}
	}
	if days != 0 {
		v.days = mo.Some(days)
	}
	slices.Sort(v.offsets)
	return v, nil
}

func (v *DayOfMonthValidator) Valid(d date.Date) bool {
	if days, ok := v.days.Get(); ok && days.has(d.Day()) {
		return true
	}
	last := d.DaysInMonth()
	for _, offset := range v.offsets {
		if last+offset == d.Day() {
			return true
		}
	}
	return false
}

// NextClosest returns the earliest date after d within d's month that
// this validator accepts, or the last day of the month when none is
// left. It never returns a date before d.
func (v *DayOfMonthValidator) NextClosest(d date.Date) date.Date {
	current := d.Day()
	last := d.DaysInMonth()

	days, ok := v.days.Get()
	if !ok {
		for _, offset := range v.offsets {
			if last+offset > current {
				return d.AddDays(last + offset - current)
			}
		}
		return d.LastDayOfMonth()
	}

	day := current
	for day < last {
		day++
		if days.has(day) {
			break
		}
	}
	gap := day - current

	// an end-relative day may come before the next absolute one
	for _, offset := range v.offsets {
		if delta := last + offset - current; delta > 0 && delta < gap {
			return d.AddDays(delta)
		}
	}
	return d.AddDays(gap)
}

func (v *DayOfMonthValidator) String() string {
	var values []int
	if days, ok := v.days.Get(); ok {
		values = days.values()
	}
	for _, offset := range v.offsets {
		values = append(values, offset-1)
	}
	return joinInts(values)
}
