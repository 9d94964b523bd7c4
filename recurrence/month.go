package recurrence

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cyp0633/librrule/date"
)

// MonthValidator accepts dates whose month is listed in BYMONTH.
type MonthValidator struct {
	months bitset
}

// ParseMonthValidator parses a BYMONTH value such as "1,6,12".
func ParseMonthValidator(value string) (*MonthValidator, error) {
	v := &MonthValidator{}
	for _, token := range strings.Split(value, ",") {
		month, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil || month < 1 || month > 12 {
			return nil, rangeError(value, fmt.Sprintf("invalid month: %s", token))
		}
		v.months.set(month)
	}
	return v, nil
}

func (v *MonthValidator) Valid(d date.Date) bool {
	return v.months.has(int(d.Month()))
}

// NextClosest returns the first day of the next listed month after d's
// month, at most one year ahead.
func (v *MonthValidator) NextClosest(d date.Date) date.Date {
	month := int(d.Month())
	steps := 0
	for steps < 12 {
		month = month%12 + 1
		steps++
		if v.months.has(month) {
			break
		}
	}
	return d.AddMonths(steps).FirstDayOfMonth()
}

func (v *MonthValidator) String() string {
	return joinInts(v.months.values())
}
