package recurrence

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"

	"github.com/cyp0633/librrule/date"
)

var weekdayToken = regexp.MustCompile(`^([+-]?\d+)?([A-Za-z]{2})$`)

var weekdayCodes = map[string]time.Weekday{
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
	"SU": time.Sunday,
}

func weekdayCode(w time.Weekday) string {
	return strings.ToUpper(w.String()[:2])
}

// OrdinalWeekday is a weekday qualified by its position in the month,
// such as the first Monday (1, Monday) or the last Friday (-1, Friday).
type OrdinalWeekday struct {
	Ordinal int
	Weekday time.Weekday
}

func (o OrdinalWeekday) String() string {
	return strconv.Itoa(o.Ordinal) + weekdayCode(o.Weekday)
}

// DayOfWeekValidator accepts dates matching BYDAY. Plain weekdays are
// kept in a table indexed Monday=1..Sunday=7; ordinal weekdays are kept
// as a list. Both forms may be present.
type DayOfWeekValidator struct {
	weekdays mo.Option[bitset]
	ordinals []OrdinalWeekday
}

// ParseDayOfWeekValidator parses a BYDAY value such as "MO,WE" or
// "1MO,-1FR".
func ParseDayOfWeekValidator(value string) (*DayOfWeekValidator, error) {
	v := &DayOfWeekValidator{}
	var weekdays bitset
	for _, token := range strings.Split(value, ",") {
		match := weekdayToken.FindStringSubmatch(strings.TrimSpace(token))
		if match == nil {
			return nil, rangeError(value, fmt.Sprintf("invalid day of week: %s", token))
		}
		weekday, ok := weekdayCodes[strings.ToUpper(match[2])]
		if !ok {
			return nil, rangeError(value, fmt.Sprintf("invalid day of week: %s", token))
		}
		if match[1] == "" {
			weekdays.set(date.ISOWeekday(weekday))
			continue
		}
		ordinal, err := strconv.Atoi(match[1])
		if err != nil || ordinal == 0 || ordinal < -5 || ordinal > 5 {
			return nil, rangeError(value, fmt.Sprintf("invalid day of week ordinal: %s", token))
		}
		v.ordinals = append(v.ordinals, OrdinalWeekday{Ordinal: ordinal, Weekday: weekday})
	}
	if weekdays != 0 {
		v.weekdays = mo.Some(weekdays)
	}
	return v, nil
}

func (v *DayOfWeekValidator) Valid(d date.Date) bool {
	if weekdays, ok := v.weekdays.Get(); ok && weekdays.has(d.ISOWeekday()) {
		return true
	}
	for _, o := range v.ordinals {
		if nth, ok := d.NthWeekdayOfMonth(o.Ordinal, o.Weekday); ok && nth == d {
			return true
		}
	}
	return false
}

// NextClosest returns the next listed plain weekday after d within d's
// week, or the Sunday closing the week. With ordinal weekdays only it
// steps a single day.
func (v *DayOfWeekValidator) NextClosest(d date.Date) date.Date {
	weekdays, ok := v.weekdays.Get()
	if !ok {
		return d.AddDays(1)
	}
	current := d.ISOWeekday()
	day := current
	for day < 7 {
		day++
		if weekdays.has(day) {
			break
		}
	}
	return d.AddDays(day - current)
}

// HasPlainWeekdays reports whether BYDAY lists weekdays without ordinal.
func (v *DayOfWeekValidator) HasPlainWeekdays() bool {
	return v.weekdays.IsPresent()
}

// Ordinals returns the ordinal weekdays in the order they were given.
func (v *DayOfWeekValidator) Ordinals() []OrdinalWeekday {
	return append([]OrdinalWeekday(nil), v.ordinals...)
}

func (v *DayOfWeekValidator) String() string {
	var parts []string
	if weekdays, ok := v.weekdays.Get(); ok {
		for _, iso := range weekdays.values() {
			parts = append(parts, weekdayCode(time.Weekday(iso%7)))
		}
	}
	for _, o := range v.ordinals {
		parts = append(parts, o.String())
	}
	return strings.Join(parts, ",")
}
