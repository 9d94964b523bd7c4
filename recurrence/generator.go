package recurrence

import "github.com/cyp0633/librrule/date"

// generator produces successive dates matching every filter of a rule
// at one frequency granularity. It does not apply COUNT or UNTIL.
type generator interface {
	next() (date.Date, error)
}

// cursor is the state shared by the frequency generators: one date
// that only moves forward, plus the rule's interval and filters. A nil
// filter accepts every date.
type cursor struct {
	date      date.Date
	interval  int
	months    *MonthValidator
	monthDays *DayOfMonthValidator
	weekdays  *DayOfWeekValidator
	guard     *progressGuard
}

func newCursor(rule *Rule, guard *progressGuard) cursor {
	return cursor{
		interval:  1,
		months:    rule.months,
		monthDays: rule.monthDays,
		weekdays:  rule.weekdays,
		guard:     guard,
	}
}

// newGenerator picks the generator for the rule's frequency.
func newGenerator(rule *Rule, start date.Date, guard *progressGuard) generator {
	c := newCursor(rule, guard)
	c.setStart(start)
	c.setInterval(rule.interval)

	switch rule.freq {
	case Weekly:
		return &weeklyGenerator{cursor: c}
	case Monthly:
		return &monthlyGenerator{cursor: c}
	default:
		return &dailyGenerator{cursor: c}
	}
}

func (c *cursor) setStart(d date.Date) { c.date = d }

func (c *cursor) setInterval(interval int) {
	if interval < 1 {
		interval = 1
	}
	c.interval = interval
}

func (c *cursor) monthValid() bool {
	return c.months == nil || c.months.Valid(c.date)
}

func (c *cursor) monthDayValid() bool {
	return c.monthDays == nil || c.monthDays.Valid(c.date)
}

func (c *cursor) weekdayValid() bool {
	return c.weekdays == nil || c.weekdays.Valid(c.date)
}

func (c *cursor) valid() bool {
	return c.monthValid() && c.monthDayValid() && c.weekdayValid()
}

// run is the loop shared by all frequencies: move while the cursor is
// rejected, emit it, then move once more so the same date is not
// emitted twice.
func (c *cursor) run(move func()) (date.Date, error) {
	for !c.valid() {
		if c.guard != nil {
			if err := c.guard.tick(); err != nil {
				return date.Date{}, err
			}
		}
		move()
	}
	generated := c.date
	move()
	return generated, nil
}
