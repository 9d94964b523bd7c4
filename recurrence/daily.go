package recurrence

import "github.com/cyp0633/librrule/date"

type dailyGenerator struct {
	cursor
}

func (g *dailyGenerator) next() (date.Date, error) {
	return g.run(g.move)
}

// move checks filters in month, day-of-month, day-of-week order; the
// first rejecting filter decides where to jump.
func (g *dailyGenerator) move() {
	switch {
	case !g.monthValid():
		g.moveCloseTo(g.months.NextClosest(g.date))
	case !g.monthDayValid():
		g.moveCloseTo(g.monthDays.NextClosest(g.date))
	case !g.weekdayValid():
		g.moveCloseTo(g.weekdays.NextClosest(g.date))
	default:
		g.date = g.date.AddDays(g.interval)
	}
}

// moveCloseTo jumps to the first date at or after target that is a
// whole number of intervals from the cursor.
func (g *dailyGenerator) moveCloseTo(target date.Date) {
	if target == g.date {
		g.date = g.date.AddDays(g.interval)
		return
	}
	if g.interval > 1 {
		if remainder := g.date.DaysUntil(target) % g.interval; remainder != 0 {
			target = target.AddDays(g.interval - remainder)
		}
	}
	g.date = target
}
