package recurrence

import (
	"time"

	"github.com/cyp0633/librrule/date"
)

// weeklyGenerator works in ISO weeks (Monday to Sunday). With an
// interval above one only every interval-th week, counted from the
// start date's week, is visited.
type weeklyGenerator struct {
	cursor
}

func (g *weeklyGenerator) next() (date.Date, error) {
	return g.run(g.move)
}

func (g *weeklyGenerator) move() {
	if g.weekdays == nil && g.monthDays == nil {
		g.date = g.date.AddWeeks(g.interval)
		return
	}
	// Sunday closes the week: go to the Monday of the next visited week.
	if g.date.Weekday() == time.Sunday {
		g.date = g.date.AddDays((g.interval-1)*7 + 1)
		return
	}

	switch {
	case !g.monthValid():
		g.moveCloseTo(g.months.NextClosest(g.date))
	case !g.monthDayValid():
		g.moveCloseTo(g.monthDays.NextClosest(g.date))
	case !g.weekdayValid():
		g.moveCloseTo(g.weekdays.NextClosest(g.date))
	default:
		g.date = g.date.AddDays(1)
	}
}

// moveCloseTo jumps to target when its week is a visited week, and to
// the Monday of the next visited week otherwise.
func (g *weeklyGenerator) moveCloseTo(target date.Date) {
	if target == g.date {
		g.date = g.date.AddDays(1)
		return
	}
	if g.interval > 1 {
		weeks := g.date.Monday().DaysUntil(target.Monday()) / 7
		if remainder := weeks % g.interval; remainder != 0 {
			target = target.AddWeeks(g.interval - remainder).Monday()
		}
	}
	g.date = target
}
