package recurrence

import "github.com/cyp0633/librrule/date"

type monthlyGenerator struct {
	cursor
}

func (g *monthlyGenerator) next() (date.Date, error) {
	return g.run(g.move)
}

func (g *monthlyGenerator) move() {
	if g.monthDays == nil && g.weekdays == nil {
		g.sameDayNextMonth()
		return
	}
	if !g.monthValid() || g.date.IsLastDayOfMonth() {
		g.date = g.date.AddMonths(g.interval).FirstDayOfMonth()
		return
	}
	if g.monthDays != nil {
		g.date = g.monthDays.NextClosest(g.date)
		return
	}
	g.date = g.date.AddDays(1)
}

// sameDayNextMonth skips months too short to hold the cursor's day, so
// a series started on the 31st only visits 31-day months.
func (g *monthlyGenerator) sameDayNextMonth() {
	day := g.date.Day()
	for months := g.interval; ; months += g.interval {
		if candidate := g.date.AddMonths(months); candidate.Day() == day {
			g.date = candidate
			return
		}
	}
}
