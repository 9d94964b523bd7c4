package recurrence

import (
	"slices"

	"github.com/samber/mo"

	"github.com/cyp0633/librrule/date"
)

// setPosGenerator applies BYSETPOS. It groups the dates of an inner
// generator by period (day, ISO week or month, following the rule's
// frequency) and keeps only the listed positions of each period.
type setPosGenerator struct {
	inner     generator
	freq      Frequency
	positions []int
	notBefore date.Date
	guard     *progressGuard

	lookahead mo.Option[date.Date]
	pending   []date.Date
}

// newRuleGenerator returns the generator for rule, wrapped with BYSETPOS
// selection when the rule lists set positions.
func newRuleGenerator(rule *Rule, start date.Date, guard *progressGuard) generator {
	if len(rule.setPositions) == 0 {
		return newGenerator(rule, start, guard)
	}

	// Positions index the whole period, so candidates before start
	// must be generated too; they are dropped after selection.
	innerStart := start
	if rule.monthDays != nil || rule.weekdays != nil {
		switch rule.freq {
		case Weekly:
			innerStart = start.Monday()
		case Monthly:
			innerStart = start.FirstDayOfMonth()
		}
	}

	return &setPosGenerator{
		inner:     newGenerator(rule, innerStart, guard),
		freq:      rule.freq,
		positions: rule.setPositions,
		notBefore: start,
		guard:     guard,
	}
}

func (g *setPosGenerator) next() (date.Date, error) {
	for len(g.pending) == 0 {
		period, err := g.collectPeriod()
		if err != nil {
			return date.Date{}, err
		}
		g.pending = g.selectPositions(period)
		// a period without a selected date counts as a rejection
		if len(g.pending) == 0 && g.guard != nil {
			if err := g.guard.tick(); err != nil {
				return date.Date{}, err
			}
		}
	}
	d := g.pending[0]
	g.pending = g.pending[1:]
	return d, nil
}

// collectPeriod returns every inner date of the next period. The first
// date of the following period is kept as lookahead.
func (g *setPosGenerator) collectPeriod() ([]date.Date, error) {
	first, ok := g.lookahead.Get()
	if !ok {
		var err error
		if first, err = g.inner.next(); err != nil {
			return nil, err
		}
	}
	g.lookahead = mo.None[date.Date]()

	key := periodOf(g.freq, first)
	period := []date.Date{first}
	for {
		d, err := g.inner.next()
		if err != nil {
			return nil, err
		}
		if periodOf(g.freq, d) != key {
			g.lookahead = mo.Some(d)
			return period, nil
		}
		period = append(period, d)
	}
}

// selectPositions picks 1-based positions, negative ones counting from
// the end. Positions beyond the period are skipped.
func (g *setPosGenerator) selectPositions(period []date.Date) []date.Date {
	var selected []date.Date
	for _, pos := range g.positions {
		i := pos - 1
		if pos < 0 {
			i = len(period) + pos
		}
		if i < 0 || i >= len(period) {
			continue
		}
		d := period[i]
		if d.Before(g.notBefore) || slices.Contains(selected, d) {
			continue
		}
		selected = append(selected, d)
	}
	slices.SortFunc(selected, date.Date.Compare)
	return selected
}

func periodOf(freq Frequency, d date.Date) date.Date {
	switch freq {
	case Weekly:
		return d.Monday()
	case Monthly:
		return d.FirstDayOfMonth()
	default:
		return d
	}
}
