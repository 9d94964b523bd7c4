package recurrence

import (
	"iter"
	"log/slog"

	"github.com/samber/mo"

	"github.com/cyp0633/librrule/date"
)

// Calendar iterates over the dates of a rule from a start date. The
// start date is only produced when it matches the rule.
//
// HasNext may be called any number of times before Next without moving
// the iteration. A Calendar must not be used from several goroutines at
// once; separate Calendars share nothing and may run in parallel.
type Calendar struct {
	rule      *Rule
	start     date.Date
	generator generator
	calls     *progressGuard
	steps     *progressGuard
	logger    *slog.Logger

	produced int
	pending  mo.Option[date.Date]
	done     bool
	err      error
}

// New creates a Calendar for rule starting at start.
func New(start date.Date, rule *Rule, opts ...Option) *Calendar {
	config := newConfig(opts)
	steps := newProgressGuard(config.Clock, config.GuardThreshold, config.GuardWindow)
	return &Calendar{
		rule:      rule,
		start:     start,
		generator: newRuleGenerator(rule, start, steps),
		calls:     newProgressGuard(config.Clock, config.GuardThreshold, config.GuardWindow),
		steps:     steps,
		logger:    config.Logger,
	}
}

// NewFromText parses text with ParseRule and creates a Calendar for it.
func NewFromText(start date.Date, text string, opts ...Option) (*Calendar, error) {
	rule, err := ParseRule(text)
	if err != nil {
		return nil, err
	}
	return New(start, rule, opts...), nil
}

func (c *Calendar) Rule() *Rule { return c.rule }
func (c *Calendar) Start() date.Date { return c.start }

// HasNext reports whether Next will return a date. Once it returns
// false it keeps returning false; Err tells whether iteration stopped
// on an error rather than on COUNT or UNTIL.
func (c *Calendar) HasNext() bool {
	if c.pending.IsPresent() {
		return true
	}
	if c.done || c.err != nil {
		return false
	}
	if count := c.rule.count; count > 0 && c.produced >= count {
		c.finish("count")
		return false
	}
	if err := c.calls.tick(); err != nil {
		c.fail(err)
		return false
	}

	d, err := c.generator.next()
	if err != nil {
		c.fail(err)
		return false
	}
	c.steps.reset()
	if until, ok := c.rule.until.Get(); ok && d.After(until) {
		c.finish("until")
		return false
	}

	c.pending = mo.Some(d)
	c.produced++
	return true
}

// Next returns the next date. It returns ErrExhausted when there are no
// more dates, or the error that stopped iteration.
func (c *Calendar) Next() (date.Date, error) {
	if !c.HasNext() {
		if c.err != nil {
			return date.Date{}, c.err
		}
		return date.Date{}, ErrExhausted
	}
	d := c.pending.MustGet()
	c.pending = mo.None[date.Date]()
	return d, nil
}

// Err returns the error that stopped iteration, if any.
func (c *Calendar) Err() error {
	return c.err
}

// Take returns up to n further dates. Running out of dates is not an
// error.
func (c *Calendar) Take(n int) ([]date.Date, error) {
	var dates []date.Date
	for len(dates) < n && c.HasNext() {
		d, err := c.Next()
		if err != nil {
			return dates, err
		}
		dates = append(dates, d)
	}
	return dates, c.err
}

// Dates returns an iterator over the remaining dates. Check Err after
// the loop ends.
func (c *Calendar) Dates() iter.Seq[date.Date] {
	return func(yield func(date.Date) bool) {
		for c.HasNext() {
			d, err := c.Next()
			if err != nil || !yield(d) {
				return
			}
		}
	}
}

func (c *Calendar) finish(reason string) {
	c.done = true
	c.logger.Debug("recurrence exhausted",
		"rule", c.rule.text,
		"start", c.start.String(),
		"produced", c.produced,
		"reason", reason)
}

func (c *Calendar) fail(err error) {
	c.err = err
	c.logger.Warn("recurrence stopped",
		"rule", c.rule.text,
		"start", c.start.String(),
		"produced", c.produced,
		"error", err)
}
