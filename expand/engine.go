// Package expand expands recurring events over date ranges: the event
// start, its RRULE, extra RDATE dates and excluded EXDATE dates.
package expand

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/emersion/go-ical"
	"github.com/samber/mo"

	"github.com/cyp0633/librrule/date"
	"github.com/cyp0633/librrule/recurrence"
)

const rulePrefix = "RRULE:"

// Engine provides unified recurrence expansion and validation logic. It
// is safe for concurrent use.
type Engine struct {
	cache  *RuleCache
	config EngineConfig
	logger *slog.Logger
}

// NewEngine creates a new expansion engine with DefaultEngineConfig
func NewEngine() *Engine {
	return NewEngineWithConfig(DefaultEngineConfig)
}

// NewEngineWithConfig creates a new expansion engine with custom configuration
func NewEngineWithConfig(config EngineConfig) *Engine {
	config = config.withDefaults()

	var cache *RuleCache
	if config.CacheEnabled {
		cache = NewRuleCache(config.CacheConfig, config.Clock)
	}

	return &Engine{
		cache:  cache,
		config: config,
		logger: config.Logger,
	}
}

// Close releases the rule cache.
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// Cache returns the rule cache, or nil when caching is disabled.
func (e *Engine) Cache() *RuleCache {
	return e.cache
}

// Rule parses rule text. The "RRULE:" prefix may be omitted, as it is in
// the value of a VEVENT RRULE property.
func (e *Engine) Rule(text string) (*recurrence.Rule, error) {
	text = withPrefix(text)

	var rule *recurrence.Rule
	var err error
	if e.cache != nil {
		rule, err = e.cache.Parse(text)
	} else {
		rule, err = recurrence.ParseRule(text)
	}
	if err != nil {
		e.logger.Warn("invalid recurrence rule", "rule", text, "error", err)
		return nil, fmt.Errorf("failed to parse RRULE %q: %w", text, err)
	}
	return rule, nil
}

func withPrefix(text string) string {
	text = strings.TrimSpace(text)
	if len(text) >= len(rulePrefix) && strings.EqualFold(text[:len(rulePrefix)], rulePrefix) {
		return text
	}
	return rulePrefix + text
}

// Expand returns the occurrences of an event within [rangeStart, rangeEnd].
// The master start is always an occurrence; RDATE adds dates and EXDATE
// removes them. An override instance (RecurrenceID set) occurs only at
// its own start.
func (e *Engine) Expand(masterStart date.Date, info RecurrenceInfo, rangeStart, rangeEnd date.Date) (Expansion, error) {
	var result Expansion
	if rangeEnd.Before(rangeStart) {
		return result, nil
	}
	if info.RecurrenceID.IsPresent() {
		if inRange(masterStart, rangeStart, rangeEnd) {
			result.Dates = []date.Date{masterStart}
		}
		return result, nil
	}
	if days := e.config.Expansion.maxDays(); days > 0 && rangeStart.DaysUntil(rangeEnd) >= days {
		rangeEnd = rangeStart.AddDays(days - 1)
		result.Truncated = true
	}

	limit := e.config.Expansion.MaxOccurrences
	excluded := newDateSet(info.EXDATE)
	var dates []date.Date
	add := func(d date.Date) bool {
		if inRange(d, rangeStart, rangeEnd) && !excluded.has(d) {
			dates = append(dates, d)
			return true
		}
		return false
	}

	add(masterStart)
	for _, rdate := range info.RDATE {
		add(rdate)
	}

	if info.RRULE != "" {
		rule, err := e.Rule(info.RRULE)
		if err != nil {
			return Expansion{}, err
		}
		var fromRule int
		err = e.walk(masterStart, rule, rangeEnd, func(d date.Date) bool {
			if add(d) {
				fromRule++
			}
			if limit > 0 && fromRule >= limit {
				result.Truncated = true
				return false
			}
			return true
		})
		if err != nil {
			return Expansion{}, err
		}
	}

	slices.SortFunc(dates, date.Date.Compare)
	dates = slices.Compact(dates)
	if limit > 0 && len(dates) > limit {
		dates = dates[:limit]
		result.Truncated = true
	}
	result.Dates = dates

	e.logger.Debug("expanded recurrence",
		"rule", info.RRULE,
		"start", masterStart.String(),
		"occurrences", len(dates),
		"truncated", result.Truncated)
	return result, nil
}

// HasOccurrenceInRange checks if a recurring event has any occurrence in
// [rangeStart, rangeEnd]. It stops at the first one found.
func (e *Engine) HasOccurrenceInRange(masterStart date.Date, info RecurrenceInfo, rangeStart, rangeEnd date.Date) (bool, error) {
	excluded := newDateSet(info.EXDATE)
	matches := func(d date.Date) bool {
		return inRange(d, rangeStart, rangeEnd) && !excluded.has(d)
	}

	// Fast path: check master event first
	if matches(masterStart) {
		return true, nil
	}
	if info.RecurrenceID.IsPresent() {
		return inRange(masterStart, rangeStart, rangeEnd), nil
	}
	for _, rdate := range info.RDATE {
		if matches(rdate) {
			return true, nil
		}
	}
	if info.RRULE == "" || rangeEnd.Before(masterStart) {
		return false, nil
	}

	rule, err := e.Rule(info.RRULE)
	if err != nil {
		return false, err
	}
	found := false
	err = e.walk(masterStart, rule, rangeEnd, func(d date.Date) bool {
		found = matches(d)
		return !found
	})
	if err != nil {
		return false, fmt.Errorf("failed to check RRULE occurrences: %w", err)
	}
	return found, nil
}

// ExpandComponent expands a VEVENT using its DTSTART, RRULE, RDATE and
// EXDATE properties.
func (e *Engine) ExpandComponent(comp *ical.Component, rangeStart, rangeEnd date.Date) (Expansion, error) {
	start, err := StartDate(comp)
	if err != nil {
		return Expansion{}, err
	}
	return e.Expand(start, RecurrenceInfoFromComponent(comp), rangeStart, rangeEnd)
}

// ExpandWithOverrides expands a master VEVENT together with its
// override instances. Each override replaces the master occurrence named
// by its RECURRENCE-ID with its own start date. Overrides without
// RECURRENCE-ID are rejected.
func (e *Engine) ExpandWithOverrides(master *ical.Component, overrides []*ical.Component, rangeStart, rangeEnd date.Date) (Expansion, error) {
	start, err := StartDate(master)
	if err != nil {
		return Expansion{}, err
	}
	info := RecurrenceInfoFromComponent(master)
	info.RecurrenceID = mo.None[date.Date]()

	var moved []date.Date
	for _, override := range overrides {
		overrideInfo := RecurrenceInfoFromComponent(override)
		recurrenceID, ok := overrideInfo.RecurrenceID.Get()
		if !ok {
			return Expansion{}, ErrNoRecurrenceID
		}
		overrideStart, err := StartDate(override)
		if err != nil {
			return Expansion{}, err
		}
		info.EXDATE = append(info.EXDATE, recurrenceID)
		moved = append(moved, overrideStart)
	}

	result, err := e.Expand(start, info, rangeStart, rangeEnd)
	if err != nil {
		return Expansion{}, err
	}
	for _, d := range moved {
		if inRange(d, rangeStart, rangeEnd) {
			result.Dates = append(result.Dates, d)
		}
	}
	slices.SortFunc(result.Dates, date.Date.Compare)
	result.Dates = slices.Compact(result.Dates)
	return result, nil
}

// walk feeds rule dates from start to fn until fn returns false or a
// date passes until.
func (e *Engine) walk(start date.Date, rule *recurrence.Rule, until date.Date, fn func(date.Date) bool) error {
	cal := recurrence.New(start, rule,
		recurrence.WithLogger(e.logger),
		recurrence.WithClock(e.config.Clock),
		recurrence.WithGuard(e.config.GuardThreshold, e.config.GuardWindow))

	for d := range cal.Dates() {
		if d.After(until) || !fn(d) {
			break
		}
	}
	if err := cal.Err(); err != nil {
		return fmt.Errorf("failed to expand RRULE %q from %s: %w", rule.Text(), start, err)
	}
	return nil
}

func inRange(d, start, end date.Date) bool {
	return !d.Before(start) && !d.After(end)
}

type dateSet map[date.Date]struct{}

func newDateSet(dates []date.Date) dateSet {
	set := make(dateSet, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set
}

func (s dateSet) has(d date.Date) bool {
	_, ok := s[d]
	return ok
}
