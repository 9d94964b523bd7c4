// Package recurrence computes the dates produced by an iCalendar
// recurrence rule.
//
// Only a subset of RFC 5545 RRULE is supported: FREQ DAILY, WEEKLY and
// MONTHLY with INTERVAL, COUNT, UNTIL, BYMONTH, BYMONTHDAY, BYDAY and
// BYSETPOS. Dates are plain calendar dates; no time zone is applied.
//
//	rule, err := recurrence.ParseRule("RRULE:FREQ=MONTHLY;BYMONTHDAY=-1;COUNT=3")
//	if err != nil {
//		return err
//	}
//	cal := recurrence.New(date.Of(2018, time.January, 1), rule)
//	for cal.HasNext() {
//		d, _ := cal.Next()
//		fmt.Println(d) // 2018-01-31, 2018-02-28, 2018-03-31
//	}
package recurrence

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/samber/mo"

	"github.com/cyp0633/librrule/date"
)

const (
	rulePrefix   = "RRULE:"
	untilLayout  = "20060102T150405Z"
	untilPattern = "yyyyMMdd'T'Hmmss'Z'"
)

var (
	keyPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	valuePattern = regexp.MustCompile(`^[A-Za-z0-9,+\-]+$`)
)

// ruleKeys are the clauses ParseRule interprets. Values of other keys
// are not checked.
var ruleKeys = map[string]bool{
	"FREQ": true, "COUNT": true, "INTERVAL": true, "UNTIL": true,
	"BYMONTH": true, "BYMONTHDAY": true, "BYDAY": true, "BYSETPOS": true,
}

// Rule is a parsed recurrence rule. It is immutable and safe to share
// between calendars.
type Rule struct {
	text         string
	freq         Frequency
	interval     int
	count        int
	until        mo.Option[date.Date]
	months       *MonthValidator
	monthDays    *DayOfMonthValidator
	weekdays     *DayOfWeekValidator
	setPositions []int
}

// ParseRule parses rule text of the form "RRULE:KEY=VALUE;KEY=VALUE".
// Whitespace is ignored, keys are case-insensitive and unknown keys are
// skipped. FREQ is required.
func ParseRule(text string) (*Rule, error) {
	refined := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)

	if len(refined) <= len(rulePrefix) || !strings.EqualFold(refined[:len(rulePrefix)], rulePrefix) {
		return nil, syntaxError(text, fmt.Sprintf("the rule is not valid, expected %s prefix: %s", rulePrefix, text))
	}

	rule := &Rule{text: text, interval: 1}
	for _, clause := range strings.Split(refined[len(rulePrefix):], ";") {
		if clause == "" {
			continue
		}
		key, value, ok := strings.Cut(clause, "=")
		key = strings.ToUpper(key)
		if !ok || value == "" || !keyPattern.MatchString(key) ||
			(ruleKeys[key] && !valuePattern.MatchString(value)) {
			return nil, syntaxError(text, fmt.Sprintf("the rule is not valid, malformed clause %q: %s", clause, text))
		}
		if !ruleKeys[key] {
			continue
		}
		if err := rule.apply(key, value); err != nil {
			var ruleErr *RuleError
			if errors.As(err, &ruleErr) {
				ruleErr.Rule = text
			}
			return nil, err
		}
	}

	if rule.freq == 0 {
		return nil, syntaxError(text, fmt.Sprintf("the recurrence frequency must be specified: %s", text))
	}
	return rule, nil
}

// MustParseRule is like ParseRule but panics on error.
func MustParseRule(text string) *Rule {
	rule, err := ParseRule(text)
	if err != nil {
		panic(err)
	}
	return rule
}

func (r *Rule) apply(key, value string) error {
	var err error
	switch key {
	case "FREQ":
		freq, ok := ParseFrequency(value)
		if !ok {
			return syntaxError(value, fmt.Sprintf("the recurrence frequency [%s] is invalid, it only supports %v", value, SupportedFrequencies))
		}
		r.freq = freq
	case "COUNT":
		count, convErr := strconv.Atoi(value)
		if convErr != nil || count < 0 {
			return syntaxError(value, fmt.Sprintf("the recurrence count [%s] must be a non-negative integer", value))
		}
		r.count = count
	case "INTERVAL":
		interval, convErr := strconv.Atoi(value)
		if convErr != nil || interval < 1 {
			return syntaxError(value, fmt.Sprintf("the recurrence interval [%s] must be a positive integer", value))
		}
		r.interval = interval
	case "UNTIL":
		until, ok := parseUntil(value)
		if !ok {
			return syntaxError(value, fmt.Sprintf("the recurrence until date [%s] is not valid, it does not follow the pattern of %q", value, untilPattern))
		}
		r.until = mo.Some(until)
	case "BYMONTH":
		r.months, err = ParseMonthValidator(value)
	case "BYMONTHDAY":
		r.monthDays, err = ParseDayOfMonthValidator(value)
	case "BYDAY":
		r.weekdays, err = ParseDayOfWeekValidator(value)
	case "BYSETPOS":
		r.setPositions, err = parseSetPositions(value)
	}
	return err
}

// parseUntil accepts a one or two digit hour, as in 20180101T90000Z.
func parseUntil(value string) (date.Date, bool) {
	if len(value) == len(untilLayout)-1 {
		value = value[:9] + "0" + value[9:]
	}
	if len(value) != len(untilLayout) {
		return date.Date{}, false
	}
	t, err := time.Parse(untilLayout, value)
	if err != nil {
		return date.Date{}, false
	}
	return date.FromTime(t), true
}

func parseSetPositions(value string) ([]int, error) {
	var positions []int
	for _, token := range strings.Split(value, ",") {
		pos, err := strconv.Atoi(token)
		if err != nil || pos == 0 || pos < -366 || pos > 366 {
			return nil, rangeError(value, fmt.Sprintf("invalid set position: %s", token))
		}
		if !slices.Contains(positions, pos) {
			positions = append(positions, pos)
		}
	}
	slices.Sort(positions)
	return positions, nil
}

func (r *Rule) Frequency() Frequency { return r.freq }

// Interval is at least 1.
func (r *Rule) Interval() int { return r.interval }

// Count is the maximum number of dates, 0 meaning unbounded.
func (r *Rule) Count() int { return r.count }

// Until is the inclusive last date, if any.
func (r *Rule) Until() mo.Option[date.Date] { return r.until }

// MonthValidator returns the BYMONTH filter or nil.
func (r *Rule) MonthValidator() *MonthValidator { return r.months }

// DayOfMonthValidator returns the BYMONTHDAY filter or nil.
func (r *Rule) DayOfMonthValidator() *DayOfMonthValidator { return r.monthDays }

// DayOfWeekValidator returns the BYDAY filter or nil.
func (r *Rule) DayOfWeekValidator() *DayOfWeekValidator { return r.weekdays }

// SetPositions returns the BYSETPOS values in ascending order.
func (r *Rule) SetPositions() []int {
	return slices.Clone(r.setPositions)
}

// Text returns the rule text as it was given to ParseRule.
func (r *Rule) Text() string { return r.text }

// String renders the rule in canonical form. The result parses back to
// an equivalent rule.
func (r *Rule) String() string {
	parts := []string{"FREQ=" + r.freq.String()}
	if r.interval > 1 {
		parts = append(parts, "INTERVAL="+strconv.Itoa(r.interval))
	}
	if r.count > 0 {
		parts = append(parts, "COUNT="+strconv.Itoa(r.count))
	}
	if until, ok := r.until.Get(); ok {
		parts = append(parts, "UNTIL="+until.Time().Format(untilLayout))
	}
	if r.months != nil {
		parts = append(parts, "BYMONTH="+r.months.String())
	}
	if r.monthDays != nil {
		parts = append(parts, "BYMONTHDAY="+r.monthDays.String())
	}
	if r.weekdays != nil {
		parts = append(parts, "BYDAY="+r.weekdays.String())
	}
	if len(r.setPositions) > 0 {
		parts = append(parts, "BYSETPOS="+joinInts(r.setPositions))
	}
	return rulePrefix + strings.Join(parts, ";")
}
