package expand

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/cyp0633/librrule/date"
	"github.com/cyp0633/librrule/recurrence"
)

const productID = "-//librrule//Recurrence//EN"

var (
	// ErrNoStart is returned when a component has no usable DTSTART.
	ErrNoStart = errors.New("component has no DTSTART")
	// ErrNoRecurrenceID is returned for an override instance without a
	// usable RECURRENCE-ID.
	ErrNoRecurrenceID = errors.New("override has no RECURRENCE-ID")
)

var dateLayouts = []string{"20060102T150405Z", "20060102T150405", "20060102"}

// RecurrenceInfoFromComponent extracts recurrence information from an
// iCal component. Unparseable RDATE and EXDATE values are skipped.
func RecurrenceInfoFromComponent(comp *ical.Component) RecurrenceInfo {
	info := RecurrenceInfo{}

	if rruleProp := comp.Props.Get(ical.PropRecurrenceRule); rruleProp != nil && rruleProp.Value != "" {
		info.RRULE = rruleProp.Value
	}

	// RDATE and EXDATE may each appear on several lines
	for _, prop := range comp.Props[ical.PropRecurrenceDates] {
		info.RDATE = append(info.RDATE, parseDateList(prop.Value, prop.Params)...)
	}
	for _, prop := range comp.Props[ical.PropExceptionDates] {
		info.EXDATE = append(info.EXDATE, parseDateList(prop.Value, prop.Params)...)
	}

	if recurrenceIDProp := comp.Props.Get("RECURRENCE-ID"); recurrenceIDProp != nil && recurrenceIDProp.Value != "" {
		if recurrenceID, err := parseDateValue(recurrenceIDProp.Value, recurrenceIDProp.Params); err == nil {
			info.RecurrenceID = mo.Some(recurrenceID)
		}
	}

	return info
}

// StartDate returns the calendar date of a component's DTSTART. For a
// DATE-TIME value this is the date as written, in its own time zone.
func StartDate(comp *ical.Component) (date.Date, error) {
	prop := comp.Props.Get(ical.PropDateTimeStart)
	if prop == nil || prop.Value == "" {
		return date.Date{}, ErrNoStart
	}
	start, err := parseDateValue(prop.Value, prop.Params)
	if err != nil {
		return date.Date{}, fmt.Errorf("%w: %w", ErrNoStart, err)
	}
	return start, nil
}

// NewEvent builds an all-day VEVENT starting at start and repeating by
// rule. It gets a fresh UID.
func NewEvent(summary string, start date.Date, rule *recurrence.Rule) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, uuid.NewString())
	event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	event.Props.SetText(ical.PropSummary, summary)

	dtstart := ical.NewProp(ical.PropDateTimeStart)
	dtstart.Value = formatDate(start)
	dtstart.Params.Set("VALUE", "DATE")
	event.Props.Add(dtstart)

	// SetText would escape the ';' separators
	rrule := ical.NewProp(ical.PropRecurrenceRule)
	rrule.Value = strings.TrimPrefix(rule.String(), rulePrefix)
	event.Props.Add(rrule)

	return event
}

// AddExceptionDates appends an all-day EXDATE line to event.
func AddExceptionDates(event *ical.Event, dates ...date.Date) {
	addDateList(event, ical.PropExceptionDates, dates)
}

// AddRecurrenceDates appends an all-day RDATE line to event.
func AddRecurrenceDates(event *ical.Event, dates ...date.Date) {
	addDateList(event, ical.PropRecurrenceDates, dates)
}

func addDateList(event *ical.Event, name string, dates []date.Date) {
	if len(dates) == 0 {
		return
	}
	values := make([]string, len(dates))
	for i, d := range dates {
		values[i] = formatDate(d)
	}
	prop := ical.NewProp(name)
	prop.Value = strings.Join(values, ",")
	prop.Params.Set("VALUE", "DATE")
	event.Props.Add(prop)
}

// EncodeEvent wraps event in a VCALENDAR and encodes it as ICS text.
func EncodeEvent(event *ical.Event) (string, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	// Ensure DTSTAMP is present
	if event.Props.Get(ical.PropDateTimeStamp) == nil {
		event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	}

	cal.Children = append(cal.Children, event.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.String(), nil
}

// DecodeEvent decodes ICS text holding exactly one VEVENT.
func DecodeEvent(ics string) (*ical.Event, error) {
	dec := ical.NewDecoder(strings.NewReader(ics))

	cal, err := dec.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode calendar: %w", err)
	}

	events := cal.Events()
	if len(events) == 0 {
		return nil, fmt.Errorf("no events found in calendar")
	}
	if len(events) > 1 {
		return nil, fmt.Errorf("multiple events found in calendar")
	}

	return &events[0], nil
}

func formatDate(d date.Date) string {
	return d.Time().Format("20060102")
}

func isDateOnly(params ical.Params) bool {
	if params == nil {
		return false
	}
	valueParam := params["VALUE"]
	return len(valueParam) > 0 && strings.EqualFold(valueParam[0], "DATE")
}

// parseDateList parses a comma separated RDATE or EXDATE value.
func parseDateList(value string, params ical.Params) []date.Date {
	var dates []date.Date
	for _, s := range strings.Split(value, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if d, err := parseDateValue(s, params); err == nil {
			dates = append(dates, d)
		}
	}
	return dates
}

// parseDateValue parses a DATE or DATE-TIME value and keeps its date.
func parseDateValue(value string, params ical.Params) (date.Date, error) {
	layouts := dateLayouts
	if isDateOnly(params) {
		layouts = dateLayouts[2:]
	}

	var err error
	for _, layout := range layouts {
		var t time.Time
		if t, err = time.Parse(layout, value); err == nil {
			return date.FromTime(t), nil
		}
	}
	return date.Date{}, fmt.Errorf("invalid date value %q: %w", value, err)
}
