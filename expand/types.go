package expand

import (
	"time"

	"github.com/samber/mo"

	"github.com/cyp0633/librrule/date"
)

// RecurrenceInfo contains all recurrence-related information for an event
type RecurrenceInfo struct {
	RRULE        string               // The RRULE value, with or without the "RRULE:" prefix
	RDATE        []date.Date          // Additional recurrence dates
	EXDATE       []date.Date          // Exception dates (excluded occurrences)
	RecurrenceID mo.Option[date.Date] // Set on an override instance: the occurrence it replaces
}

// Expansion is the result of expanding an event over a date range.
type Expansion struct {
	Dates     []date.Date // ascending, without duplicates
	Truncated bool        // the range or the occurrence count was cut by ExpansionOptions
}

// ExpansionOptions controls how recurrence expansion behaves
type ExpansionOptions struct {
	MaxOccurrences int           // Maximum number of occurrences to return (0 = unlimited)
	MaxTimeSpan    time.Duration // Maximum length of the queried range (0 = unlimited)
}

// DefaultExpansionOptions provides sensible defaults for expansion
var DefaultExpansionOptions = ExpansionOptions{
	MaxOccurrences: 1000,
	MaxTimeSpan:    365 * 24 * time.Hour * 2, // 2 years
}

// maxDays converts MaxTimeSpan to whole days, 0 meaning unlimited.
func (o ExpansionOptions) maxDays() int {
	return int(o.MaxTimeSpan / (24 * time.Hour))
}
