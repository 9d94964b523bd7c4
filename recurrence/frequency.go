package recurrence

import (
	"fmt"
	"strings"
)

// Frequency is the period a rule repeats over.
type Frequency int

const (
	Daily Frequency = iota + 1
	Weekly
	Monthly
)

var frequencyNames = map[Frequency]string{
	Daily:   "DAILY",
	Weekly:  "WEEKLY",
	Monthly: "MONTHLY",
}

// SupportedFrequencies lists the frequencies a rule may use, in order.
var SupportedFrequencies = []Frequency{Daily, Weekly, Monthly}

func (f Frequency) String() string {
	if name, ok := frequencyNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Frequency(%d)", int(f))
}

// ParseFrequency parses a FREQ value, ignoring case.
func ParseFrequency(value string) (Frequency, bool) {
	for _, f := range SupportedFrequencies {
		if strings.EqualFold(frequencyNames[f], value) {
			return f, true
		}
	}
	return 0, false
}
