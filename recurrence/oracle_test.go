package recurrence

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"

	"github.com/cyp0633/librrule/date"
)

// expandWithRRuleGo expands the same rule with teambition/rrule-go, an
// independent RFC 5545 implementation.
func expandWithRRuleGo(t *testing.T, start date.Date, body string) []string {
	t.Helper()
	dtstart := start.Time().Format("20060102T150405Z")
	set, err := rrule.StrToRRuleSet(fmt.Sprintf("DTSTART:%s\nRRULE:%s", dtstart, body))
	require.NoError(t, err)

	var out []string
	for _, occurrence := range set.All() {
		out = append(out, date.FromTime(occurrence.UTC()).String())
	}
	return out
}

func TestAgreesWithRRuleGo(t *testing.T) {
	rules := []string{
		"FREQ=DAILY;BYDAY=SA",
		"FREQ=DAILY;INTERVAL=2;BYDAY=SA",
		"FREQ=DAILY;INTERVAL=2;BYDAY=MO,WE",
		"FREQ=DAILY;INTERVAL=3;BYDAY=MO,WE",
		"FREQ=DAILY;BYMONTH=1;BYDAY=MO",
		"FREQ=DAILY;BYMONTH=2;BYMONTHDAY=29",
		"FREQ=WEEKLY;INTERVAL=2",
		"FREQ=WEEKLY;BYDAY=MO,WE",
		"FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,SU",
		"FREQ=WEEKLY;INTERVAL=3;BYDAY=TU,TH,SA",
		"FREQ=WEEKLY;BYMONTH=1;BYDAY=SA,SU",
		"FREQ=MONTHLY",
		"FREQ=MONTHLY;INTERVAL=2",
		"FREQ=MONTHLY;BYMONTHDAY=1,-15",
		"FREQ=MONTHLY;BYMONTHDAY=-1",
		"FREQ=MONTHLY;INTERVAL=2;BYDAY=TU",
		"FREQ=MONTHLY;BYDAY=1MO,-1FR",
		"FREQ=MONTHLY;INTERVAL=2;BYDAY=1SU,-1MO",
		"FREQ=MONTHLY;BYDAY=FR;BYMONTHDAY=13",
		"FREQ=MONTHLY;BYDAY=MO,TU,WE,TH,FR;BYSETPOS=-1",
	}
	starts := []date.Date{
		date.MustParse("2018-01-01"),
		date.MustParse("2019-05-17"),
		date.MustParse("2020-01-31"),
	}

	const count = 25
	for _, body := range rules {
		for _, start := range starts {
			t.Run(fmt.Sprintf("%s from %s", body, start), func(t *testing.T) {
				text := fmt.Sprintf("RRULE:%s;COUNT=%d", body, count)
				expected := expandWithRRuleGo(t, start, strings.TrimPrefix(text, rulePrefix))
				assert.Equal(t, expected, take(t, text, start.String(), count+1))
			})
		}
	}
}
