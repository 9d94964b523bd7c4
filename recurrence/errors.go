package recurrence

import "errors"

var (
	// ErrRuleSyntax marks a rule whose text does not follow the grammar:
	// wrong prefix, malformed clause, missing or unsupported FREQ, bad
	// UNTIL, COUNT or INTERVAL.
	ErrRuleSyntax = errors.New("invalid recurrence rule")
	// ErrFilterRange marks a BYMONTH, BYMONTHDAY, BYDAY or BYSETPOS value
	// that is malformed or out of range.
	ErrFilterRange = errors.New("recurrence filter out of range")
	// ErrExhausted is returned by Calendar.Next when no more dates exist.
	ErrExhausted = errors.New("no more recurrence")
	// ErrInfiniteLoop is returned when the progress guard trips.
	ErrInfiniteLoop = errors.New("infinite loop detected")
)

// RuleError describes why a rule could not be parsed. Kind is
// ErrRuleSyntax or ErrFilterRange, so callers can use errors.Is.
type RuleError struct {
	Kind    error
	Rule    string // the rule text as given
	Message string // names the offending token or value
}

func (e *RuleError) Error() string {
	return e.Message
}

func (e *RuleError) Unwrap() error {
	return e.Kind
}

func syntaxError(rule, message string) *RuleError {
	return &RuleError{Kind: ErrRuleSyntax, Rule: rule, Message: message}
}

func rangeError(rule, message string) *RuleError {
	return &RuleError{Kind: ErrFilterRange, Rule: rule, Message: message}
}
