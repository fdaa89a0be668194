package stream

import "fmt"

// The engine fails fast: a malformed record aborts the pipeline run that saw
// it rather than being silently defaulted, which would corrupt aggregates.
// Callers that need to tolerate dirty input must filter it upstream.

// MissingFieldError reports a record that lacks a field an operator requires,
// e.g. the time field on the epoch operator.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("record is missing required field %q", e.Field)
}

// TypeMismatchError reports a field that exists but holds the wrong variant
// for the operation requesting it. Field may be empty when the mismatch is
// on a reduction accumulator rather than a named field.
type TypeMismatchError struct {
	Field string
	Want  Kind
	Got   Kind
}

func (e *TypeMismatchError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("value is %s, want %s", e.Got, e.Want)
	}
	return fmt.Sprintf("field %q is %s, want %s", e.Field, e.Got, e.Want)
}

// EpochRegressionError reports an epoch or time value lower than one already
// observed on the same stream. The epoch and join protocols are defined only
// for non-decreasing sequences, so a regression is rejected, not processed.
type EpochRegressionError struct {
	Field string
	Prev  string
	Got   string
}

func (e *EpochRegressionError) Error() string {
	return fmt.Sprintf("field %q regressed from %s to %s", e.Field, e.Prev, e.Got)
}
