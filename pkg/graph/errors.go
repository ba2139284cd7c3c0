package graph

import (
	"errors"
	"fmt"
)

// ErrGraphNotFound is returned by stores when a graph ID cannot be resolved.
var ErrGraphNotFound = errors.New("graph not found")

// ErrNoStates is returned when an operation requires at least one state.
var ErrNoStates = errors.New("graph has no states")

// ValidationError describes a single structural invariant violation.
type ValidationError struct {
	Field  string // offending entity, e.g. "transition:t1"
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// AggregateError collects every invariant violation found in one pass so
// callers see the full picture instead of the first failure.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// ValidationErrors unwraps an AggregateError, or returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
