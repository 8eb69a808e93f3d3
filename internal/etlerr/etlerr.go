// Package etlerr defines the failure conditions shared by every stage of the
// load pipeline. Stages wrap one of the sentinels below with fmt.Errorf("%w")
// so callers can branch with errors.Is regardless of which backend or parser
// produced the failure.
package etlerr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that the source file is absent or unreadable.
	ErrNotFound = errors.New("source not found")

	// ErrMalformedInput reports delimited content that cannot be parsed into a
	// rectangular table.
	ErrMalformedInput = errors.New("malformed input")

	// ErrDuplicateColumn reports two source labels that normalize to the same
	// column name.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrInvalidIdentifier reports a table name that is not a plain SQL
	// identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrStoreUnavailable reports that the destination database cannot be
	// opened or created.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNoSuchTable reports a count against a relation that does not exist.
	ErrNoSuchTable = errors.New("no such table")

	// ErrCountMismatch reports that the stored row count differs from the
	// number of rows that were written.
	ErrCountMismatch = errors.New("row count mismatch")
)

// StepError records which pipeline step failed. It unwraps to the underlying
// error so errors.Is against the sentinels keeps working.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Step wraps err with the step name. A nil err stays nil.
func Step(step string, err error) error {
	if err == nil {
		return nil
	}
	return &StepError{Step: step, Err: err}
}

// StepOf returns the failing step name, or "" when err carries none.
func StepOf(err error) string {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step
	}
	return ""
}
