/*
errors.go - Validation error taxonomy for payment applications

PURPOSE:
  Every validation failure is a data outcome, not control flow. Errors carry
  the line id and a stable code so a form layer can highlight exactly the
  offending input. Nothing in this package panics or returns an opaque
  aggregate error.

ERROR CODES:
  out_of_range  percent outside [0, 100]
  regression    percent below the previously billed percent for that line
  no_progress   no line advances past its prior percent

SEE ALSO:
  - validate.go: Produces these
*/
package payapp

import (
	"errors"
	"fmt"

	"github.com/stanton/construction-ops/money"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrOutOfRange is returned when a percent-complete value falls outside
	// [0, 100].
	ErrOutOfRange = errors.New("percent complete out of range")

	// ErrRegression is returned when a percent-complete value is below the
	// previously billed percent. Under-billing a prior approved period
	// indicates a data error the preparer must see, so it is never clamped.
	ErrRegression = errors.New("percent complete below previous application")

	// ErrNoProgress is returned when no line advances past its prior percent.
	ErrNoProgress = errors.New("application bills no progress")

	// ErrUnknownLine is returned when a proposed percent references a line id
	// that is not part of the schedule of values.
	ErrUnknownLine = errors.New("unknown schedule of values line")
)

// =============================================================================
// ERROR CODES - Stable identifiers for the wire
// =============================================================================

type ErrorCode string

const (
	CodeOutOfRange  ErrorCode = "out_of_range"
	CodeRegression  ErrorCode = "regression"
	CodeNoProgress  ErrorCode = "no_progress"
	CodeUnknownLine ErrorCode = "unknown_line"
)

// LineError is one validation failure, addressable to a line and field.
type LineError struct {
	LineID  string    `json:"line_id,omitempty"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e LineError) Error() string {
	if e.LineID == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("line %s: %s: %s", e.LineID, e.Code, e.Message)
}

func (e LineError) Unwrap() error {
	switch e.Code {
	case CodeOutOfRange:
		return ErrOutOfRange
	case CodeRegression:
		return ErrRegression
	case CodeNoProgress:
		return ErrNoProgress
	case CodeUnknownLine:
		return ErrUnknownLine
	}
	return nil
}

// =============================================================================
// STRUCTURED ERRORS - Carry the offending values
// =============================================================================

// OutOfRangeError reports a percent outside [0, 100].
type OutOfRangeError struct {
	LineID  string
	Percent money.Percent
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("line %s: percent %s out of range [0, 100]", e.LineID, e.Percent)
}

func (e *OutOfRangeError) Unwrap() error { return ErrOutOfRange }

// RegressionError reports a percent below the prior approved percent.
type RegressionError struct {
	LineID   string
	Percent  money.Percent
	Previous money.Percent
}

func (e *RegressionError) Error() string {
	return fmt.Sprintf("line %s: percent %s below previous application %s",
		e.LineID, e.Percent, e.Previous)
}

func (e *RegressionError) Unwrap() error { return ErrRegression }
