/*
validate.go - Submission gating for payment applications

PURPOSE:
  The gate between "preparer typed some percentages" and "a payment
  application record reaches the store." Either every line passes and the
  result carries the full billing breakdown, or the whole application is
  rejected with field-addressable errors. No partial submission.

RULES:
  Per line:
    out_of_range  currentPercent < 0 or > 100
    regression    currentPercent < from_previous_application
  Application-wide:
    no_progress   no line has currentPercent > from_previous_application

SEE ALSO:
  - billing.go: The arithmetic this builds on
  - errors.go:  Error codes and structured types
*/
package payapp

import (
	"errors"
	"fmt"

	"github.com/stanton/construction-ops/money"
)

// ValidateApplication checks a proposed set of per-line percents against the
// schedule of values and returns either a success with the complete billing
// breakdown or the structured errors. It never returns a Go error; every
// input, however malformed, yields an answer.
//
// Lines absent from proposed are treated as unchanged (billed at their
// previous percent). Proposed ids not in the schedule are reported as
// unknown_line.
func ValidateApplication(lines []SOVLine, proposed map[string]money.Percent) ValidationResult {
	result := ValidationResult{
		LineErrors: make(map[string][]LineError),
	}

	known := make(map[string]bool, len(lines))
	for _, line := range lines {
		known[line.ID] = true
	}
	for id := range proposed {
		if !known[id] {
			result.LineErrors[id] = append(result.LineErrors[id], LineError{
				LineID:  id,
				Code:    CodeUnknownLine,
				Message: "line is not part of this contract's schedule of values",
			})
		}
	}

	ordered := SortSchedule(lines)
	billings := make([]LineBilling, 0, len(ordered))
	progressed := false

	for _, line := range ordered {
		pct, ok := proposed[line.ID]
		if !ok {
			pct = line.FromPrevious
		}

		billing, err := ComputeLineBilling(line, pct)
		if err != nil {
			result.LineErrors[line.ID] = append(result.LineErrors[line.ID], toLineError(line.ID, err))
			continue
		}

		if pct.GreaterThan(line.FromPrevious) {
			progressed = true
		}
		billings = append(billings, billing)
	}

	if !progressed && len(result.LineErrors) == 0 {
		result.ApplicationErrors = append(result.ApplicationErrors, LineError{
			Code:    CodeNoProgress,
			Message: "no line advances past its previous application; nothing to bill",
		})
	}

	if len(result.LineErrors) > 0 || len(result.ApplicationErrors) > 0 {
		result.LineErrors = pruneEmpty(result.LineErrors)
		return result
	}

	result.Valid = true
	result.LineErrors = nil
	result.Lines = billings
	result.Totals = ComputeApplicationTotals(lines, proposed)
	return result
}

func toLineError(lineID string, err error) LineError {
	var oor *OutOfRangeError
	if errors.As(err, &oor) {
		return LineError{
			LineID:  lineID,
			Code:    CodeOutOfRange,
			Message: fmt.Sprintf("percent complete %s must be between 0 and 100", oor.Percent),
		}
	}
	var reg *RegressionError
	if errors.As(err, &reg) {
		return LineError{
			LineID:  lineID,
			Code:    CodeRegression,
			Message: fmt.Sprintf("percent complete %s is below the %s billed on the previous application", reg.Percent, reg.Previous),
		}
	}
	return LineError{LineID: lineID, Code: CodeUnknownLine, Message: err.Error()}
}

func pruneEmpty(m map[string][]LineError) map[string][]LineError {
	if len(m) == 0 {
		return nil
	}
	return m
}
