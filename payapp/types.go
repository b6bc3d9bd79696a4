/*
Package payapp provides the payment application percent-complete engine.

PURPOSE:
  AIA-style percent-of-completion billing: given a contract's schedule of
  values and a proposed new percent-complete per line, compute the amount
  billed this period per line and in total, and gate submission on business
  rules. The engine is stateless; the payment application document it
  supports lives in the external store.

KEY CONCEPTS IN THIS FILE (types.go):
  - SOVLine:           One billable line of a contract's schedule of values
  - LineBilling:       Derived billing for one line at a proposed percent
  - ApplicationTotals: Sums across the application
  - ValidationResult:  Either a full billing breakdown or per-line errors

BILLING ARITHMETIC:
  current_scheduled_value = scheduled_value + change_order_amount
  this_period_percent     = current_percent - from_previous_application
  this_period_amount      = current_scheduled_value * this_period_percent / 100
  paid_to_date_amount     = current_scheduled_value * current_percent / 100

LIFECYCLE NOTE:
  from_previous_application advances only when an application is approved,
  and that advance happens in the store, not here. This engine only reads it
  as the floor for the next submission.

SEE ALSO:
  - billing.go:  Per-line and application-wide arithmetic
  - validate.go: Submission gating and structured errors
*/
package payapp

import (
	"github.com/stanton/construction-ops/money"
)

// =============================================================================
// SCHEDULE OF VALUES LINE
// =============================================================================

// SOVLine is one billable line item of a contract. JSON field names are the
// persistence contract and match the external store exactly.
type SOVLine struct {
	ID         string `json:"id"`
	ContractID string `json:"contract_id"`

	// ScheduledValue is the original line value, non-negative.
	ScheduledValue money.Money `json:"scheduled_value"`

	// ChangeOrderAmount may be negative (a deduction).
	ChangeOrderAmount money.Money `json:"change_order_amount"`

	// FromPrevious is the percent complete billed in the prior approved
	// application, 0-100. The floor for the next submission.
	FromPrevious money.Percent `json:"from_previous_application"`

	// DisplayOrder defines presentation and billing-sheet order.
	DisplayOrder int `json:"display_order"`

	Description string `json:"description,omitempty"`
}

// CurrentScheduledValue is the line value after change orders.
func (l SOVLine) CurrentScheduledValue() money.Money {
	return l.ScheduledValue.Add(l.ChangeOrderAmount)
}

// =============================================================================
// DERIVED BILLING
// =============================================================================

// LineBilling is the derived billing for one line at a proposed percent.
type LineBilling struct {
	LineID            string        `json:"line_id"`
	CurrentPercent    money.Percent `json:"current_percent"`
	ThisPeriodPercent money.Percent `json:"this_period_percent"`
	ThisPeriodAmount  money.Money   `json:"this_period_amount"`
	PaidToDateAmount  money.Money   `json:"paid_to_date_amount"`
}

// ApplicationTotals sums the derived values across an application.
type ApplicationTotals struct {
	// TotalScheduledValue sums current scheduled values (after change orders).
	TotalScheduledValue money.Money `json:"total_scheduled_value"`

	// TotalPreviousAmount is what prior approved applications already billed.
	TotalPreviousAmount money.Money `json:"total_previous_amount"`

	// TotalCurrentAmount is paid-to-date if this application is approved.
	TotalCurrentAmount money.Money `json:"total_current_amount"`

	// TotalThisPeriod is the amount actually requested now.
	TotalThisPeriod money.Money `json:"total_this_period"`
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult is the engine's answer for a proposed submission: either
// Valid with the full billing breakdown, or a structured list of per-line
// errors the caller can attribute to specific inputs. Never both.
type ValidationResult struct {
	Valid bool `json:"valid"`

	// Lines holds per-line billing in schedule order. Populated only when
	// Valid.
	Lines []LineBilling `json:"lines,omitempty"`

	// Totals is populated only when Valid.
	Totals ApplicationTotals `json:"totals"`

	// LineErrors maps line id to the errors for that line.
	LineErrors map[string][]LineError `json:"line_errors,omitempty"`

	// ApplicationErrors are errors not attributable to a single line, such
	// as a zero-progress submission.
	ApplicationErrors []LineError `json:"application_errors,omitempty"`
}
