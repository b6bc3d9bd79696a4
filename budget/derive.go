/*
derive.go - Per-line budget derivation and status thresholds

PURPOSE:
  The single derivation function every surface must use. The health status
  thresholds live here too, so per-line and project-level status can never
  drift apart.

THRESHOLDS:
  ratio = (actual_spend + committed_costs) / base_budget

  ratio >= 1.05  Over Budget
  ratio >= 1.00  Critical
  ratio >= 0.90  Warning
  otherwise      On Track

  A line with base_budget <= 0 has ratio defined as 0, so a newly created,
  unfunded line reads On Track instead of a divide-by-zero Over Budget.

SEE ALSO:
  - aggregate.go: Applies StatusForRatio to the aggregate ratio
*/
package budget

import (
	"github.com/shopspring/decimal"

	"github.com/stanton/construction-ops/money"
)

// =============================================================================
// STATUS THRESHOLDS
// =============================================================================

var (
	thresholdOverBudget = decimal.RequireFromString("1.05")
	thresholdCritical   = decimal.RequireFromString("1.0")
	thresholdWarning    = decimal.RequireFromString("0.9")
)

// StatusForRatio maps a spend ratio to a health status. Monotonic: severity
// never decreases as the ratio increases.
func StatusForRatio(ratio decimal.Decimal) Status {
	switch {
	case ratio.GreaterThanOrEqual(thresholdOverBudget):
		return StatusOverBudget
	case ratio.GreaterThanOrEqual(thresholdCritical):
		return StatusCritical
	case ratio.GreaterThanOrEqual(thresholdWarning):
		return StatusWarning
	default:
		return StatusOnTrack
	}
}

// =============================================================================
// DERIVATION
// =============================================================================

// Clamp normalizes a LineInput at the boundary: all monetary fields forced
// non-negative. Negative input is clamped, never silently accepted as
// negative spend.
func Clamp(in LineInput) LineInput {
	in.OriginalAmount = in.OriginalAmount.ClampNonNegative()
	in.RevisedAmount = in.RevisedAmount.ClampNonNegative()
	in.ActualSpend = in.ActualSpend.ClampNonNegative()
	in.Committed.Amount = in.Committed.Amount.ClampNonNegative()
	if in.Committed.Source == "" {
		in.Committed.Source = CommittedManual
	}
	return in
}

// BaseBudget returns the effective budget for a line: the revised amount when
// set (> 0), otherwise the original amount.
func BaseBudget(in LineInput) money.Money {
	if in.RevisedAmount.IsPositive() {
		return in.RevisedAmount
	}
	return in.OriginalAmount
}

// DeriveLine computes the full view model for one budget line. Pure and
// referentially transparent; callers own persistence and diffing.
func DeriveLine(in LineInput) LineView {
	in = Clamp(in)

	base := BaseBudget(in)
	obligated := in.ActualSpend.Add(in.Committed.Amount)

	return LineView{
		Input:           in,
		BaseBudget:      base,
		RemainingAmount: base.Sub(obligated),
		PercentSpent:    money.RatioPercent(in.ActualSpend, base),
		Status:          StatusForRatio(money.Ratio(obligated, base)),
	}
}

// DeriveLines derives views for a batch, preserving order. Bulk-imported
// rows follow the same clamping and derivation rules as single-row edits.
func DeriveLines(ins []LineInput) []LineView {
	views := make([]LineView, len(ins))
	for i, in := range ins {
		views[i] = DeriveLine(in)
	}
	return views
}
