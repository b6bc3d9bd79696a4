/*
billing.go - Percent-of-completion billing arithmetic

PURPOSE:
  Converts a proposed percent-complete into billable amounts for one line
  and for the whole application. Pure decimal arithmetic; no state, no I/O.

SEE ALSO:
  - validate.go: Submission gating built on ComputeLineBilling
*/
package payapp

import (
	"sort"

	"github.com/stanton/construction-ops/money"
)

// =============================================================================
// PER-LINE BILLING
// =============================================================================

// ComputeLineBilling derives the billing for one line at currentPercent.
//
// currentPercent must lie in [from_previous_application, 100]. Values outside
// the range are errors, not silent clamps: a percent below the prior approved
// period is a data error the preparer must be shown.
func ComputeLineBilling(line SOVLine, currentPercent money.Percent) (LineBilling, error) {
	if currentPercent.IsNegative() || currentPercent.GreaterThan(money.NewPercent(100)) {
		return LineBilling{}, &OutOfRangeError{LineID: line.ID, Percent: currentPercent}
	}
	if currentPercent.LessThan(line.FromPrevious) {
		return LineBilling{}, &RegressionError{
			LineID:   line.ID,
			Percent:  currentPercent,
			Previous: line.FromPrevious,
		}
	}

	csv := line.CurrentScheduledValue()
	thisPeriod := currentPercent.Sub(line.FromPrevious)

	return LineBilling{
		LineID:            line.ID,
		CurrentPercent:    currentPercent,
		ThisPeriodPercent: thisPeriod,
		ThisPeriodAmount:  thisPeriod.Of(csv),
		PaidToDateAmount:  currentPercent.Of(csv),
	}, nil
}

// =============================================================================
// APPLICATION TOTALS
// =============================================================================

// ComputeApplicationTotals sums derived values across the schedule. Lines
// missing from proposed bill at their previous percent (no progress, no
// this-period amount). Out-of-range or regressing percents contribute
// nothing; ValidateApplication is the gate that surfaces them.
func ComputeApplicationTotals(lines []SOVLine, proposed map[string]money.Percent) ApplicationTotals {
	t := ApplicationTotals{
		TotalScheduledValue: money.Zero(),
		TotalPreviousAmount: money.Zero(),
		TotalCurrentAmount:  money.Zero(),
		TotalThisPeriod:     money.Zero(),
	}

	for _, line := range lines {
		csv := line.CurrentScheduledValue()
		t.TotalScheduledValue = t.TotalScheduledValue.Add(csv)
		t.TotalPreviousAmount = t.TotalPreviousAmount.Add(line.FromPrevious.Of(csv))

		pct, ok := proposed[line.ID]
		if !ok {
			pct = line.FromPrevious
		}
		billing, err := ComputeLineBilling(line, pct)
		if err != nil {
			continue
		}
		t.TotalCurrentAmount = t.TotalCurrentAmount.Add(billing.PaidToDateAmount)
		t.TotalThisPeriod = t.TotalThisPeriod.Add(billing.ThisPeriodAmount)
	}
	return t
}

// SortSchedule orders lines by display order, then id for a stable tiebreak.
// Billing sheets and API responses present lines in this order.
func SortSchedule(lines []SOVLine) []SOVLine {
	sorted := make([]SOVLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DisplayOrder != sorted[j].DisplayOrder {
			return sorted[i].DisplayOrder < sorted[j].DisplayOrder
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}
