package budget

import (
	"github.com/stanton/construction-ops/money"
)

// AggregateTotals sums derived line views into project-level totals.
//
// The percent spent is weighted by line size: sum(actual) / sum(base) * 100.
// An arithmetic mean of per-line percentages would let a large under-spent
// category mask a small over-spent one.
//
// The overall status applies the same thresholds as a single line to the
// aggregate ratio (actual + committed) / base.
func AggregateTotals(views []LineView) Totals {
	t := Totals{
		OriginalAmount:  money.Zero(),
		RevisedAmount:   money.Zero(),
		ActualSpend:     money.Zero(),
		CommittedCosts:  money.Zero(),
		RemainingAmount: money.Zero(),
	}

	for _, v := range views {
		t.OriginalAmount = t.OriginalAmount.Add(v.Input.OriginalAmount)
		t.RevisedAmount = t.RevisedAmount.Add(v.BaseBudget)
		t.ActualSpend = t.ActualSpend.Add(v.Input.ActualSpend)
		t.CommittedCosts = t.CommittedCosts.Add(v.Input.Committed.Amount)
		t.RemainingAmount = t.RemainingAmount.Add(v.RemainingAmount)
	}

	obligated := t.ActualSpend.Add(t.CommittedCosts)
	t.PercentSpent = money.RatioPercent(t.ActualSpend, t.RevisedAmount)
	t.Status = StatusForRatio(money.Ratio(obligated, t.RevisedAmount))
	return t
}
