package budget

import (
	"github.com/stanton/construction-ops/money"
)

// ReconcileCommittedCosts applies the rule "committed cost is either manually
// tracked or derived from signed contracts, never both."
//
// With one or more linked contracts, committed costs become the sum of the
// linked amounts and the field turns read-only (CommittedFromContracts).
// With no linked contracts the line reverts to manual tracking, keeping
// whatever amount it currently shows so the figure survives an unlink.
//
// Idempotent: applying the same linked-contract list twice changes nothing.
func ReconcileCommittedCosts(in LineInput, linked []ContractLink) LineInput {
	if len(linked) == 0 {
		in.Committed = ManualCommitted(in.Committed.Amount)
		return in
	}

	total := money.Zero()
	for _, c := range linked {
		total = total.Add(c.Amount.ClampNonNegative())
	}
	in.Committed = ContractCommitted(total)
	return in
}

// SumContractLinks returns the committed total for a set of linked contracts.
// Exposed for callers that display the figure without rewriting the line.
func SumContractLinks(linked []ContractLink) money.Money {
	total := money.Zero()
	for _, c := range linked {
		total = total.Add(c.Amount.ClampNonNegative())
	}
	return total
}
