/*
Package budget provides the budget derivation engine.

PURPOSE:
  Turns the raw monetary fields of a budget line (original/revised amounts,
  actual spend, committed costs) into the displayed financial state: base
  budget, remaining balance, percent spent, and a qualitative health status.
  Also aggregates many lines into project-level totals and reconciles
  committed costs against linked contracts.

KEY CONCEPTS IN THIS FILE (types.go):
  - LineInput:      Raw persisted fields of one budget category
  - CommittedCosts: Tagged variant - manually tracked or derived from
                    contracts. Editability is a type-level fact, not a UI flag.
  - LineView:       Input plus every derived field, always recomputed
  - Status:         On Track / Warning / Critical / Over Budget

DESIGN PRINCIPLES:
  1. Pure functions: no module state, same input always yields same output
  2. Derived fields are never stored; callers re-derive on every change
  3. Negative monetary input is clamped to zero at the boundary

USAGE:
  view := budget.DeriveLine(in)
  totals := budget.AggregateTotals(views)
  in = budget.ReconcileCommittedCosts(in, linkedContracts)

SEE ALSO:
  - derive.go:    Per-line derivation and status thresholds
  - aggregate.go: Project-level totals with weighted percent-spent
  - reconcile.go: Committed-cost reconciliation against contracts
*/
package budget

import (
	"github.com/stanton/construction-ops/money"
)

// =============================================================================
// COMMITTED COSTS - Manual or derived from signed contracts, never both
// =============================================================================

type CommittedSource string

const (
	// CommittedManual means the preparer types the figure by hand.
	CommittedManual CommittedSource = "manual"

	// CommittedFromContracts means the figure is the sum of active contracts
	// linked to the line. Read-only for any surface built on this engine.
	CommittedFromContracts CommittedSource = "contracts"
)

type CommittedCosts struct {
	Amount money.Money
	Source CommittedSource
}

func ManualCommitted(amount money.Money) CommittedCosts {
	return CommittedCosts{Amount: amount.ClampNonNegative(), Source: CommittedManual}
}

func ContractCommitted(amount money.Money) CommittedCosts {
	return CommittedCosts{Amount: amount.ClampNonNegative(), Source: CommittedFromContracts}
}

// Editable reports whether a caller may accept manual edits to the amount.
func (c CommittedCosts) Editable() bool { return c.Source != CommittedFromContracts }

// =============================================================================
// LINE INPUT - Raw fields of one budget category
// =============================================================================

// LineInput is the persisted shape of a budget line. JSON field names are the
// persistence contract and match the external store exactly.
type LineInput struct {
	ID             string          `json:"id,omitempty"` // empty for an unsaved draft
	ProjectID      string          `json:"project_id,omitempty"`
	CategoryName   string          `json:"category_name"`
	OriginalAmount money.Money     `json:"original_amount"`
	RevisedAmount  money.Money     `json:"revised_amount"`
	ActualSpend    money.Money     `json:"actual_spend"`
	Committed      CommittedCosts  `json:"committed_costs"`
	DisplayOrder   int             `json:"display_order,omitempty"`
}

// =============================================================================
// LINE VIEW - Input plus derived state
// =============================================================================

type Status string

const (
	StatusOnTrack    Status = "On Track"
	StatusWarning    Status = "Warning"
	StatusCritical   Status = "Critical"
	StatusOverBudget Status = "Over Budget"
)

// LineView is the complete, internally consistent view model for one line.
// Derived fields are recomputed from the input on every call; they are never
// persisted.
type LineView struct {
	Input LineInput

	// BaseBudget is the revised amount when one is set (> 0), otherwise the
	// original amount.
	BaseBudget money.Money

	// RemainingAmount = BaseBudget - ActualSpend - Committed.
	RemainingAmount money.Money

	// PercentSpent = ActualSpend / BaseBudget * 100; zero when BaseBudget <= 0.
	PercentSpent money.Percent

	Status Status
}

// ContractLink is the slice of a linked contract the engine cares about:
// its committed amount. Filtering to active contracts is the caller's job.
type ContractLink struct {
	ContractID string      `json:"contract_id,omitempty"`
	Amount     money.Money `json:"amount"`
}

// Totals is the project-level aggregate across lines.
type Totals struct {
	OriginalAmount  money.Money
	RevisedAmount   money.Money // sum of per-line base budgets
	ActualSpend     money.Money
	CommittedCosts  money.Money
	RemainingAmount money.Money

	// PercentSpent is weighted: sum(actual) / sum(base) * 100. Deliberately
	// not a mean of per-line percentages, so a large under-spent category
	// cannot mask a small over-spent one.
	PercentSpent money.Percent

	Status Status
}
