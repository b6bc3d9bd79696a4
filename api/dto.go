/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON shapes for the HTTP surface. These decouple the engine/store types
  from the wire: decimals become float64 at this edge and nowhere earlier,
  and derived budget fields travel alongside raw ones so clients never
  recompute them.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Handlers validate; DTOs are pure data carriers. Engine validation results
  are forwarded with their field-addressable structure intact.

SEE ALSO:
  - handlers.go: Uses these types
  - budget/types.go, payapp/types.go: The shapes behind them
*/
package api

import (
	"time"

	"github.com/stanton/construction-ops/budget"
	"github.com/stanton/construction-ops/money"
	"github.com/stanton/construction-ops/payapp"
	"github.com/stanton/construction-ops/store"
)

// =============================================================================
// PROJECTS AND CONTRACTORS
// =============================================================================

type ProjectDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Client    string `json:"client,omitempty"`
	Address   string `json:"address,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type CreateProjectRequest struct {
	Name    string `json:"name"`
	Client  string `json:"client,omitempty"`
	Address string `json:"address,omitempty"`
}

type ContractorDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Trade     string `json:"trade,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type CreateContractorRequest struct {
	Name  string `json:"name"`
	Trade string `json:"trade,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// =============================================================================
// BUDGET
// =============================================================================

// BudgetLineDTO carries raw fields plus every derived field, so table cells
// render without client-side arithmetic.
type BudgetLineDTO struct {
	ID             string  `json:"id"`
	ProjectID      string  `json:"project_id"`
	CategoryName   string  `json:"category_name"`
	OriginalAmount float64 `json:"original_amount"`
	RevisedAmount  float64 `json:"revised_amount"`
	ActualSpend    float64 `json:"actual_spend"`
	CommittedCosts float64 `json:"committed_costs"`

	// CommittedLocked is true when committed costs derive from linked
	// contracts and the field is not editable.
	CommittedLocked bool `json:"committed_locked"`

	DisplayOrder int `json:"display_order"`

	// Derived
	BaseBudget      float64 `json:"base_budget"`
	RemainingAmount float64 `json:"remaining_amount"`
	PercentSpent    float64 `json:"percent_spent"`
	BudgetStatus    string  `json:"budget_status"`
}

type BudgetTotalsDTO struct {
	OriginalAmount  float64 `json:"original_amount"`
	RevisedAmount   float64 `json:"revised_amount"`
	ActualSpend     float64 `json:"actual_spend"`
	CommittedCosts  float64 `json:"committed_costs"`
	RemainingAmount float64 `json:"remaining_amount"`
	PercentSpent    float64 `json:"percent_spent"`
	BudgetStatus    string  `json:"budget_status"`
}

// BudgetSummaryDTO is the whole budget tab in one response.
type BudgetSummaryDTO struct {
	ProjectID string          `json:"project_id"`
	Lines     []BudgetLineDTO `json:"lines"`
	Totals    BudgetTotalsDTO `json:"totals"`
}

type CreateBudgetLineRequest struct {
	CategoryName   string  `json:"category_name"`
	OriginalAmount float64 `json:"original_amount"`
	RevisedAmount  float64 `json:"revised_amount"`
	ActualSpend    float64 `json:"actual_spend"`
	CommittedCosts float64 `json:"committed_costs"`
}

// UpdateBudgetLineRequest patches one field at a time (optimistic cell
// edits). Nil means "leave unchanged".
type UpdateBudgetLineRequest struct {
	CategoryName   *string  `json:"category_name,omitempty"`
	OriginalAmount *float64 `json:"original_amount,omitempty"`
	RevisedAmount  *float64 `json:"revised_amount,omitempty"`
	ActualSpend    *float64 `json:"actual_spend,omitempty"`
	CommittedCosts *float64 `json:"committed_costs,omitempty"`
}

// BulkImportRequest carries pasted spreadsheet text.
type BulkImportRequest struct {
	Text string `json:"text"`
}

type BulkImportResponse struct {
	Imported int             `json:"imported"`
	Lines    []BudgetLineDTO `json:"lines"`
	Errors   []RowErrorDTO   `json:"errors,omitempty"`
}

type RowErrorDTO struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

// =============================================================================
// CONTRACTS AND SCHEDULE OF VALUES
// =============================================================================

type ContractDTO struct {
	ID           string  `json:"id"`
	ProjectID    string  `json:"project_id"`
	ContractorID string  `json:"contractor_id"`
	BudgetLineID string  `json:"budget_line_id,omitempty"`
	Description  string  `json:"description,omitempty"`
	Amount       float64 `json:"amount"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at,omitempty"`
}

type CreateContractRequest struct {
	ContractorID string  `json:"contractor_id"`
	BudgetLineID string  `json:"budget_line_id,omitempty"`
	Description  string  `json:"description,omitempty"`
	Amount       float64 `json:"amount"`
	Status       string  `json:"status,omitempty"` // defaults to draft
}

// UpdateContractRequest patches contract fields. Status moves (activate,
// terminate) and link changes re-run committed-cost reconciliation on the
// affected budget lines.
type UpdateContractRequest struct {
	Description  *string  `json:"description,omitempty"`
	Amount       *float64 `json:"amount,omitempty"`
	Status       *string  `json:"status,omitempty"`
	BudgetLineID *string  `json:"budget_line_id,omitempty"`
}

type SOVLineDTO struct {
	ID                      string  `json:"id"`
	ContractID              string  `json:"contract_id"`
	Description             string  `json:"description,omitempty"`
	ScheduledValue          float64 `json:"scheduled_value"`
	ChangeOrderAmount       float64 `json:"change_order_amount"`
	CurrentScheduledValue   float64 `json:"current_scheduled_value"`
	FromPreviousApplication float64 `json:"from_previous_application"`
	DisplayOrder            int     `json:"display_order"`
}

type CreateSOVLineRequest struct {
	Description       string  `json:"description,omitempty"`
	ScheduledValue    float64 `json:"scheduled_value"`
	ChangeOrderAmount float64 `json:"change_order_amount"`
	DisplayOrder      int     `json:"display_order"`
}

type ReorderRequest struct {
	OrderedIDs []string `json:"ordered_ids"`
}

// =============================================================================
// PAYMENT APPLICATIONS
// =============================================================================

// ApplicationRequest proposes a percent-complete per schedule line. Both
// preview and submit take this shape.
type ApplicationRequest struct {
	Percents map[string]float64 `json:"percents"`
	Notes    string             `json:"notes,omitempty"`
}

type ApplicationTotalsDTO struct {
	TotalScheduledValue float64 `json:"total_scheduled_value"`
	TotalPreviousAmount float64 `json:"total_previous_amount"`
	TotalCurrentAmount  float64 `json:"total_current_amount"`
	TotalThisPeriod     float64 `json:"total_this_period"`
}

type LineBillingDTO struct {
	LineID            string  `json:"line_id"`
	CurrentPercent    float64 `json:"current_percent"`
	ThisPeriodPercent float64 `json:"this_period_percent"`
	ThisPeriodAmount  float64 `json:"this_period_amount"`
	PaidToDateAmount  float64 `json:"paid_to_date_amount"`
}

// ValidationResultDTO mirrors payapp.ValidationResult with floats at the
// edge. LineErrors keeps the engine's field-addressable structure so forms
// can highlight the offending rows.
type ValidationResultDTO struct {
	Valid             bool                          `json:"valid"`
	Lines             []LineBillingDTO              `json:"lines,omitempty"`
	Totals            *ApplicationTotalsDTO         `json:"totals,omitempty"`
	LineErrors        map[string][]payapp.LineError `json:"line_errors,omitempty"`
	ApplicationErrors []payapp.LineError            `json:"application_errors,omitempty"`
}

type PaymentApplicationDTO struct {
	ID         string               `json:"id"`
	ContractID string               `json:"contract_id"`
	Status     string               `json:"status"`
	Notes      string               `json:"notes,omitempty"`
	Lines      []LineBillingDTO     `json:"lines"`
	Totals     ApplicationTotalsDTO `json:"totals"`
	CreatedAt  string               `json:"created_at"`
	DecidedAt  string               `json:"decided_at,omitempty"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toProjectDTO(p store.Project) ProjectDTO {
	return ProjectDTO{
		ID: p.ID, Name: p.Name, Client: p.Client, Address: p.Address,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

func toContractorDTO(c store.Contractor) ContractorDTO {
	return ContractorDTO{
		ID: c.ID, Name: c.Name, Trade: c.Trade, Phone: c.Phone, Email: c.Email,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func toBudgetLineDTO(v budget.LineView) BudgetLineDTO {
	return BudgetLineDTO{
		ID:              v.Input.ID,
		ProjectID:       v.Input.ProjectID,
		CategoryName:    v.Input.CategoryName,
		OriginalAmount:  v.Input.OriginalAmount.Float64(),
		RevisedAmount:   v.Input.RevisedAmount.Float64(),
		ActualSpend:     v.Input.ActualSpend.Float64(),
		CommittedCosts:  v.Input.Committed.Amount.Float64(),
		CommittedLocked: !v.Input.Committed.Editable(),
		DisplayOrder:    v.Input.DisplayOrder,
		BaseBudget:      v.BaseBudget.Float64(),
		RemainingAmount: v.RemainingAmount.Float64(),
		PercentSpent:    v.PercentSpent.Float64(),
		BudgetStatus:    string(v.Status),
	}
}

func toBudgetTotalsDTO(t budget.Totals) BudgetTotalsDTO {
	return BudgetTotalsDTO{
		OriginalAmount:  t.OriginalAmount.Float64(),
		RevisedAmount:   t.RevisedAmount.Float64(),
		ActualSpend:     t.ActualSpend.Float64(),
		CommittedCosts:  t.CommittedCosts.Float64(),
		RemainingAmount: t.RemainingAmount.Float64(),
		PercentSpent:    t.PercentSpent.Float64(),
		BudgetStatus:    string(t.Status),
	}
}

func toContractDTO(c store.Contract) ContractDTO {
	return ContractDTO{
		ID: c.ID, ProjectID: c.ProjectID, ContractorID: c.ContractorID,
		BudgetLineID: c.BudgetLineID, Description: c.Description,
		Amount: c.Amount.Float64(), Status: string(c.Status),
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func toSOVLineDTO(l payapp.SOVLine) SOVLineDTO {
	return SOVLineDTO{
		ID:                      l.ID,
		ContractID:              l.ContractID,
		Description:             l.Description,
		ScheduledValue:          l.ScheduledValue.Float64(),
		ChangeOrderAmount:       l.ChangeOrderAmount.Float64(),
		CurrentScheduledValue:   l.CurrentScheduledValue().Float64(),
		FromPreviousApplication: l.FromPrevious.Float64(),
		DisplayOrder:            l.DisplayOrder,
	}
}

func toLineBillingDTO(b payapp.LineBilling) LineBillingDTO {
	return LineBillingDTO{
		LineID:            b.LineID,
		CurrentPercent:    b.CurrentPercent.Float64(),
		ThisPeriodPercent: b.ThisPeriodPercent.Float64(),
		ThisPeriodAmount:  b.ThisPeriodAmount.Float64(),
		PaidToDateAmount:  b.PaidToDateAmount.Float64(),
	}
}

func toApplicationTotalsDTO(t payapp.ApplicationTotals) ApplicationTotalsDTO {
	return ApplicationTotalsDTO{
		TotalScheduledValue: t.TotalScheduledValue.Float64(),
		TotalPreviousAmount: t.TotalPreviousAmount.Float64(),
		TotalCurrentAmount:  t.TotalCurrentAmount.Float64(),
		TotalThisPeriod:     t.TotalThisPeriod.Float64(),
	}
}

func toValidationResultDTO(r payapp.ValidationResult) ValidationResultDTO {
	dto := ValidationResultDTO{
		Valid:             r.Valid,
		LineErrors:        r.LineErrors,
		ApplicationErrors: r.ApplicationErrors,
	}
	if r.Valid {
		for _, b := range r.Lines {
			dto.Lines = append(dto.Lines, toLineBillingDTO(b))
		}
		totals := toApplicationTotalsDTO(r.Totals)
		dto.Totals = &totals
	}
	return dto
}

func toPaymentApplicationDTO(a store.PaymentApplication) PaymentApplicationDTO {
	dto := PaymentApplicationDTO{
		ID:         a.ID,
		ContractID: a.ContractID,
		Status:     string(a.Status),
		Notes:      a.Notes,
		Totals:     toApplicationTotalsDTO(a.Totals),
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
	if a.DecidedAt != nil {
		dto.DecidedAt = a.DecidedAt.Format(time.RFC3339)
	}
	for _, b := range a.Lines {
		dto.Lines = append(dto.Lines, toLineBillingDTO(b))
	}
	return dto
}

func toPercentMap(percents map[string]float64) map[string]money.Percent {
	out := make(map[string]money.Percent, len(percents))
	for id, p := range percents {
		out[id] = money.NewPercent(p)
	}
	return out
}
