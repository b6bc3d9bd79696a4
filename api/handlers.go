/*
handlers.go - HTTP API handlers for the construction ops service

PURPOSE:
  Exposes the budget and payment-application engines via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Projects:
    GET    /api/projects                    List projects
    POST   /api/projects                    Create project
    GET    /api/projects/{id}               Get project
    GET    /api/projects/{id}/budget        Budget summary (lines + totals)
    POST   /api/projects/{id}/budget/lines  Create budget line
    POST   /api/projects/{id}/budget/import Bulk import pasted rows
    GET    /api/projects/{id}/contracts     List contracts
    POST   /api/projects/{id}/contracts     Create contract

  Budget lines:
    PATCH  /api/budget-lines/{id}           Edit one field
    DELETE /api/budget-lines/{id}           Delete line

  Contractors:
    GET    /api/contractors                 List contractors
    POST   /api/contractors                 Create contractor

  Contracts:
    GET    /api/contracts/{id}              Get contract
    PATCH  /api/contracts/{id}              Edit fields / change status
    GET    /api/contracts/{id}/sov          List schedule-of-values lines
    POST   /api/contracts/{id}/sov          Add schedule line
    PUT    /api/contracts/{id}/sov/order    Reorder schedule lines
    POST   /api/contracts/{id}/applications/preview  Validate without saving
    POST   /api/contracts/{id}/applications          Validate and submit
    GET    /api/contracts/{id}/applications          List applications

  Applications:
    POST   /api/applications/{id}/approve   Approve, advancing floors
    POST   /api/applications/{id}/reject    Reject, floors untouched

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (budget derivation, application validation)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed input
  - 404: Record not found
  - 409: Conflict (locked committed costs, double decision)
  - 422: Application failed engine validation (body carries the
         field-addressable validation result)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stanton/construction-ops/budget"
	"github.com/stanton/construction-ops/importer"
	"github.com/stanton/construction-ops/money"
	"github.com/stanton/construction-ops/payapp"
	"github.com/stanton/construction-ops/store"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store store.Store
	Log   zerolog.Logger

	// Clock for created_at/decided_at stamps; overridable in tests.
	Now func() time.Time
}

// NewHandler creates a new handler backed by the given store.
func NewHandler(st store.Store, log zerolog.Logger) *Handler {
	return &Handler{
		Store: st,
		Log:   log,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// =============================================================================
// PROJECTS
// =============================================================================

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		h.internalError(w, "Failed to list projects", err)
		return
	}

	dtos := make([]ProjectDTO, 0, len(projects))
	for _, p := range projects {
		dtos = append(dtos, toProjectDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Project name is required", nil)
		return
	}

	p := store.Project{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Client:    req.Client,
		Address:   req.Address,
		CreatedAt: h.Now(),
	}
	if err := h.Store.SaveProject(r.Context(), p); err != nil {
		h.internalError(w, "Failed to create project", err)
		return
	}

	h.Log.Info().Str("project_id", p.ID).Str("name", p.Name).Msg("project created")
	writeJSON(w, http.StatusCreated, toProjectDTO(p))
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.internalError(w, "Failed to get project", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Project not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(*p))
}

// =============================================================================
// BUDGET
// =============================================================================

// GetBudgetSummary reconciles every line against its linked contracts,
// derives per-line views and aggregate totals, and returns the whole tab.
func (h *Handler) GetBudgetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := chi.URLParam(r, "id")

	p, err := h.Store.GetProject(ctx, projectID)
	if err != nil {
		h.internalError(w, "Failed to get project", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Project not found", nil)
		return
	}

	inputs, err := h.Store.ListBudgetLines(ctx, projectID)
	if err != nil {
		h.internalError(w, "Failed to list budget lines", err)
		return
	}

	// Reconcile committed costs against active contract links before
	// deriving, so the summary never shows stale derived values.
	for i, in := range inputs {
		links, err := h.Store.ActiveContractLinks(ctx, in.ID)
		if err != nil {
			h.internalError(w, "Failed to load contract links", err)
			return
		}
		reconciled := budget.ReconcileCommittedCosts(in, links)
		if !reconciled.Committed.Amount.Equal(in.Committed.Amount) ||
			reconciled.Committed.Source != in.Committed.Source {
			if err := h.Store.SaveBudgetLine(ctx, reconciled); err != nil {
				h.internalError(w, "Failed to persist reconciled line", err)
				return
			}
		}
		inputs[i] = reconciled
	}

	views := budget.DeriveLines(inputs)
	totals := budget.AggregateTotals(views)

	summary := BudgetSummaryDTO{
		ProjectID: projectID,
		Lines:     make([]BudgetLineDTO, 0, len(views)),
		Totals:    toBudgetTotalsDTO(totals),
	}
	for _, v := range views {
		summary.Lines = append(summary.Lines, toBudgetLineDTO(v))
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) CreateBudgetLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := chi.URLParam(r, "id")

	var req CreateBudgetLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CategoryName == "" {
		writeError(w, http.StatusBadRequest, "category_name is required", nil)
		return
	}

	existing, err := h.Store.ListBudgetLines(ctx, projectID)
	if err != nil {
		h.internalError(w, "Failed to list budget lines", err)
		return
	}

	line := budget.Clamp(budget.LineInput{
		ID:             uuid.NewString(),
		ProjectID:      projectID,
		CategoryName:   req.CategoryName,
		OriginalAmount: money.New(req.OriginalAmount),
		RevisedAmount:  money.New(req.RevisedAmount),
		ActualSpend:    money.New(req.ActualSpend),
		Committed:      budget.ManualCommitted(money.New(req.CommittedCosts)),
		DisplayOrder:   len(existing) + 1,
	})
	if err := h.Store.SaveBudgetLine(ctx, line); err != nil {
		h.internalError(w, "Failed to save budget line", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetLineDTO(budget.DeriveLine(line)))
}

// UpdateBudgetLine patches individual fields. Committed costs can only be
// edited while manual; once derived from contracts the field is locked.
func (h *Handler) UpdateBudgetLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req UpdateBudgetLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	line, err := h.Store.GetBudgetLine(ctx, id)
	if err != nil {
		h.internalError(w, "Failed to get budget line", err)
		return
	}
	if line == nil {
		writeError(w, http.StatusNotFound, "Budget line not found", nil)
		return
	}

	if req.CategoryName != nil {
		if *req.CategoryName == "" {
			writeError(w, http.StatusBadRequest, "category_name cannot be empty", nil)
			return
		}
		line.CategoryName = *req.CategoryName
	}
	if req.OriginalAmount != nil {
		line.OriginalAmount = money.New(*req.OriginalAmount)
	}
	if req.RevisedAmount != nil {
		line.RevisedAmount = money.New(*req.RevisedAmount)
	}
	if req.ActualSpend != nil {
		line.ActualSpend = money.New(*req.ActualSpend)
	}
	if req.CommittedCosts != nil {
		if !line.Committed.Editable() {
			writeError(w, http.StatusConflict,
				"Committed costs are derived from linked contracts and cannot be edited", nil)
			return
		}
		line.Committed = budget.ManualCommitted(money.New(*req.CommittedCosts))
	}

	updated := budget.Clamp(*line)
	if err := h.Store.SaveBudgetLine(ctx, updated); err != nil {
		h.internalError(w, "Failed to save budget line", err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetLineDTO(budget.DeriveLine(updated)))
}

func (h *Handler) DeleteBudgetLine(w http.ResponseWriter, r *http.Request) {
	err := h.Store.DeleteBudgetLine(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Budget line not found", nil)
		return
	}
	if err != nil {
		h.internalError(w, "Failed to delete budget line", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportBudgetLines parses pasted spreadsheet text and saves the good rows
// atomically. Row-level problems come back alongside the imported lines.
func (h *Handler) ImportBudgetLines(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := chi.URLParam(r, "id")

	var req BulkImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "No rows to import", nil)
		return
	}

	rows, rowErrs := importer.ParseBudgetLines(req.Text)

	existing, err := h.Store.ListBudgetLines(ctx, projectID)
	if err != nil {
		h.internalError(w, "Failed to list budget lines", err)
		return
	}

	order := len(existing)
	for i := range rows {
		order++
		rows[i].ID = uuid.NewString()
		rows[i].ProjectID = projectID
		rows[i].DisplayOrder = order
	}
	if len(rows) > 0 {
		if err := h.Store.SaveBudgetLines(ctx, rows); err != nil {
			h.internalError(w, "Failed to save imported lines", err)
			return
		}
	}

	resp := BulkImportResponse{Imported: len(rows)}
	for _, row := range rows {
		resp.Lines = append(resp.Lines, toBudgetLineDTO(budget.DeriveLine(row)))
	}
	for _, re := range rowErrs {
		resp.Errors = append(resp.Errors, RowErrorDTO{Row: re.Row, Column: re.Column, Message: re.Message})
	}

	h.Log.Info().Str("project_id", projectID).
		Int("imported", len(rows)).Int("skipped", len(rowErrs)).
		Msg("budget import")
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// CONTRACTORS
// =============================================================================

func (h *Handler) ListContractors(w http.ResponseWriter, r *http.Request) {
	contractors, err := h.Store.ListContractors(r.Context())
	if err != nil {
		h.internalError(w, "Failed to list contractors", err)
		return
	}

	dtos := make([]ContractorDTO, 0, len(contractors))
	for _, c := range contractors {
		dtos = append(dtos, toContractorDTO(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateContractor(w http.ResponseWriter, r *http.Request) {
	var req CreateContractorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Contractor name is required", nil)
		return
	}

	c := store.Contractor{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Trade:     req.Trade,
		Phone:     req.Phone,
		Email:     req.Email,
		CreatedAt: h.Now(),
	}
	if err := h.Store.SaveContractor(r.Context(), c); err != nil {
		h.internalError(w, "Failed to create contractor", err)
		return
	}
	writeJSON(w, http.StatusCreated, toContractorDTO(c))
}

// =============================================================================
// CONTRACTS
// =============================================================================

func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	contracts, err := h.Store.ListContracts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.internalError(w, "Failed to list contracts", err)
		return
	}

	dtos := make([]ContractDTO, 0, len(contracts))
	for _, c := range contracts {
		dtos = append(dtos, toContractDTO(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := chi.URLParam(r, "id")

	var req CreateContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	contractor, err := h.Store.GetContractor(ctx, req.ContractorID)
	if err != nil {
		h.internalError(w, "Failed to get contractor", err)
		return
	}
	if contractor == nil {
		writeError(w, http.StatusNotFound, "Contractor not found", nil)
		return
	}

	status := store.ContractStatus(req.Status)
	if status == "" {
		status = store.ContractDraft
	}
	switch status {
	case store.ContractDraft, store.ContractActive, store.ContractTerminated:
	default:
		writeError(w, http.StatusBadRequest, "Invalid contract status", nil)
		return
	}

	c := store.Contract{
		ID:           uuid.NewString(),
		ProjectID:    projectID,
		ContractorID: req.ContractorID,
		BudgetLineID: req.BudgetLineID,
		Description:  req.Description,
		Amount:       money.New(req.Amount),
		Status:       status,
		CreatedAt:    h.Now(),
	}
	if err := h.Store.SaveContract(ctx, c); err != nil {
		h.internalError(w, "Failed to save contract", err)
		return
	}

	// A newly linked active contract moves the line's committed costs from
	// manual to derived. Reconcile now rather than waiting for the next read.
	if c.BudgetLineID != "" {
		if err := h.reconcileLine(ctx, c.BudgetLineID); err != nil {
			h.internalError(w, "Failed to reconcile committed costs", err)
			return
		}
	}

	h.Log.Info().Str("contract_id", c.ID).Str("project_id", projectID).
		Str("budget_line_id", c.BudgetLineID).Msg("contract created")
	writeJSON(w, http.StatusCreated, toContractDTO(c))
}

func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetContract(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.internalError(w, "Failed to get contract", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Contract not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toContractDTO(*c))
}

// UpdateContract patches contract fields. Activating, terminating, relinking
// or repricing a contract re-reconciles the affected budget lines.
func (h *Handler) UpdateContract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req UpdateContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c, err := h.Store.GetContract(ctx, id)
	if err != nil {
		h.internalError(w, "Failed to get contract", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Contract not found", nil)
		return
	}

	previousLineID := c.BudgetLineID

	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Amount != nil {
		c.Amount = money.New(*req.Amount)
	}
	if req.Status != nil {
		status := store.ContractStatus(*req.Status)
		switch status {
		case store.ContractDraft, store.ContractActive, store.ContractTerminated:
			c.Status = status
		default:
			writeError(w, http.StatusBadRequest, "Invalid contract status", nil)
			return
		}
	}
	if req.BudgetLineID != nil {
		c.BudgetLineID = *req.BudgetLineID
	}

	if err := h.Store.SaveContract(ctx, *c); err != nil {
		h.internalError(w, "Failed to save contract", err)
		return
	}

	// Both the old and new linked lines may have gained or lost an active
	// contract.
	for _, lineID := range []string{previousLineID, c.BudgetLineID} {
		if lineID == "" {
			continue
		}
		if err := h.reconcileLine(ctx, lineID); err != nil {
			h.internalError(w, "Failed to reconcile committed costs", err)
			return
		}
	}

	h.Log.Info().Str("contract_id", c.ID).Str("status", string(c.Status)).Msg("contract updated")
	writeJSON(w, http.StatusOK, toContractDTO(*c))
}

func (h *Handler) reconcileLine(ctx context.Context, budgetLineID string) error {
	line, err := h.Store.GetBudgetLine(ctx, budgetLineID)
	if err != nil {
		return err
	}
	if line == nil {
		return nil
	}
	links, err := h.Store.ActiveContractLinks(ctx, budgetLineID)
	if err != nil {
		return err
	}
	return h.Store.SaveBudgetLine(ctx, budget.ReconcileCommittedCosts(*line, links))
}

// =============================================================================
// SCHEDULE OF VALUES
// =============================================================================

func (h *Handler) ListSOVLines(w http.ResponseWriter, r *http.Request) {
	lines, err := h.Store.ListSOVLines(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.internalError(w, "Failed to list schedule lines", err)
		return
	}

	dtos := make([]SOVLineDTO, 0, len(lines))
	for _, l := range lines {
		dtos = append(dtos, toSOVLineDTO(l))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateSOVLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contractID := chi.URLParam(r, "id")

	var req CreateSOVLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ScheduledValue < 0 {
		writeError(w, http.StatusBadRequest, "scheduled_value cannot be negative", nil)
		return
	}

	contract, err := h.Store.GetContract(ctx, contractID)
	if err != nil {
		h.internalError(w, "Failed to get contract", err)
		return
	}
	if contract == nil {
		writeError(w, http.StatusNotFound, "Contract not found", nil)
		return
	}

	order := req.DisplayOrder
	if order == 0 {
		existing, err := h.Store.ListSOVLines(ctx, contractID)
		if err != nil {
			h.internalError(w, "Failed to list schedule lines", err)
			return
		}
		order = len(existing) + 1
	}

	line := payapp.SOVLine{
		ID:                uuid.NewString(),
		ContractID:        contractID,
		Description:       req.Description,
		ScheduledValue:    money.New(req.ScheduledValue),
		ChangeOrderAmount: money.New(req.ChangeOrderAmount),
		FromPrevious:      money.NewPercent(0),
		DisplayOrder:      order,
	}
	if err := h.Store.SaveSOVLine(ctx, line); err != nil {
		h.internalError(w, "Failed to save schedule line", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSOVLineDTO(line))
}

func (h *Handler) ReorderSOVLines(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.OrderedIDs) == 0 {
		writeError(w, http.StatusBadRequest, "ordered_ids is required", nil)
		return
	}

	err := h.Store.ReorderSOVLines(r.Context(), chi.URLParam(r, "id"), req.OrderedIDs)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Schedule line not found on this contract", nil)
		return
	}
	if err != nil {
		h.internalError(w, "Failed to reorder schedule lines", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PAYMENT APPLICATIONS
// =============================================================================

// PreviewApplication validates a proposed application without persisting
// anything. Invalid proposals come back 422 with the full validation result.
func (h *Handler) PreviewApplication(w http.ResponseWriter, r *http.Request) {
	result, ok := h.validateApplication(w, r)
	if !ok {
		return
	}
	if !result.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, toValidationResultDTO(result))
		return
	}
	writeJSON(w, http.StatusOK, toValidationResultDTO(result))
}

// SubmitApplication validates and, if valid, persists the application whole.
// Nothing is saved on a validation failure.
func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contractID := chi.URLParam(r, "id")

	var req ApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	lines, err := h.Store.ListSOVLines(ctx, contractID)
	if err != nil {
		h.internalError(w, "Failed to list schedule lines", err)
		return
	}
	if len(lines) == 0 {
		writeError(w, http.StatusBadRequest, "Contract has no schedule of values", nil)
		return
	}

	result := payapp.ValidateApplication(lines, toPercentMap(req.Percents))
	if !result.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, toValidationResultDTO(result))
		return
	}

	app := store.PaymentApplication{
		ID:         uuid.NewString(),
		ContractID: contractID,
		Status:     store.ApplicationSubmitted,
		Notes:      req.Notes,
		Lines:      result.Lines,
		Totals:     result.Totals,
		CreatedAt:  h.Now(),
	}
	if err := h.Store.SavePaymentApplication(ctx, app); err != nil {
		h.internalError(w, "Failed to save payment application", err)
		return
	}

	h.Log.Info().Str("application_id", app.ID).Str("contract_id", contractID).
		Str("this_period", app.Totals.TotalThisPeriod.String()).
		Msg("payment application submitted")
	writeJSON(w, http.StatusCreated, toPaymentApplicationDTO(app))
}

// validateApplication parses the request and runs engine validation. The
// second return is false when the HTTP response has already been written.
func (h *Handler) validateApplication(w http.ResponseWriter, r *http.Request) (payapp.ValidationResult, bool) {
	ctx := r.Context()
	contractID := chi.URLParam(r, "id")

	var req ApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return payapp.ValidationResult{}, false
	}

	lines, err := h.Store.ListSOVLines(ctx, contractID)
	if err != nil {
		h.internalError(w, "Failed to list schedule lines", err)
		return payapp.ValidationResult{}, false
	}
	if len(lines) == 0 {
		writeError(w, http.StatusBadRequest, "Contract has no schedule of values", nil)
		return payapp.ValidationResult{}, false
	}

	return payapp.ValidateApplication(lines, toPercentMap(req.Percents)), true
}

func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Store.ListPaymentApplications(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.internalError(w, "Failed to list payment applications", err)
		return
	}

	dtos := make([]PaymentApplicationDTO, 0, len(apps))
	for _, a := range apps {
		dtos = append(dtos, toPaymentApplicationDTO(a))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ApproveApplication(w http.ResponseWriter, r *http.Request) {
	h.decideApplication(w, r, h.Store.ApprovePaymentApplication, "approved")
}

func (h *Handler) RejectApplication(w http.ResponseWriter, r *http.Request) {
	h.decideApplication(w, r, h.Store.RejectPaymentApplication, "rejected")
}

func (h *Handler) decideApplication(w http.ResponseWriter, r *http.Request,
	decide func(ctx context.Context, id string, decidedAt time.Time) error, verb string) {

	ctx := r.Context()
	id := chi.URLParam(r, "id")

	err := decide(ctx, id, h.Now())
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Payment application not found", nil)
		return
	}
	if errors.Is(err, store.ErrConflict) {
		writeError(w, http.StatusConflict, "Payment application has already been decided", nil)
		return
	}
	if err != nil {
		h.internalError(w, "Failed to "+verb+" payment application", err)
		return
	}

	app, err := h.Store.GetPaymentApplication(ctx, id)
	if err != nil || app == nil {
		h.internalError(w, "Failed to reload payment application", err)
		return
	}

	h.Log.Info().Str("application_id", id).Str("decision", verb).Msg("payment application decided")
	writeJSON(w, http.StatusOK, toPaymentApplicationDTO(*app))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func (h *Handler) internalError(w http.ResponseWriter, msg string, err error) {
	h.Log.Error().Err(err).Msg(msg)
	writeError(w, http.StatusInternalServerError, msg, err)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
