package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanton/construction-ops/budget"
	"github.com/stanton/construction-ops/money"
	"github.com/stanton/construction-ops/payapp"
	"github.com/stanton/construction-ops/store"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

func newTestAPI(t *testing.T) (*chiHarness, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	h := NewHandler(mem, zerolog.Nop())
	h.Now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return &chiHarness{router: NewRouter(h, []string{"*"})}, mem
}

type chiHarness struct {
	router http.Handler
}

func (c *chiHarness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

// =============================================================================
// PROJECTS AND BUDGET
// =============================================================================

func TestCreateProject_ThenBudgetSummary(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/projects", CreateProjectRequest{Name: "Maple Street Renovation"})
	require.Equal(t, http.StatusCreated, rec.Code)
	project := decode[ProjectDTO](t, rec)

	rec = api.do(t, http.MethodPost, "/api/projects/"+project.ID+"/budget/lines", CreateBudgetLineRequest{
		CategoryName:   "Electrical",
		OriginalAmount: 100000,
		ActualSpend:    40000,
		CommittedCosts: 20000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/projects/"+project.ID+"/budget", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[BudgetSummaryDTO](t, rec)

	require.Len(t, summary.Lines, 1)
	line := summary.Lines[0]
	assert.InDelta(t, 100000, line.BaseBudget, 0.001)
	assert.InDelta(t, 40000, line.RemainingAmount, 0.001)
	assert.Equal(t, "On Track", line.BudgetStatus)
	assert.InDelta(t, 40000, summary.Totals.RemainingAmount, 0.001)
}

func TestBudgetSummary_StatusThresholds(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/projects", CreateProjectRequest{Name: "Test"})
	project := decode[ProjectDTO](t, rec)

	cases := []struct {
		name      string
		actual    float64
		committed float64
		want      string
	}{
		{"on track", 50000, 10000, "On Track"},
		{"warning at 90 percent", 80000, 10000, "Warning"},
		{"critical at 100 percent", 90000, 10000, "Critical"},
		{"over budget past 105 percent", 100000, 10000, "Over Budget"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/api/projects/"+project.ID+"/budget/lines", CreateBudgetLineRequest{
				CategoryName:   tc.name,
				OriginalAmount: 100000,
				ActualSpend:    tc.actual,
				CommittedCosts: tc.committed,
			})
			require.Equal(t, http.StatusCreated, rec.Code)
			line := decode[BudgetLineDTO](t, rec)
			assert.Equal(t, tc.want, line.BudgetStatus)
		})
	}
}

func TestUpdateBudgetLine_PatchesSingleField(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/projects", CreateProjectRequest{Name: "Test"})
	project := decode[ProjectDTO](t, rec)

	rec = api.do(t, http.MethodPost, "/api/projects/"+project.ID+"/budget/lines", CreateBudgetLineRequest{
		CategoryName: "Plumbing", OriginalAmount: 50000,
	})
	line := decode[BudgetLineDTO](t, rec)

	spend := 12500.0
	rec = api.do(t, http.MethodPatch, "/api/budget-lines/"+line.ID, UpdateBudgetLineRequest{ActualSpend: &spend})
	require.Equal(t, http.StatusOK, rec.Code)

	updated := decode[BudgetLineDTO](t, rec)
	assert.InDelta(t, 12500, updated.ActualSpend, 0.001)
	assert.InDelta(t, 50000, updated.OriginalAmount, 0.001) // untouched
}

func TestUpdateBudgetLine_CommittedLockedWhenDerived(t *testing.T) {
	// GIVEN: A budget line whose committed costs derive from an active contract
	// WHEN: A client tries to edit committed_costs directly
	// THEN: The edit is rejected with 409

	api, mem := newTestAPI(t)
	ctx := context.Background()

	require.NoError(t, mem.SaveBudgetLine(ctx, budget.LineInput{
		ID: "bl-1", ProjectID: "proj-1", CategoryName: "Electrical",
		OriginalAmount: money.New(100000),
		Committed:      budget.ContractCommitted(money.New(40000)),
	}))

	committed := 99.0
	rec := api.do(t, http.MethodPatch, "/api/budget-lines/bl-1", UpdateBudgetLineRequest{CommittedCosts: &committed})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateContract_ReconcilesLinkedLine(t *testing.T) {
	api, mem := newTestAPI(t)
	ctx := context.Background()

	rec := api.do(t, http.MethodPost, "/api/projects", CreateProjectRequest{Name: "Test"})
	project := decode[ProjectDTO](t, rec)

	rec = api.do(t, http.MethodPost, "/api/contractors", CreateContractorRequest{Name: "Apex Electric", Trade: "electrical"})
	require.Equal(t, http.StatusCreated, rec.Code)
	contractor := decode[ContractorDTO](t, rec)

	require.NoError(t, mem.SaveBudgetLine(ctx, budget.LineInput{
		ID: "bl-1", ProjectID: project.ID, CategoryName: "Electrical",
		OriginalAmount: money.New(100000),
		Committed:      budget.ManualCommitted(money.New(5000)),
	}))

	rec = api.do(t, http.MethodPost, "/api/projects/"+project.ID+"/contracts", CreateContractRequest{
		ContractorID: contractor.ID,
		BudgetLineID: "bl-1",
		Amount:       40000,
		Status:       "active",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// The manual committed value is replaced by the contract sum and locked.
	line, err := mem.GetBudgetLine(ctx, "bl-1")
	require.NoError(t, err)
	assert.True(t, line.Committed.Amount.Equal(money.New(40000)))
	assert.Equal(t, budget.CommittedFromContracts, line.Committed.Source)
}

func TestTerminateContract_RevertsCommittedToManual(t *testing.T) {
	// GIVEN: A budget line whose committed costs derive from one active contract
	// WHEN: That contract is terminated
	// THEN: The amount is kept but the field becomes manual (editable) again

	api, mem := newTestAPI(t)
	ctx := context.Background()

	rec := api.do(t, http.MethodPost, "/api/projects", CreateProjectRequest{Name: "Test"})
	project := decode[ProjectDTO](t, rec)

	rec = api.do(t, http.MethodPost, "/api/contractors", CreateContractorRequest{Name: "Apex"})
	contractor := decode[ContractorDTO](t, rec)

	require.NoError(t, mem.SaveBudgetLine(ctx, budget.LineInput{
		ID: "bl-1", ProjectID: project.ID, CategoryName: "Electrical",
		OriginalAmount: money.New(100000),
		Committed:      budget.ManualCommitted(money.Zero()),
	}))

	rec = api.do(t, http.MethodPost, "/api/projects/"+project.ID+"/contracts", CreateContractRequest{
		ContractorID: contractor.ID, BudgetLineID: "bl-1", Amount: 40000, Status: "active",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	contract := decode[ContractDTO](t, rec)

	terminated := "terminated"
	rec = api.do(t, http.MethodPatch, "/api/contracts/"+contract.ID, UpdateContractRequest{Status: &terminated})
	require.Equal(t, http.StatusOK, rec.Code)

	line, err := mem.GetBudgetLine(ctx, "bl-1")
	require.NoError(t, err)
	assert.Equal(t, budget.CommittedManual, line.Committed.Source)
	assert.True(t, line.Committed.Amount.Equal(money.New(40000)), "amount stays visible after unlink")
}

// =============================================================================
// BULK IMPORT
// =============================================================================

func TestImportBudgetLines_GoodAndBadRows(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/projects", CreateProjectRequest{Name: "Test"})
	project := decode[ProjectDTO](t, rec)

	text := "Electrical\t$100,000.00\t\t$40,000\t$20,000\n" +
		"\t4500\n" + // missing category
		"Plumbing\t50000\n"

	rec = api.do(t, http.MethodPost, "/api/projects/"+project.ID+"/budget/import", BulkImportRequest{Text: text})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[BulkImportResponse](t, rec)
	assert.Equal(t, 2, resp.Imported)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, 2, resp.Errors[0].Row)

	// Imported rows land in the summary.
	rec = api.do(t, http.MethodGet, "/api/projects/"+project.ID+"/budget", nil)
	summary := decode[BudgetSummaryDTO](t, rec)
	require.Len(t, summary.Lines, 2)
	assert.Equal(t, "Electrical", summary.Lines[0].CategoryName)
}

func TestImportBudgetLines_EmptyText(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/projects", CreateProjectRequest{Name: "Test"})
	project := decode[ProjectDTO](t, rec)

	rec = api.do(t, http.MethodPost, "/api/projects/"+project.ID+"/budget/import", BulkImportRequest{Text: "  \n\n "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// PAYMENT APPLICATIONS
// =============================================================================

func seedContractWithSOV(t *testing.T, mem *store.Memory) (contractID string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, mem.SaveProject(ctx, store.Project{ID: "proj-1", Name: "Test", CreatedAt: time.Now()}))
	require.NoError(t, mem.SaveContractor(ctx, store.Contractor{ID: "sub-1", Name: "Apex", CreatedAt: time.Now()}))
	require.NoError(t, mem.SaveContract(ctx, store.Contract{
		ID: "c-1", ProjectID: "proj-1", ContractorID: "sub-1",
		Amount: money.New(15000), Status: store.ContractActive, CreatedAt: time.Now(),
	}))
	require.NoError(t, mem.SaveSOVLine(ctx, payapp.SOVLine{
		ID: "sov-1", ContractID: "c-1",
		ScheduledValue:    money.New(10000),
		ChangeOrderAmount: money.New(2000),
		FromPrevious:      money.NewPercent(20),
		DisplayOrder:      1,
	}))
	require.NoError(t, mem.SaveSOVLine(ctx, payapp.SOVLine{
		ID: "sov-2", ContractID: "c-1",
		ScheduledValue: money.New(5000),
		DisplayOrder:   2,
	}))
	return "c-1"
}

func TestPreviewApplication_ValidDoesNotPersist(t *testing.T) {
	api, mem := newTestAPI(t)
	contractID := seedContractWithSOV(t, mem)

	rec := api.do(t, http.MethodPost, "/api/contracts/"+contractID+"/applications/preview", ApplicationRequest{
		Percents: map[string]float64{"sov-1": 50, "sov-2": 10},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	result := decode[ValidationResultDTO](t, rec)
	assert.True(t, result.Valid)
	require.NotNil(t, result.Totals)
	// sov-1: 30% of 12000 = 3600; sov-2: 10% of 5000 = 500
	assert.InDelta(t, 4100, result.Totals.TotalThisPeriod, 0.001)

	apps, err := mem.ListPaymentApplications(context.Background(), contractID)
	require.NoError(t, err)
	assert.Empty(t, apps, "preview must not save anything")
}

func TestSubmitApplication_RegressionRejected422(t *testing.T) {
	api, mem := newTestAPI(t)
	contractID := seedContractWithSOV(t, mem)

	rec := api.do(t, http.MethodPost, "/api/contracts/"+contractID+"/applications", ApplicationRequest{
		Percents: map[string]float64{"sov-1": 15, "sov-2": 10},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	result := decode[ValidationResultDTO](t, rec)
	assert.False(t, result.Valid)
	require.Contains(t, result.LineErrors, "sov-1")
	assert.Equal(t, "regression", string(result.LineErrors["sov-1"][0].Code))

	apps, err := mem.ListPaymentApplications(context.Background(), contractID)
	require.NoError(t, err)
	assert.Empty(t, apps, "invalid submission must not save anything")
}

func TestSubmitApplication_NoProgressRejected(t *testing.T) {
	api, mem := newTestAPI(t)
	contractID := seedContractWithSOV(t, mem)

	// Same percents as the existing floors: nothing billed this period.
	rec := api.do(t, http.MethodPost, "/api/contracts/"+contractID+"/applications", ApplicationRequest{
		Percents: map[string]float64{"sov-1": 20, "sov-2": 0},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	result := decode[ValidationResultDTO](t, rec)
	require.Len(t, result.ApplicationErrors, 1)
	assert.Equal(t, "no_progress", string(result.ApplicationErrors[0].Code))
}

func TestSubmitThenApprove_AdvancesFloors(t *testing.T) {
	api, mem := newTestAPI(t)
	contractID := seedContractWithSOV(t, mem)

	rec := api.do(t, http.MethodPost, "/api/contracts/"+contractID+"/applications", ApplicationRequest{
		Percents: map[string]float64{"sov-1": 50, "sov-2": 10},
		Notes:    "June billing",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	app := decode[PaymentApplicationDTO](t, rec)
	assert.Equal(t, "submitted", app.Status)

	rec = api.do(t, http.MethodPost, "/api/applications/"+app.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decided := decode[PaymentApplicationDTO](t, rec)
	assert.Equal(t, "approved", decided.Status)
	assert.NotEmpty(t, decided.DecidedAt)

	rec = api.do(t, http.MethodGet, "/api/contracts/"+contractID+"/sov", nil)
	lines := decode[[]SOVLineDTO](t, rec)
	byID := map[string]SOVLineDTO{}
	for _, l := range lines {
		byID[l.ID] = l
	}
	assert.InDelta(t, 50, byID["sov-1"].FromPreviousApplication, 0.001)
	assert.InDelta(t, 10, byID["sov-2"].FromPreviousApplication, 0.001)
}

func TestApproveTwice_Conflicts(t *testing.T) {
	api, mem := newTestAPI(t)
	contractID := seedContractWithSOV(t, mem)

	rec := api.do(t, http.MethodPost, "/api/contracts/"+contractID+"/applications", ApplicationRequest{
		Percents: map[string]float64{"sov-1": 50},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	app := decode[PaymentApplicationDTO](t, rec)

	rec = api.do(t, http.MethodPost, "/api/applications/"+app.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/applications/"+app.ID+"/approve", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRejectApplication_FloorsUntouched(t *testing.T) {
	api, mem := newTestAPI(t)
	contractID := seedContractWithSOV(t, mem)

	rec := api.do(t, http.MethodPost, "/api/contracts/"+contractID+"/applications", ApplicationRequest{
		Percents: map[string]float64{"sov-1": 50},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	app := decode[PaymentApplicationDTO](t, rec)

	rec = api.do(t, http.MethodPost, "/api/applications/"+app.ID+"/reject", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/contracts/"+contractID+"/sov", nil)
	lines := decode[[]SOVLineDTO](t, rec)
	for _, l := range lines {
		if l.ID == "sov-1" {
			assert.InDelta(t, 20, l.FromPreviousApplication, 0.001, "floor must not move on reject")
		}
	}
}

func TestApplication_UnknownContractOrLine(t *testing.T) {
	api, mem := newTestAPI(t)
	contractID := seedContractWithSOV(t, mem)

	rec := api.do(t, http.MethodPost, "/api/contracts/nope/applications", ApplicationRequest{
		Percents: map[string]float64{"sov-1": 50},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code) // no schedule of values

	rec = api.do(t, http.MethodPost, "/api/contracts/"+contractID+"/applications", ApplicationRequest{
		Percents: map[string]float64{"sov-1": 50, "mystery": 10},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	result := decode[ValidationResultDTO](t, rec)
	require.Contains(t, result.LineErrors, "mystery")
	assert.Equal(t, "unknown_line", string(result.LineErrors["mystery"][0].Code))
}

// =============================================================================
// SCHEDULE OF VALUES
// =============================================================================

func TestCreateAndReorderSOVLines(t *testing.T) {
	api, mem := newTestAPI(t)
	contractID := seedContractWithSOV(t, mem)

	rec := api.do(t, http.MethodPost, "/api/contracts/"+contractID+"/sov", CreateSOVLineRequest{
		Description:    "Rough-in",
		ScheduledValue: 3000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[SOVLineDTO](t, rec)
	assert.Equal(t, 3, created.DisplayOrder)
	assert.InDelta(t, 0, created.FromPreviousApplication, 0.001)

	rec = api.do(t, http.MethodPut, "/api/contracts/"+contractID+"/sov/order", ReorderRequest{
		OrderedIDs: []string{created.ID, "sov-1", "sov-2"},
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/contracts/"+contractID+"/sov", nil)
	lines := decode[[]SOVLineDTO](t, rec)
	require.Len(t, lines, 3)
	assert.Equal(t, created.ID, lines[0].ID)
}
