package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanton/construction-ops/budget"
	"github.com/stanton/construction-ops/money"
	"github.com/stanton/construction-ops/payapp"
	"github.com/stanton/construction-ops/store"
	"github.com/stanton/construction-ops/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func seedProject(t *testing.T, st *sqlite.Store) store.Project {
	p := store.Project{ID: "proj-1", Name: "Maple Street Renovation", CreatedAt: time.Now().UTC()}
	require.NoError(t, st.SaveProject(context.Background(), p))
	return p
}

func seedContractor(t *testing.T, st *sqlite.Store) store.Contractor {
	c := store.Contractor{ID: "sub-1", Name: "Apex Electric", Trade: "electrical", CreatedAt: time.Now().UTC()}
	require.NoError(t, st.SaveContractor(context.Background(), c))
	return c
}

// =============================================================================
// BUDGET LINES
// =============================================================================

func TestBudgetLine_RoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedProject(t, st)

	line := budget.LineInput{
		ID:             "bl-1",
		ProjectID:      "proj-1",
		CategoryName:   "Electrical",
		OriginalAmount: money.MustParse("120000.50"),
		RevisedAmount:  money.MustParse("125000"),
		ActualSpend:    money.MustParse("30000.25"),
		Committed:      budget.ManualCommitted(money.MustParse("10000")),
		DisplayOrder:   1,
	}
	require.NoError(t, st.SaveBudgetLine(ctx, line))

	got, err := st.GetBudgetLine(ctx, "bl-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	// Decimal strings survive exactly; no float drift through the TEXT column.
	assert.True(t, got.OriginalAmount.Equal(money.MustParse("120000.50")))
	assert.True(t, got.ActualSpend.Equal(money.MustParse("30000.25")))
	assert.Equal(t, budget.CommittedManual, got.Committed.Source)
}

func TestBudgetLine_UpsertOverwrites(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedProject(t, st)

	line := budget.LineInput{ID: "bl-1", ProjectID: "proj-1", CategoryName: "Electrical",
		OriginalAmount: money.New(1000), Committed: budget.ManualCommitted(money.Zero())}
	require.NoError(t, st.SaveBudgetLine(ctx, line))

	line.ActualSpend = money.New(400)
	require.NoError(t, st.SaveBudgetLine(ctx, line))

	got, err := st.GetBudgetLine(ctx, "bl-1")
	require.NoError(t, err)
	assert.True(t, got.ActualSpend.Equal(money.New(400)))
}

func TestBudgetLines_ListOrderedByDisplayOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedProject(t, st)

	require.NoError(t, st.SaveBudgetLines(ctx, []budget.LineInput{
		{ID: "bl-b", ProjectID: "proj-1", CategoryName: "Plumbing", DisplayOrder: 2,
			Committed: budget.ManualCommitted(money.Zero())},
		{ID: "bl-a", ProjectID: "proj-1", CategoryName: "Electrical", DisplayOrder: 1,
			Committed: budget.ManualCommitted(money.Zero())},
	}))

	lines, err := st.ListBudgetLines(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Electrical", lines[0].CategoryName)
	assert.Equal(t, "Plumbing", lines[1].CategoryName)
}

func TestDeleteBudgetLine_MissingIsNotFound(t *testing.T) {
	st := newTestStore(t)
	err := st.DeleteBudgetLine(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// =============================================================================
// CONTRACT LINKS
// =============================================================================

func TestActiveContractLinks_OnlyActiveLinkedContracts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedProject(t, st)
	seedContractor(t, st)

	require.NoError(t, st.SaveBudgetLine(ctx, budget.LineInput{
		ID: "bl-1", ProjectID: "proj-1", CategoryName: "Electrical",
		Committed: budget.ManualCommitted(money.Zero())}))

	save := func(id, lineID string, status store.ContractStatus, amount float64) {
		require.NoError(t, st.SaveContract(ctx, store.Contract{
			ID: id, ProjectID: "proj-1", ContractorID: "sub-1",
			BudgetLineID: lineID, Amount: money.New(amount), Status: status,
			CreatedAt: time.Now().UTC(),
		}))
	}
	save("c-1", "bl-1", store.ContractActive, 40000)
	save("c-2", "bl-1", store.ContractDraft, 99999) // not active, excluded
	save("c-3", "", store.ContractActive, 12345)    // unlinked, excluded

	links, err := st.ActiveContractLinks(ctx, "bl-1")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "c-1", links[0].ContractID)
	assert.True(t, links[0].Amount.Equal(money.New(40000)))
}

// =============================================================================
// PAYMENT APPLICATION LIFECYCLE
// =============================================================================

func seedContractWithSOV(t *testing.T, st *sqlite.Store) {
	ctx := context.Background()
	seedProject(t, st)
	seedContractor(t, st)

	require.NoError(t, st.SaveContract(ctx, store.Contract{
		ID: "c-1", ProjectID: "proj-1", ContractorID: "sub-1",
		Amount: money.New(15000), Status: store.ContractActive, CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, st.SaveSOVLine(ctx, payapp.SOVLine{
		ID: "sov-1", ContractID: "c-1", ScheduledValue: money.New(10000),
		ChangeOrderAmount: money.New(2000), FromPrevious: money.NewPercent(20), DisplayOrder: 1,
	}))
	require.NoError(t, st.SaveSOVLine(ctx, payapp.SOVLine{
		ID: "sov-2", ContractID: "c-1", ScheduledValue: money.New(5000),
		ChangeOrderAmount: money.Zero(), FromPrevious: money.NewPercent(0), DisplayOrder: 2,
	}))
}

func submitApplication(t *testing.T, st *sqlite.Store) store.PaymentApplication {
	ctx := context.Background()

	lines, err := st.ListSOVLines(ctx, "c-1")
	require.NoError(t, err)

	result := payapp.ValidateApplication(lines, map[string]money.Percent{
		"sov-1": money.NewPercent(50),
		"sov-2": money.NewPercent(10),
	})
	require.True(t, result.Valid)

	app := store.PaymentApplication{
		ID:         "app-1",
		ContractID: "c-1",
		Status:     store.ApplicationSubmitted,
		Lines:      result.Lines,
		Totals:     result.Totals,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, st.SavePaymentApplication(ctx, app))
	return app
}

func TestPaymentApplication_RoundTrip(t *testing.T) {
	st := newTestStore(t)
	seedContractWithSOV(t, st)
	submitApplication(t, st)

	got, err := st.GetPaymentApplication(context.Background(), "app-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, store.ApplicationSubmitted, got.Status)
	require.Len(t, got.Lines, 2)
	assert.True(t, got.Totals.TotalThisPeriod.Equal(money.New(4100)))
}

func TestApprove_AdvancesFromPreviousApplication(t *testing.T) {
	// GIVEN: A submitted application billing sov-1 at 50% and sov-2 at 10%
	// WHEN: The application is approved
	// THEN: Each line's from_previous_application floor advances, atomically

	st := newTestStore(t)
	ctx := context.Background()
	seedContractWithSOV(t, st)
	submitApplication(t, st)

	require.NoError(t, st.ApprovePaymentApplication(ctx, "app-1", time.Now().UTC()))

	lines, err := st.ListSOVLines(ctx, "c-1")
	require.NoError(t, err)
	byID := map[string]payapp.SOVLine{}
	for _, l := range lines {
		byID[l.ID] = l
	}
	assert.True(t, byID["sov-1"].FromPrevious.Equal(money.NewPercent(50)))
	assert.True(t, byID["sov-2"].FromPrevious.Equal(money.NewPercent(10)))

	app, err := st.GetPaymentApplication(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, store.ApplicationApproved, app.Status)
	assert.NotNil(t, app.DecidedAt)
}

func TestApprove_Twice_Conflicts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedContractWithSOV(t, st)
	submitApplication(t, st)

	require.NoError(t, st.ApprovePaymentApplication(ctx, "app-1", time.Now().UTC()))
	err := st.ApprovePaymentApplication(ctx, "app-1", time.Now().UTC())
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestReject_LeavesScheduleUntouched(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedContractWithSOV(t, st)
	submitApplication(t, st)

	require.NoError(t, st.RejectPaymentApplication(ctx, "app-1", time.Now().UTC()))

	lines, err := st.ListSOVLines(ctx, "c-1")
	require.NoError(t, err)
	for _, l := range lines {
		if l.ID == "sov-1" {
			assert.True(t, l.FromPrevious.Equal(money.NewPercent(20)), "floor must not move on reject")
		}
	}

	app, err := st.GetPaymentApplication(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, store.ApplicationRejected, app.Status)
}

// =============================================================================
// SOV REORDER
// =============================================================================

func TestReorderSOVLines(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedContractWithSOV(t, st)

	require.NoError(t, st.ReorderSOVLines(ctx, "c-1", []string{"sov-2", "sov-1"}))

	lines, err := st.ListSOVLines(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "sov-2", lines[0].ID)
	assert.Equal(t, "sov-1", lines[1].ID)
}

func TestReorderSOVLines_ForeignLineRejected(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedContractWithSOV(t, st)

	err := st.ReorderSOVLines(ctx, "c-1", []string{"sov-1", "sov-other"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	// The failed reorder must not partially apply.
	lines, err := st.ListSOVLines(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "sov-1", lines[0].ID)
}
