package importer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanton/construction-ops/budget"
	"github.com/stanton/construction-ops/importer"
	"github.com/stanton/construction-ops/money"
)

// =============================================================================
// PASTED TEXT PARSING
// =============================================================================

func TestParseBudgetLines_TabSeparated(t *testing.T) {
	// What Sheets puts on the clipboard: tabs, currency chrome, blank line.
	text := "Electrical\t$120,000\t\t$30,000\t$10,000\n" +
		"\n" +
		"Plumbing\t85000\n"

	lines, errs := importer.ParseBudgetLines(text)

	require.Empty(t, errs)
	require.Len(t, lines, 2)

	assert.Equal(t, "Electrical", lines[0].CategoryName)
	assert.True(t, lines[0].OriginalAmount.Equal(money.New(120000)))
	assert.True(t, lines[0].RevisedAmount.IsZero())
	assert.True(t, lines[0].ActualSpend.Equal(money.New(30000)))
	assert.True(t, lines[0].Committed.Amount.Equal(money.New(10000)))

	assert.Equal(t, "Plumbing", lines[1].CategoryName)
	assert.True(t, lines[1].OriginalAmount.Equal(money.New(85000)))
	assert.True(t, lines[1].ActualSpend.IsZero())
}

func TestParseBudgetLines_CommaSeparatedWithQuotes(t *testing.T) {
	text := `"Site Work, Phase 1","50,000",,"12,500"` + "\n" +
		`Concrete,30000` + "\n"

	lines, errs := importer.ParseBudgetLines(text)

	require.Empty(t, errs)
	require.Len(t, lines, 2)
	assert.Equal(t, "Site Work, Phase 1", lines[0].CategoryName)
	assert.True(t, lines[0].OriginalAmount.Equal(money.New(50000)))
	assert.True(t, lines[0].ActualSpend.Equal(money.New(12500)))
}

func TestParseBudgetLines_HeaderRowSkipped(t *testing.T) {
	text := "Category\tOriginal\tRevised\n" +
		"Roofing\t40000\t45000\n"

	lines, errs := importer.ParseBudgetLines(text)

	require.Empty(t, errs)
	require.Len(t, lines, 1)
	assert.Equal(t, "Roofing", lines[0].CategoryName)
	assert.True(t, lines[0].RevisedAmount.Equal(money.New(45000)))
}

func TestParseBudgetLines_BadRowsReportedGoodRowsKept(t *testing.T) {
	text := "Electrical\t100000\n" +
		"Plumbing\tnot-a-number\n" +
		"\t50000\n" + // missing category
		"Concrete\t30000\n"

	lines, errs := importer.ParseBudgetLines(text)

	require.Len(t, lines, 2)
	require.Len(t, errs, 2)
	assert.Equal(t, 2, errs[0].Row)
	assert.Equal(t, "original_amount", errs[0].Column)
	assert.Equal(t, 3, errs[1].Row)
	assert.Equal(t, "category_name", errs[1].Column)
}

func TestParseBudgetLines_NegativeAmountsClamped(t *testing.T) {
	// Parenthesized negatives parse as negative, then the engine boundary
	// clamp zeroes them - same rule as single-row input.
	text := "Allowance\t(5,000)\n"

	lines, errs := importer.ParseBudgetLines(text)

	require.Empty(t, errs)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].OriginalAmount.IsZero())
}

func TestParseBudgetLines_EmptyInput(t *testing.T) {
	lines, errs := importer.ParseBudgetLines("  \n\n  ")

	assert.Empty(t, lines)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "no rows")
}

func TestParseBudgetLines_ImportedRowsAreManualCommitted(t *testing.T) {
	lines, errs := importer.ParseBudgetLines("Electrical\t100000\t\t\t9000\n")

	require.Empty(t, errs)
	require.Len(t, lines, 1)
	assert.Equal(t, budget.CommittedManual, lines[0].Committed.Source)
	assert.True(t, lines[0].Committed.Editable())
}

// =============================================================================
// AMOUNT PARSING
// =============================================================================

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in   string
		want money.Money
	}{
		{"1234.56", money.New(1234.56)},
		{"$1,234.56", money.New(1234.56)},
		{" 42 ", money.New(42)},
		{"(500)", money.New(-500)},
		{"($1,500.25)", money.New(-1500.25)},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := importer.ParseMoney(tc.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(tc.want), "got %s want %s", got, tc.want)
		})
	}
}

func TestParseMoney_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "$", "1.2.3"} {
		t.Run(in, func(t *testing.T) {
			_, err := importer.ParseMoney(in)
			assert.Error(t, err)
		})
	}
}
