/*
Package importer turns pasted spreadsheet text into budget line inputs.

PURPOSE:
  Back-office users paste ranges straight out of Excel or Sheets. This
  package parses that text (tab or comma separated) into budget.LineInput
  rows, tolerating the chrome real spreadsheets carry: currency symbols,
  thousands separators, parenthesized negatives, blank lines, and an
  optional header row.

COLUMN LAYOUT:
  category_name, original_amount [, revised_amount [, actual_spend
  [, committed_costs]]]

  Only the first two columns are required. Missing trailing columns default
  to zero, and the engine's clamping/derivation rules then apply identically
  to bulk and single-row input.

FAILURE SEMANTICS:
  Parsing never aborts the batch. Each bad row becomes a RowError carrying
  the 1-based row number, so a form can highlight exactly the offending
  pasted lines while the good rows import.

SEE ALSO:
  - budget/derive.go: Clamping and derivation applied after parsing
*/
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stanton/construction-ops/budget"
	"github.com/stanton/construction-ops/money"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrEmptyInput      = errors.New("no rows to import")
	ErrMissingCategory = errors.New("category name is required")
	ErrBadAmount       = errors.New("unparseable amount")
)

// RowError reports a parse failure for one pasted row.
type RowError struct {
	Row     int    `json:"row"` // 1-based, counting non-blank rows as pasted
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// =============================================================================
// PARSING
// =============================================================================

var amountColumns = []string{"original_amount", "revised_amount", "actual_spend", "committed_costs"}

// ParseBudgetLines parses pasted spreadsheet text into budget line inputs.
// Returns the successfully parsed rows plus a RowError per failed row.
// A header row ("category", "original", ...) is detected and skipped.
func ParseBudgetLines(text string) ([]budget.LineInput, []RowError) {
	records := splitRecords(text)
	if len(records) == 0 {
		return nil, []RowError{{Row: 0, Message: ErrEmptyInput.Error()}}
	}

	var (
		lines []budget.LineInput
		errs  []RowError
	)

	for i, fields := range records {
		rowNum := i + 1
		if i == 0 && looksLikeHeader(fields) {
			continue
		}

		in, rowErrs := parseRow(rowNum, fields)
		if len(rowErrs) > 0 {
			errs = append(errs, rowErrs...)
			continue
		}
		lines = append(lines, in)
	}

	return lines, errs
}

func parseRow(rowNum int, fields []string) (budget.LineInput, []RowError) {
	var errs []RowError

	category := strings.TrimSpace(fields[0])
	if category == "" {
		errs = append(errs, RowError{Row: rowNum, Column: "category_name", Message: ErrMissingCategory.Error()})
	}

	amounts := make([]money.Money, len(amountColumns))
	for j := range amounts {
		amounts[j] = money.Zero()
		col := j + 1
		if col >= len(fields) {
			continue
		}
		raw := strings.TrimSpace(fields[col])
		if raw == "" {
			continue
		}
		m, err := ParseMoney(raw)
		if err != nil {
			errs = append(errs, RowError{
				Row:     rowNum,
				Column:  amountColumns[j],
				Message: fmt.Sprintf("%s: %q", ErrBadAmount.Error(), raw),
			})
			continue
		}
		amounts[j] = m
	}

	if len(errs) > 0 {
		return budget.LineInput{}, errs
	}

	return budget.Clamp(budget.LineInput{
		CategoryName:   category,
		OriginalAmount: amounts[0],
		RevisedAmount:  amounts[1],
		ActualSpend:    amounts[2],
		Committed:      budget.ManualCommitted(amounts[3]),
	}), nil
}

// splitRecords parses the pasted text with the detected delimiter. Blank
// lines are dropped; quoted fields (commas inside quotes) are respected.
func splitRecords(text string) [][]string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(strings.Trim(line, "\r")) != "" {
			kept = append(kept, strings.Trim(line, "\r"))
		}
	}
	if len(kept) == 0 {
		return nil
	}

	r := csv.NewReader(strings.NewReader(strings.Join(kept, "\n")))
	r.Comma = detectDelimiter(kept[0])
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		// Fall back to naive splitting; per-row errors surface downstream.
		records = records[:0]
		for _, line := range kept {
			records = append(records, strings.Split(line, string(detectDelimiter(line))))
		}
	}
	return records
}

// detectDelimiter prefers tabs (what spreadsheets put on the clipboard) and
// falls back to commas.
func detectDelimiter(firstLine string) rune {
	if strings.ContainsRune(firstLine, '\t') {
		return '\t'
	}
	return ','
}

func looksLikeHeader(fields []string) bool {
	if len(fields) < 2 {
		return false
	}
	// A header's amount columns aren't numeric.
	for _, f := range fields[1:] {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, err := ParseMoney(f); err == nil {
			return false
		}
	}
	return true
}

// =============================================================================
// AMOUNT PARSING
// =============================================================================

// ParseMoney parses a spreadsheet-flavored amount: "$1,234.56", "1 234",
// "(500)" for a negative. The engine's boundary clamp decides what to do
// with negatives; this function just reports what was typed.
func ParseMoney(raw string) (money.Money, error) {
	s := strings.TrimSpace(raw)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "").Replace(s)
	if s == "" {
		return money.Money{}, ErrBadAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return money.Money{}, fmt.Errorf("%w: %q", ErrBadAmount, raw)
	}
	if negative {
		d = d.Neg()
	}
	return money.FromDecimal(d), nil
}
