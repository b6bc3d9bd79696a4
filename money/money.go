/*
Package money provides the monetary and percentage primitives shared by the
budget and payment engines.

PURPOSE:
  Every dollar figure and every percent-complete value in the system flows
  through these types. They exist so that:
  - All arithmetic uses decimal.Decimal (no float drift in ledger math)
  - Negative monetary input is clamped to zero at the boundary, once,
    instead of ad hoc in every caller
  - Ratio/percent math has a single divide-by-zero policy (zero denominator
    yields zero, never a panic or a spurious "over budget")

KEY TYPES:
  Money:   A non-unit dollar quantity. Single currency by design.
  Percent: A 0-100 style percentage (percent-complete, percent-spent).

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere, floats only at the JSON edge
  2. Boundary clamping: ClampNonNegative is the documented home of the
     non-negative-money rule; engines assume already-clamped inputs
  3. Value semantics: all types are small immutable values

SEE ALSO:
  - budget/derive.go: consumes these for budget-line derivation
  - payapp/billing.go: consumes these for percent-of-completion billing
*/
package money

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Single-currency dollar quantity
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func Zero() Money                 { return Money{Value: decimal.Zero} }
func New(value float64) Money     { return Money{Value: decimal.NewFromFloat(value)} }
func FromDecimal(d decimal.Decimal) Money { return Money{Value: d} }

// FromString parses a plain decimal string ("1234.56"). For user-pasted
// strings with currency chrome, see importer.ParseMoney.
func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Value: d}, nil
}

// MustParse is for constants and tests only.
func MustParse(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{Value: decimal.Zero}
	}
	return Money{Value: d}
}

func (m Money) Add(o Money) Money       { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money       { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Neg() Money              { return Money{Value: m.Value.Neg()} }
func (m Money) IsNegative() bool        { return m.Value.IsNegative() }
func (m Money) IsZero() bool            { return m.Value.IsZero() }
func (m Money) IsPositive() bool        { return m.Value.IsPositive() }
func (m Money) Cmp(o Money) int         { return m.Value.Cmp(o.Value) }
func (m Money) GreaterThan(o Money) bool { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool   { return m.Value.LessThan(o.Value) }
func (m Money) Equal(o Money) bool      { return m.Value.Equal(o.Value) }

// ClampNonNegative enforces the non-negative-money invariant. Numeric form
// inputs can transiently produce negatives mid-edit; the policy is to clamp
// at the boundary rather than reject.
func (m Money) ClampNonNegative() Money {
	if m.Value.IsNegative() {
		return Zero()
	}
	return m
}

func (m Money) Float64() float64 {
	f, _ := m.Value.Float64()
	return f
}

func (m Money) String() string { return m.Value.String() }

// =============================================================================
// PERCENT - 0-100 style percentage
// =============================================================================

type Percent struct {
	Value decimal.Decimal
}

func NewPercent(value float64) Percent          { return Percent{Value: decimal.NewFromFloat(value)} }
func PercentFromDecimal(d decimal.Decimal) Percent { return Percent{Value: d} }

var hundred = decimal.NewFromInt(100)

func (p Percent) Add(o Percent) Percent    { return Percent{Value: p.Value.Add(o.Value)} }
func (p Percent) Sub(o Percent) Percent    { return Percent{Value: p.Value.Sub(o.Value)} }
func (p Percent) IsNegative() bool         { return p.Value.IsNegative() }
func (p Percent) IsZero() bool             { return p.Value.IsZero() }
func (p Percent) Cmp(o Percent) int        { return p.Value.Cmp(o.Value) }
func (p Percent) GreaterThan(o Percent) bool { return p.Value.GreaterThan(o.Value) }
func (p Percent) LessThan(o Percent) bool  { return p.Value.LessThan(o.Value) }
func (p Percent) Equal(o Percent) bool     { return p.Value.Equal(o.Value) }

// Of returns p percent of m (m * p / 100).
func (p Percent) Of(m Money) Money {
	return Money{Value: m.Value.Mul(p.Value).Div(hundred)}
}

func (p Percent) Float64() float64 {
	f, _ := p.Value.Float64()
	return f
}

func (p Percent) String() string { return p.Value.String() }

// RatioPercent returns num/den expressed as a percent. A zero or negative
// denominator yields zero percent; an unfunded line must never show a
// spurious percent-spent from a divide-by-zero.
func RatioPercent(num, den Money) Percent {
	if !den.IsPositive() {
		return Percent{Value: decimal.Zero}
	}
	return Percent{Value: num.Value.Div(den.Value).Mul(hundred)}
}

// Ratio returns num/den as a plain decimal, zero when den <= 0. Used by the
// budget status thresholds.
func Ratio(num, den Money) decimal.Decimal {
	if !den.IsPositive() {
		return decimal.Zero
	}
	return num.Value.Div(den.Value)
}
