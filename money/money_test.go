package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanton/construction-ops/money"
)

func TestClampNonNegative(t *testing.T) {
	assert.True(t, money.New(-12.5).ClampNonNegative().IsZero())
	assert.True(t, money.New(12.5).ClampNonNegative().Equal(money.New(12.5)))
	assert.True(t, money.Zero().ClampNonNegative().IsZero())
}

func TestPercentOf(t *testing.T) {
	// 30% of 12,000 = 3,600 exactly, no float drift.
	got := money.NewPercent(30).Of(money.New(12000))
	assert.True(t, got.Equal(money.New(3600)))
}

func TestRatioPercent_ZeroDenominator(t *testing.T) {
	assert.True(t, money.RatioPercent(money.New(500), money.Zero()).IsZero())
	assert.True(t, money.RatioPercent(money.New(500), money.New(-10)).IsZero())
}

func TestRatioPercent(t *testing.T) {
	got := money.RatioPercent(money.New(25), money.New(200))
	assert.True(t, got.Equal(money.NewPercent(12.5)))
}

func TestFromString(t *testing.T) {
	m, err := money.FromString("1234.56")
	require.NoError(t, err)
	assert.True(t, m.Equal(money.New(1234.56)))

	_, err = money.FromString("$1,234")
	assert.Error(t, err, "chrome-laden strings belong to the importer")
}

func TestFormatUSD(t *testing.T) {
	cases := []struct {
		in   money.Money
		want string
	}{
		{money.New(0), "$0.00"},
		{money.New(999), "$999.00"},
		{money.New(1234.5), "$1,234.50"},
		{money.New(1234567.89), "$1,234,567.89"},
		{money.New(-42), "-$42.00"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, money.FormatUSD(tc.in))
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "42.5%", money.FormatPercent(money.NewPercent(42.5)))
	assert.Equal(t, "10.9%", money.FormatPercent(money.NewPercent(10.891)))
	assert.Equal(t, "0%", money.FormatPercent(money.NewPercent(0)))
}
