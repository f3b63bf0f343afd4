package roster_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medroster/shift-engine/roster"
)

// =============================================================================
// PARSING - Comma-decimal and plain forms
// =============================================================================

func TestParseMoney_CommaDecimal(t *testing.T) {
	// GIVEN: Values typed in the comma-decimal convention
	// WHEN: Parsing
	// THEN: Comma is the decimal separator, periods are thousands separators

	cases := []struct {
		raw  string
		want string
	}{
		{"800,00", "800.00"},
		{"1.234,56", "1234.56"},
		{"0,50", "0.50"},
		{"12.345.678,90", "12345678.90"},
		{"-1.234,56", "-1234.56"},
	}
	for _, tc := range cases {
		m, err := roster.ParseMoney(tc.raw)
		require.NoError(t, err, "parse %q", tc.raw)
		assert.True(t, m.Valid)
		assert.Equal(t, tc.want, m.String(), "parse %q", tc.raw)
	}
}

func TestParseMoney_PlainForms(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"800", "800.00"},
		{"800.50", "800.50"},
		{"0", "0.00"},
		{"-42", "-42.00"},
	}
	for _, tc := range cases {
		m, err := roster.ParseMoney(tc.raw)
		require.NoError(t, err, "parse %q", tc.raw)
		assert.Equal(t, tc.want, m.String(), "parse %q", tc.raw)
	}
}

func TestParseMoney_EmptyIsNull(t *testing.T) {
	// GIVEN: An empty raw value
	// WHEN: Parsing
	// THEN: The result is null, NOT zero - the two are distinct states

	m, err := roster.ParseMoney("")
	require.NoError(t, err)
	assert.False(t, m.Valid)
	assert.Equal(t, "", m.String())
}

func TestParseMoney_ZeroIsNotNull(t *testing.T) {
	m, err := roster.ParseMoney("0")
	require.NoError(t, err)
	assert.True(t, m.Valid, "zero is a real value, not absence")
}

func TestParseMoney_Garbage(t *testing.T) {
	for _, raw := range []string{"abc", "x,50", "1,2x", "1..2"} {
		_, err := roster.ParseMoney(raw)
		assert.ErrorIs(t, err, roster.ErrInvalidMoney, "parse %q", raw)
	}
}

// =============================================================================
// PRO-RATA
// =============================================================================

func TestProRata_StandardShiftPassesThroughExactly(t *testing.T) {
	// GIVEN: A value quoted for the standard 12h shift
	// WHEN: Pro-rating a 12h duration
	// THEN: The value passes through untouched - no divide/multiply round trip

	v := decimal.RequireFromString("33.33")
	got := roster.ProRata(v, roster.StandardShiftMinutes)
	assert.True(t, got.Equal(v), "12h must not round-trip through division")
}

func TestProRata_ScalesByHours(t *testing.T) {
	cases := []struct {
		value   string
		minutes int
		want    string
	}{
		{"300", 360, "150"},    // 6h = half
		{"300", 1440, "600"},   // 24h = double
		{"100", 60, "8.33"},    // 1h, rounded to 2 places
		{"0", 360, "0"},        // zero stays zero
	}
	for _, tc := range cases {
		v := decimal.RequireFromString(tc.value)
		got := roster.ProRata(v, tc.minutes)
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
			"ProRata(%s, %dmin) = %s, want %s", tc.value, tc.minutes, got, tc.want)
	}
}
