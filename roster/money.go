/*
money.go - Nullable monetary values and locale-tolerant parsing

PURPOSE:
  Shift values are money, and "no value" is a real state distinct from zero.
  A vacancy premium of 0 is an intentional business decision; it must never be
  treated as absent and fall through to a lower-precedence rule. Money wraps
  decimal.Decimal with an explicit validity flag (sql.NullX style).

PARSING:
  Admins type values in either convention:
    "800"       -> 800.00
    "800.00"    -> 800.00
    "800,00"    -> 800.00
    "1.234,56"  -> 1234.56
  When a comma is present it is the decimal separator and every period is a
  thousands separator. The integer and two-decimal fractional parts are
  combined through integer-cent arithmetic so no binary float ever holds the
  value.

PRO-RATA:
  The standard shift is 12h. For any other duration d (hours),
  proRata(v, d) = round(v / 12 * d, 2). At exactly 12h the value passes
  through untouched - no rounding pass.

SEE ALSO:
  - value.go: the precedence resolver consuming Money
*/
package roster

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Decimal value with explicit null
// =============================================================================

type Money struct {
	Value decimal.Decimal
	Valid bool
}

// NullMoney is the absent value. Distinct from SomeMoney(decimal.Zero).
func NullMoney() Money { return Money{} }

func SomeMoney(v decimal.Decimal) Money { return Money{Value: v, Valid: true} }

func MoneyFromFloat(v float64) Money { return SomeMoney(decimal.NewFromFloat(v)) }

func MoneyFromInt(v int64) Money { return SomeMoney(decimal.NewFromInt(v)) }

func (m Money) IsZero() bool { return m.Valid && m.Value.IsZero() }

// String renders "800.00" for valid values and "" for null.
func (m Money) String() string {
	if !m.Valid {
		return ""
	}
	return m.Value.StringFixed(2)
}

// =============================================================================
// PARSING - Comma-decimal tolerant, integer-cent arithmetic
// =============================================================================

// ParseMoney parses raw admin input. Empty input is null, not an error.
func ParseMoney(raw string) (Money, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return NullMoney(), nil
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimSpace(s[1:])
	}

	var d decimal.Decimal
	if strings.Contains(s, ",") {
		cents, err := parseCommaDecimalCents(s)
		if err != nil {
			return NullMoney(), err
		}
		d = decimal.New(cents, -2)
	} else {
		var err error
		d, err = decimal.NewFromString(s)
		if err != nil {
			return NullMoney(), fmt.Errorf("%w: value %q", ErrInvalidMoney, raw)
		}
	}

	if negative {
		d = d.Neg()
	}
	return SomeMoney(d), nil
}

// parseCommaDecimalCents handles the comma-decimal convention. Periods are
// thousands separators and are dropped before splitting on the comma. The
// integer part and the first two fractional digits are parsed separately and
// combined as cents, avoiding any float intermediate.
func parseCommaDecimalCents(s string) (int64, error) {
	s = strings.ReplaceAll(s, ".", "")
	parts := strings.SplitN(s, ",", 2)

	intPart := parts[0]
	if intPart == "" {
		intPart = "0"
	}
	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: value %q", ErrInvalidMoney, s)
	}

	fracPart := strings.TrimSpace(parts[1])
	if len(fracPart) > 2 {
		fracPart = fracPart[:2]
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}
	frac, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: value %q", ErrInvalidMoney, s)
	}

	return whole*100 + frac, nil
}

// =============================================================================
// PRO-RATA - Duration scaling against the 12h standard shift
// =============================================================================

// ProRata scales a value for a non-standard shift duration. The 12h standard
// shift passes through exactly, with no rounding applied.
func ProRata(v decimal.Decimal, durationMinutes int) decimal.Decimal {
	if durationMinutes == StandardShiftMinutes {
		return v
	}
	hours := decimal.NewFromInt(int64(durationMinutes)).Div(decimal.NewFromInt(60))
	return v.Div(decimal.NewFromInt(12)).Mul(hours).Round(2)
}
