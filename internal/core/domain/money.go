package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor currency units (paise). It is encoded in JSON
// as a decimal number with two fraction digits, e.g. 13.00.
type Money int64

// MaxMoney bounds the magnitude of any amount the system accepts or computes.
const MaxMoney Money = 1_000_000_000_000

var (
	hundred  = decimal.NewFromInt(100)
	maxMinor = decimal.NewFromInt(int64(MaxMoney))
)

// MoneyFromDecimal converts d to minor units, rounding half away from zero.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	minor := d.Mul(hundred).Round(0)
	if minor.Abs().GreaterThan(maxMinor) {
		return 0, fmt.Errorf("%w: amount %s is out of range", ErrValidation, d.String())
	}
	return Money(minor.IntPart()), nil
}

// ParseMoney parses a decimal amount such as "13.5" or "1.005".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid amount %q", ErrValidation, s)
	}
	return MoneyFromDecimal(d)
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// Times multiplies the amount by a quantity. Callers keep both factors
// within MaxMoney and MaxLineQuantity; ComputeTotal is the checked path.
func (m Money) Times(qty int) Money {
	return m * Money(qty)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("money: %w", err)
	}
	v, err := ParseMoney(string(n))
	if err != nil {
		return fmt.Errorf("money: %w", err)
	}
	*m = v
	return nil
}
