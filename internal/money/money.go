// Package money holds the fixed-point currency type used for AI call costs.
//
// Amounts are whole nanodollars (1e-9 USD). Catalog prices are quoted in
// microdollars per 1,000 tokens, so multiplying a token count by that price
// yields nanodollars with no division and no rounding.
package money

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a USD value in nanodollars.
type Amount int64

const (
	// Nano is the smallest representable amount.
	Nano Amount = 1
	// Micro is one millionth of a dollar.
	Micro Amount = 1_000
	// Cent is one hundredth of a dollar.
	Cent Amount = 10_000_000
	// Dollar is one US dollar.
	Dollar Amount = 1_000_000_000
)

const scale = 9

// PerThousand returns the cost of tokens at pricePer1K. The price must be a
// whole number of microdollars; one thousandth of it is then a whole number
// of nanodollars per token.
func PerThousand(tokens int64, pricePer1K Amount) Amount {
	if tokens <= 0 || pricePer1K <= 0 {
		return 0
	}
	return Amount(tokens) * (pricePer1K / Micro)
}

// FromMicros builds an Amount from a whole number of microdollars.
func FromMicros(micros int64) Amount {
	return Amount(micros) * Micro
}

// Decimal returns the amount in dollars.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -scale)
}

// Float returns the amount in dollars as a float, for charts and ratios only.
func (a Amount) Float() float64 {
	f, _ := a.Decimal().Float64()
	return f
}

// FromDecimal converts a dollar value into an Amount, truncating below one
// nanodollar.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount(d.Shift(scale).Truncate(0).IntPart())
}

// Parse reads a dollar string such as "0.0125".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// String formats the amount in dollars with six decimal places.
func (a Amount) String() string {
	return "$" + a.Decimal().StringFixed(6)
}

// MarshalJSON encodes the amount as a dollar string to keep full precision
// across JSON consumers that parse numbers as floats.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Decimal().String())
}

// UnmarshalJSON accepts either a dollar string or a JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var d decimal.Decimal
		if err := d.UnmarshalJSON(data); err != nil {
			return fmt.Errorf("decoding amount: %w", err)
		}
		*a = FromDecimal(d)
		return nil
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
