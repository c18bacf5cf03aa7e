// Package money holds prices as whole cents so that line totals, tax and
// deposits are computed without floating point drift.
package money

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// Amount is a price in US cents.
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// FromDollars converts a dollar value to cents, rounding half away from zero.
func FromDollars(d float64) Amount {
	return Amount(math.Round(d * 100))
}

// Cents builds an Amount from a cent count.
func Cents(c int64) Amount {
	return Amount(c)
}

// Dollars returns the amount as a dollar value.
func (a Amount) Dollars() float64 {
	return float64(a) / 100
}

// Mul multiplies the amount by an integer quantity.
func (a Amount) Mul(q int) Amount {
	return a * Amount(q)
}

// ApplyRate returns a*bps/10000 rounded half up to the cent. 1010 bps is 10.1%.
func (a Amount) ApplyRate(bps int64) Amount {
	n := int64(a) * bps
	if n < 0 {
		return Amount(-((-n + 5000) / 10000))
	}
	return Amount((n + 5000) / 10000)
}

// String formats the amount as "$38.50".
func (a Amount) String() string {
	sign := ""
	c := int64(a)
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%d.%02d", sign, c/100, c%100)
}

// MarshalJSON encodes the amount as a decimal dollar number, which is what
// the storefront API and the bundled snapshots use.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(a.Dollars(), 'f', -1, 64)), nil
}

// UnmarshalJSON decodes a dollar number. null decodes to zero.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = Zero
		return nil
	}
	b = bytes.Trim(b, `"`)
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("money: invalid amount %q: %w", string(b), err)
	}
	*a = FromDollars(f)
	return nil
}

// Sum adds up amounts.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total += a
	}
	return total
}
