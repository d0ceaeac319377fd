// Package core holds the billing domain: invoice valuation, tax
// splitting, and the aggregations behind the dashboard. Everything in
// this package is a pure function over value types; persistence and
// presentation live elsewhere.
package core

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a decimal money or quantity value with lenient decoding.
//
// Records arrive from forms and previously exported JSON where numeric
// fields may be a number, a numeric string, null, or missing entirely.
// Amount coerces all of those: anything that does not parse as a
// decimal becomes zero. Decoding never fails, so every computation in
// this package is total over its inputs.
type Amount struct {
	dec decimal.Decimal
}

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

func Zero() Amount { return Amount{} }

func AmountFromInt(v int64) Amount { return Amount{dec: decimal.NewFromInt(v)} }

func AmountFromFloat(v float64) Amount { return Amount{dec: decimal.NewFromFloat(v)} }

func AmountFromDecimal(d decimal.Decimal) Amount { return Amount{dec: d} }

// ParseAmount converts s to an Amount. Leading/trailing whitespace is
// ignored; anything that is not a plain decimal number yields zero.
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}
	}
	return Amount{dec: d}
}

func (a Amount) Decimal() decimal.Decimal { return a.dec }

func (a Amount) Add(b Amount) Amount { return Amount{dec: a.dec.Add(b.dec)} }

func (a Amount) Sub(b Amount) Amount { return Amount{dec: a.dec.Sub(b.dec)} }

func (a Amount) Mul(b Amount) Amount { return Amount{dec: a.dec.Mul(b.dec)} }

// Percent returns a×rate/100.
func (a Amount) Percent(rate Amount) Amount {
	return Amount{dec: a.dec.Mul(rate.dec).Div(hundred)}
}

// Half returns one half of a. The second half is obtained by
// subtraction so the two always sum back to a exactly.
func (a Amount) Half() Amount { return Amount{dec: a.dec.Div(two)} }

// ClampNonNegative returns a, or zero when a is negative.
func (a Amount) ClampNonNegative() Amount {
	if a.dec.Sign() < 0 {
		return Amount{}
	}
	return a
}

func (a Amount) IsZero() bool { return a.dec.IsZero() }

func (a Amount) Sign() int { return a.dec.Sign() }

func (a Amount) Equal(b Amount) bool { return a.dec.Equal(b.dec) }

func (a Amount) Cmp(b Amount) int { return a.dec.Cmp(b.dec) }

func (a Amount) Float64() float64 {
	f, _ := a.dec.Float64()
	return f
}

func (a Amount) String() string { return a.dec.String() }

// StringFixed renders with a fixed number of decimal places.
func (a Amount) StringFixed(places int32) string { return a.dec.StringFixed(places) }

// MarshalJSON writes the amount as a bare JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.dec.String()), nil
}

// UnmarshalJSON accepts a number or a numeric string; null, empty
// strings, and garbage decode to zero. It never returns an error.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if s == "" || s == "null" {
		a.dec = decimal.Decimal{}
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	*a = ParseAmount(s)
	return nil
}
