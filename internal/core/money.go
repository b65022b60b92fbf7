// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents. Conversion from and to decimal text
// goes through shopspring/decimal so no float rounding leaks into stored
// values.
package core

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest amount a single transaction may carry
// (10^15 whole units). Ledger totals stay far from the int64 range.
var MaxAmount = Money{Cents: 100_000_000_000_000_000}

// Decimals outside these bounds are rejected before rescaling, which would
// otherwise materialize 10^exponent.
const (
	maxIntDigits = 16
	minExponent  = -64
)

// Plain decimal input only: no sign, exponent or grouping.
var amountRe = regexp.MustCompile(`^\d{1,32}(?:[.,]\d{1,32})?$`)

// ParseAmount converts user input to Money with half-up rounding to cents.
//
// It accepts digits with an optional dot (12.34) or comma (12,34) decimal
// separator. Signs, exponents ("1e3") and thousands separators are
// rejected. Zero is allowed; amounts above MaxAmount are not.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,345") -> 1235 cents (rounds up)
//	ParseAmount("100000") -> 10000000 cents
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if !amountRe.MatchString(s) {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	m, err := MoneyFromDecimal(d)
	if err != nil {
		return Money{}, err
	}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// MoneyFromDecimal rounds d half-up to two fractional digits. Values with
// more integer digits than MaxAmount are rejected before any rescaling.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if int64(d.NumDigits())+int64(d.Exponent()) > maxIntDigits || d.Exponent() < minExponent {
		return Money{}, fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	cents := d.Round(2).Shift(2).IntPart()
	if cents > MaxAmount.Cents || cents < -MaxAmount.Cents {
		return Money{}, fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	return Money{Cents: cents}, nil
}

// Decimal returns the amount in whole currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with exactly two fractional digits, e.g. "125.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Add saturates at the int64 bounds instead of wrapping.
func (m Money) Add(o Money) Money {
	sum := m.Cents + o.Cents
	switch {
	case o.Cents > 0 && sum < m.Cents:
		return Money{Cents: math.MaxInt64}
	case o.Cents < 0 && sum > m.Cents:
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: sum}
}

// Sub saturates like Add.
func (m Money) Sub(o Money) Money {
	if o.Cents == math.MinInt64 {
		return m.Add(Money{Cents: math.MaxInt64}).Add(Money{Cents: 1})
	}
	return m.Add(Money{Cents: -o.Cents})
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}
