// Package money provides an exact monetary amount stored in minor currency
// units (cents).
package money

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrDivideByZero is returned by Div when the divisor is zero.
	ErrDivideByZero = errors.New("money: divide by zero")
	// ErrInvalidPercentage is returned when a percentage is outside [0, 100].
	ErrInvalidPercentage = errors.New("money: percentage must be between 0 and 100")
)

var hundred = decimal.NewFromInt(100)

// Zero is the zero amount.
var Zero = Money{}

// Money is an amount in cents. Every operation that involves a fractional
// factor rounds the result to the nearest cent (half away from zero), so the
// stored value is always an integer.
type Money struct {
	cents int64
}

// FromCents returns an amount of the given number of cents.
func FromCents(cents int64) Money {
	return Money{cents: cents}
}

// FromDollars converts a dollar amount to Money, rounding to the nearest cent.
func FromDollars(d decimal.Decimal) Money {
	return fromDecimalCents(d.Shift(2))
}

func fromDecimalCents(d decimal.Decimal) Money {
	return Money{cents: d.Round(0).IntPart()}
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 {
	return m.cents
}

// Dollars returns the exact amount in major units.
func (m Money) Dollars() decimal.Decimal {
	return decimal.New(m.cents, -2)
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{cents: m.cents + o.cents}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{cents: m.cents - o.cents}
}

// Mul returns m scaled by an integer factor. No rounding is involved.
func (m Money) Mul(n int64) Money {
	return Money{cents: m.cents * n}
}

// MulDecimal returns m scaled by factor, rounded to the nearest cent.
func (m Money) MulDecimal(factor decimal.Decimal) Money {
	return fromDecimalCents(decimal.NewFromInt(m.cents).Mul(factor))
}

// Div returns m divided by n, rounded to the nearest cent.
func (m Money) Div(n int64) (Money, error) {
	if n == 0 {
		return Money{}, ErrDivideByZero
	}
	return fromDecimalCents(decimal.NewFromInt(m.cents).Div(decimal.NewFromInt(n))), nil
}

// Percent returns p percent of m, rounded to the nearest cent.
func (m Money) Percent(p int) Money {
	return fromDecimalCents(decimal.NewFromInt(m.cents).Mul(decimal.NewFromInt(int64(p))).Div(hundred))
}

// ApplyDiscount reduces m by p percent. The result is rounded once, on the
// discounted amount.
func (m Money) ApplyDiscount(p int) (Money, error) {
	if p < 0 || p > 100 {
		return Money{}, errors.Wrapf(ErrInvalidPercentage, "got %d", p)
	}
	return m.Percent(100 - p), nil
}

// Cmp compares m and o and returns -1, 0 or +1.
func (m Money) Cmp(o Money) int {
	switch {
	case m.cents < o.cents:
		return -1
	case m.cents > o.cents:
		return 1
	default:
		return 0
	}
}

func (m Money) Equal(o Money) bool           { return m.cents == o.cents }
func (m Money) LessThan(o Money) bool        { return m.cents < o.cents }
func (m Money) LessThanOrEqual(o Money) bool { return m.cents <= o.cents }
func (m Money) GreaterThan(o Money) bool     { return m.cents > o.cents }
func (m Money) IsZero() bool                 { return m.cents == 0 }
func (m Money) IsNegative() bool             { return m.cents < 0 }
func (m Money) IsPositive() bool             { return m.cents > 0 }

// String formats the amount as dollars, e.g. "$6750.00".
func (m Money) String() string {
	if m.cents < 0 {
		return "-$" + m.Dollars().Neg().StringFixed(2)
	}
	return "$" + m.Dollars().StringFixed(2)
}
