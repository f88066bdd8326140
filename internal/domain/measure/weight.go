// Package measure holds the physical quantities used by shipping: weight and
// distance.
package measure

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNegativeWeight is returned when an operation would produce a negative weight.
var ErrNegativeWeight = errors.New("weight cannot be negative")

// Weight is a non-negative mass in grams.
type Weight struct {
	grams int64
}

// NewWeight returns a Weight of the given number of grams.
func NewWeight(grams int64) (Weight, error) {
	if grams < 0 {
		return Weight{}, errors.Wrapf(ErrNegativeWeight, "got %d g", grams)
	}
	return Weight{grams: grams}, nil
}

// MustWeight is like NewWeight but panics on a negative value. It is meant for
// package-level constants.
func MustWeight(grams int64) Weight {
	w, err := NewWeight(grams)
	if err != nil {
		panic(err)
	}
	return w
}

func (w Weight) Grams() int64 { return w.grams }

// Kilograms returns the exact weight in kilograms.
func (w Weight) Kilograms() decimal.Decimal {
	return decimal.New(w.grams, -3)
}

func (w Weight) IsZero() bool { return w.grams == 0 }

func (w Weight) Add(o Weight) Weight {
	return Weight{grams: w.grams + o.grams}
}

// Sub returns w - o, failing if o is heavier than w.
func (w Weight) Sub(o Weight) (Weight, error) {
	return NewWeight(w.grams - o.grams)
}

// Mul scales w by a non-negative integer factor.
func (w Weight) Mul(n int) (Weight, error) {
	if n < 0 {
		return Weight{}, errors.Errorf("cannot multiply weight by negative factor %d", n)
	}
	return Weight{grams: w.grams * int64(n)}, nil
}

func (w Weight) String() string {
	return w.Kilograms().StringFixed(3) + " kg"
}
