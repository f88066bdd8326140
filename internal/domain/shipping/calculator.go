// Package shipping prices the transport of goods between two points.
package shipping

import (
	"github.com/shopspring/decimal"

	"github.com/rpstreef/screencloud-challenge/internal/domain/geo"
	"github.com/rpstreef/screencloud-challenge/internal/domain/measure"
	"github.com/rpstreef/screencloud-challenge/internal/domain/money"
)

// DefaultRate is the shipping price in dollars per kilogram per kilometer.
var DefaultRate = decimal.RequireFromString("0.01")

// MaxRate bounds configurable rates so that a full order of the heaviest
// product over the longest leg stays within int64 cents.
var MaxRate = decimal.NewFromInt(1)

// Calculator prices a shipment linearly in weight and distance.
type Calculator struct {
	rate decimal.Decimal
}

// NewCalculator returns a Calculator charging rate dollars per kg per km.
func NewCalculator(rate decimal.Decimal) *Calculator {
	return &Calculator{rate: rate}
}

// Rate returns the configured dollars per kg per km.
func (c *Calculator) Rate() decimal.Decimal {
	return c.rate
}

// LegCost returns the distance between from and to and the cost of carrying w
// over it. The cost is rounded to the nearest cent. A zero distance or a zero
// weight costs exactly nothing.
func (c *Calculator) LegCost(from, to geo.Coordinates, w measure.Weight) (measure.Distance, money.Money) {
	d := geo.Distance(from, to)
	if d.IsZero() || w.IsZero() {
		return d, money.Zero
	}

	dollars := w.Kilograms().
		Mul(decimal.NewFromFloat(d.Kilometers())).
		Mul(c.rate)
	return d, money.FromDollars(dollars)
}

// TotalCost sums the given leg costs.
func TotalCost(costs ...money.Money) money.Money {
	total := money.Zero
	for _, c := range costs {
		total = total.Add(c)
	}
	return total
}
