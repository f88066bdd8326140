package order

import "github.com/rpstreef/screencloud-challenge/internal/domain/money"

// DefaultMaxShippingPercent is the largest share of the discounted price that
// shipping may cost.
const DefaultMaxShippingPercent = 15

// Validator applies the shipping cost ratio rule.
type Validator struct {
	maxPercent int
}

// NewValidator returns a Validator allowing shipping up to maxPercent of the
// order price.
func NewValidator(maxPercent int) *Validator {
	return &Validator{maxPercent: maxPercent}
}

// Limit returns the largest acceptable shipping cost for price.
func (v *Validator) Limit(price money.Money) money.Money {
	return price.Percent(v.maxPercent)
}

// IsValid reports whether shipping is within the ceiling. A non-positive price
// is never valid.
func (v *Validator) IsValid(price, shipping money.Money) bool {
	if !price.IsPositive() {
		return false
	}
	return shipping.LessThanOrEqual(v.Limit(price))
}
