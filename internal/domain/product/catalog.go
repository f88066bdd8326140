package product

import (
	"github.com/rpstreef/screencloud-challenge/internal/domain/measure"
	"github.com/rpstreef/screencloud-challenge/internal/domain/money"
)

// Reference catalogue entry.
const (
	DefaultID              = "SCOS_P1_PRO"
	DefaultName            = "SCOS Station P1 Pro"
	DefaultUnitPriceCents  = 150_00
	DefaultUnitWeightGrams = 365
)

// DefaultTiers is the volume discount table of the reference product.
func DefaultTiers() []Tier {
	return []Tier{
		{MinQuantity: 250, Percentage: 20},
		{MinQuantity: 100, Percentage: 15},
		{MinQuantity: 50, Percentage: 10},
		{MinQuantity: 25, Percentage: 5},
		{MinQuantity: 0, Percentage: 0},
	}
}

// Default returns the reference product.
func Default() *Product {
	p, err := New(
		DefaultID,
		DefaultName,
		money.FromCents(DefaultUnitPriceCents),
		measure.MustWeight(DefaultUnitWeightGrams),
		DefaultTiers(),
	)
	if err != nil {
		panic(err)
	}
	return p
}
