package product

import (
	"slices"

	"github.com/go-faster/errors"

	"github.com/rpstreef/screencloud-challenge/internal/domain/measure"
	"github.com/rpstreef/screencloud-challenge/internal/domain/money"
)

// ErrInvalidTier is returned when a discount tier is malformed.
var ErrInvalidTier = errors.New("invalid discount tier")

// Upper bounds on unit price and weight. Both are multiplied by quantities up
// to math.MaxInt32 and must stay within int64.
const (
	MaxUnitPriceCents  = 1_000_000_00
	MaxUnitWeightGrams = 1_000_000
)

// Tier is one row of the volume discount table: orders of at least
// MinQuantity units get Percentage percent off.
type Tier struct {
	MinQuantity int
	Percentage  int
}

// Product is the single item sold by the service. It is built once at startup
// and never modified.
type Product struct {
	id         string
	name       string
	unitPrice  money.Money
	unitWeight measure.Weight
	tiers      []Tier
}

// New validates the discount table and returns a Product. Tiers are copied
// and sorted by MinQuantity descending; a zero-minimum base tier with no
// discount is appended when missing so that every quantity matches a tier.
// A larger order never gets a smaller discount, and the base tier is always 0%.
func New(id, name string, unitPrice money.Money, unitWeight measure.Weight, tiers []Tier) (*Product, error) {
	if id == "" {
		return nil, errors.New("product id required")
	}
	if unitPrice.IsNegative() || unitPrice.Cents() > MaxUnitPriceCents {
		return nil, errors.Errorf("unit price %s out of range", unitPrice)
	}
	if unitWeight.Grams() > MaxUnitWeightGrams {
		return nil, errors.Errorf("unit weight %s exceeds %d g", unitWeight, MaxUnitWeightGrams)
	}

	sorted := slices.Clone(tiers)
	slices.SortFunc(sorted, func(a, b Tier) int { return b.MinQuantity - a.MinQuantity })

	for i, t := range sorted {
		if t.MinQuantity < 0 {
			return nil, errors.Wrapf(ErrInvalidTier, "negative minimum quantity %d", t.MinQuantity)
		}
		if t.Percentage < 0 || t.Percentage > 100 {
			return nil, errors.Wrapf(ErrInvalidTier, "percentage %d out of range", t.Percentage)
		}
		if i > 0 && sorted[i-1].MinQuantity == t.MinQuantity {
			return nil, errors.Wrapf(ErrInvalidTier, "duplicate minimum quantity %d", t.MinQuantity)
		}
		if i > 0 && sorted[i-1].Percentage < t.Percentage {
			return nil, errors.Wrapf(ErrInvalidTier, "%d%% from %d units exceeds %d%% from %d units",
				t.Percentage, t.MinQuantity, sorted[i-1].Percentage, sorted[i-1].MinQuantity)
		}
		if t.MinQuantity == 0 && t.Percentage != 0 {
			return nil, errors.Wrapf(ErrInvalidTier, "base tier discount must be 0, got %d", t.Percentage)
		}
	}
	if len(sorted) == 0 || sorted[len(sorted)-1].MinQuantity != 0 {
		sorted = append(sorted, Tier{MinQuantity: 0, Percentage: 0})
	}

	return &Product{
		id:         id,
		name:       name,
		unitPrice:  unitPrice,
		unitWeight: unitWeight,
		tiers:      sorted,
	}, nil
}

func (p *Product) ID() string                 { return p.id }
func (p *Product) Name() string               { return p.name }
func (p *Product) UnitPrice() money.Money     { return p.unitPrice }
func (p *Product) UnitWeight() measure.Weight { return p.unitWeight }

// Tiers returns a copy of the discount table, highest threshold first.
func (p *Product) Tiers() []Tier {
	return slices.Clone(p.tiers)
}

// DiscountPercentage returns the volume discount for quantity. Non-positive
// quantities get no discount.
func (p *Product) DiscountPercentage(quantity int) int {
	if quantity <= 0 {
		return 0
	}
	for _, t := range p.tiers {
		if quantity >= t.MinQuantity {
			return t.Percentage
		}
	}
	return 0
}

// TotalPrice returns the discounted price of quantity units, rounded once on
// the final amount.
func (p *Product) TotalPrice(quantity int) money.Money {
	base := p.unitPrice.Mul(int64(quantity))
	total, err := base.ApplyDiscount(p.DiscountPercentage(quantity))
	if err != nil {
		// Percentages are validated in New.
		panic(err)
	}
	return total
}

// TotalWeight returns the weight of quantity units. Non-positive quantities
// weigh nothing.
func (p *Product) TotalWeight(quantity int) measure.Weight {
	w, err := p.unitWeight.Mul(max(quantity, 0))
	if err != nil {
		panic(err)
	}
	return w
}
