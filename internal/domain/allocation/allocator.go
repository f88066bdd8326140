// Package allocation decides which warehouses ship how many units of an order.
package allocation

import (
	"cmp"
	"slices"

	"github.com/rpstreef/screencloud-challenge/internal/domain/geo"
	"github.com/rpstreef/screencloud-challenge/internal/domain/measure"
	"github.com/rpstreef/screencloud-challenge/internal/domain/money"
	"github.com/rpstreef/screencloud-challenge/internal/domain/shipping"
	"github.com/rpstreef/screencloud-challenge/internal/domain/warehouse"
)

// LegCoster prices carrying a weight between two points.
type LegCoster interface {
	LegCost(from, to geo.Coordinates, w measure.Weight) (measure.Distance, money.Money)
}

var _ LegCoster = (*shipping.Calculator)(nil)

// Leg is the part of an order shipped from one warehouse.
type Leg struct {
	WarehouseID string
	Quantity    int
	Distance    measure.Distance
	Weight      measure.Weight
	UnitCost    money.Money
	Cost        money.Money
}

// Result is an allocation plan. Legs are ordered cheapest first. An
// unfulfilled result still carries whatever could be allocated.
type Result struct {
	Legs      []Leg
	TotalCost money.Money
	Fulfilled bool
	Remaining int
}

// Allocated returns the number of units covered by the plan.
func (r Result) Allocated() int {
	n := 0
	for _, l := range r.Legs {
		n += l.Quantity
	}
	return n
}

// StockDeltas returns one negative delta per leg.
func (r Result) StockDeltas() []warehouse.StockDelta {
	deltas := make([]warehouse.StockDelta, 0, len(r.Legs))
	for _, l := range r.Legs {
		deltas = append(deltas, warehouse.StockDelta{
			WarehouseID: l.WarehouseID,
			Change:      -l.Quantity,
		})
	}
	return deltas
}

// Allocator fills orders greedily from the warehouse with the lowest
// per-unit shipping cost. Under a cost model linear in quantity this is
// cost-minimal.
type Allocator struct {
	coster LegCoster
}

// New returns an Allocator pricing legs with coster.
func New(coster LegCoster) *Allocator {
	return &Allocator{coster: coster}
}

type candidate struct {
	wh       warehouse.Warehouse
	distance measure.Distance
	unitCost money.Money
}

// Allocate plans shipping required units of a product weighing unitWeight each
// to dest. The snapshot is not modified.
func (a *Allocator) Allocate(
	required int,
	unitWeight measure.Weight,
	dest geo.Coordinates,
	snapshot []warehouse.Warehouse,
) Result {
	if required <= 0 {
		return Result{TotalCost: money.Zero, Fulfilled: true}
	}
	if unitWeight.IsZero() {
		// Shipping cannot be priced for a weightless product.
		return Result{TotalCost: money.Zero, Remaining: required}
	}

	candidates := make([]candidate, 0, len(snapshot))
	for _, wh := range snapshot {
		if wh.Stock <= 0 {
			continue
		}
		d, cost := a.coster.LegCost(wh.Location, dest, unitWeight)
		if cost.IsNegative() {
			continue
		}
		candidates = append(candidates, candidate{wh: wh, distance: d, unitCost: cost})
	}

	// Stable so that equal costs keep snapshot order.
	slices.SortStableFunc(candidates, func(x, y candidate) int {
		return cmp.Compare(x.unitCost.Cents(), y.unitCost.Cents())
	})

	res := Result{TotalCost: money.Zero}
	remaining := required
	for _, c := range candidates {
		if remaining == 0 {
			break
		}
		take := min(remaining, c.wh.Stock)
		cost := c.unitCost.Mul(int64(take))
		res.Legs = append(res.Legs, Leg{
			WarehouseID: c.wh.ID,
			Quantity:    take,
			Distance:    c.distance,
			Weight:      measure.MustWeight(unitWeight.Grams() * int64(take)),
			UnitCost:    c.unitCost,
			Cost:        cost,
		})
		res.TotalCost = res.TotalCost.Add(cost)
		remaining -= take
	}

	res.Remaining = max(remaining, 0)
	res.Fulfilled = res.Remaining == 0
	return res
}
