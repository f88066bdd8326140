package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/rpstreef/screencloud-challenge/internal/domain/geo"
	"github.com/rpstreef/screencloud-challenge/internal/domain/measure"
	"github.com/rpstreef/screencloud-challenge/internal/domain/money"
	"github.com/rpstreef/screencloud-challenge/internal/domain/warehouse"
)

// Order is a committed customer order. It is built only after every business
// rule has passed and is never modified afterwards.
type Order struct {
	Number             string
	ProductID          string
	Quantity           int
	Destination        geo.Coordinates
	TotalPrice         money.Money
	DiscountPercentage int
	ShippingCost       money.Money
	SubmittedAt        time.Time
	Lines              []Line
}

// Line records how many units of an order one warehouse shipped.
type Line struct {
	WarehouseID string
	Quantity    int
	Distance    measure.Distance
	Weight      measure.Weight
	Cost        money.Money
}

// New validates and returns an Order. Lines are copied.
func New(
	number, productID string,
	quantity int,
	destination geo.Coordinates,
	totalPrice money.Money,
	discountPercentage int,
	shippingCost money.Money,
	submittedAt time.Time,
	lines []Line,
) (*Order, error) {
	switch {
	case number == "":
		return nil, errors.New("order number required")
	case quantity <= 0:
		return nil, errors.Errorf("quantity must be positive, got %d", quantity)
	case discountPercentage < 0 || discountPercentage > 100:
		return nil, errors.Errorf("discount percentage out of range: %d", discountPercentage)
	}
	return &Order{
		Number:             number,
		ProductID:          productID,
		Quantity:           quantity,
		Destination:        destination,
		TotalPrice:         totalPrice,
		DiscountPercentage: discountPercentage,
		ShippingCost:       shippingCost,
		SubmittedAt:        submittedAt.UTC(),
		Lines:              append([]Line(nil), lines...),
	}, nil
}

// StockDeltas returns one negative stock change per line.
func (o *Order) StockDeltas() []warehouse.StockDelta {
	deltas := make([]warehouse.StockDelta, 0, len(o.Lines))
	for _, l := range o.Lines {
		deltas = append(deltas, warehouse.StockDelta{WarehouseID: l.WarehouseID, Change: -l.Quantity})
	}
	return deltas
}

// Tx is the view of storage available inside a commit's unit of work.
type Tx interface {
	// Warehouses reads the warehouse snapshot, locking the rows for the
	// lifetime of the unit of work where the store supports it.
	Warehouses(ctx context.Context) ([]warehouse.Warehouse, error)
	// Apply persists the order and applies the stock deltas. Either both
	// become visible or neither does.
	Apply(ctx context.Context, o *Order, deltas []warehouse.StockDelta) error
}

// Transactor runs fn in a single atomic unit of work. If fn returns an error
// nothing it did through tx becomes visible.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Repository provides read access to committed orders.
type Repository interface {
	FindByNumber(ctx context.Context, number string) (*Order, error)
}
