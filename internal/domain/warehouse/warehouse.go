package warehouse

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/rpstreef/screencloud-challenge/internal/domain/geo"
)

// ErrInvalidStock is returned when a warehouse is built with negative stock.
var ErrInvalidStock = errors.New("stock cannot be negative")

// Warehouse is a point-in-time view of a stocking location. Values are
// snapshots: stock changes only through StockDelta sets applied by storage.
type Warehouse struct {
	ID       string
	Name     string
	Location geo.Coordinates
	Stock    int
}

// New validates and returns a Warehouse.
func New(id, name string, location geo.Coordinates, stock int) (Warehouse, error) {
	if id == "" {
		return Warehouse{}, errors.New("warehouse id required")
	}
	if stock < 0 {
		return Warehouse{}, errors.Wrapf(ErrInvalidStock, "warehouse %s: %d", id, stock)
	}
	return Warehouse{ID: id, Name: name, Location: location, Stock: stock}, nil
}

// StockDelta is a signed change to a warehouse's stock level.
type StockDelta struct {
	WarehouseID string
	Change      int
}

// Repository provides read access to the current warehouse snapshot.
type Repository interface {
	List(ctx context.Context) ([]Warehouse, error)
}

// TotalStock sums the stock of all warehouses.
func TotalStock(ws []Warehouse) int {
	total := 0
	for _, w := range ws {
		total += w.Stock
	}
	return total
}
