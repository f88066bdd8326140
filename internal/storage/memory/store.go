// Package memory implements the storage contracts in process memory.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"

	"github.com/rpstreef/screencloud-challenge/internal/domain/order"
	"github.com/rpstreef/screencloud-challenge/internal/domain/warehouse"
)

var (
	_ warehouse.Repository = (*Store)(nil)
	_ order.Repository     = (*Store)(nil)
	_ order.Transactor     = (*Store)(nil)
)

// Store keeps warehouses and orders in memory. Units of work are serialised
// and staged on a copy, so a failed commit leaves no trace.
type Store struct {
	mu         sync.RWMutex
	warehouses []warehouse.Warehouse
	orders     map[string]*order.Order
}

// New returns a Store holding the given warehouses.
func New(ws ...warehouse.Warehouse) *Store {
	s := &Store{orders: make(map[string]*order.Order)}
	s.warehouses = upsert(nil, ws)
	return s
}

// List returns a copy of the current warehouse snapshot in insertion order.
func (s *Store) List(ctx context.Context) ([]warehouse.Warehouse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.warehouses), nil
}

// Upsert inserts warehouses or replaces those with a matching ID.
func (s *Store) Upsert(ctx context.Context, ws []warehouse.Warehouse) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.warehouses = upsert(s.warehouses, ws)
	return nil
}

// FindByNumber returns a copy of a committed order.
func (s *Store) FindByNumber(ctx context.Context, number string) (*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[number]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

// InTx runs fn with exclusive access to the store. Changes made through the
// tx are published only if fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{
		store:      s,
		warehouses: slices.Clone(s.warehouses),
	}
	if err := fn(ctx, t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.warehouses = t.warehouses
	for _, o := range t.orders {
		s.orders[o.Number] = o
	}
	return nil
}

type tx struct {
	store      *Store
	warehouses []warehouse.Warehouse
	orders     []*order.Order
}

func (t *tx) Warehouses(ctx context.Context) ([]warehouse.Warehouse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(t.warehouses), nil
}

func (t *tx) Apply(ctx context.Context, o *order.Order, deltas []warehouse.StockDelta) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := t.store.orders[o.Number]; ok {
		return order.ErrDuplicateOrder
	}
	for _, pending := range t.orders {
		if pending.Number == o.Number {
			return order.ErrDuplicateOrder
		}
	}

	staged := slices.Clone(t.warehouses)
	for _, d := range deltas {
		i := slices.IndexFunc(staged, func(w warehouse.Warehouse) bool { return w.ID == d.WarehouseID })
		if i < 0 {
			return errors.Wrapf(order.ErrStockConflict, "warehouse %s not found", d.WarehouseID)
		}
		if staged[i].Stock+d.Change < 0 {
			return errors.Wrapf(order.ErrStockConflict, "warehouse %s has %d units", d.WarehouseID, staged[i].Stock)
		}
		staged[i].Stock += d.Change
	}

	t.warehouses = staged
	t.orders = append(t.orders, cloneOrder(o))
	return nil
}

func upsert(dst, src []warehouse.Warehouse) []warehouse.Warehouse {
	for _, w := range src {
		i := slices.IndexFunc(dst, func(e warehouse.Warehouse) bool { return e.ID == w.ID })
		if i < 0 {
			dst = append(dst, w)
			continue
		}
		dst[i] = w
	}
	return dst
}

func cloneOrder(o *order.Order) *order.Order {
	c := *o
	c.Lines = slices.Clone(o.Lines)
	return &c
}
