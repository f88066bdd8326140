package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rpstreef/screencloud-challenge/internal/domain/geo"
	"github.com/rpstreef/screencloud-challenge/internal/domain/warehouse"
)

const (
	listWarehousesSQL = `SELECT id, name, latitude, longitude, stock
		FROM warehouses ORDER BY seq`

	lockWarehousesSQL = `SELECT id, name, latitude, longitude, stock
		FROM warehouses ORDER BY seq FOR UPDATE`

	upsertWarehouseSQL = `INSERT INTO warehouses (id, name, latitude, longitude, stock)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			stock = EXCLUDED.stock,
			updated_at = now()`
)

var _ warehouse.Repository = (*WarehouseRepository)(nil)

// WarehouseRepository implements warehouse.Repository backed by PostgreSQL.
type WarehouseRepository struct {
	pool *pgxpool.Pool
}

// NewWarehouseRepository returns a WarehouseRepository that uses the given pool.
func NewWarehouseRepository(pool *pgxpool.Pool) *WarehouseRepository {
	return &WarehouseRepository{pool: pool}
}

// List returns the current warehouse snapshot.
func (r *WarehouseRepository) List(ctx context.Context) ([]warehouse.Warehouse, error) {
	rows, err := r.pool.Query(ctx, listWarehousesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing warehouses: %w", mapError(err))
	}
	ws, err := pgx.CollectRows(rows, scanWarehouse)
	if err != nil {
		return nil, fmt.Errorf("listing warehouses: %w", mapError(err))
	}
	return ws, nil
}

// Upsert inserts warehouses or overwrites those with the same ID, in a single
// transaction.
func (r *WarehouseRepository) Upsert(ctx context.Context, ws []warehouse.Warehouse) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, w := range ws {
			batch.Queue(upsertWarehouseSQL,
				w.ID, w.Name,
				decimal.NewFromFloat(w.Location.Latitude()),
				decimal.NewFromFloat(w.Location.Longitude()),
				w.Stock,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upserting warehouses: %w", mapError(err))
		}
		return nil
	})
}

func scanWarehouse(row pgx.CollectableRow) (warehouse.Warehouse, error) {
	var (
		w        warehouse.Warehouse
		lat, lon decimal.Decimal
	)
	if err := row.Scan(&w.ID, &w.Name, &lat, &lon, &w.Stock); err != nil {
		return warehouse.Warehouse{}, err
	}
	loc, err := geo.NewCoordinates(lat.InexactFloat64(), lon.InexactFloat64())
	if err != nil {
		return warehouse.Warehouse{}, fmt.Errorf("warehouse %s: %w", w.ID, err)
	}
	w.Location = loc
	return w, nil
}
