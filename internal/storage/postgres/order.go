package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rpstreef/screencloud-challenge/internal/domain/geo"
	"github.com/rpstreef/screencloud-challenge/internal/domain/measure"
	"github.com/rpstreef/screencloud-challenge/internal/domain/money"
	"github.com/rpstreef/screencloud-challenge/internal/domain/order"
)

const (
	getOrderSQL = `SELECT order_number, product_id, quantity, shipping_latitude, shipping_longitude,
			total_price_cents, discount_percentage, shipping_cost_cents, submitted_at
		FROM orders WHERE order_number = $1`

	listOrderLinesSQL = `SELECT warehouse_id, quantity, distance_km, weight_grams, cost_cents
		FROM order_lines WHERE order_number = $1 ORDER BY position`

	insertOrderSQL = `INSERT INTO orders (order_number, product_id, quantity, shipping_latitude, shipping_longitude,
			total_price_cents, discount_percentage, shipping_cost_cents, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	insertOrderLineSQL = `INSERT INTO order_lines (order_number, position, warehouse_id, quantity,
			distance_km, weight_grams, cost_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// FindByNumber returns a committed order together with its lines.
func (r *OrderRepository) FindByNumber(ctx context.Context, number string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, number)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", number, mapError(err))
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[orderRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", number, mapError(err))
	}

	rows, err = r.pool.Query(ctx, listOrderLinesSQL, number)
	if err != nil {
		return nil, fmt.Errorf("getting order %q lines: %w", number, mapError(err))
	}
	lines, err := pgx.CollectRows(rows, scanOrderLine)
	if err != nil {
		return nil, fmt.Errorf("getting order %q lines: %w", number, mapError(err))
	}

	return row.toOrder(lines)
}

type orderRow struct {
	Number             string
	ProductID          string
	Quantity           int
	Latitude           decimal.Decimal
	Longitude          decimal.Decimal
	TotalPriceCents    int64
	DiscountPercentage int
	ShippingCostCents  int64
	SubmittedAt        time.Time
}

func (r orderRow) toOrder(lines []order.Line) (*order.Order, error) {
	dest, err := geo.NewCoordinates(r.Latitude.InexactFloat64(), r.Longitude.InexactFloat64())
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", r.Number, err)
	}
	return order.New(
		r.Number,
		r.ProductID,
		r.Quantity,
		dest,
		money.FromCents(r.TotalPriceCents),
		r.DiscountPercentage,
		money.FromCents(r.ShippingCostCents),
		r.SubmittedAt,
		lines,
	)
}

func scanOrderLine(row pgx.CollectableRow) (order.Line, error) {
	var (
		l           order.Line
		distanceKm  float64
		weightGrams int64
		costCents   int64
	)
	if err := row.Scan(&l.WarehouseID, &l.Quantity, &distanceKm, &weightGrams, &costCents); err != nil {
		return order.Line{}, err
	}
	d, err := measure.NewDistance(distanceKm)
	if err != nil {
		return order.Line{}, err
	}
	w, err := measure.NewWeight(weightGrams)
	if err != nil {
		return order.Line{}, err
	}
	l.Distance = d
	l.Weight = w
	l.Cost = money.FromCents(costCents)
	return l, nil
}
