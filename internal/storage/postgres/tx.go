package postgres

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rpstreef/screencloud-challenge/internal/domain/order"
	"github.com/rpstreef/screencloud-challenge/internal/domain/warehouse"
)

const applyStockDeltaSQL = `UPDATE warehouses SET stock = stock + $2, updated_at = now()
	WHERE id = $1 AND stock + $2 >= 0`

var _ order.Transactor = (*Transactor)(nil)

// Transactor runs units of work in SERIALIZABLE transactions. Serialization
// failures and deadlocks are retried with exponential backoff; once retries
// are exhausted the failure is reported as order.ErrStockConflict.
type Transactor struct {
	pool       *pgxpool.Pool
	maxRetries int
	retryBase  time.Duration
}

// NewTransactor returns a Transactor retrying at most maxRetries times,
// waiting retryBase before the first retry and doubling after each.
func NewTransactor(pool *pgxpool.Pool, maxRetries int, retryBase time.Duration) *Transactor {
	return &Transactor{pool: pool, maxRetries: maxRetries, retryBase: retryBase}
}

// InTx implements order.Transactor.
func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	lg := zctx.From(ctx)
	for attempt := 0; ; attempt++ {
		err := t.run(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return mapError(err)
		}
		if attempt >= t.maxRetries {
			lg.Warn("Transaction retries exhausted", zap.Int("attempts", attempt+1), zap.Error(err))
			return fmt.Errorf("%w: %d attempts: %w", order.ErrStockConflict, attempt+1, err)
		}

		wait := backoff(attempt, t.retryBase)
		lg.Debug("Retrying transaction",
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// run executes one attempt. Rollback after a successful commit is a no-op.
func (t *Transactor) run(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	pgxTx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if err := pgxTx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			zctx.From(ctx).Warn("Rollback failed", zap.Error(err))
		}
	}()

	if err := fn(ctx, &tx{tx: pgxTx}); err != nil {
		return err
	}
	return pgxTx.Commit(ctx)
}

func backoff(attempt int, base time.Duration) time.Duration {
	wait := time.Duration(1<<attempt) * base
	if jitter := int64(wait / 5); jitter > 0 {
		wait += time.Duration(rand.Int64N(jitter))
	}
	return wait
}

type tx struct {
	tx pgx.Tx
}

// Warehouses reads and locks every warehouse row.
func (t *tx) Warehouses(ctx context.Context) ([]warehouse.Warehouse, error) {
	rows, err := t.tx.Query(ctx, lockWarehousesSQL)
	if err != nil {
		return nil, mapError(err)
	}
	ws, err := pgx.CollectRows(rows, scanWarehouse)
	if err != nil {
		return nil, mapError(err)
	}
	return ws, nil
}

// Apply inserts the order and its lines and applies the stock deltas in one
// batch. A delta that would take stock below zero fails the whole batch.
func (t *tx) Apply(ctx context.Context, o *order.Order, deltas []warehouse.StockDelta) error {
	batch := &pgx.Batch{}
	batch.Queue(insertOrderSQL,
		o.Number,
		o.ProductID,
		o.Quantity,
		decimal.NewFromFloat(o.Destination.Latitude()),
		decimal.NewFromFloat(o.Destination.Longitude()),
		o.TotalPrice.Cents(),
		o.DiscountPercentage,
		o.ShippingCost.Cents(),
		o.SubmittedAt,
	)
	for _, d := range deltas {
		batch.Queue(applyStockDeltaSQL, d.WarehouseID, d.Change).Exec(func(ct pgconn.CommandTag) error {
			if ct.RowsAffected() == 0 {
				return fmt.Errorf("%w: warehouse %s cannot apply %d", order.ErrStockConflict, d.WarehouseID, d.Change)
			}
			return nil
		})
	}
	for i, l := range o.Lines {
		batch.Queue(insertOrderLineSQL,
			o.Number,
			i,
			l.WarehouseID,
			l.Quantity,
			l.Distance.Kilometers(),
			l.Weight.Grams(),
			l.Cost.Cents(),
		)
	}

	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return mapError(err)
	}
	return nil
}
