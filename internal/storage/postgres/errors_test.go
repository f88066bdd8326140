package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpstreef/screencloud-challenge/internal/domain/order"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "duplicate order", err: &pgconn.PgError{Code: codeUniqueViolation, TableName: "orders"}, want: order.ErrDuplicateOrder},
		{name: "check violation", err: &pgconn.PgError{Code: codeCheckViolation, TableName: "warehouses"}, want: order.ErrStockConflict},
		{name: "missing warehouse", err: &pgconn.PgError{Code: codeForeignKeyViolation}, want: order.ErrStockConflict},
		{name: "admin shutdown", err: &pgconn.PgError{Code: codeAdminShutdown}, want: order.ErrUnavailable},
		{name: "connection exception", err: &pgconn.PgError{Code: "08006"}, want: order.ErrUnavailable},
		{name: "deadline", err: errors.Wrap(context.DeadlineExceeded, "query"), want: order.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err)
			require.ErrorIs(t, got, tt.want)
			require.ErrorIs(t, got, tt.err, "driver error must stay in the chain")
		})
	}
}

func TestMapError_PassThrough(t *testing.T) {
	assert.NoError(t, mapError(nil))

	serialization := &pgconn.PgError{Code: codeSerializationFailure}
	assert.Same(t, serialization, mapError(serialization))

	business := &order.InsufficientStockError{Requested: 2, Available: 1}
	assert.Same(t, business, mapError(business))

	unique := &pgconn.PgError{Code: codeUniqueViolation, TableName: "warehouses"}
	assert.Same(t, unique, mapError(unique))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&pgconn.PgError{Code: codeSerializationFailure}))
	assert.True(t, isRetryable(errors.Wrap(&pgconn.PgError{Code: codeDeadlockDetected}, "commit")))
	assert.False(t, isRetryable(&pgconn.PgError{Code: codeUniqueViolation}))
	assert.False(t, isRetryable(order.ErrStockConflict))
}

func TestBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	for attempt := range 4 {
		wait := backoff(attempt, base)
		floor := time.Duration(1<<attempt) * base
		assert.GreaterOrEqual(t, wait, floor)
		assert.Less(t, wait, floor+floor/5+1)
	}
	assert.Zero(t, backoff(0, 0))
}
