package postgres

import (
	"fmt"
	"net"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rpstreef/screencloud-challenge/internal/domain/order"
)

// PostgreSQL error codes.
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeAdminShutdown        = "57P01"
	codeCannotConnectNow     = "57P03"
)

// mapError translates driver errors into the storage sentinels of the order
// package. Retryable transaction errors are returned as is so the transactor
// can see them.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation && pgErr.TableName == "orders":
			return fmt.Errorf("%w: %w", order.ErrDuplicateOrder, err)
		case pgErr.Code == codeCheckViolation, pgErr.Code == codeForeignKeyViolation:
			return fmt.Errorf("%w: %w", order.ErrStockConflict, err)
		case pgErr.Code == codeAdminShutdown, pgErr.Code == codeCannotConnectNow,
			len(pgErr.Code) == 5 && pgErr.Code[:2] == "08":
			return fmt.Errorf("%w: %w", order.ErrUnavailable, err)
		}
		return err
	}

	var (
		connErr *pgconn.ConnectError
		netErr  net.Error
	)
	if errors.As(err, &connErr) || errors.As(err, &netErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", order.ErrUnavailable, err)
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	default:
		return false
	}
}
